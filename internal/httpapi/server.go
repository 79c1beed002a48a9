// Package httpapi exposes the test-session control plane over HTTP and
// provides the request-time loader middleware that makes every other
// request in the deployment inherit the session overrides.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/mesh-intelligence/testbench/internal/log"
	"github.com/mesh-intelligence/testbench/internal/session"
	"github.com/mesh-intelligence/testbench/pkg/types"
)

// Server routes the control-plane operations to the lifecycle manager.
type Server struct {
	mgr    *session.Manager
	router *mux.Router
}

// Option configures the Server instance.
type Option func(*Server)

// New creates the control-plane HTTP server for the given manager.
func New(mgr *session.Manager, opts ...Option) *Server {
	s := &Server{
		mgr:    mgr,
		router: mux.NewRouter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Browser-driven test runners call the control plane directly.
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})
	s.router.Use(c.Handler)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/testsession/start", s.handleStart).Methods(http.MethodPost)
	s.router.HandleFunc("/testsession/update", s.handleUpdate).Methods(http.MethodPost)
	s.router.HandleFunc("/testsession/end", s.handleEnd).Methods(http.MethodPost)
	s.router.HandleFunc("/testsession/clear", s.handleClear).Methods(http.MethodPost)
	s.router.HandleFunc("/testsession/state", s.handleState).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Middleware is the request-time loader: before the wrapped handler
// runs, any persisted test session is applied so the request sees the
// session's database and mocks. Nothing is persisted on this path.
func (s *Server) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.mgr.LoadFromFile(); err != nil {
			log.Errorf("request-time session load failed: %v", err)
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleStart begins a new session from form-encoded control values.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	delta, err := formDelta(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.mgr.StartTestSession(delta); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, http.StatusCreated, s.mgr.GetState())
}

// handleUpdate merges form-encoded control values onto the running
// session.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	delta, err := formDelta(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.mgr.UpdateTestSession(delta); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, http.StatusOK, s.mgr.GetState())
}

// handleEnd tears the running session down.
func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	if !s.mgr.IsRunningTests() {
		writeError(w, &types.PreconditionError{Op: "end"})
		return
	}
	if err := s.mgr.EndTestSession(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ended"})
}

// handleClear empties the session database tables.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.mgr.Clear(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

// handleState reports the current session document.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !s.mgr.IsRunningTests() {
		writeError(w, &types.PreconditionError{Op: "state"})
		return
	}
	if err := s.mgr.LoadFromFile(); err != nil {
		writeError(w, err)
		return
	}
	writeState(w, http.StatusOK, s.mgr.GetState())
}

// formDelta builds the typed delta from the request's form values. Only
// the first value per key is considered.
func formDelta(r *http.Request) (types.Delta, error) {
	if err := r.ParseForm(); err != nil {
		return types.Delta{}, &types.ValidationError{Field: "request", Reason: "malformed form input"}
	}
	values := make(map[string]string, len(r.Form))
	for key := range r.Form {
		values[key] = r.Form.Get(key)
	}
	return types.ParseDelta(values), nil
}

// writeState wraps the state document in the standard response shape.
func writeState(w http.ResponseWriter, status int, doc types.StateDocument) {
	writeJSON(w, status, map[string]any{"status": "ok", "state": doc})
}

// writeJSON serializes a response body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses: validation
// problems are the client's to fix, precondition failures are
// conflicts, everything else is the server's problem.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case types.IsValidationError(err):
		status = http.StatusUnprocessableEntity
	case types.IsPreconditionError(err):
		status = http.StatusConflict
	case types.IsCorruptStateError(err), types.IsConfigurationError(err):
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]any{"status": "error", "error": err.Error()})
}
