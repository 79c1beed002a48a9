// Package session implements the test-session lifecycle manager. It
// owns the in-memory state document for the life of one process, merges
// control deltas onto it, fires the database/fixture/mock side effects,
// and persists the result through the state store.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/testbench/internal/log"
	"github.com/mesh-intelligence/testbench/internal/paths"
	"github.com/mesh-intelligence/testbench/internal/statefile"
	"github.com/mesh-intelligence/testbench/pkg/types"
)

// Provisioner extends the shared provisioner contract with the scratch
// name check teardown relies on.
type Provisioner interface {
	types.Provisioner

	// IsScratchDatabase reports whether name matches the scratch
	// pattern and is therefore safe to drop at session end.
	IsScratchDatabase(name string) bool
}

// Manager coordinates one process's view of the test session. All
// operations run sequentially; the mutex only guards against concurrent
// request handlers inside a single process.
type Manager struct {
	mu sync.Mutex

	cfg      types.Config
	store    *statefile.Store
	prov     Provisioner
	fixtures types.FixtureLoader
	mailers  types.MailerRegistry
	hooks    hookSet

	state types.StateDocument

	// conn is the live database binding; prevName remembers the name
	// bound before the session overrode it, for restore on end.
	conn     *types.ConnectionHandle
	prevName string
}

var _ types.Coordinator = (*Manager)(nil)

// NewManager wires the lifecycle manager to its collaborators.
func NewManager(cfg types.Config, store *statefile.Store, prov Provisioner, fixtures types.FixtureLoader, mailers types.MailerRegistry) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		cfg:      cfg,
		store:    store,
		prov:     prov,
		fixtures: fixtures,
		mailers:  mailers,
		hooks:    newHookSet(),
	}, nil
}

// IsRunningTests reports whether a test session is currently active,
// which is exactly the presence of the state file.
func (m *Manager) IsRunningTests() bool {
	return m.store.Exists()
}

// StartTestSession begins a brand-new session from the given delta and
// persists the resulting document. A start that names no database and
// does not ask for one still gets a scratch database, so the persisted
// document always carries the database field that marks it valid.
func (m *Manager) StartTestSession(delta types.Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store.Exists() {
		return &types.PreconditionError{Op: "startTestSession", Reason: "a test session is already running; end it first"}
	}

	m.fire(HookBeforeStart)

	// Fresh session: the fixtures audit list and any prior overrides
	// start from zero.
	m.state = types.StateDocument{}

	if delta.Database == "" && !delta.CreateDatabase {
		delta.CreateDatabase = true
	}

	if err := m.applyState(delta); err != nil {
		return err
	}
	m.state.SessionID = newSessionID()

	if err := m.store.Write(m.state); err != nil {
		return err
	}
	log.Infof("test session %s started, database %s", m.state.SessionID, m.state.Database)

	m.fire(HookAfterStart)
	return nil
}

// UpdateTestSession merges a delta onto the already-running session and
// re-persists. The fixtures audit list survives. Requires an active
// session.
func (m *Manager) UpdateTestSession(delta types.Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.store.Exists() {
		return &types.PreconditionError{Op: "updateTestSession"}
	}

	if err := m.loadLocked(); err != nil {
		return err
	}
	if err := m.applyState(delta); err != nil {
		return err
	}

	if err := m.store.Write(m.state); err != nil {
		return err
	}
	log.Debugf("test session %s updated", m.state.SessionID)
	return nil
}

// ApplyState runs the merge and side-effect engine without persisting,
// which is what a request-time load needs.
func (m *Manager) ApplyState(delta types.Delta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyState(delta)
}

// applyState is the core engine. Caller holds m.mu.
func (m *Manager) applyState(delta types.Delta) error {
	m.fire(HookBeforeApply)

	// Session activity is sampled before any side effect: provisioning
	// is allowed only while no session is persisted yet, and starting
	// provisions before the first write.
	active := m.store.Exists()

	m.state.Merge(delta)

	if err := m.bindDatabase(delta); err != nil {
		return err
	}
	if err := m.provisionDatabase(active); err != nil {
		return err
	}
	if err := m.loadFixture(); err != nil {
		return err
	}
	if err := m.validateMailer(); err != nil {
		return err
	}
	if err := m.validateDatetime(); err != nil {
		return err
	}

	m.fire(HookAfterApply)
	return nil
}

// bindDatabase establishes or switches the live database connection.
// The delta's database overrides the configured default target; an
// existing connection is only rebound when the requested name differs.
func (m *Manager) bindDatabase(delta types.Delta) error {
	target := delta.Database
	if m.conn == nil {
		if target == "" {
			target = m.cfg.Database
		}
		if target == "" {
			// Nothing to bind; provisioning may still create a
			// scratch database and bind to it.
			return nil
		}
		return m.rebind(target)
	}

	if target != "" && target != m.conn.Name {
		return m.rebind(target)
	}
	return nil
}

// rebind points the live connection at the named database, recording
// the first departure point so it can be restored later.
func (m *Manager) rebind(name string) error {
	prev := m.cfg.Database
	if m.conn != nil {
		prev = m.conn.Name
		if err := m.conn.DB.Close(); err != nil {
			return fmt.Errorf("close connection to %s: %w", m.conn.Name, err)
		}
		m.conn = nil
	}

	conn, err := m.prov.Connect(name)
	if err != nil {
		return err
	}
	m.conn = conn

	if m.prevName == "" && prev != "" && prev != name {
		m.prevName = prev
	}
	return nil
}

// provisionDatabase creates and binds a scratch database when the state
// asks for one. It only runs while no session is active: mid-session
// re-creation is deliberately disallowed. The one-shot keys are
// consumed whether or not provisioning succeeds.
func (m *Manager) provisionDatabase(active bool) (err error) {
	wanted := m.state.CreateDatabase
	template := m.state.CreateDatabaseTemplate
	m.state.CreateDatabase = false
	m.state.CreateDatabaseTemplate = ""

	if active || (!wanted && m.state.Database == "") {
		return nil
	}

	name := m.state.Database
	exists := false
	if name != "" {
		if exists, err = m.prov.DatabaseExists(name); err != nil {
			return err
		}
		// Binding in bindDatabase may already have materialized the
		// file; trust the live connection as proof of existence.
		if m.conn != nil && m.conn.Name == name {
			exists = true
		}
	}

	if name == "" || !exists {
		scratch, err := m.prov.CreateScratchDatabase()
		if err != nil {
			return err
		}
		if err := m.rebind(scratch); err != nil {
			return err
		}
		m.state.Database = scratch
		log.Infof("provisioned scratch database %s", scratch)
	} else if m.conn == nil || m.conn.Name != name {
		if err := m.rebind(name); err != nil {
			return err
		}
	}

	if template != "" {
		abs, err := paths.ValidateTemplatePath(m.cfg.TemplateDir, template)
		if err != nil {
			return err
		}
		if err := m.prov.ImportTemplate(m.conn, abs); err != nil {
			return err
		}
	}
	return m.prov.RunSchemaBuild(m.conn)
}

// loadFixture validates and loads a pending one-shot fixture, appending
// it to the audit list on success.
func (m *Manager) loadFixture() error {
	if m.state.Fixture == "" {
		return nil
	}
	fixture := m.state.Fixture

	if err := paths.ValidateFixturePath(m.cfg.ProjectRoot, fixture); err != nil {
		return err
	}
	if m.conn == nil {
		return &types.ValidationError{Field: "fixture", Reason: "no database bound to load the fixture into"}
	}

	if err := m.fixtures.LoadFixture(paths.FixtureAbs(m.cfg.ProjectRoot, fixture), m.conn); err != nil {
		return err
	}

	m.state.Fixtures = append(m.state.Fixtures, fixture)
	m.state.Fixture = ""
	log.Debugf("loaded fixture %s into %s", fixture, m.conn.Name)
	return nil
}

// validateMailer checks that a requested mock mailer type is known.
// Installing it is the application's responsibility.
func (m *Manager) validateMailer() error {
	if m.state.Mailer == "" {
		return nil
	}
	if !m.mailers.IsValidMailerType(m.state.Mailer) {
		return &types.ValidationError{Field: "mailer", Reason: fmt.Sprintf("unknown mailer type %q", m.state.Mailer)}
	}
	return nil
}

// validateDatetime checks the mocked wall-clock format.
func (m *Manager) validateDatetime() error {
	if m.state.Datetime == "" {
		return nil
	}
	if _, err := time.Parse(types.DatetimeLayout, m.state.Datetime); err != nil {
		return &types.ValidationError{Field: "datetime", Reason: fmt.Sprintf("%q does not match format %s", m.state.Datetime, types.DatetimeLayout)}
	}
	return nil
}

// LoadFromFile feeds the persisted session state through the apply
// path, so an unrelated request inherits the session's overrides. A
// missing state file means no session; that is not an error.
func (m *Manager) LoadFromFile() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadLocked()
}

// loadLocked implements LoadFromFile. Caller holds m.mu.
func (m *Manager) loadLocked() error {
	if !m.store.Exists() {
		return nil
	}

	doc, err := m.store.Read()
	if err != nil {
		return err
	}

	if err := m.applyState(doc.AsDelta()); err != nil {
		return fmt.Errorf("apply test session state from %s (remove the file manually if it is stale): %w", m.store.Path(), err)
	}

	// The audit list and session identity belong to the persisted
	// document, not to whatever this process accumulated.
	m.state.Fixtures = doc.Fixtures
	m.state.SessionID = doc.SessionID
	return nil
}

// EndTestSession tears the session down: drops the scratch database,
// restores the previous binding, and removes the state file. It is safe
// to call twice, and safe to call from two independent processes that
// both think they own cleanup.
func (m *Manager) EndTestSession() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fire(HookBeforeEnd)

	// Discover the session database even if this process never loaded
	// the session. A corrupt file cannot stop teardown.
	sessionDB := m.state.Database
	if sessionDB == "" && m.store.Exists() {
		if doc, err := m.store.Read(); err == nil {
			sessionDB = doc.Database
		}
	}
	if m.conn != nil {
		if sessionDB == "" {
			sessionDB = m.conn.Name
		}
		if err := m.conn.DB.Close(); err != nil {
			return fmt.Errorf("close session connection: %w", err)
		}
		m.conn = nil
	}

	if sessionDB != "" && m.prov.IsScratchDatabase(sessionDB) {
		if err := m.prov.DropDatabase(sessionDB); err != nil {
			return err
		}
	}

	if m.prevName != "" {
		conn, err := m.prov.Connect(m.prevName)
		if err != nil {
			return err
		}
		m.conn = conn
		m.prevName = ""
	}

	if err := m.store.Remove(); err != nil {
		return err
	}

	m.state = types.StateDocument{}
	m.fire(HookAfterEnd)
	return nil
}

// ResetDatabaseName rebinds the live connection to the database name
// recorded before provisioning began.
func (m *Manager) ResetDatabaseName() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.prevName == "" {
		return nil
	}
	name := m.prevName
	if err := m.rebind(name); err != nil {
		return err
	}
	m.prevName = ""
	return nil
}

// Clear empties the session's database tables and lets observers drop
// any request-scoped mock state. Requires an active session.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.store.Exists() {
		return &types.PreconditionError{Op: "clear"}
	}
	if m.conn == nil {
		if err := m.loadLocked(); err != nil {
			return err
		}
	}
	if m.conn == nil {
		return &types.PreconditionError{Op: "clear"}
	}

	if err := m.prov.EmptyDatabase(m.conn); err != nil {
		return err
	}
	m.fire(HookOnClear)
	return nil
}

// GetState returns a read-only copy of the current in-memory document.
func (m *Manager) GetState() types.StateDocument {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// StateFilePath returns the path of the backing state file, for
// diagnostics.
func (m *Manager) StateFilePath() string {
	return m.store.Path()
}

// Connection exposes the live database binding for application glue
// that needs to run queries against the session database.
func (m *Manager) Connection() *types.ConnectionHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

// Close releases this process's database connection without touching
// the session. Another process, or a later one, picks the session up
// from the state file.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn == nil {
		return nil
	}
	err := m.conn.DB.Close()
	m.conn = nil
	return err
}

// newSessionID generates a UUID v7 session identifier, falling back to
// v4 if v7 generation fails.
func newSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}
