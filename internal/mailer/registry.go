// Package mailer tracks the mock mail-sender types a test session may
// install. The session core only validates names; installing the mock
// is the application's job.
package mailer

import "sync"

// Built-in mock mailer type names, registered by default.
const (
	MockMailer        = "MockMailer"
	NullMailer        = "NullMailer"
	CaptureMailer     = "CaptureMailer"
	FailingMockMailer = "FailingMockMailer"
)

// Registry holds the set of known mock mailer type identifiers.
type Registry struct {
	mu    sync.RWMutex
	known map[string]bool
}

// NewRegistry creates a Registry seeded with the built-in mock mailer
// types.
func NewRegistry() *Registry {
	return &Registry{
		known: map[string]bool{
			MockMailer:        true,
			NullMailer:        true,
			CaptureMailer:     true,
			FailingMockMailer: true,
		},
	}
}

// Register adds a mailer type name. Extensions call this at startup to
// make their mocks addressable from a session delta.
func (r *Registry) Register(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.known[name] = true
}

// IsValidMailerType reports whether name identifies a known mock
// mail-sender implementation.
func (r *Registry) IsValidMailerType(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.known[name]
}
