package types

// Coordinator defines the interface for driving a test session from
// embedding code. Callers start a session, merge updates onto it, and
// end it when the test run finishes; Close releases this process's
// database connection without touching the session itself.
type Coordinator interface {
	// IsRunningTests reports whether a session state file exists.
	IsRunningTests() bool

	// StartTestSession begins a new session from the given control
	// values and persists it. Fails if a session is already running.
	StartTestSession(delta Delta) error

	// UpdateTestSession merges control values onto the running
	// session and persists the result.
	UpdateTestSession(delta Delta) error

	// LoadFromFile applies any persisted session to this process.
	// A missing state file is not an error.
	LoadFromFile() error

	// EndTestSession tears the session down. Idempotent: ending an
	// already-ended session succeeds.
	EndTestSession() error

	// Clear deletes all rows from the session database while keeping
	// the session running.
	Clear() error

	// GetState returns a read-only copy of the session document.
	GetState() StateDocument

	// Close releases the process-local database connection.
	Close() error
}
