package types

import "database/sql"

// ConnectionHandle is the explicit value representing the live database
// binding. The lifecycle manager passes it around instead of mutating a
// process-wide global; Name is the database the handle is bound to.
type ConnectionHandle struct {
	DB   *sql.DB
	Name string
}

// Provisioner is the boundary to the database layer. Implementations
// create, probe, and tear down scratch databases and hand out
// connection handles.
type Provisioner interface {
	// Connect opens a connection to the named database, creating the
	// backing storage if needed.
	Connect(name string) (*ConnectionHandle, error)

	// DatabaseExists reports whether the named database already exists.
	DatabaseExists(name string) (bool, error)

	// CreateScratchDatabase provisions a fresh uniquely-named scratch
	// database and returns its name. The generated name must match the
	// scratch pattern or a ConfigurationError is returned.
	CreateScratchDatabase() (string, error)

	// ImportTemplate executes a SQL dump statement-by-statement against
	// the handle's database.
	ImportTemplate(handle *ConnectionHandle, path string) error

	// RunSchemaBuild (re)builds the baseline schema on the handle's
	// database.
	RunSchemaBuild(handle *ConnectionHandle) error

	// EmptyDatabase deletes all rows from the handle's database while
	// preserving its schema.
	EmptyDatabase(handle *ConnectionHandle) error

	// DropDatabase tears down the named scratch database. It refuses
	// names that do not match the scratch pattern and succeeds silently
	// when the database is already gone.
	DropDatabase(name string) error
}

// FixtureLoader loads a declarative fixture file into a database.
type FixtureLoader interface {
	LoadFixture(path string, handle *ConnectionHandle) error
}

// MailerRegistry answers whether a mailer type identifier names a known
// mock mail-sender implementation. Installation is the caller's job.
type MailerRegistry interface {
	IsValidMailerType(name string) bool
}
