// Package sqlite implements the database provisioner for testbench on
// SQLite. Each database is one file under the configured data
// directory; a scratch database is a uniquely-named disposable file.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/testbench/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

// scratchDigits is the exact number of random digits in a generated
// scratch-database name.
const scratchDigits = 7

// Provisioner creates, probes, and tears down databases backed by
// SQLite files in a single data directory.
type Provisioner struct {
	dataDir string
	prefix  string
	scratch *regexp.Regexp

	// randDigits can be overridden in tests to force a name.
	randDigits func() string
}

// NewProvisioner creates a Provisioner for the given config. The data
// directory is created if it does not exist.
func NewProvisioner(cfg types.Config) (*Provisioner, error) {
	if cfg.DataDir == "" {
		return nil, types.ErrDataDirEmpty
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	prefix := cfg.Prefix()
	pattern, err := regexp.Compile(fmt.Sprintf("^%stmpdb[0-9]{%d}$", regexp.QuoteMeta(prefix), scratchDigits))
	if err != nil {
		return nil, &types.ConfigurationError{Reason: fmt.Sprintf("bad database prefix %q: %v", prefix, err)}
	}

	return &Provisioner{
		dataDir: cfg.DataDir,
		prefix:  prefix,
		scratch: pattern,
		randDigits: func() string {
			// 1000000..9999999, always exactly seven digits.
			return fmt.Sprintf("%07d", rand.IntN(9000000)+1000000)
		},
	}, nil
}

// dbPath returns the file backing the named database.
func (p *Provisioner) dbPath(name string) string {
	return filepath.Join(p.dataDir, name+".db")
}

// IsScratchDatabase reports whether name matches the scratch-database
// pattern (prefix + tmpdb + exactly seven digits).
func (p *Provisioner) IsScratchDatabase(name string) bool {
	return p.scratch.MatchString(name)
}

// Connect opens a connection to the named database, creating the
// backing file on first use.
func (p *Provisioner) Connect(name string) (*types.ConnectionHandle, error) {
	if name == "" {
		return nil, &types.ConfigurationError{Reason: "database name must not be empty"}
	}

	db, err := sql.Open("sqlite", p.dbPath(name))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", name, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database %s: %w", name, err)
	}

	return &types.ConnectionHandle{DB: db, Name: name}, nil
}

// DatabaseExists reports whether the named database file is present.
func (p *Provisioner) DatabaseExists(name string) (bool, error) {
	_, err := os.Stat(p.dbPath(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("probe database %s: %w", name, err)
}

// CreateScratchDatabase provisions a fresh scratch database and returns
// its name. Generated names must match the scratch pattern exactly; a
// mismatch is a fatal ConfigurationError rather than something to
// paper over, since teardown relies on the pattern to recognize what it
// may drop.
func (p *Provisioner) CreateScratchDatabase() (string, error) {
	name := p.prefix + "tmpdb" + p.randDigits()
	if !p.IsScratchDatabase(name) {
		return "", &types.ConfigurationError{
			Reason: fmt.Sprintf("generated scratch database name %q does not match %s", name, p.scratch.String()),
		}
	}

	// Materialize the backing file so DatabaseExists sees it even
	// before anything connects.
	f, err := os.OpenFile(p.dbPath(name), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create scratch database %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("create scratch database %s: %w", name, err)
	}

	return name, nil
}

// ImportTemplate executes a SQL dump statement-by-statement against the
// handle's database. The whole dump applies in one transaction.
func (p *Provisioner) ImportTemplate(handle *types.ConnectionHandle, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read template %s: %w", path, err)
	}

	stmts := splitStatements(string(data))
	if len(stmts) == 0 {
		return nil
	}

	tx, err := handle.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin template import: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("import template %s: %q: %w", path, stmt, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit template import: %w", err)
	}
	return nil
}

// RunSchemaBuild (re)builds the baseline schema on the handle's
// database. The schema uses IF NOT EXISTS throughout, so re-running
// after a template import only fills in what the dump left out.
func (p *Provisioner) RunSchemaBuild(handle *types.ConnectionHandle) error {
	if _, err := handle.DB.Exec(schemaSQL); err != nil {
		return fmt.Errorf("schema build on %s: %w", handle.Name, err)
	}
	return nil
}

// EmptyDatabase deletes all rows from user tables on the handle's
// database, preserving the schema.
func (p *Provisioner) EmptyDatabase(handle *types.ConnectionHandle) error {
	rows, err := handle.DB.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return fmt.Errorf("list tables on %s: %w", handle.Name, err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("list tables on %s: %w", handle.Name, err)
	}

	tx, err := handle.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin empty database: %w", err)
	}
	defer tx.Rollback()

	for _, table := range tables {
		if _, err := tx.Exec("DELETE FROM " + quoteIdent(table)); err != nil {
			return fmt.Errorf("empty table %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit empty database: %w", err)
	}
	return nil
}

// DropDatabase tears down the named scratch database. Names outside the
// scratch pattern are refused so a real database can never be dropped
// through this path. Dropping an absent database is a silent no-op.
func (p *Provisioner) DropDatabase(name string) error {
	if !p.IsScratchDatabase(name) {
		return &types.ConfigurationError{
			Reason: fmt.Sprintf("refusing to drop %q: not a scratch database name", name),
		}
	}
	err := os.Remove(p.dbPath(name))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("drop scratch database %s: %w", name, err)
	}
	return nil
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + name + `"`
}
