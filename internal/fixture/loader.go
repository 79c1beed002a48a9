// Package fixture loads declarative YAML fixture files into a session
// database. A fixture file maps table names to lists of row mappings:
//
//	users:
//	  - user_id: u1
//	    email: alice@example.com
//	    name: Alice
//	pages:
//	  - page_id: p1
//	    title: Home
//
// Loading is transactional: either every row lands or none do. The
// loader never creates tables; the schema must already exist.
package fixture

import (
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/testbench/pkg/types"
)

// Loader inserts fixture rows into the currently bound database.
type Loader struct{}

// NewLoader creates a fixture Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFixture parses the YAML file at path and inserts its rows into
// the handle's database in a single transaction.
func (l *Loader) LoadFixture(path string, handle *types.ConnectionHandle) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture %s: %w", path, err)
	}

	var doc map[string][]map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &types.ValidationError{Field: "fixture", Reason: fmt.Sprintf("%s is not a valid fixture file: %v", path, err)}
	}

	tx, err := handle.DB.Begin()
	if err != nil {
		return fmt.Errorf("begin fixture load: %w", err)
	}
	defer tx.Rollback()

	// Deterministic table order keeps failures reproducible.
	tables := make([]string, 0, len(doc))
	for table := range doc {
		tables = append(tables, table)
	}
	sort.Strings(tables)

	for _, table := range tables {
		for i, row := range doc[table] {
			if err := insertRow(tx, table, row); err != nil {
				return fmt.Errorf("fixture %s: table %s row %d: %w", path, table, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fixture load: %w", err)
	}
	return nil
}

// insertRow builds and executes one INSERT from a fixture row mapping.
// Columns are sorted so the generated SQL is stable.
func insertRow(tx *sql.Tx, table string, row map[string]any) error {
	if len(row) == 0 {
		return nil
	}

	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	quoted := make([]string, 0, len(cols))
	for _, col := range cols {
		args = append(args, normalizeValue(row[col]))
		placeholders = append(placeholders, "?")
		quoted = append(quoted, `"`+col+`"`)
	}

	query := fmt.Sprintf(
		"INSERT INTO %q (%s) VALUES (%s)",
		table,
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}
	return nil
}

// normalizeValue converts decoded YAML values into driver-friendly
// scalars. Nested structures are stored as YAML text.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case nil, bool, int, int64, float64, string:
		return t
	default:
		out, err := yaml.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return strings.TrimSuffix(string(out), "\n")
	}
}
