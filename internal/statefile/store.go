// Package statefile persists the test-session state document to a
// single well-known file path shared by all cooperating processes.
package statefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/testbench/pkg/types"
)

// Store reads and writes exactly one state document at a fixed path.
// The file is the sole cross-process shared resource; last writer wins.
type Store struct {
	path string
}

// NewStore creates a Store bound to the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the backing file is present. This is the
// authoritative "is a test session currently running" signal.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read parses the state document from disk. A file that cannot be
// parsed, or parses without a database field, yields a
// CorruptStateError; the store never deletes a file it cannot trust.
func (s *Store) Read() (types.StateDocument, error) {
	var doc types.StateDocument

	data, err := os.ReadFile(s.path)
	if err != nil {
		return doc, fmt.Errorf("read state file: %w", err)
	}

	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, &types.CorruptStateError{Path: s.path, Reason: err.Error()}
	}
	if doc.Database == "" {
		return doc, &types.CorruptStateError{Path: s.path, Reason: "missing database field"}
	}

	return doc, nil
}

// Write serializes the document and replaces the backing file. The
// write goes through a temp file and rename, which is atomic enough for
// the single-writer assumption; no partial-write recovery is attempted.
func (s *Store) Write(doc types.StateDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Remove deletes the backing file. Removal of an already-absent file
// succeeds silently so two independent processes can both run teardown.
func (s *Store) Remove() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}
