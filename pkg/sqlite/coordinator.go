// Package sqlite provides the public API for the SQLite-backed test
// session coordinator. It exposes the factory function for embedding
// applications while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/testbench/internal/fixture"
	"github.com/mesh-intelligence/testbench/internal/mailer"
	"github.com/mesh-intelligence/testbench/internal/session"
	"github.com/mesh-intelligence/testbench/internal/sqlite"
	"github.com/mesh-intelligence/testbench/internal/statefile"
	"github.com/mesh-intelligence/testbench/pkg/types"
)

// NewCoordinator wires a session coordinator over a SQLite database
// directory. The config must name the state file, data directory, and
// project root.
//
// Example:
//
//	coord, err := sqlite.NewCoordinator(types.Config{
//	    StateFile:   ".testbench/state.json",
//	    DataDir:     ".testbench-db",
//	    ProjectRoot: ".",
//	})
//	defer coord.Close()
func NewCoordinator(cfg types.Config) (types.Coordinator, error) {
	prov, err := sqlite.NewProvisioner(cfg)
	if err != nil {
		return nil, err
	}
	return session.NewManager(cfg, statefile.NewStore(cfg.StateFile), prov, fixture.NewLoader(), mailer.NewRegistry())
}
