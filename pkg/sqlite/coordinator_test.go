package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/testbench/pkg/types"
)

func TestNewCoordinator(t *testing.T) {
	t.Run("wires a working coordinator", func(t *testing.T) {
		coord, err := NewCoordinator(types.Config{
			StateFile:   filepath.Join(t.TempDir(), "state.json"),
			DataDir:     t.TempDir(),
			ProjectRoot: t.TempDir(),
		})
		require.NoError(t, err)
		defer func() { _ = coord.Close() }()

		require.NoError(t, coord.StartTestSession(types.Delta{}))
		assert.True(t, coord.IsRunningTests())
		assert.Regexp(t, `^ss_tmpdb[0-9]{7}$`, coord.GetState().Database)

		require.NoError(t, coord.EndTestSession())
		assert.False(t, coord.IsRunningTests())
	})

	t.Run("rejects incomplete config", func(t *testing.T) {
		_, err := NewCoordinator(types.Config{})
		assert.Error(t, err)
	})
}
