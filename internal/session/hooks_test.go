package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/testbench/pkg/types"
)

func TestHooks(t *testing.T) {
	t.Run("fire in registration order at their point", func(t *testing.T) {
		env := newTestEnv(t)

		var order []string
		env.mgr.RegisterHook(HookBeforeStart, func(*types.StateDocument) { order = append(order, "before-1") })
		env.mgr.RegisterHook(HookBeforeStart, func(*types.StateDocument) { order = append(order, "before-2") })
		env.mgr.RegisterHook(HookAfterStart, func(*types.StateDocument) { order = append(order, "after") })

		require.NoError(t, env.mgr.StartTestSession(types.Delta{}))
		assert.Equal(t, []string{"before-1", "before-2", "after"}, order)
	})

	t.Run("afterApply observes the merged document", func(t *testing.T) {
		env := newTestEnv(t)

		var sawDatetime string
		env.mgr.RegisterHook(HookAfterApply, func(doc *types.StateDocument) {
			sawDatetime = doc.Datetime
		})

		require.NoError(t, env.mgr.StartTestSession(types.Delta{Datetime: "2024-01-01 00:00:00"}))
		assert.Equal(t, "2024-01-01 00:00:00", sawDatetime)
	})

	t.Run("hook mutations are persisted", func(t *testing.T) {
		env := newTestEnv(t)

		env.mgr.RegisterHook(HookAfterApply, func(doc *types.StateDocument) {
			if doc.Extra == nil {
				doc.Extra = make(map[string]any)
			}
			doc.Extra["stampedBy"] = "hook"
		})

		require.NoError(t, env.mgr.StartTestSession(types.Delta{}))
		assert.Equal(t, "hook", readBack(t, env.cfg).Extra["stampedBy"])
	})

	t.Run("end fires teardown hooks once per call", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.mgr.StartTestSession(types.Delta{}))

		var ends int
		env.mgr.RegisterHook(HookAfterEnd, func(*types.StateDocument) { ends++ })

		require.NoError(t, env.mgr.EndTestSession())
		require.NoError(t, env.mgr.EndTestSession())
		assert.Equal(t, 2, ends, "teardown hooks fire on every call, effects are the no-ops")
	})

	t.Run("clear fires onClear", func(t *testing.T) {
		env := newTestEnv(t)
		require.NoError(t, env.mgr.StartTestSession(types.Delta{}))

		cleared := false
		env.mgr.RegisterHook(HookOnClear, func(*types.StateDocument) { cleared = true })

		require.NoError(t, env.mgr.Clear())
		assert.True(t, cleared)
	})
}
