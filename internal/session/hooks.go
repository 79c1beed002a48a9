package session

import "github.com/mesh-intelligence/testbench/pkg/types"

// HookPoint names a lifecycle extension point.
type HookPoint string

// Extension points fired by the manager. Observers registered at the
// same point run in registration order.
const (
	HookBeforeStart HookPoint = "beforeStart"
	HookAfterStart  HookPoint = "afterStart"
	HookBeforeApply HookPoint = "beforeApply"
	HookAfterApply  HookPoint = "afterApply"
	HookBeforeEnd   HookPoint = "beforeEnd"
	HookAfterEnd    HookPoint = "afterEnd"
	HookOnClear     HookPoint = "onClear"
)

// HookFunc observes a lifecycle step. It receives the live state
// document and may mutate it; the manager persists whatever the hooks
// leave behind.
type HookFunc func(doc *types.StateDocument)

// hookSet keeps the ordered observer lists per extension point.
type hookSet map[HookPoint][]HookFunc

func newHookSet() hookSet {
	return make(hookSet)
}

// RegisterHook appends an observer at the given extension point.
// Registration is not synchronized with running operations; wire hooks
// up before the manager starts serving.
func (m *Manager) RegisterHook(point HookPoint, fn HookFunc) {
	m.hooks[point] = append(m.hooks[point], fn)
}

// fire invokes the observers registered at point, in order. Caller
// holds m.mu.
func (m *Manager) fire(point HookPoint) {
	for _, fn := range m.hooks[point] {
		fn(&m.state)
	}
}
