package peggml

import (
	"sync"

	"github.com/emirpasic/gods/sets/treeset"
)

// Registry is the process-wide table mapping integer handles to owned
// parser instances (spec §4.2, "PR"). Handles are reusable slots: the
// invariant is that slot indices monotonically grow -- a freed handle is
// always reissued before a brand-new one, and always the smallest free
// handle first, which keeps host-side handle tables small and dense.
type Registry struct {
	mu    sync.Mutex
	slots []*Parser
	free  *treeset.Set
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{free: treeset.NewWithIntComparator()}
}

// Create compiles grammar and places it in the lowest empty slot (or
// appends one). On compile failure it returns diagnostics (possibly empty)
// and the compile error; the caller decides the -1/-2 ABI distinction based
// on whether diagnostics is empty.
func (r *Registry) Create(grammar string) (handle int, diagnostics string, err error) {
	p, diag, cerr := newParser(grammar)
	if cerr != nil {
		return -1, diag, cerr
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.free.Empty() {
		values := r.free.Values()
		h, _ := values[0].(int)
		r.free.Remove(h)
		r.slots[h] = p

		return h, "", nil
	}

	r.slots = append(r.slots, p)

	return len(r.slots) - 1, "", nil
}

// Destroy empties handle's slot, making it available for reuse.
func (r *Registry) Destroy(handle int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle < 0 || handle >= len(r.slots) || r.slots[handle] == nil {
		return newError(KindMisuse, "invalid handle %d", handle)
	}

	r.slots[handle] = nil
	r.free.Add(handle)

	return nil
}

// Get returns the parser owning handle, or an error if the handle is out of
// range or its slot is empty.
func (r *Registry) Get(handle int) (*Parser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if handle < 0 || handle >= len(r.slots) || r.slots[handle] == nil {
		return nil, newError(KindMisuse, "invalid handle idx: %d", handle)
	}

	return r.slots[handle], nil
}
