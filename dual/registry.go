// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dual

import (
	"slices"
	"sync"
)

// Registry assigns derivative slots to named variables.
//
// Scalars seeded from the same Registry share its slot numbering, a Scalar created
// before a later variable was registered reports zero derivative for that variable.
// A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	slots map[string]int
	names []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]int)}
}

// Seed returns the independent variable called name with the given value.
// A name seen before keeps its slot.
func (r *Registry) Seed(name string, value float64) (*Scalar, error) {
	if name == "" {
		return nil, errorf("seed", ErrInvalidConfiguration, "empty variable name")
	}
	r.mu.Lock()
	slot, ok := r.slots[name]
	if !ok {
		slot = len(r.names)
		r.slots[name] = slot
		r.names = append(r.names, name)
	}
	n := len(r.names)
	r.mu.Unlock()

	s := seed(value, slot, n, 1)
	s.vars = r
	return s, nil
}

// Slot returns the slot of the named variable.
func (r *Registry) Slot(name string) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slot, ok := r.slots[name]
	return slot, ok
}

// Name returns the variable registered at slot.
func (r *Registry) Name(slot int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if slot < 0 || slot >= len(r.names) {
		return "", false
	}
	return r.names[slot], true
}

// Len returns the number of registered variables.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Names returns the registered variables ordered by slot.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.names)
}
