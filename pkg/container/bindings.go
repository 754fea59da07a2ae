// SPDX-License-Identifier: MPL-2.0

package container

import (
	"fmt"
	"sync"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

type (
	// ProvideFunc produces one provided capability value. It runs once, when
	// the owning container is created, and may resolve the container's own
	// requirements.
	ProvideFunc func(c *Container) (any, error)

	// StateFunc builds the scoped state holder of a container once the
	// navigation input is known. The holder may launch tasks on c.Scope();
	// they start when the container becomes active. A holder implementing
	// io.Closer is closed on disposal.
	StateFunc func(c *Container, input any) (any, error)

	// UIFactory builds the presentation entry point for a state holder. The
	// result is opaque to the framework.
	UIFactory func(state any) any

	// Binding is the implementation behind one node.
	Binding struct {
		Provides map[decl.Capability]ProvideFunc
		State    StateFunc
		UI       UIFactory
	}

	// Bindings maps node ids to their implementation. It is safe for
	// concurrent use.
	Bindings struct {
		mu sync.RWMutex
		m  map[decl.NodeID]Binding
	}
)

// NewBindings returns an empty Bindings.
func NewBindings() *Bindings {
	return &Bindings{m: make(map[decl.NodeID]Binding)}
}

// Bind registers the implementation of node id.
func (b *Bindings) Bind(id decl.NodeID, binding Binding) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.m[id]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyBound, id)
	}
	b.m[id] = binding
	return nil
}

// MustBind is Bind that panics on error. Intended for wiring code in main.
func (b *Bindings) MustBind(id decl.NodeID, binding Binding) {
	if err := b.Bind(id, binding); err != nil {
		panic(err)
	}
}

// Lookup returns the binding of node id.
func (b *Bindings) Lookup(id decl.NodeID) (Binding, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	binding, ok := b.m[id]
	return binding, ok
}

// UIEntry returns a factory that resolves the UI of node id on each call, so
// a route table may be built before every node is bound. The factory returns
// nil when the node has no UI binding.
func (b *Bindings) UIEntry(id decl.NodeID) UIFactory {
	return func(state any) any {
		binding, ok := b.Lookup(id)
		if !ok || binding.UI == nil {
			return nil
		}
		return binding.UI(state)
	}
}

// Value returns a ProvideFunc that always yields v.
func Value(v any) ProvideFunc {
	return func(*Container) (any, error) { return v, nil }
}

// Provide adapts a typed constructor to a ProvideFunc.
func Provide[T any](fn func(c *Container) (T, error)) ProvideFunc {
	return func(c *Container) (any, error) {
		return fn(c)
	}
}
