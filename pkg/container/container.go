// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

type (
	// Spec is the generated description of one node instantiation.
	Spec struct {
		ID   decl.NodeID
		Kind decl.Kind
		// Parent is the owning feature's container, for subfeatures.
		Parent *Container
		// Provides lists the capabilities the node declares.
		Provides []decl.Capability
		// Slots wires each required capability to the container providing it.
		Slots []Slot
	}

	// Slot binds one required capability to its provider container.
	Slot struct {
		Capability decl.Capability
		Provider   *Container
	}

	// Container is the runtime instance of one node.
	Container struct {
		id       decl.NodeID
		kind     decl.Kind
		parent   *Container
		slots    map[decl.Capability]*Container
		provided map[decl.Capability]any
		owned    []io.Closer
		scope    *Scope
		stateFn  StateFunc

		mu        sync.Mutex
		state     any
		bound     bool
		disposed  bool
		observers []func(*Container)
	}
)

// New creates the container described by spec using the node's binding from
// b. Every declared capability is produced immediately, in declaration
// order. Provided values implementing io.Closer are owned by the container
// and closed on disposal.
func New(b *Bindings, spec Spec) (*Container, error) {
	c := &Container{
		id:       spec.ID,
		kind:     spec.Kind,
		parent:   spec.Parent,
		slots:    make(map[decl.Capability]*Container, len(spec.Slots)),
		provided: make(map[decl.Capability]any, len(spec.Provides)),
		scope:    newScope(),
	}
	for _, slot := range spec.Slots {
		if slot.Provider == nil {
			return nil, &MissingProviderError{Node: spec.ID, Capability: slot.Capability, Reason: "provider container is nil"}
		}
		c.slots[slot.Capability] = slot.Provider
	}

	binding, ok := b.Lookup(spec.ID)
	if !ok {
		if len(spec.Provides) > 0 {
			return nil, &UnboundError{Node: spec.ID}
		}
		return c, nil
	}
	c.stateFn = binding.State
	for _, capability := range spec.Provides {
		fn, ok := binding.Provides[capability]
		if !ok {
			err := &MissingProviderError{Node: spec.ID, Capability: capability, Reason: "binding has no provide function"}
			return nil, errors.Join(err, c.abandon())
		}
		v, err := fn(c)
		if err != nil {
			err = fmt.Errorf("node %q: provide %q: %w", spec.ID, capability, err)
			return nil, errors.Join(err, c.abandon())
		}
		c.provided[capability] = v
		if closer, ok := v.(io.Closer); ok {
			c.owned = append(c.owned, closer)
		}
	}
	return c, nil
}

// ID returns the node id.
func (c *Container) ID() decl.NodeID { return c.id }

// Kind returns the node kind.
func (c *Container) Kind() decl.Kind { return c.kind }

// Parent returns the owning feature's container, or nil.
func (c *Container) Parent() *Container { return c.parent }

// Scope returns the container's task scope.
func (c *Container) Scope() *Scope { return c.scope }

// Provided returns a value this container itself provides.
func (c *Container) Provided(capability decl.Capability) (any, bool) {
	v, ok := c.provided[capability]
	return v, ok
}

// Resolve returns the value of a capability wired to this container, or one
// it provides itself.
func (c *Container) Resolve(capability decl.Capability) (any, error) {
	if c.Disposed() {
		return nil, fmt.Errorf("%w: %s", ErrDisposed, c.id)
	}
	if provider, ok := c.slots[capability]; ok {
		v, ok := provider.Provided(capability)
		if !ok {
			return nil, &MissingProviderError{Node: c.id, Capability: capability, Reason: fmt.Sprintf("provider %s did not produce it", provider.id)}
		}
		return v, nil
	}
	if v, ok := c.provided[capability]; ok {
		return v, nil
	}
	return nil, &MissingProviderError{Node: c.id, Capability: capability, Reason: "not wired to this node"}
}

// Get resolves capability on c and asserts its type.
func Get[T any](c *Container, capability decl.Capability) (T, error) {
	var zero T
	v, err := c.Resolve(capability)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{
			Node:       c.id,
			Capability: capability,
			Want:       fmt.Sprintf("%T", zero),
			Got:        fmt.Sprintf("%T", v),
		}
	}
	return typed, nil
}

// BindState constructs the state holder with the late-bound navigation
// input. It is the second construction phase and may run only once.
func (c *Container) BindState(input any) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDisposed, c.id)
	}
	if c.bound {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrStateBound, c.id)
	}
	c.bound = true
	c.mu.Unlock()

	if c.stateFn == nil {
		return nil
	}
	state, err := c.stateFn(c, input)
	if err != nil {
		return fmt.Errorf("node %q: build state: %w", c.id, err)
	}
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	return nil
}

// State returns the state holder, or nil before BindState or when the node
// has none.
func (c *Container) State() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Activate starts the tasks queued on the container's scope.
func (c *Container) Activate(rt Runtime) {
	c.scope.activate(rt)
}

// OnDispose registers fn to run after the container is disposed. If it
// already is, fn runs immediately.
func (c *Container) OnDispose(fn func(*Container)) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		fn(c)
		return
	}
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Disposed reports whether Dispose has run.
func (c *Container) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

// Dispose cancels the container's tasks and waits for them, releases the
// state holder and owned provided values, then notifies observers. Provider
// containers referenced through slots are not touched. Calling Dispose again
// is a no-op.
func (c *Container) Dispose() error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}
	c.disposed = true
	state := c.state
	observers := c.observers
	c.observers = nil
	c.mu.Unlock()

	var errs []error
	if err := c.scope.Dispose(); err != nil {
		errs = append(errs, err)
	}
	if closer, ok := state.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("node %q: close state: %w", c.id, err))
		}
	}
	if err := c.release(); err != nil {
		errs = append(errs, err)
	}
	for _, fn := range observers {
		fn(c)
	}
	return errors.Join(errs...)
}

// abandon tears down a container that failed construction.
func (c *Container) abandon() error {
	return errors.Join(c.scope.Dispose(), c.release())
}

// release closes owned provided values in reverse creation order.
func (c *Container) release() error {
	var errs []error
	for _, closer := range slices.Backward(c.owned) {
		if err := closer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("node %q: close provided value: %w", c.id, err))
		}
	}
	c.owned = nil
	return errors.Join(errs...)
}
