// SPDX-License-Identifier: MPL-2.0

package router

import (
	"sync"

	"github.com/google/uuid"

	"github.com/skeleton-dev/skeleton/pkg/container"
	"github.com/skeleton-dev/skeleton/pkg/decl"
)

const (
	// StateUnresolved is an entry on the stack whose container does not exist yet.
	StateUnresolved State = iota
	// StateMaterializing is an entry whose container is being built.
	StateMaterializing
	// StateActive is an entry whose container, state and ui are ready.
	StateActive
	// StateDisposed is an entry that left the stack or failed to materialize.
	StateDisposed
)

type (
	// State is the lifecycle state of an Entry.
	State int

	// Entry is one position on the navigation stack.
	Entry struct {
		id     uuid.UUID
		route  RouteEntry
		input  any
		parent *Entry

		once  sync.Once
		ready chan struct{}

		mu        sync.Mutex
		state     State
		err       error
		container *container.Container
		ui        any
		detached  []*container.Container
	}
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateMaterializing:
		return "materializing"
	case StateActive:
		return "active"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

func newEntry(re RouteEntry, input any, parent *Entry) *Entry {
	return &Entry{
		id:     uuid.New(),
		route:  re,
		input:  input,
		parent: parent,
		ready:  make(chan struct{}),
	}
}

// ID uniquely identifies the entry for Pop.
func (e *Entry) ID() uuid.UUID { return e.id }

// Route returns the route the entry was created for.
func (e *Entry) Route() decl.Route { return e.route.Route }

// Node returns the node the entry instantiates.
func (e *Entry) Node() decl.NodeID { return e.route.Node }

// Kind returns the node kind.
func (e *Entry) Kind() decl.Kind { return e.route.Kind }

// Input returns the navigation input the entry was created with.
func (e *Entry) Input() any { return e.input }

// Parent returns the owning feature entry of a subfeature entry.
func (e *Entry) Parent() *Entry { return e.parent }

// State returns the current lifecycle state.
func (e *Entry) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Container returns the entry's container once active.
func (e *Entry) Container() *container.Container {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.container
}

// UI returns the presentation entry point built for the entry's state holder.
func (e *Entry) UI() any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ui
}

// Err returns the materialization failure, if any.
func (e *Entry) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Entry) setState(s State) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = s
}

func (e *Entry) activeContainer() (*container.Container, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.container, e.state == StateActive
}
