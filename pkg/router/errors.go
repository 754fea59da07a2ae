// SPDX-License-Identifier: MPL-2.0

package router

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

var (
	// ErrUnknownRoute is the sentinel error wrapped by UnknownRouteError.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrInvalidTable is returned when a route table is internally inconsistent.
	ErrInvalidTable = errors.New("invalid route table")
	// ErrClosed is returned by operations on a router after Shutdown.
	ErrClosed = errors.New("router is shut down")
	// ErrEntryNotFound is returned when Pop targets an entry not on the stack.
	ErrEntryNotFound = errors.New("entry not on stack")
	// ErrEmptyStack is returned by Back when there is nothing to pop.
	ErrEmptyStack = errors.New("navigation stack is empty")
	// ErrNoStartRoute is returned by Start when the table has no start route.
	ErrNoStartRoute = errors.New("route table has no start route")
	// ErrEntryPopped is returned to a navigation whose entry was popped
	// before it could materialize.
	ErrEntryPopped = errors.New("entry popped before materialization")
	// ErrProvider is the sentinel error wrapped by ProviderError.
	ErrProvider = errors.New("provider unavailable")
)

type (
	// UnknownRouteError is returned by Navigate for a route absent from the
	// table. The router state is unchanged; callers may recover.
	UnknownRouteError struct {
		Route decl.Route
	}

	// ProviderError is returned when a container factory asks for a provider
	// container the router cannot supply.
	ProviderError struct {
		Node     decl.NodeID
		Provider decl.NodeID
		Reason   string
	}

	// MaterializeError wraps a failed materialization.
	MaterializeError struct {
		Entry uuid.UUID
		Node  decl.NodeID
		Err   error
	}
)

// Error implements the error interface.
func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("unknown route %q", e.Route)
}

// Unwrap returns ErrUnknownRoute for errors.Is() compatibility.
func (e *UnknownRouteError) Unwrap() error { return ErrUnknownRoute }

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("node %q: %s", e.Node, e.Reason)
	}
	return fmt.Sprintf("node %q: provider %q: %s", e.Node, e.Provider, e.Reason)
}

// Unwrap returns ErrProvider for errors.Is() compatibility.
func (e *ProviderError) Unwrap() error { return ErrProvider }

// Error implements the error interface.
func (e *MaterializeError) Error() string {
	return fmt.Sprintf("materialize %s (entry %s): %v", e.Node, e.Entry, e.Err)
}

// Unwrap returns the underlying failure.
func (e *MaterializeError) Unwrap() error { return e.Err }
