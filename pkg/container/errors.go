// SPDX-License-Identifier: MPL-2.0

package container

import (
	"errors"
	"fmt"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

var (
	// ErrUnbound is the sentinel error wrapped by UnboundError.
	ErrUnbound = errors.New("node has no binding")
	// ErrAlreadyBound is returned when a node is bound twice.
	ErrAlreadyBound = errors.New("node already bound")
	// ErrMissingProvider is the sentinel error wrapped by MissingProviderError.
	ErrMissingProvider = errors.New("capability not available")
	// ErrTypeMismatch is the sentinel error wrapped by TypeMismatchError.
	ErrTypeMismatch = errors.New("capability type mismatch")
	// ErrDisposed is returned when a disposed container or scope is used.
	ErrDisposed = errors.New("container disposed")
	// ErrStateBound is returned when BindState is called twice.
	ErrStateBound = errors.New("state already bound")
)

type (
	// UnboundError is returned when a node declares provided capabilities or
	// is materialized but nothing was bound for it.
	UnboundError struct {
		Node decl.NodeID
	}

	// MissingProviderError is returned when a capability cannot be obtained:
	// the binding lacks a provide function for a declared capability, or a
	// consumer asks for a capability that was not wired to it.
	MissingProviderError struct {
		Node       decl.NodeID
		Capability decl.Capability
		Reason     string
	}

	// TypeMismatchError is returned by Get when the provided value does not
	// have the requested type.
	TypeMismatchError struct {
		Node       decl.NodeID
		Capability decl.Capability
		Want       string
		Got        string
	}
)

// Error implements the error interface.
func (e *UnboundError) Error() string {
	return fmt.Sprintf("node %q has no binding", e.Node)
}

// Unwrap returns ErrUnbound for errors.Is() compatibility.
func (e *UnboundError) Unwrap() error { return ErrUnbound }

// Error implements the error interface.
func (e *MissingProviderError) Error() string {
	return fmt.Sprintf("node %q: capability %q unavailable: %s", e.Node, e.Capability, e.Reason)
}

// Unwrap returns ErrMissingProvider for errors.Is() compatibility.
func (e *MissingProviderError) Unwrap() error { return ErrMissingProvider }

// Error implements the error interface.
func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("node %q: capability %q is %s, not %s", e.Node, e.Capability, e.Got, e.Want)
}

// Unwrap returns ErrTypeMismatch for errors.Is() compatibility.
func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }
