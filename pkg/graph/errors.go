// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

const (
	// PhaseCollect gathers declarations and checks identity and route uniqueness.
	PhaseCollect Phase = "collect"
	// PhaseTree checks the feature/subfeature hierarchy and per-kind rules.
	PhaseTree Phase = "tree"
	// PhaseResolve binds every required capability to exactly one provider.
	PhaseResolve Phase = "resolve"
	// PhaseAcyclic rejects dependency cycles.
	PhaseAcyclic Phase = "acyclic"
)

var (
	// ErrDuplicateID is the sentinel error wrapped by DuplicateIDError.
	ErrDuplicateID = errors.New("duplicate node id")
	// ErrDuplicateRoute is the sentinel error wrapped by DuplicateRouteError.
	ErrDuplicateRoute = errors.New("duplicate route")
	// ErrUnsatisfiedDependency is the sentinel error wrapped by UnsatisfiedDependencyError.
	ErrUnsatisfiedDependency = errors.New("unsatisfied dependency")
	// ErrAmbiguousDependency is the sentinel error wrapped by AmbiguousDependencyError.
	ErrAmbiguousDependency = errors.New("ambiguous dependency")
	// ErrCycle is the sentinel error wrapped by CycleError.
	ErrCycle = errors.New("dependency cycle")
	// ErrStructural is the sentinel error wrapped by StructuralError.
	ErrStructural = errors.New("structural error")
)

type (
	// Phase names a stage of Build.
	Phase string

	// BuildError aggregates every error found by one build phase.
	// errors.Is and errors.As see through it to the individual errors.
	BuildError struct {
		Phase  Phase
		Errors []error
	}

	// DuplicateIDError is returned when two or more declarations share an id.
	DuplicateIDError struct {
		ID decl.NodeID
		// Sources lists every colliding declaration's origin, in input order.
		Sources []string
	}

	// DuplicateRouteError is returned when two or more nodes claim one route.
	DuplicateRouteError struct {
		Route decl.Route
		// IDs lists every node claiming the route, sorted.
		IDs []decl.NodeID
	}

	// UnsatisfiedDependencyError is returned when no in-scope provider offers
	// a required capability.
	UnsatisfiedDependencyError struct {
		Node       decl.NodeID
		Capability decl.Capability
		Constraint string
		// OutOfScope lists providers of the capability the node cannot see.
		OutOfScope []decl.NodeID
		// Rejected lists in-scope providers whose version fails Constraint.
		Rejected []decl.NodeID
	}

	// AmbiguousDependencyError is returned when more than one in-scope
	// provider offers a required capability. There is no implicit priority.
	AmbiguousDependencyError struct {
		Node       decl.NodeID
		Capability decl.Capability
		// Candidates lists every matching provider, sorted.
		Candidates []decl.NodeID
	}

	// CycleError is returned when the dependency relation has a cycle. Path is
	// closed (first == last) and each step is "depends on".
	CycleError struct {
		Path []decl.NodeID
	}

	// StructuralError is returned when a node violates a hierarchy or
	// per-kind rule.
	StructuralError struct {
		Node   decl.NodeID
		Reason string
	}
)

func (p Phase) String() string { return string(p) }

// Error implements the error interface.
func (e *BuildError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("%s: %v", e.Phase, e.Errors[0])
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d errors:", e.Phase, len(e.Errors))
	for _, err := range e.Errors {
		sb.WriteString("\n  - ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Unwrap returns the aggregated errors.
func (e *BuildError) Unwrap() []error { return e.Errors }

// Error implements the error interface.
func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("node id %q declared %d times (%s)", e.ID, len(e.Sources), strings.Join(e.Sources, ", "))
}

// Unwrap returns ErrDuplicateID for errors.Is() compatibility.
func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// Error implements the error interface.
func (e *DuplicateRouteError) Error() string {
	return fmt.Sprintf("route %q claimed by %s", e.Route, joinIDs(e.IDs))
}

// Unwrap returns ErrDuplicateRoute for errors.Is() compatibility.
func (e *DuplicateRouteError) Unwrap() error { return ErrDuplicateRoute }

// Error implements the error interface.
func (e *UnsatisfiedDependencyError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "node %q requires capability %q", e.Node, e.Capability)
	if e.Constraint != "" {
		fmt.Fprintf(&sb, " (%s)", e.Constraint)
	}
	sb.WriteString(" but no provider is in scope")
	if len(e.Rejected) > 0 {
		fmt.Fprintf(&sb, "; version mismatch: %s", joinIDs(e.Rejected))
	}
	if len(e.OutOfScope) > 0 {
		fmt.Fprintf(&sb, "; provided out of scope by %s", joinIDs(e.OutOfScope))
	}
	return sb.String()
}

// Unwrap returns ErrUnsatisfiedDependency for errors.Is() compatibility.
func (e *UnsatisfiedDependencyError) Unwrap() error { return ErrUnsatisfiedDependency }

// Error implements the error interface.
func (e *AmbiguousDependencyError) Error() string {
	return fmt.Sprintf("node %q requires capability %q which is provided by %d in-scope nodes: %s",
		e.Node, e.Capability, len(e.Candidates), joinIDs(e.Candidates))
}

// Unwrap returns ErrAmbiguousDependency for errors.Is() compatibility.
func (e *AmbiguousDependencyError) Unwrap() error { return ErrAmbiguousDependency }

// Error implements the error interface.
func (e *CycleError) Error() string {
	parts := make([]string, 0, len(e.Path))
	for _, id := range e.Path {
		parts = append(parts, string(id))
	}
	return "dependency cycle detected: " + strings.Join(parts, " -> ")
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Node == "" {
		return e.Reason
	}
	return fmt.Sprintf("node %q: %s", e.Node, e.Reason)
}

// Unwrap returns ErrStructural for errors.Is() compatibility.
func (e *StructuralError) Unwrap() error { return ErrStructural }

func structural(id decl.NodeID, format string, args ...any) error {
	return &StructuralError{Node: id, Reason: fmt.Sprintf(format, args...)}
}

func joinIDs(ids []decl.NodeID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, string(id))
	}
	return strings.Join(parts, ", ")
}
