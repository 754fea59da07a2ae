// SPDX-License-Identifier: MPL-2.0

package decl

import (
	"errors"
	"fmt"

	"github.com/skeleton-dev/skeleton/pkg/semver"
)

const (
	// KindPlatform is an environment-level singleton provider (logging, clocks,
	// storage handles). Platforms provide capabilities and require nothing.
	KindPlatform Kind = "platform"
	// KindLibrary is a shared, non-routable provider of one or more capabilities.
	KindLibrary Kind = "library"
	// KindFeature is a routable top-level unit owning one or more subfeatures.
	KindFeature Kind = "feature"
	// KindSubfeature is a routable screen nested inside exactly one feature.
	KindSubfeature Kind = "subfeature"
)

var (
	// ErrInvalidKind is returned when a Kind value is not recognized.
	ErrInvalidKind = errors.New("invalid node kind")
	// ErrInvalidDeclaration is the sentinel error wrapped by InvalidDeclarationError.
	ErrInvalidDeclaration = errors.New("invalid declaration")
	// ErrInvalidApp is the sentinel error wrapped by InvalidAppError.
	ErrInvalidApp = errors.New("invalid app declaration")
	// ErrConflictingApp is returned when more than one app root is declared.
	ErrConflictingApp = errors.New("conflicting app declarations")
)

type (
	// Kind is the role a node plays in the graph.
	Kind string

	// NodeID uniquely identifies a node across the whole application.
	NodeID string

	// Route is the navigation address of a feature or subfeature.
	Route string

	// Capability names a contract. Two capabilities are the same iff their
	// names are equal.
	Capability string

	// InvalidKindError is returned when a Kind value is not recognized.
	// It wraps ErrInvalidKind for errors.Is() compatibility.
	InvalidKindError struct {
		Value Kind
	}

	// ProvidedCapability is a capability a node exposes, optionally versioned.
	ProvidedCapability struct {
		Name Capability `json:"name" validate:"required,capability"`
		// Version is a semantic version, e.g. "1.4.0". Empty means unversioned.
		Version string `json:"version,omitempty"`
	}

	// RequiredCapability is a capability a node consumes.
	RequiredCapability struct {
		Name Capability `json:"name" validate:"required,capability"`
		// Version is a constraint such as "^1.2.0". Empty accepts any provider.
		Version string `json:"version,omitempty"`
	}
)

// All returns every node kind in declaration order.
func All() []Kind {
	return []Kind{KindPlatform, KindLibrary, KindFeature, KindSubfeature}
}

func (k Kind) String() string { return string(k) }

// IsValid returns whether the Kind is one of the defined kinds.
func (k Kind) IsValid() (bool, []error) {
	switch k {
	case KindPlatform, KindLibrary, KindFeature, KindSubfeature:
		return true, nil
	default:
		return false, []error{&InvalidKindError{Value: k}}
	}
}

// Routable reports whether nodes of this kind own a route.
func (k Kind) Routable() bool {
	return k == KindFeature || k == KindSubfeature
}

// Singleton reports whether nodes of this kind live for the whole application.
func (k Kind) Singleton() bool {
	return k == KindPlatform || k == KindLibrary
}

// Error implements the error interface.
func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid node kind %q (valid: platform, library, feature, subfeature)", e.Value)
}

// Unwrap returns ErrInvalidKind for errors.Is() compatibility.
func (e *InvalidKindError) Unwrap() error { return ErrInvalidKind }

func (id NodeID) String() string { return string(id) }

func (r Route) String() string { return string(r) }

func (c Capability) String() string { return string(c) }

// SemVer parses the provided version.
func (p ProvidedCapability) SemVer() (semver.Version, error) {
	return semver.ParseVersion(p.Version)
}

// Constraint parses the required version constraint.
func (r RequiredCapability) Constraint() (semver.Constraint, error) {
	return semver.ParseConstraint(r.Version)
}

func (p ProvidedCapability) String() string {
	if p.Version == "" {
		return string(p.Name)
	}
	return string(p.Name) + "@" + p.Version
}

func (r RequiredCapability) String() string {
	if r.Version == "" {
		return string(r.Name)
	}
	return string(r.Name) + " " + r.Version
}
