// SPDX-License-Identifier: MPL-2.0

// Package semver versions capabilities. It is a thin wrapper around
// github.com/Masterminds/semver/v3 so the rest of the module never imports it
// directly.
package semver

import (
	"fmt"

	mm "github.com/Masterminds/semver/v3"
)

type (
	// Version is a semantic version attached to a provided capability.
	// The zero Version means "unversioned".
	Version struct {
		v *mm.Version
	}

	// Constraint is a version range attached to a required capability, e.g.
	// ">=1.2.0 <2.0.0", "^1.0.0" or "~1.4". The zero Constraint accepts any
	// version, including an unversioned provider.
	Constraint struct {
		c   *mm.Constraints
		raw string
	}
)

// ParseVersion parses raw. An empty string yields the zero Version.
func ParseVersion(raw string) (Version, error) {
	if raw == "" {
		return Version{}, nil
	}
	v, err := mm.NewVersion(raw)
	if err != nil {
		return Version{}, fmt.Errorf("semver: parse version %q: %w", raw, err)
	}
	return Version{v: v}, nil
}

// MustParseVersion is ParseVersion that panics on error.
func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

// ParseConstraint parses raw. An empty string yields the zero Constraint.
func ParseConstraint(raw string) (Constraint, error) {
	if raw == "" {
		return Constraint{}, nil
	}
	c, err := mm.NewConstraint(raw)
	if err != nil {
		return Constraint{}, fmt.Errorf("semver: parse constraint %q: %w", raw, err)
	}
	return Constraint{c: c, raw: raw}, nil
}

// MustParseConstraint is ParseConstraint that panics on error.
func MustParseConstraint(raw string) Constraint {
	c, err := ParseConstraint(raw)
	if err != nil {
		panic(err)
	}
	return c
}

// IsZero reports whether v is unversioned.
func (v Version) IsZero() bool { return v.v == nil }

func (v Version) String() string {
	if v.v == nil {
		return ""
	}
	return v.v.Original()
}

// IsZero reports whether c accepts everything.
func (c Constraint) IsZero() bool { return c.c == nil }

func (c Constraint) String() string { return c.raw }

// Satisfies reports whether v is accepted by c. A versioned constraint never
// accepts an unversioned provider.
func Satisfies(v Version, c Constraint) bool {
	if c.c == nil {
		return true
	}
	if v.v == nil {
		return false
	}
	return c.c.Check(v.v)
}

// Compare compares a and b, returning:
// -1 if a < b
//
//	0 if a == b
//	1 if a > b
//
// The zero Version sorts first.
func Compare(a, b Version) int {
	if a.v == nil && b.v == nil {
		return 0
	}
	if a.v == nil {
		return -1
	}
	if b.v == nil {
		return 1
	}
	return a.v.Compare(b.v)
}
