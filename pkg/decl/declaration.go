// SPDX-License-Identifier: MPL-2.0

package decl

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	nodeIDPattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*([._-][A-Za-z0-9]+)*$`)
	routePattern      = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*(/[A-Za-z0-9][A-Za-z0-9_-]*)*$`)
	capabilityPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

	structValidator = sync.OnceValue(newStructValidator)
)

type (
	// Declaration describes one node: its identity, role, route and the
	// capabilities it provides and requires.
	Declaration struct {
		ID   NodeID `json:"id" validate:"required,nodeid"`
		Kind Kind   `json:"kind" validate:"required"`
		// Route is required for features and subfeatures and must be empty
		// for platforms and libraries.
		Route Route `json:"route,omitempty" validate:"omitempty,route"`
		// Parent is the owning feature of a subfeature.
		Parent NodeID `json:"parent,omitempty" validate:"omitempty,nodeid"`
		// Start is the subfeature a feature route lands on.
		Start NodeID `json:"start,omitempty" validate:"omitempty,nodeid"`
		// Input names the payload type a subfeature receives on navigation.
		// It is informational; the router passes the payload through untyped.
		Input string `json:"input,omitempty"`
		// Description is free text surfaced by the CLI.
		Description string `json:"description,omitempty"`

		Provides []ProvidedCapability `json:"provides,omitempty" validate:"omitempty,dive"`
		Requires []RequiredCapability `json:"requires,omitempty" validate:"omitempty,dive"`
		// Dependencies lists the nodes whose capabilities are visible to this
		// node in addition to platforms, libraries and its owning feature.
		Dependencies []NodeID `json:"dependencies,omitempty" validate:"omitempty,dive,nodeid"`

		// Source is where the declaration came from (file path or registering
		// package). Diagnostics only.
		Source string `json:"-"`
	}

	// InvalidDeclarationError is returned when a Declaration has invalid fields.
	// It wraps ErrInvalidDeclaration for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidDeclarationError struct {
		ID          NodeID
		Source      string
		FieldErrors []error
	}

	// FieldError is a single field-level validation failure.
	FieldError struct {
		Field string
		Value any
		Rule  string
	}
)

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "nodeid", nodeIDPattern)
	mustRegister(v, "route", routePattern)
	mustRegister(v, "capability", capabilityPattern)
	return v
}

func mustRegister(v *validator.Validate, tag string, re *regexp.Regexp) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("decl: register %s validation: %v", tag, err))
	}
}

// IsValid returns whether the Declaration's fields are well-formed on their own.
// Cross-node rules (parents, routes, dependency resolution) belong to the
// graph builder.
func (d Declaration) IsValid() (bool, []error) {
	var errs []error
	if err := structValidator().Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, &FieldError{
					Field: trimNamespace(fe.Namespace()),
					Value: fe.Value(),
					Rule:  fe.Tag(),
				})
			}
		} else {
			errs = append(errs, err)
		}
	}
	if d.Kind != "" {
		if valid, kindErrs := d.Kind.IsValid(); !valid {
			errs = append(errs, kindErrs...)
		}
	}
	for i, p := range d.Provides {
		if _, err := p.SemVer(); err != nil {
			errs = append(errs, &FieldError{Field: fmt.Sprintf("provides[%d].version", i), Value: p.Version, Rule: "semver"})
		}
	}
	for i, r := range d.Requires {
		if _, err := r.Constraint(); err != nil {
			errs = append(errs, &FieldError{Field: fmt.Sprintf("requires[%d].version", i), Value: r.Version, Rule: "semver_constraint"})
		}
	}
	if len(errs) > 0 {
		return false, []error{&InvalidDeclarationError{ID: d.ID, Source: d.Source, FieldErrors: errs}}
	}
	return true, nil
}

// ProvidedNames returns the provided capability names in declaration order.
func (d Declaration) ProvidedNames() []Capability {
	names := make([]Capability, 0, len(d.Provides))
	for _, p := range d.Provides {
		names = append(names, p.Name)
	}
	return names
}

// ProvidesCapability reports whether the declaration provides name.
func (d Declaration) ProvidesCapability(name Capability) (ProvidedCapability, bool) {
	i := slices.IndexFunc(d.Provides, func(p ProvidedCapability) bool { return p.Name == name })
	if i < 0 {
		return ProvidedCapability{}, false
	}
	return d.Provides[i], true
}

// Clone returns a deep copy of d.
func (d Declaration) Clone() Declaration {
	d.Provides = slices.Clone(d.Provides)
	d.Requires = slices.Clone(d.Requires)
	d.Dependencies = slices.Clone(d.Dependencies)
	return d
}

// Error implements the error interface.
func (e *InvalidDeclarationError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, fe := range e.FieldErrors {
		msgs = append(msgs, fe.Error())
	}
	id := string(e.ID)
	if id == "" {
		id = "<unnamed>"
	}
	if e.Source != "" {
		return fmt.Sprintf("invalid declaration %s (%s): %s", id, e.Source, strings.Join(msgs, "; "))
	}
	return fmt.Sprintf("invalid declaration %s: %s", id, strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidDeclaration for errors.Is() compatibility.
func (e *InvalidDeclarationError) Unwrap() error { return ErrInvalidDeclaration }

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: value %v fails %q", e.Field, e.Value, e.Rule)
}

// trimNamespace drops the leading struct name from a validator namespace,
// turning "Declaration.requires[0].name" into "requires[0].name".
func trimNamespace(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// IsValid returns whether id is a well-formed node id.
func (id NodeID) IsValid() (bool, []error) {
	if !nodeIDPattern.MatchString(string(id)) {
		return false, []error{&FieldError{Field: "id", Value: string(id), Rule: "nodeid"}}
	}
	return true, nil
}

// IsValid returns whether r is a well-formed route.
func (r Route) IsValid() (bool, []error) {
	if !routePattern.MatchString(string(r)) {
		return false, []error{&FieldError{Field: "route", Value: string(r), Rule: "route"}}
	}
	return true, nil
}
