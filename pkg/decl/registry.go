// SPDX-License-Identifier: MPL-2.0

package decl

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

var defaultRegistry = NewRegistry()

type (
	// App is the application root: its name and the feature the router opens
	// on start.
	App struct {
		Name  string `json:"name"`
		Start NodeID `json:"start"`

		Source string `json:"-"`
	}

	// Set is an assembled collection of declarations plus the optional app
	// root. It is the input of the graph builder.
	Set struct {
		App          *App
		Declarations []Declaration
	}

	// Registry accumulates declarations contributed by independently compiled
	// modules. It is safe for concurrent use.
	Registry struct {
		mu    sync.Mutex
		decls []Declaration
		apps  []App
	}

	// ConflictingAppError is returned when a Set holds more than one distinct
	// app root. It wraps ErrConflictingApp.
	ConflictingAppError struct {
		Apps []App
	}
)

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds declarations to the registry. Validation is deferred to the
// graph builder so duplicates and missing providers are reported together.
func (r *Registry) Register(decls ...Declaration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range decls {
		r.decls = append(r.decls, d.Clone())
	}
}

// RegisterApp records the application root.
func (r *Registry) RegisterApp(app App) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps = append(r.apps, app)
}

// Set snapshots the registry. It fails only when conflicting app roots were
// registered.
func (r *Registry) Set() (Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := Set{Declarations: make([]Declaration, 0, len(r.decls))}
	for _, d := range r.decls {
		s.Declarations = append(s.Declarations, d.Clone())
	}
	for _, app := range r.apps {
		if err := s.setApp(app); err != nil {
			return Set{}, err
		}
	}
	return s, nil
}

// Register adds declarations to the process-wide registry.
func Register(decls ...Declaration) {
	defaultRegistry.Register(decls...)
}

// RegisterApp records the application root in the process-wide registry.
func RegisterApp(app App) {
	defaultRegistry.RegisterApp(app)
}

// Registered snapshots the process-wide registry.
func Registered() (Set, error) {
	return defaultRegistry.Set()
}

// Merge appends other into s. Declarations are concatenated untouched; the
// app roots must agree.
func (s *Set) Merge(other Set) error {
	if other.App != nil {
		if err := s.setApp(*other.App); err != nil {
			return err
		}
	}
	for _, d := range other.Declarations {
		s.Declarations = append(s.Declarations, d.Clone())
	}
	return nil
}

func (s *Set) setApp(app App) error {
	if s.App == nil {
		s.App = &app
		return nil
	}
	if s.App.Name == app.Name && s.App.Start == app.Start {
		return nil
	}
	return &ConflictingAppError{Apps: []App{*s.App, app}}
}

// IsValid returns whether the App fields are well-formed.
func (a App) IsValid() (bool, []error) {
	var errs []error
	if strings.TrimSpace(a.Name) == "" {
		errs = append(errs, &FieldError{Field: "app.name", Value: a.Name, Rule: "required"})
	}
	if !nodeIDPattern.MatchString(string(a.Start)) {
		errs = append(errs, &FieldError{Field: "app.start", Value: a.Start, Rule: "nodeid"})
	}
	if len(errs) > 0 {
		return false, []error{fmt.Errorf("%w: %w", ErrInvalidApp, errors.Join(errs...))}
	}
	return true, nil
}

// Error implements the error interface.
func (e *ConflictingAppError) Error() string {
	parts := make([]string, 0, len(e.Apps))
	for _, a := range e.Apps {
		desc := fmt.Sprintf("%s (start %s)", a.Name, a.Start)
		if a.Source != "" {
			desc += " in " + a.Source
		}
		parts = append(parts, desc)
	}
	slices.Sort(parts)
	return "conflicting app declarations: " + strings.Join(parts, ", ")
}

// Unwrap returns ErrConflictingApp for errors.Is() compatibility.
func (e *ConflictingAppError) Unwrap() error { return ErrConflictingApp }
