// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"fmt"
	"io/fs"
	"strings"
	"testing"

	"github.com/skeleton-dev/skeleton/pkg/codegen"
	"github.com/skeleton-dev/skeleton/pkg/cueutil"
	"github.com/skeleton-dev/skeleton/pkg/graph"
	"github.com/skeleton-dev/skeleton/pkg/router"
)

var allIds = []Id{
	FileNotFoundId,
	DeclarationsNotFoundId,
	DeclarationParseErrorId,
	DuplicateIdId,
	DuplicateRouteId,
	UnsatisfiedDependencyId,
	AmbiguousDependencyId,
	DependencyCycleId,
	StructuralErrorId,
	ConfigLoadFailedId,
	NameCollisionId,
	UnknownRouteId,
	PermissionDeniedId,
	FileExistsId,
}

func TestId_Constants(t *testing.T) {
	seen := make(map[Id]bool)
	for _, id := range allIds {
		if seen[id] {
			t.Errorf("duplicate ID: %d", id)
		}
		seen[id] = true
	}

	if FileNotFoundId != 1 {
		t.Errorf("FileNotFoundId = %d, want 1", FileNotFoundId)
	}
}

// TestIssuesMapCompleteness verifies all issue IDs are in the map
func TestIssuesMapCompleteness(t *testing.T) {
	for _, id := range allIds {
		issue := Get(id)
		if issue == nil {
			t.Errorf("Issue with ID %d is not in the issues map", id)
			continue
		}
		if issue.Id() != id {
			t.Errorf("Get(%d).Id() = %d", id, issue.Id())
		}
	}
}

func TestValuesOrdered(t *testing.T) {
	values := Values()
	if len(values) != len(allIds) {
		t.Fatalf("Values() returned %d issues, want %d", len(values), len(allIds))
	}
	for i, issue := range values {
		if issue.Id() != allIds[i] {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), allIds[i])
		}
	}
}

func TestAllIssuesHaveContent(t *testing.T) {
	for _, issue := range Values() {
		if strings.TrimSpace(string(issue.MarkdownMsg())) == "" {
			t.Errorf("Issue %d has empty MarkdownMsg", issue.Id())
		}
	}
}

func TestAllIssuesAreRenderable(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	render = func(in string, stylePath string) (string, error) {
		return in, nil
	}

	for _, issue := range Values() {
		rendered, err := issue.Render("")
		if err != nil {
			t.Errorf("Issue %d failed to render: %v", issue.Id(), err)
		}
		if rendered == "" {
			t.Errorf("Issue %d rendered to empty string", issue.Id())
		}
	}
}

func TestIssue_Render_WithLinks(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	var got string
	render = func(in string, stylePath string) (string, error) {
		got = in
		return in, nil
	}

	if _, err := Get(DeclarationParseErrorId).Render("dark"); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(got, "## See also") || !strings.Contains(got, "<https://cuelang.org/docs/>") {
		t.Errorf("rendered markdown lacks links:\n%s", got)
	}
}

func TestIssue_Render_NoLinks(t *testing.T) {
	originalRender := render
	defer func() { render = originalRender }()

	var got string
	render = func(in string, stylePath string) (string, error) {
		got = in
		return in, nil
	}

	if _, err := Get(DuplicateRouteId).Render("dark"); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if strings.Contains(got, "See also") {
		t.Errorf("unexpected links section:\n%s", got)
	}
}

func TestIssue_LinksAreCopies(t *testing.T) {
	links := Get(DeclarationParseErrorId).ExtLinks()
	links[0] = "mutated"
	if Get(DeclarationParseErrorId).ExtLinks()[0] == "mutated" {
		t.Error("ExtLinks() must return a copy")
	}
}

func TestForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Id
	}{
		{"cycle", &graph.CycleError{Path: nil}, DependencyCycleId},
		{"build error", &graph.BuildError{Phase: graph.PhaseResolve, Errors: []error{&graph.AmbiguousDependencyError{Node: "a"}}}, AmbiguousDependencyId},
		{"unknown route", fmt.Errorf("navigate: %w", &router.UnknownRouteError{Route: "nope"}), UnknownRouteId},
		{"collision", &codegen.NameCollisionError{Kind: "identifier", Name: "AB"}, NameCollisionId},
		{"exists", fmt.Errorf("scaffold: %w", fs.ErrExist), FileExistsId},
		{"config", New("load configuration").Explain(ConfigLoadFailedId).Wrap(fmt.Errorf("bad")), ConfigLoadFailedId},
		{"explained wins", New("load configuration").Explain(ConfigLoadFailedId).Wrap(&cueutil.SchemaError{File: "c.cue"}), ConfigLoadFailedId},
		{"schema", fmt.Errorf("parse: %w", &cueutil.SchemaError{File: "skeleton.cue"}), DeclarationParseErrorId},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issue := ForError(tt.err)
			if issue == nil {
				t.Fatalf("ForError() = nil, want %d", tt.want)
			}
			if issue.Id() != tt.want {
				t.Errorf("ForError() = %d, want %d", issue.Id(), tt.want)
			}
		})
	}

	if ForError(New("write generated code").Wrap(fmt.Errorf("disk full"))) != nil {
		t.Error("ForError() of an unexplained ActionableError should be nil")
	}
	if ForError(fmt.Errorf("plain")) != nil {
		t.Error("ForError(plain) should be nil")
	}
}
