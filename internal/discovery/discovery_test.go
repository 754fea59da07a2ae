// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/skeleton-dev/skeleton/internal/config"
	"github.com/skeleton-dev/skeleton/internal/testutil"
	"github.com/skeleton-dev/skeleton/pkg/decl"
)

const featureDecl = `
app: {name: "movies", start: "search"}
declarations: [
	{id: "search", kind: "feature", route: "search", start: "search.main"},
	{id: "search.main", kind: "subfeature", route: "search/main", parent: "search"},
]
`

const libraryDecl = `
declarations: [{id: "repo", kind: "library", provides: [{name: "MovieRepository"}]}]
`

func TestDiscoverMergesFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "feature", "search", "skeleton.cue"), featureDecl)
	testutil.MustWriteFile(t, filepath.Join(dir, "library", "repo", "repo.skeleton.cue"), libraryDecl)
	testutil.MustWriteFile(t, filepath.Join(dir, "library", "repo", "other.cue"), `not: "a declaration file"`)

	res, err := New(config.DefaultConfig(), WithBaseDir(dir)).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(res.Diagnostics) != 0 {
		t.Errorf("unexpected diagnostics: %+v", res.Diagnostics)
	}
	if len(res.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(res.Files))
	}
	if len(res.Set.Declarations) != 3 {
		t.Errorf("expected 3 declarations, got %d", len(res.Set.Declarations))
	}
	if res.Set.App == nil || res.Set.App.Start != "search" {
		t.Errorf("app root not merged: %+v", res.Set.App)
	}
	if !res.Files[0].HasApp || res.Files[0].Declarations != 2 {
		t.Errorf("first file = %+v, want the feature file", res.Files[0])
	}
	for _, d := range res.Set.Declarations {
		if d.Source == "" {
			t.Errorf("declaration %s has no source", d.ID)
		}
	}
}

func TestDiscoverNoFiles(t *testing.T) {
	t.Parallel()

	_, err := New(config.DefaultConfig(), WithBaseDir(t.TempDir())).Discover(context.Background())
	if !errors.Is(err, decl.ErrNoDeclarations) {
		t.Fatalf("expected ErrNoDeclarations, got %v", err)
	}
}

func TestDiscoverParseFailureIsDiagnostic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "a", "skeleton.cue"), libraryDecl)
	broken := filepath.Join(dir, "b", "skeleton.cue")
	testutil.MustWriteFile(t, broken, `declarations: [{id: "x", kind: "widget"}]`)

	res, err := New(config.DefaultConfig(), WithBaseDir(dir)).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if !HasErrors(res.Diagnostics) {
		t.Fatal("expected an error diagnostic")
	}
	diag := res.Diagnostics[0]
	if diag.Code != CodeParseFailed || diag.Path != broken || diag.Cause == nil {
		t.Errorf("diagnostic = %+v", diag)
	}
	if len(res.Set.Declarations) != 1 {
		t.Errorf("valid file should still load, got %d declarations", len(res.Set.Declarations))
	}
}

func TestDiscoverSkipsOutputAndHiddenDirs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "lib", "skeleton.cue"), libraryDecl)
	testutil.MustWriteFile(t, filepath.Join(dir, "appgraph", "skeleton.cue"), `declarations: [{id: "gen", kind: "platform"}]`)
	testutil.MustWriteFile(t, filepath.Join(dir, ".git", "skeleton.cue"), `declarations: [{id: "git", kind: "platform"}]`)
	testutil.MustWriteFile(t, filepath.Join(dir, "testdata", "skeleton.cue"), `declarations: [{id: "td", kind: "platform"}]`)

	res, err := New(config.DefaultConfig(), WithBaseDir(dir)).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(res.Set.Declarations) != 1 || res.Set.Declarations[0].ID != "repo" {
		t.Errorf("declarations = %+v, want only repo", res.Set.Declarations)
	}
}

func TestDiscoverOverlappingSearchPaths(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "lib", "skeleton.cue"), libraryDecl)

	d := New(config.DefaultConfig(), WithBaseDir(dir), WithSearchPaths(".", "lib", "missing"))
	res, err := d.Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(res.Files) != 1 {
		t.Errorf("expected the file once, got %d", len(res.Files))
	}

	codes := map[string]bool{}
	for _, diag := range res.Diagnostics {
		codes[diag.Code] = true
		if diag.Severity != SeverityWarning {
			t.Errorf("diagnostic %s should be a warning", diag.Code)
		}
	}
	if !codes[CodeDuplicateFile] || !codes[CodeSearchPathMissing] {
		t.Errorf("diagnostic codes = %v", codes)
	}
}

func TestDiscoverConflictingApps(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "a", "skeleton.cue"), featureDecl)
	testutil.MustWriteFile(t, filepath.Join(dir, "b", "skeleton.cue"), `
app: {name: "other", start: "search"}
declarations: []
`)

	res, err := New(config.DefaultConfig(), WithBaseDir(dir)).Discover(context.Background())
	if err != nil {
		t.Fatalf("Discover() error: %v", err)
	}
	if len(res.Diagnostics) != 1 || res.Diagnostics[0].Code != CodeConflictingApp {
		t.Fatalf("diagnostics = %+v", res.Diagnostics)
	}
	if !errors.Is(res.Diagnostics[0].Cause, decl.ErrConflictingApp) {
		t.Errorf("cause should wrap ErrConflictingApp")
	}
}

func TestDiscoverCanceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, "skeleton.cue"), libraryDecl)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(config.DefaultConfig(), WithBaseDir(dir)).Discover(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
