// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/skeleton-dev/skeleton/internal/testutil"
)

const demoDeclarations = `app: {name: "demo", start: "search"}

declarations: [
	{id: "core", kind: "platform", provides: [{name: "Clock"}]},
	{id: "logging", kind: "library", provides: [{name: "Logger"}], requires: [{name: "Clock"}]},
	{id: "search", kind: "feature", route: "search", start: "search.results", provides: [{name: "Session"}]},
	{
		id:     "search.results"
		kind:   "subfeature"
		route:  "search/results"
		parent: "search"
		requires: [{name: "Logger"}, {name: "Session"}]
	},
]
`

type cliResult struct {
	stdout string
	stderr string
	err    error
}

func runCLI(t *testing.T, workDir string, args ...string) cliResult {
	t.Helper()

	var stdout, stderr bytes.Buffer
	app, err := NewApp(Dependencies{
		Stdout:    &stdout,
		Stderr:    &stderr,
		WorkDir:   workDir,
		ConfigDir: filepath.Join(workDir, ".config"),
	})
	if err != nil {
		t.Fatalf("NewApp() error: %v", err)
	}

	root := NewRootCommand(app)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return cliResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return -1
}

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version takes priority", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2026-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2026-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"
		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestCheckCommand(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, map[string]string{"skeleton.cue": demoDeclarations})
	res := runCLI(t, dir, "check")
	if res.err != nil {
		t.Fatalf("check error: %v\nstderr: %s", res.err, res.stderr)
	}

	for _, want := range []string{
		"graph is valid",
		"1 platform, 1 library, 1 feature, 1 subfeature",
		"3 dependencies, 2 routes from 1 file",
		"app demo starts at search",
	} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestCheckCommandReportsUnsatisfiedDependency(t *testing.T) {
	t.Parallel()

	broken := strings.Replace(demoDeclarations, `{id: "core", kind: "platform", provides: [{name: "Clock"}]},`, "", 1)
	dir := testutil.WriteTree(t, map[string]string{"skeleton.cue": broken})

	res := runCLI(t, dir, "check")
	if code := exitCode(res.err); code != ExitFailure {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, ExitFailure, res.err)
	}
	if !strings.Contains(res.stderr, "resolve phase") {
		t.Errorf("stderr should name the failing phase:\n%s", res.stderr)
	}
	if !strings.Contains(res.stderr, `requires capability "Clock"`) {
		t.Errorf("stderr should describe the missing capability:\n%s", res.stderr)
	}
	if !strings.Contains(res.stderr, "--explain") {
		t.Errorf("stderr should hint at --explain:\n%s", res.stderr)
	}
}

func TestCheckCommandReportsParseFailure(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, map[string]string{
		"skeleton.cue":              demoDeclarations,
		"extra/broken.skeleton.cue": "declarations: [{id: 42}]",
	})

	res := runCLI(t, dir, "check")
	if code := exitCode(res.err); code != ExitFailure {
		t.Fatalf("exit code = %d, want %d (err: %v)", code, ExitFailure, res.err)
	}
	if !strings.Contains(res.stderr, "declaration_parse_failed") {
		t.Errorf("stderr should list the parse diagnostic:\n%s", res.stderr)
	}
}

func TestBuildCommand(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, map[string]string{"skeleton.cue": demoDeclarations})

	res := runCLI(t, dir, "build", "--package", "wiring", "--out", "gen")
	if res.err != nil {
		t.Fatalf("build error: %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "6 written, 0 unchanged, 0 removed") {
		t.Errorf("unexpected summary:\n%s", res.stdout)
	}

	routes, err := os.ReadFile(filepath.Join(dir, "gen", "routes.go"))
	if err != nil {
		t.Fatalf("read routes.go: %v", err)
	}
	if !strings.HasPrefix(string(routes), "// Code generated by skeleton. DO NOT EDIT.") {
		t.Errorf("routes.go lacks the generated header")
	}
	if !strings.Contains(string(routes), "package wiring") {
		t.Errorf("routes.go should use the requested package")
	}

	res = runCLI(t, dir, "build", "--package", "wiring", "--out", "gen")
	if res.err != nil {
		t.Fatalf("second build error: %v", res.err)
	}
	if !strings.Contains(res.stdout, "0 written, 6 unchanged, 0 removed") {
		t.Errorf("second build should leave files untouched:\n%s", res.stdout)
	}
}

func TestBuildCommandDryRun(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, map[string]string{"skeleton.cue": demoDeclarations})
	res := runCLI(t, dir, "build", "--dry-run")
	if res.err != nil {
		t.Fatalf("build --dry-run error: %v", res.err)
	}

	want := []string{
		"container_core.go",
		"container_logging.go",
		"container_search.go",
		"container_search_results.go",
		"nodes.go",
		"routes.go",
	}
	got := strings.Fields(res.stdout)
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("dry-run files = %v, want %v", got, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "appgraph")); !os.IsNotExist(err) {
		t.Errorf("dry run must not create the output directory")
	}
}

func TestGraphCommandFormats(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, map[string]string{"skeleton.cue": demoDeclarations})

	res := runCLI(t, dir, "graph", "--format", "dot")
	if res.err != nil {
		t.Fatalf("graph --format dot error: %v", res.err)
	}
	if !strings.Contains(res.stdout, "digraph skeleton {") || !strings.Contains(res.stdout, `"logging" -> "core" [label="Clock"]`) {
		t.Errorf("unexpected dot output:\n%s", res.stdout)
	}

	res = runCLI(t, dir, "graph", "--format", "json")
	if res.err != nil {
		t.Fatalf("graph --format json error: %v", res.err)
	}
	var desc struct {
		Order []string `json:"order"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &desc); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(desc.Order) != 4 {
		t.Errorf("order = %v, want 4 nodes", desc.Order)
	}

	res = runCLI(t, dir, "graph")
	if res.err != nil {
		t.Fatalf("graph error: %v", res.err)
	}
	for _, want := range []string{"demo (start: search)", "platforms", "search.results", "Logger ← logging"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("tree output missing %q:\n%s", want, res.stdout)
		}
	}

	res = runCLI(t, dir, "graph", "--format", "xml")
	if code := exitCode(res.err); code != ExitUsage {
		t.Errorf("unknown format exit code = %d, want %d", code, ExitUsage)
	}
}

func TestRoutesCommand(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, map[string]string{"skeleton.cue": demoDeclarations})

	res := runCLI(t, dir, "routes", "--format", "yaml")
	if res.err != nil {
		t.Fatalf("routes error: %v", res.err)
	}
	if !strings.Contains(res.stdout, "route: search/results") {
		t.Errorf("unexpected yaml output:\n%s", res.stdout)
	}

	res = runCLI(t, dir, "routes")
	if res.err != nil {
		t.Fatalf("routes error: %v", res.err)
	}
	for _, want := range []string{"ROUTE", "search/results", "subfeature"} {
		if !strings.Contains(res.stdout, want) {
			t.Errorf("table missing %q:\n%s", want, res.stdout)
		}
	}
}

func TestNewCommandScaffoldsValidGraph(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, args := range [][]string{
		{"new", "feature", "movies", "--start", "list"},
		{"new", "subfeature", "movies", "details"},
		{"new", "library", "catalog"},
	} {
		if res := runCLI(t, dir, args...); res.err != nil {
			t.Fatalf("%v error: %v\nstderr: %s", args, res.err, res.stderr)
		}
	}

	res := runCLI(t, dir, "new", "feature", "movies")
	if code := exitCode(res.err); code != ExitFailure {
		t.Errorf("re-scaffolding without --force: exit code = %d, want %d", code, ExitFailure)
	}

	// Without an app root the graph is still valid.
	res = runCLI(t, dir, "check")
	if res.err != nil {
		t.Fatalf("check error: %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "1 library, 1 feature, 2 subfeatures") {
		t.Errorf("unexpected summary:\n%s", res.stdout)
	}
}

func TestNewCommandUsesConfiguredApp(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	res := runCLI(t, dir, "config", "init", "--app-name", "movies", "--base-package", "example.com/movies")
	if res.err != nil {
		t.Fatalf("config init error: %v\nstderr: %s", res.err, res.stderr)
	}
	for _, args := range [][]string{
		{"new", "feature", "search", "--start", "results"},
		{"new", "feature", "profile"},
		{"new", "library", "catalog"},
	} {
		if res := runCLI(t, dir, args...); res.err != nil {
			t.Fatalf("%v error: %v\nstderr: %s", args, res.err, res.stderr)
		}
	}

	root, err := os.ReadFile(filepath.Join(dir, "skeleton.cue"))
	if err != nil {
		t.Fatalf("app root not written: %v", err)
	}
	if !strings.Contains(string(root), `app: {name: "movies", start: "search"}`) {
		t.Errorf("app root should start at the first feature:\n%s", root)
	}

	modules, err := os.ReadFile(filepath.Join(dir, "app", "modules.go"))
	if err != nil {
		t.Fatalf("module registry not written: %v", err)
	}
	for _, want := range []string{
		`"example.com/movies/feature/profile"`,
		`"example.com/movies/feature/search"`,
		`"example.com/movies/library/catalog"`,
		"catalog.Bind(b)",
	} {
		if !strings.Contains(string(modules), want) {
			t.Errorf("app/modules.go missing %s:\n%s", want, modules)
		}
	}

	res = runCLI(t, dir, "check")
	if res.err != nil {
		t.Fatalf("check error: %v\nstderr: %s", res.err, res.stderr)
	}
	if !strings.Contains(res.stdout, "app movies starts at search") {
		t.Errorf("check should report the scaffolded app root:\n%s", res.stdout)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	res := runCLI(t, dir, "config", "init", "--app-name", "demo", "--base-package", "example.com/demo")
	if res.err != nil {
		t.Fatalf("config init error: %v\nstderr: %s", res.err, res.stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, ".skeleton.cue")); err != nil {
		t.Fatalf("config file not written: %v", err)
	}

	res = runCLI(t, dir, "config", "init")
	if code := exitCode(res.err); code != ExitFailure {
		t.Errorf("init over existing file: exit code = %d, want %d", code, ExitFailure)
	}

	res = runCLI(t, dir, "config", "dump", "--format", "json")
	if res.err != nil {
		t.Fatalf("config dump error: %v", res.err)
	}
	var cfg struct {
		AppName     string `json:"app_name"`
		BasePackage string `json:"base_package"`
	}
	if err := json.Unmarshal([]byte(res.stdout), &cfg); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if cfg.AppName != "demo" || cfg.BasePackage != "example.com/demo" {
		t.Errorf("dumped config = %+v", cfg)
	}

	// The project config file is not mistaken for a declaration file.
	testutil.MustWriteFile(t, filepath.Join(dir, "skeleton.cue"), demoDeclarations)
	if res := runCLI(t, dir, "check"); res.err != nil {
		t.Fatalf("check with project config error: %v\nstderr: %s", res.err, res.stderr)
	}

	res = runCLI(t, dir, "config", "path")
	if res.err != nil {
		t.Fatalf("config path error: %v", res.err)
	}
	if !strings.Contains(res.stdout, "loaded:  "+filepath.Join(dir, ".skeleton.cue")) {
		t.Errorf("config path should list the project file:\n%s", res.stdout)
	}
}

func TestConfigInitTOMLDrivesBuild(t *testing.T) {
	t.Parallel()

	dir := testutil.WriteTree(t, map[string]string{"skeleton.cue": demoDeclarations})
	if res := runCLI(t, dir, "config", "init", "--format", "toml"); res.err != nil {
		t.Fatalf("config init error: %v", res.err)
	}
	path := filepath.Join(dir, ".skeleton.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	for _, quote := range []string{"'", `"`} {
		data = bytes.Replace(data, []byte("dir = "+quote+"appgraph"+quote), []byte(`dir = "internal/wiring"`), 1)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}

	if res := runCLI(t, dir, "build"); res.err != nil {
		t.Fatalf("build error: %v\nstderr: %s", res.err, res.stderr)
	}
	if _, err := os.Stat(filepath.Join(dir, "internal", "wiring", "nodes.go")); err != nil {
		t.Errorf("build should honor output.dir from the project config: %v", err)
	}
}
