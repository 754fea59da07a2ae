// SPDX-License-Identifier: MPL-2.0

package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/skeleton-dev/skeleton/internal/config"
	"github.com/skeleton-dev/skeleton/pkg/decl"
)

type (
	// DiscoveredFile is one declaration file and what it contributed.
	DiscoveredFile struct {
		// Path is the absolute path to the file.
		Path string
		// SearchPath is the configured search path the file was found under.
		SearchPath string
		// Declarations counts the declarations the file contributed.
		Declarations int
		// HasApp reports whether the file declares the app root.
		HasApp bool
		// Error is set when the file failed to parse.
		Error error
	}

	// Result bundles the merged declarations with the files they came from and
	// the diagnostics produced while loading them.
	Result struct {
		Set         decl.Set
		Files       []*DiscoveredFile
		Diagnostics []Diagnostic
	}

	// Option configures a Discovery.
	Option func(*Discovery)

	// Discovery finds and loads declaration files.
	Discovery struct {
		searchPaths []string
		baseDir     string
		skipDirs    []string
		logger      *log.Logger
	}
)

// WithBaseDir resolves relative search paths against dir instead of the
// working directory.
func WithBaseDir(dir string) Option {
	return func(d *Discovery) { d.baseDir = dir }
}

// WithSearchPaths replaces the configured search paths.
func WithSearchPaths(paths ...string) Option {
	return func(d *Discovery) { d.searchPaths = paths }
}

// WithSkipDir excludes an additional directory from the walk. Relative paths
// are resolved against the base directory.
func WithSkipDir(dir string) Option {
	return func(d *Discovery) { d.skipDirs = append(d.skipDirs, dir) }
}

// WithLogger sets the logger for debug output.
func WithLogger(l *log.Logger) Option {
	return func(d *Discovery) { d.logger = l }
}

// New creates a Discovery for cfg's search paths. The output directory of
// cfg is never searched.
func New(cfg *config.Config, opts ...Option) *Discovery {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	d := &Discovery{
		baseDir:  ".",
		skipDirs: []string{string(cfg.Output.Dir)},
		logger:   log.New(io.Discard),
	}
	for _, p := range cfg.SearchPaths {
		d.searchPaths = append(d.searchPaths, string(p))
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Discover walks every search path, parses the declaration files it finds in
// lexical path order and merges them. It returns decl.ErrNoDeclarations when
// no file was found; files that fail to parse are reported as diagnostics.
func (d *Discovery) Discover(ctx context.Context) (*Result, error) {
	res := &Result{}
	paths, err := d.findFiles(ctx, res)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return res, fmt.Errorf("searched %s: %w", strings.Join(d.searchPaths, ", "), decl.ErrNoDeclarations)
	}

	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f := &DiscoveredFile{Path: p.path, SearchPath: p.searchPath}
		res.Files = append(res.Files, f)

		set, err := decl.ParseFile(p.path)
		if err != nil {
			f.Error = err
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityError,
				Code:     CodeParseFailed,
				Message:  "failed to parse declaration file",
				Path:     p.path,
				Cause:    err,
			})
			continue
		}
		f.Declarations = len(set.Declarations)
		f.HasApp = set.App != nil
		d.logger.Debug("loaded declarations", "path", p.path, "count", f.Declarations)

		if err := res.Set.Merge(set); err != nil {
			var conflict *decl.ConflictingAppError
			if !errors.As(err, &conflict) {
				return nil, err
			}
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityError,
				Code:     CodeConflictingApp,
				Message:  conflict.Error(),
				Path:     p.path,
				Cause:    err,
			})
		}
	}
	return res, nil
}

type foundFile struct {
	path       string
	searchPath string
}

func (d *Discovery) findFiles(ctx context.Context, res *Result) ([]foundFile, error) {
	skip := make(map[string]bool, len(d.skipDirs))
	for _, s := range d.skipDirs {
		if s == "" {
			continue
		}
		if abs, err := filepath.Abs(d.resolve(s)); err == nil {
			skip[abs] = true
		}
	}

	seen := make(map[string]bool)
	var found []foundFile
	for _, sp := range d.searchPaths {
		root, err := filepath.Abs(d.resolve(sp))
		if err != nil {
			return nil, fmt.Errorf("resolve search path %s: %w", sp, err)
		}
		if _, err := os.Stat(root); err != nil {
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Severity: SeverityWarning,
				Code:     CodeSearchPathMissing,
				Message:  "search path does not exist",
				Path:     root,
				Cause:    err,
			})
			continue
		}

		var inPath []foundFile
		err = filepath.WalkDir(root, func(path string, e fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if e.IsDir() {
				if path != root && (skip[path] || skippedDirName(e.Name())) {
					return filepath.SkipDir
				}
				return nil
			}
			if !decl.IsDeclarationFile(e.Name()) {
				return nil
			}
			if seen[path] {
				res.Diagnostics = append(res.Diagnostics, Diagnostic{
					Severity: SeverityWarning,
					Code:     CodeDuplicateFile,
					Message:  "file reached through more than one search path; loaded once",
					Path:     path,
				})
				return nil
			}
			seen[path] = true
			inPath = append(inPath, foundFile{path: path, searchPath: sp})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", sp, err)
		}
		found = append(found, inPath...)
	}
	slices.SortStableFunc(found, func(a, b foundFile) int { return strings.Compare(a.path, b.path) })
	return found, nil
}

func (d *Discovery) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.baseDir, p)
}

// skippedDirName reports directories that never hold declarations.
func skippedDirName(name string) bool {
	switch name {
	case "vendor", "testdata", "node_modules":
		return true
	}
	return strings.HasPrefix(name, ".") && name != "."
}
