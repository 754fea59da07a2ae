// SPDX-License-Identifier: MPL-2.0

package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"go/format"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

const (
	// FeatureDir holds one directory per feature.
	FeatureDir = "feature"
	// LibraryDir holds one directory per library.
	LibraryDir = "library"
	// DefaultStartScreen names the start subfeature when none is given.
	DefaultStartScreen = "main"
	// AppDir holds the registry of every scaffolded module's Bind function.
	AppDir = "app"
	// ModulesFile is the registry file under AppDir. It is rewritten on every
	// scaffold.
	ModulesFile = "modules.go"
	// ModulesHeader marks ModulesFile as generated.
	ModulesHeader = "// Code generated by skeleton new. DO NOT EDIT."
)

var (
	// ErrInvalidName is returned for names that yield no valid node id or
	// package name.
	ErrInvalidName = errors.New("invalid name")
	// ErrFeatureNotFound is returned when a subfeature's feature has not
	// been scaffolded.
	ErrFeatureNotFound = errors.New("feature not found")

	//go:embed templates/*.tmpl
	templateFS embed.FS

	templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
)

type (
	// File is one file a scaffold writes, relative to the project root.
	File struct {
		Path    string
		Content []byte
	}

	// Options configures a Scaffolder.
	Options struct {
		// Force overwrites existing files.
		Force bool
		// AppName is written into the app root of the first scaffolded
		// feature when the project has no root declaration file yet.
		AppName string
		// BasePackage is the module path of the project. When set, every
		// scaffold regenerates app/modules.go importing each feature and
		// library under it.
		BasePackage string
	}

	// Scaffolder writes scaffolds under a project root.
	Scaffolder struct {
		root string
		opts Options
	}

	appData struct {
		Name    string
		Package string
	}

	module struct {
		Name   string
		Alias  string
		Import string
	}

	node struct {
		Names
		ID    decl.NodeID
		Route decl.Route
	}

	templateData struct {
		Header  string
		App     appData
		Feature node
		Screen  node
		Library node
		Modules []module
	}
)

// New returns a Scaffolder writing under root.
func New(root string, opts Options) *Scaffolder {
	return &Scaffolder{root: root, opts: opts}
}

// Feature writes a feature named name with a start subfeature named start
// (DefaultStartScreen when empty).
func (s *Scaffolder) Feature(name, start string) ([]File, error) {
	if start == "" {
		start = DefaultStartScreen
	}
	feature, screen, err := featureNodes(name, start)
	if err != nil {
		return nil, err
	}
	data := templateData{Feature: feature, Screen: screen, App: appData{Name: s.opts.AppName}}
	dir := filepath.Join(FeatureDir, feature.Kebab)

	plans := []plan{
		{filepath.Join(dir, decl.FileName), "feature.cue.tmpl"},
		{filepath.Join(dir, feature.Flat+".go"), "feature.go.tmpl"},
		{filepath.Join(dir, screen.Snake+".go"), "subfeature.go.tmpl"},
	}
	if s.opts.AppName != "" && !s.exists(decl.FileName) {
		plans = append(plans, plan{decl.FileName, "app.cue.tmpl"})
	}
	files, err := renderAll(data, plans)
	if err != nil {
		return nil, err
	}
	return s.finish(files)
}

// Subfeature adds a subfeature named name to an existing feature.
func (s *Scaffolder) Subfeature(featureName, name string) ([]File, error) {
	feature, screen, err := featureNodes(featureName, name)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(FeatureDir, feature.Kebab)
	if _, err := os.Stat(filepath.Join(s.root, dir, decl.FileName)); err != nil {
		return nil, fmt.Errorf("%w: %s (run 'skeleton new feature %s' first)", ErrFeatureNotFound, feature.Kebab, feature.Kebab)
	}

	files, err := renderAll(templateData{Feature: feature, Screen: screen}, []plan{
		{filepath.Join(dir, screen.Snake+"."+decl.FileName), "subfeature.cue.tmpl"},
		{filepath.Join(dir, screen.Snake+".go"), "subfeature.go.tmpl"},
	})
	if err != nil {
		return nil, err
	}
	return s.finish(files)
}

// Library writes a library named name providing one capability of the same
// name.
func (s *Scaffolder) Library(name string) ([]File, error) {
	names, err := NewNames(name)
	if err != nil {
		return nil, err
	}
	lib := node{Names: names, ID: decl.NodeID(names.Kebab)}
	dir := filepath.Join(LibraryDir, names.Kebab)

	files, err := renderAll(templateData{Library: lib}, []plan{
		{filepath.Join(dir, decl.FileName), "library.cue.tmpl"},
		{filepath.Join(dir, names.Flat+".go"), "library.go.tmpl"},
	})
	if err != nil {
		return nil, err
	}
	return s.finish(files)
}

// finish writes files and, when a base package is configured, regenerates
// the module registry.
func (s *Scaffolder) finish(files []File) ([]File, error) {
	if err := s.write(files); err != nil {
		return nil, err
	}
	if s.opts.BasePackage == "" {
		return files, nil
	}
	registry, err := s.modules()
	if err != nil {
		return nil, err
	}
	dst := filepath.Join(s.root, registry.Path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", AppDir, err)
	}
	if err := os.WriteFile(dst, registry.Content, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", registry.Path, err)
	}
	return append(files, registry), nil
}

// modules renders app/modules.go from the feature and library directories
// currently on disk. Packages whose names clash are imported under an alias
// suffixed with their kind.
func (s *Scaffolder) modules() (File, error) {
	var mods []module
	count := map[string]int{}
	for _, kind := range []string{FeatureDir, LibraryDir} {
		entries, err := os.ReadDir(filepath.Join(s.root, kind))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return File{}, fmt.Errorf("list %s: %w", kind, err)
		}
		for _, e := range entries {
			if !e.IsDir() || !s.exists(filepath.Join(kind, e.Name(), decl.FileName)) {
				continue
			}
			names, err := NewNames(e.Name())
			if err != nil {
				continue
			}
			mods = append(mods, module{
				Name:   names.Flat,
				Alias:  kind,
				Import: path.Join(s.opts.BasePackage, kind, e.Name()),
			})
			count[names.Flat]++
		}
	}
	for i := range mods {
		if count[mods[i].Name] > 1 {
			mods[i].Name += mods[i].Alias
			mods[i].Alias = mods[i].Name
		} else {
			mods[i].Alias = ""
		}
	}
	slices.SortFunc(mods, func(a, b module) int { return strings.Compare(a.Import, b.Import) })

	app := appData{Name: s.opts.AppName, Package: AppDir}
	if app.Name == "" {
		app.Name = "the application"
	}
	files, err := renderAll(templateData{Header: ModulesHeader, App: app, Modules: mods}, []plan{
		{filepath.Join(AppDir, ModulesFile), "modules.go.tmpl"},
	})
	if err != nil {
		return File{}, err
	}
	return files[0], nil
}

func (s *Scaffolder) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.root, rel))
	return err == nil
}

func featureNodes(featureName, screenName string) (node, node, error) {
	fn, err := NewNames(featureName)
	if err != nil {
		return node{}, node{}, err
	}
	sn, err := NewNames(screenName)
	if err != nil {
		return node{}, node{}, err
	}
	feature := node{Names: fn, ID: decl.NodeID(fn.Kebab), Route: decl.Route(fn.Kebab)}
	screen := node{
		Names: sn,
		ID:    decl.NodeID(fn.Kebab + "." + sn.Kebab),
		Route: decl.Route(fn.Kebab + "/" + sn.Kebab),
	}
	return feature, screen, nil
}

type plan struct {
	path     string
	template string
}

func renderAll(data templateData, plans []plan) ([]File, error) {
	files := make([]File, 0, len(plans))
	seen := make(map[string]bool, len(plans))
	for _, p := range plans {
		if seen[p.path] {
			return nil, fmt.Errorf("%w: two scaffold files map to %s", ErrInvalidName, p.path)
		}
		seen[p.path] = true

		var buf bytes.Buffer
		if err := templates.ExecuteTemplate(&buf, p.template, data); err != nil {
			return nil, fmt.Errorf("render %s: %w", p.path, err)
		}
		content := buf.Bytes()
		if strings.HasSuffix(p.path, ".go") {
			formatted, err := format.Source(content)
			if err != nil {
				return nil, fmt.Errorf("format %s: %w", p.path, err)
			}
			content = formatted
		}
		files = append(files, File{Path: p.path, Content: content})
	}
	return files, nil
}

// write refuses to touch anything when one target exists and force is off.
func (s *Scaffolder) write(files []File) error {
	if !s.opts.Force {
		for _, f := range files {
			if s.exists(f.Path) {
				return fmt.Errorf("%s already exists (use --force to overwrite): %w", f.Path, fs.ErrExist)
			}
		}
	}
	for _, f := range files {
		path := filepath.Join(s.root, f.Path)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(f.Path), err)
		}
		if err := os.WriteFile(path, f.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
	}
	return nil
}
