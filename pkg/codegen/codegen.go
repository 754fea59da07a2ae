// SPDX-License-Identifier: MPL-2.0

package codegen

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"slices"
	"strings"
	"text/template"

	"github.com/skeleton-dev/skeleton/pkg/decl"
	"github.com/skeleton-dev/skeleton/pkg/graph"
)

const (
	// Header marks every generated file. WriteDir only removes files that
	// start with it.
	Header = "// Code generated by skeleton. DO NOT EDIT."

	// DefaultPackage is the package name used when Options.Package is empty.
	DefaultPackage = "appgraph"

	runtimeImport = "github.com/skeleton-dev/skeleton/pkg"

	nodesFile  = "nodes.go"
	routesFile = "routes.go"
)

var (
	// ErrInvalidPackage is returned when Options.Package is not a Go identifier.
	ErrInvalidPackage = errors.New("invalid package name")
	// ErrNameCollision is the sentinel error wrapped by NameCollisionError.
	ErrNameCollision = errors.New("generated name collision")

	//go:embed templates/*.tmpl
	templateFS embed.FS

	templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))
)

type (
	// Options controls generation.
	Options struct {
		// Package is the package clause of generated files.
		Package string
	}

	// File is one generated source file.
	File struct {
		Name    string
		Content []byte
	}

	// Artifacts is the complete generator output, sorted by file name.
	Artifacts struct {
		Files []File
	}

	// NameCollisionError is returned when two ids or capabilities map to the
	// same Go identifier or file name.
	NameCollisionError struct {
		Kind   string
		Name   string
		Values []string
	}

	nodeData struct {
		ID         decl.NodeID
		Ident      string
		Func       string
		NodeConst  string
		KindConst  string
		KindWord   string
		File       string
		HasParent  bool
		Parent     string
		Start      string
		Route      decl.Route
		RouteConst string
		Provides   []decl.Capability
		Params     []paramData
	}

	paramData struct {
		Name       string
		Capability decl.Capability
		Expr       string
	}

	capabilityData struct {
		Name  decl.Capability
		Const string
	}

	fileData struct {
		Header       string
		Package      string
		Runtime      string
		Node         *nodeData
		Nodes        []*nodeData
		Singletons   []*nodeData
		Routes       []*nodeData
		Capabilities []capabilityData
		Start        string
	}
)

// Generate renders g.
func Generate(g *graph.ResolvedGraph, opts Options) (*Artifacts, error) {
	pkg := opts.Package
	if pkg == "" {
		pkg = DefaultPackage
	}
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPackage, pkg)
	}

	nodes, err := buildNodes(g)
	if err != nil {
		return nil, err
	}
	caps, err := buildCapabilities(g)
	if err != nil {
		return nil, err
	}

	base := fileData{Header: Header, Package: pkg, Runtime: runtimeImport}
	var files []File
	for _, n := range nodes {
		data := base
		data.Node = n
		content, err := render("container.go.tmpl", data)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", n.ID, err)
		}
		files = append(files, File{Name: "container_" + n.File + ".go", Content: content})
	}

	byID := make(map[decl.NodeID]*nodeData, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	data := base
	data.Nodes = nodes
	data.Capabilities = caps
	content, err := render("nodes.go.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", nodesFile, err)
	}
	files = append(files, File{Name: nodesFile, Content: content})

	data = base
	for _, id := range g.SingletonOrder() {
		data.Singletons = append(data.Singletons, byID[id])
	}
	for _, r := range g.Routes() {
		owner, _ := g.RouteOwner(r)
		data.Routes = append(data.Routes, byID[owner.ID])
	}
	if app := g.App(); app != nil {
		if n, ok := byID[app.Start]; ok {
			data.Start = n.RouteConst
		}
	}
	content, err = render("routes.go.tmpl", data)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", routesFile, err)
	}
	files = append(files, File{Name: routesFile, Content: content})

	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Name, b.Name) })
	return &Artifacts{Files: files}, nil
}

func buildNodes(g *graph.ResolvedGraph) ([]*nodeData, error) {
	idents := make(map[string][]string)
	files := make(map[string][]string)
	var nodes []*nodeData
	for _, n := range g.Nodes() {
		ident := exported(string(n.ID))
		idents[ident] = append(idents[ident], string(n.ID))
		file := fileName(string(n.ID))
		files[file] = append(files[file], string(n.ID))
		nodes = append(nodes, &nodeData{
			ID:        n.ID,
			Ident:     ident,
			Func:      "New" + ident + "Container",
			NodeConst: "Node" + ident,
			KindConst: "decl.Kind" + exported(string(n.Kind)),
			KindWord:  string(n.Kind),
			File:      file,
			HasParent: n.Kind == decl.KindSubfeature,
			Route:     n.Route,
			Provides:  n.ProvidedNames(),
		})
	}
	if err := collisions("identifier", idents); err != nil {
		return nil, err
	}
	if err := collisions("file name", files); err != nil {
		return nil, err
	}

	byID := make(map[decl.NodeID]*nodeData, len(nodes))
	for _, nd := range nodes {
		byID[nd.ID] = nd
	}
	for _, nd := range nodes {
		n, _ := g.Node(nd.ID)
		if nd.Route != "" {
			nd.RouteConst = "Route" + nd.Ident
		}
		if n.Parent != "" {
			nd.Parent = byID[n.Parent].NodeConst
		}
		if n.Start != "" {
			nd.Start = byID[n.Start].NodeConst
		}
		used := make(map[string]bool)
		for _, e := range g.EdgesOf(nd.ID) {
			name := paramName(string(e.Capability))
			for i := 2; used[name]; i++ {
				name = fmt.Sprintf("%s%d", paramName(string(e.Capability)), i)
			}
			used[name] = true
			nd.Params = append(nd.Params, paramData{
				Name:       name,
				Capability: e.Capability,
				Expr:       providerExpr(g, n, e, byID),
			})
		}
	}
	return nodes, nil
}

func buildCapabilities(g *graph.ResolvedGraph) ([]capabilityData, error) {
	seen := make(map[decl.Capability]bool)
	for _, n := range g.Nodes() {
		for _, p := range n.Provides {
			seen[p.Name] = true
		}
		for _, r := range n.Requires {
			seen[r.Name] = true
		}
	}
	names := make([]decl.Capability, 0, len(seen))
	for c := range seen {
		names = append(names, c)
	}
	slices.Sort(names)

	idents := make(map[string][]string)
	out := make([]capabilityData, 0, len(names))
	for _, c := range names {
		ident := "Capability" + exported(string(c))
		idents[ident] = append(idents[ident], string(c))
		out = append(out, capabilityData{Name: c, Const: ident})
	}
	if err := collisions("capability identifier", idents); err != nil {
		return nil, err
	}
	return out, nil
}

// providerExpr is the Providers lookup that yields the provider container of
// edge e at run time.
func providerExpr(g *graph.ResolvedGraph, consumer *graph.Node, e graph.Edge, byID map[decl.NodeID]*nodeData) string {
	provider, _ := g.Node(e.Provider)
	ref := byID[e.Provider].NodeConst
	switch {
	case provider.Kind.Singleton():
		return "p.Singleton(" + ref + ")"
	case consumer.Parent == e.Provider:
		return "p.Parent()"
	case provider.Kind == decl.KindFeature:
		return "p.Feature(" + ref + ")"
	default:
		return "p.Subfeature(" + ref + ")"
	}
}

func collisions(kind string, names map[string][]string) error {
	keys := make([]string, 0, len(names))
	for k := range names {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if vs := names[k]; len(vs) > 1 {
			return &NameCollisionError{Kind: kind, Name: k, Values: vs}
		}
	}
	return nil
}

func render(name string, data fileData) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return out, nil
}

// File returns the content of the named file.
func (a *Artifacts) File(name string) ([]byte, bool) {
	i := slices.IndexFunc(a.Files, func(f File) bool { return f.Name == name })
	if i < 0 {
		return nil, false
	}
	return a.Files[i].Content, true
}

// Names returns the generated file names in order.
func (a *Artifacts) Names() []string {
	names := make([]string, 0, len(a.Files))
	for _, f := range a.Files {
		names = append(names, f.Name)
	}
	return names
}

// Error implements the error interface.
func (e *NameCollisionError) Error() string {
	return fmt.Sprintf("%s %s generated for %q", e.Kind, e.Name, e.Values)
}

// Unwrap returns ErrNameCollision for errors.Is() compatibility.
func (e *NameCollisionError) Unwrap() error { return ErrNameCollision }
