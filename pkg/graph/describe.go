// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"fmt"
	"io"
	"strings"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

type (
	// Description is a serializable summary of a resolved graph, used by the
	// CLI's yaml and json output.
	Description struct {
		App    *AppDescription   `json:"app,omitempty" yaml:"app,omitempty"`
		Nodes  []NodeDescription `json:"nodes" yaml:"nodes"`
		Edges  []Edge            `json:"edges" yaml:"edges"`
		Order  []decl.NodeID     `json:"order" yaml:"order"`
		Routes []RouteBinding    `json:"routes" yaml:"routes"`
	}

	// AppDescription summarizes the app root.
	AppDescription struct {
		Name  string      `json:"name" yaml:"name"`
		Start decl.NodeID `json:"start" yaml:"start"`
	}

	// NodeDescription summarizes a node.
	NodeDescription struct {
		ID          decl.NodeID       `json:"id" yaml:"id"`
		Kind        decl.Kind         `json:"kind" yaml:"kind"`
		Route       decl.Route        `json:"route,omitempty" yaml:"route,omitempty"`
		Parent      decl.NodeID       `json:"parent,omitempty" yaml:"parent,omitempty"`
		Start       decl.NodeID       `json:"start,omitempty" yaml:"start,omitempty"`
		Children    []decl.NodeID     `json:"children,omitempty" yaml:"children,omitempty"`
		Provides    []decl.Capability `json:"provides,omitempty" yaml:"provides,omitempty"`
		Source      string            `json:"source,omitempty" yaml:"source,omitempty"`
		Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	}

	// RouteBinding maps a route to its owning node.
	RouteBinding struct {
		Route decl.Route  `json:"route" yaml:"route"`
		Node  decl.NodeID `json:"node" yaml:"node"`
		Kind  decl.Kind   `json:"kind" yaml:"kind"`
	}
)

// Describe summarizes g.
func (g *ResolvedGraph) Describe() Description {
	d := Description{
		Edges: g.Edges(),
		Order: g.Order(),
	}
	if g.app != nil {
		d.App = &AppDescription{Name: g.app.Name, Start: g.app.Start}
	}
	for _, n := range g.Nodes() {
		d.Nodes = append(d.Nodes, NodeDescription{
			ID:          n.ID,
			Kind:        n.Kind,
			Route:       n.Route,
			Parent:      n.Parent,
			Start:       n.Start,
			Children:    n.Children,
			Provides:    n.ProvidedNames(),
			Source:      n.Source,
			Description: n.Declaration.Description,
		})
	}
	for _, r := range g.Routes() {
		n, _ := g.RouteOwner(r)
		d.Routes = append(d.Routes, RouteBinding{Route: r, Node: n.ID, Kind: n.Kind})
	}
	return d
}

// WriteDOT renders g in Graphviz dot syntax. Solid arrows point from consumer
// to provider and are labelled with the capability; dashed arrows point from
// a subfeature to its owning feature.
func (g *ResolvedGraph) WriteDOT(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("digraph skeleton {\n\trankdir=LR;\n")
	for _, n := range g.Nodes() {
		fmt.Fprintf(&sb, "\t%q [shape=%s, label=%q];\n", n.ID, dotShape(n.Kind), string(n.ID)+"\n("+string(n.Kind)+")")
	}
	for _, n := range g.Nodes() {
		if n.Kind == decl.KindSubfeature && n.Parent != "" {
			fmt.Fprintf(&sb, "\t%q -> %q [style=dashed];\n", n.ID, n.Parent)
		}
	}
	for _, e := range g.edges {
		fmt.Fprintf(&sb, "\t%q -> %q [label=%q];\n", e.Consumer, e.Provider, e.Capability)
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func dotShape(k decl.Kind) string {
	switch k {
	case decl.KindPlatform:
		return "box3d"
	case decl.KindLibrary:
		return "box"
	case decl.KindFeature:
		return "folder"
	default:
		return "ellipse"
	}
}
