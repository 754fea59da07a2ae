// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"fmt"
	"slices"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

type (
	// Node is a collected declaration plus the hierarchy facts derived from
	// the rest of the set.
	Node struct {
		decl.Declaration
		// Children lists the subfeatures a feature owns, sorted by id.
		Children []decl.NodeID
	}

	// Edge binds one require entry of Consumer to the single Provider that
	// satisfies it.
	Edge struct {
		Consumer   decl.NodeID     `json:"consumer" yaml:"consumer"`
		Provider   decl.NodeID     `json:"provider" yaml:"provider"`
		Capability decl.Capability `json:"capability" yaml:"capability"`
		// Version is the provider's declared version of the capability.
		Version string `json:"version,omitempty" yaml:"version,omitempty"`
	}

	// RawGraph is the result of Collect: every node indexed by id and route,
	// with no dependency resolution yet.
	RawGraph struct {
		app    *decl.App
		nodes  map[decl.NodeID]*Node
		ids    []decl.NodeID
		routes map[decl.Route]decl.NodeID
	}

	// ResolvedGraph is a RawGraph plus one Edge per require entry.
	ResolvedGraph struct {
		*RawGraph
		edges      []Edge
		byConsumer map[decl.NodeID][]Edge
	}
)

// Collect gathers declarations into a RawGraph. Invalid declarations,
// duplicate ids and duplicate routes are all reported together.
func Collect(set decl.Set) (*RawGraph, error) {
	var errs []error

	byID := make(map[decl.NodeID][]int)
	var order []decl.NodeID
	for i, d := range set.Declarations {
		if valid, fieldErrs := d.IsValid(); !valid {
			errs = append(errs, fieldErrs...)
		}
		if _, seen := byID[d.ID]; !seen {
			order = append(order, d.ID)
		}
		byID[d.ID] = append(byID[d.ID], i)
	}

	g := &RawGraph{
		nodes:  make(map[decl.NodeID]*Node, len(byID)),
		routes: make(map[decl.Route]decl.NodeID),
	}
	if set.App != nil {
		app := *set.App
		g.app = &app
	}

	slices.Sort(order)
	for _, id := range order {
		idx := byID[id]
		if len(idx) > 1 {
			sources := make([]string, 0, len(idx))
			for _, i := range idx {
				sources = append(sources, sourceOf(set.Declarations[i], i))
			}
			errs = append(errs, &DuplicateIDError{ID: id, Sources: sources})
		}
		g.nodes[id] = &Node{Declaration: set.Declarations[idx[0]].Clone()}
		g.ids = append(g.ids, id)
	}

	claims := make(map[decl.Route][]decl.NodeID)
	for _, id := range g.ids {
		n := g.nodes[id]
		if n.Route == "" {
			continue
		}
		claims[n.Route] = append(claims[n.Route], id)
	}
	routes := make([]decl.Route, 0, len(claims))
	for r := range claims {
		routes = append(routes, r)
	}
	slices.Sort(routes)
	for _, r := range routes {
		owners := claims[r]
		if len(owners) > 1 {
			errs = append(errs, &DuplicateRouteError{Route: r, IDs: owners})
			continue
		}
		g.routes[r] = owners[0]
	}

	for _, id := range g.ids {
		n := g.nodes[id]
		if n.Kind != decl.KindSubfeature || n.Parent == "" {
			continue
		}
		if parent, ok := g.nodes[n.Parent]; ok {
			parent.Children = append(parent.Children, id)
		}
	}

	if len(errs) > 0 {
		return nil, &BuildError{Phase: PhaseCollect, Errors: errs}
	}
	return g, nil
}

func sourceOf(d decl.Declaration, index int) string {
	if d.Source != "" {
		return d.Source
	}
	return fmt.Sprintf("declaration #%d", index)
}

// App returns the application root, or nil when none was declared.
func (g *RawGraph) App() *decl.App {
	return g.app
}

// Node returns the node with the given id.
func (g *RawGraph) Node(id decl.NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// IDs returns every node id, sorted.
func (g *RawGraph) IDs() []decl.NodeID {
	return slices.Clone(g.ids)
}

// Nodes returns every node, sorted by id.
func (g *RawGraph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodesOfKind returns the nodes of kind k, sorted by id.
func (g *RawGraph) NodesOfKind(k decl.Kind) []*Node {
	var out []*Node
	for _, id := range g.ids {
		if n := g.nodes[id]; n.Kind == k {
			out = append(out, n)
		}
	}
	return out
}

// Routes returns every claimed route, sorted.
func (g *RawGraph) Routes() []decl.Route {
	out := make([]decl.Route, 0, len(g.routes))
	for r := range g.routes {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// RouteOwner returns the node owning route r.
func (g *RawGraph) RouteOwner(r decl.Route) (*Node, bool) {
	id, ok := g.routes[r]
	if !ok {
		return nil, false
	}
	return g.nodes[id], true
}

// Ancestors returns the owning chain of id, nearest first. Only subfeatures
// have ancestors.
func (g *RawGraph) Ancestors(id decl.NodeID) []decl.NodeID {
	var out []decl.NodeID
	seen := map[decl.NodeID]bool{id: true}
	for n, ok := g.nodes[id]; ok && n.Parent != ""; n, ok = g.nodes[n.Parent] {
		if seen[n.Parent] {
			break
		}
		seen[n.Parent] = true
		out = append(out, n.Parent)
	}
	return out
}

// Edges returns every edge ordered by consumer id, then by require order.
func (g *ResolvedGraph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// EdgesOf returns the edges of consumer id in require order.
func (g *ResolvedGraph) EdgesOf(id decl.NodeID) []Edge {
	return slices.Clone(g.byConsumer[id])
}

// Dependents returns the ids of nodes consuming at least one capability of
// provider id, sorted.
func (g *ResolvedGraph) Dependents(id decl.NodeID) []decl.NodeID {
	var out []decl.NodeID
	for _, e := range g.edges {
		if e.Provider == id && !slices.Contains(out, e.Consumer) {
			out = append(out, e.Consumer)
		}
	}
	slices.Sort(out)
	return out
}
