// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"github.com/skeleton-dev/skeleton/internal/dag"
	"github.com/skeleton-dev/skeleton/pkg/decl"
)

// ValidateAcyclic rejects cycles in the "depends on" relation between
// library, feature and subfeature nodes. A subfeature depends on its owning
// feature, so a feature consuming its own subfeature is a cycle.
func ValidateAcyclic(g *ResolvedGraph) error {
	d := dag.New()
	for _, id := range g.ids {
		if g.nodes[id].Kind == decl.KindPlatform {
			continue
		}
		d.AddNode(string(id))
	}
	for _, id := range g.ids {
		n := g.nodes[id]
		if n.Kind == decl.KindPlatform {
			continue
		}
		if n.Kind == decl.KindSubfeature && n.Parent != "" {
			d.AddEdge(string(id), string(n.Parent))
		}
		for _, e := range g.byConsumer[id] {
			// Platforms were left out above and cannot close a cycle.
			if !d.HasNode(string(e.Provider)) {
				continue
			}
			d.AddEdge(string(e.Consumer), string(e.Provider))
		}
	}

	cycle := d.FindCycle()
	if cycle == nil {
		return nil
	}
	path := make([]decl.NodeID, 0, len(cycle))
	for _, id := range cycle {
		path = append(path, decl.NodeID(id))
	}
	return &BuildError{Phase: PhaseAcyclic, Errors: []error{&CycleError{Path: path}}}
}

// Order returns every node id in materialization order: each provider and
// owning feature precedes the nodes that depend on it. The order is
// deterministic for a given graph.
// It returns nil if the graph has a cycle.
func (g *ResolvedGraph) Order() []decl.NodeID {
	d := dag.New()
	for _, id := range g.ids {
		d.AddNode(string(id))
	}
	for _, id := range g.ids {
		n := g.nodes[id]
		if n.Kind == decl.KindSubfeature && n.Parent != "" {
			d.AddEdge(string(n.Parent), string(id))
		}
		for _, e := range g.byConsumer[id] {
			d.AddEdge(string(e.Provider), string(e.Consumer))
		}
	}
	order, err := d.TopologicalSort()
	if err != nil {
		return nil
	}
	out := make([]decl.NodeID, 0, len(order))
	for _, id := range order {
		out = append(out, decl.NodeID(id))
	}
	return out
}

// SingletonOrder returns the platform and library ids in materialization order.
func (g *ResolvedGraph) SingletonOrder() []decl.NodeID {
	var out []decl.NodeID
	for _, id := range g.Order() {
		if g.nodes[id].Kind.Singleton() {
			out = append(out, id)
		}
	}
	return out
}
