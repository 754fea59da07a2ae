// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"slices"

	"github.com/skeleton-dev/skeleton/pkg/decl"
	"github.com/skeleton-dev/skeleton/pkg/semver"
)

// Resolve binds every require entry to the single in-scope provider of the
// capability whose version satisfies the entry's constraint. Nodes are
// processed in id order and every failure is reported.
func Resolve(g *RawGraph) (*ResolvedGraph, error) {
	rg := &ResolvedGraph{
		RawGraph:   g,
		byConsumer: make(map[decl.NodeID][]Edge),
	}

	var errs []error
	for _, id := range g.ids {
		n := g.nodes[id]
		scope := g.scopeOf(n)
		for _, req := range n.Requires {
			edge, err := g.resolveOne(n, scope, req)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			rg.edges = append(rg.edges, edge)
			rg.byConsumer[id] = append(rg.byConsumer[id], edge)
		}
	}
	if len(errs) > 0 {
		return nil, &BuildError{Phase: PhaseResolve, Errors: errs}
	}
	return rg, nil
}

// InScope reports whether provider is visible to consumer.
func (g *RawGraph) InScope(consumer, provider decl.NodeID) bool {
	n, ok := g.nodes[consumer]
	if !ok {
		return false
	}
	return g.scopeOf(n)[provider]
}

func (g *RawGraph) scopeOf(n *Node) map[decl.NodeID]bool {
	scope := make(map[decl.NodeID]bool)
	for _, id := range g.ids {
		if id == n.ID {
			continue
		}
		if g.nodes[id].Kind.Singleton() {
			scope[id] = true
		}
	}
	for _, id := range g.Ancestors(n.ID) {
		scope[id] = true
	}
	for _, id := range n.Dependencies {
		if _, ok := g.nodes[id]; ok && id != n.ID {
			scope[id] = true
		}
	}
	return scope
}

func (g *RawGraph) resolveOne(n *Node, scope map[decl.NodeID]bool, req decl.RequiredCapability) (Edge, error) {
	constraint, err := req.Constraint()
	if err != nil {
		return Edge{}, structural(n.ID, "requires %s: %v", req.Name, err)
	}

	var candidates, rejected, outOfScope []decl.NodeID
	var version string
	for _, id := range g.ids {
		if id == n.ID {
			continue
		}
		p, ok := g.nodes[id].ProvidesCapability(req.Name)
		if !ok {
			continue
		}
		if !scope[id] {
			outOfScope = append(outOfScope, id)
			continue
		}
		v, err := p.SemVer()
		if err != nil || !semver.Satisfies(v, constraint) {
			rejected = append(rejected, id)
			continue
		}
		candidates = append(candidates, id)
		version = p.Version
	}

	switch len(candidates) {
	case 0:
		return Edge{}, &UnsatisfiedDependencyError{
			Node:       n.ID,
			Capability: req.Name,
			Constraint: req.Version,
			OutOfScope: outOfScope,
			Rejected:   rejected,
		}
	case 1:
		return Edge{Consumer: n.ID, Provider: candidates[0], Capability: req.Name, Version: version}, nil
	default:
		return Edge{}, &AmbiguousDependencyError{
			Node:       n.ID,
			Capability: req.Name,
			Candidates: slices.Clone(candidates),
		}
	}
}
