// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed graph operations for topological sorting and
// cycle detection. The graph builder uses it to order providers before their
// consumers and to report dependency cycles as concrete paths.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

const (
	white color = iota
	grey
	black
)

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError struct {
		// Cycle is a closed path: the first and last elements are the same
		// node and every consecutive pair is an edge of the graph.
		Cycle []string
	}

	// Graph is a directed graph for topological sorting.
	// Nodes are identified by string keys. Edges represent "must come before"
	// relationships: an edge from A to B means A must be ordered before B.
	Graph struct {
		// adjacency maps each node to its outgoing neighbors in insertion order.
		adjacency map[string][]string
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []string
		// nodeSet provides O(1) lookup for node existence.
		nodeSet map[string]bool
	}

	color uint8
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to, meaning "from" must come before "to".
// Both nodes are implicitly added if they don't exist. Repeated edges are
// stored once.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.adjacency[from], to) {
		return
	}
	g.adjacency[from] = append(g.adjacency[from], to)
}

// HasNode reports whether name was added.
func (g *Graph) HasNode(name string) bool {
	return g.nodeSet[name]
}

// TopologicalSort returns a valid ordering using Kahn's algorithm.
// Returns CycleError if the graph contains a cycle.
// The returned order is deterministic: nodes at the same topological level
// appear in the order they were first added to the graph.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = 0
	}
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	queue := make([]string, 0)
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				queue = append(queue, neighbor)
			}
		}
	}

	if len(result) != len(g.nodes) {
		if cycle := g.FindCycle(); cycle != nil {
			return nil, &CycleError{Cycle: cycle}
		}
		// Unreachable: Kahn only stalls on a cycle.
		return nil, &CycleError{}
	}

	return result, nil
}

// FindCycle returns the first cycle found by a depth-first search that visits
// roots and neighbors in insertion order, as a closed path (first == last).
// It returns nil when the graph is acyclic.
func (g *Graph) FindCycle() []string {
	colors := make(map[string]color, len(g.nodes))
	var stack []string

	var visit func(node string) []string
	visit = func(node string) []string {
		colors[node] = grey
		stack = append(stack, node)
		for _, next := range g.adjacency[node] {
			switch colors[next] {
			case grey:
				start := slices.Index(stack, next)
				cycle := slices.Clone(stack[start:])
				return append(cycle, next)
			case white:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		colors[node] = black
		return nil
	}

	for _, node := range g.nodes {
		if colors[node] != white {
			continue
		}
		if cycle := visit(node); cycle != nil {
			return cycle
		}
	}
	return nil
}
