// SPDX-License-Identifier: MPL-2.0

package router

import (
	"fmt"
	"slices"

	"github.com/skeleton-dev/skeleton/pkg/container"
	"github.com/skeleton-dev/skeleton/pkg/decl"
)

type (
	// Providers hands a container factory the provider containers its slots
	// point at. Lookups never fail loudly: a missing provider yields nil and
	// the router reports the first such failure after the factory returns.
	Providers interface {
		// Singleton returns a platform or library container.
		Singleton(id decl.NodeID) *container.Container
		// Parent returns the owning feature's container of the subfeature
		// being materialized.
		Parent() *container.Container
		// Feature returns the container of a feature the node depends on
		// explicitly.
		Feature(id decl.NodeID) *container.Container
		// Subfeature returns the container of the topmost active entry of a
		// subfeature the node depends on explicitly.
		Subfeature(id decl.NodeID) *container.Container
	}

	// Factory creates one node's container.
	Factory func(p Providers) (*container.Container, error)

	// SingletonEntry is a platform or library in materialization order.
	SingletonEntry struct {
		Node    decl.NodeID
		Kind    decl.Kind
		Factory Factory
	}

	// RouteEntry binds a route to its node.
	RouteEntry struct {
		Route decl.Route
		Node  decl.NodeID
		Kind  decl.Kind
		// Parent is the owning feature, for subfeatures.
		Parent decl.NodeID
		// Start is the start subfeature, for features.
		Start   decl.NodeID
		Factory Factory
		UI      container.UIFactory
	}

	// TableSpec is the generated input of NewRouteTable.
	TableSpec struct {
		Start      decl.Route
		Singletons []SingletonEntry
		Routes     []RouteEntry
	}

	// RouteTable is the immutable route -> node mapping a Router serves.
	RouteTable struct {
		start      decl.Route
		singletons []SingletonEntry
		routes     map[decl.Route]RouteEntry
		byNode     map[decl.NodeID]RouteEntry
		features   map[decl.NodeID]RouteEntry
	}
)

// NewRouteTable validates spec and builds a RouteTable.
func NewRouteTable(spec TableSpec) (*RouteTable, error) {
	t := &RouteTable{
		start:      spec.Start,
		singletons: slices.Clone(spec.Singletons),
		routes:     make(map[decl.Route]RouteEntry, len(spec.Routes)),
		byNode:     make(map[decl.NodeID]RouteEntry, len(spec.Routes)),
		features:   make(map[decl.NodeID]RouteEntry),
	}
	for _, s := range spec.Singletons {
		if !s.Kind.Singleton() || s.Factory == nil {
			return nil, fmt.Errorf("%w: singleton %s: kind %s, factory set %t", ErrInvalidTable, s.Node, s.Kind, s.Factory != nil)
		}
	}
	for _, re := range spec.Routes {
		if !re.Kind.Routable() || re.Factory == nil {
			return nil, fmt.Errorf("%w: route %s: kind %s, factory set %t", ErrInvalidTable, re.Route, re.Kind, re.Factory != nil)
		}
		if _, dup := t.routes[re.Route]; dup {
			return nil, fmt.Errorf("%w: route %s listed twice", ErrInvalidTable, re.Route)
		}
		if _, dup := t.byNode[re.Node]; dup {
			return nil, fmt.Errorf("%w: node %s listed twice", ErrInvalidTable, re.Node)
		}
		t.routes[re.Route] = re
		t.byNode[re.Node] = re
		if re.Kind == decl.KindFeature {
			t.features[re.Node] = re
		}
	}
	for _, re := range spec.Routes {
		switch re.Kind {
		case decl.KindFeature:
			start, ok := t.byNode[re.Start]
			if !ok || start.Kind != decl.KindSubfeature || start.Parent != re.Node {
				return nil, fmt.Errorf("%w: feature %s: start %s is not one of its subfeatures", ErrInvalidTable, re.Node, re.Start)
			}
		case decl.KindSubfeature:
			if _, ok := t.features[re.Parent]; !ok {
				return nil, fmt.Errorf("%w: subfeature %s: owner %s is not a feature route", ErrInvalidTable, re.Node, re.Parent)
			}
		}
	}
	if t.start != "" {
		if re, ok := t.routes[t.start]; !ok || re.Kind != decl.KindFeature {
			return nil, fmt.Errorf("%w: start route %s is not a feature route", ErrInvalidTable, t.start)
		}
	}
	return t, nil
}

// Start returns the start route, or "" when none was declared.
func (t *RouteTable) Start() decl.Route { return t.start }

// Lookup returns the entry for route r.
func (t *RouteTable) Lookup(r decl.Route) (RouteEntry, bool) {
	re, ok := t.routes[r]
	return re, ok
}

// Routes returns every route, sorted.
func (t *RouteTable) Routes() []decl.Route {
	out := make([]decl.Route, 0, len(t.routes))
	for r := range t.routes {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// Singletons returns the singleton entries in materialization order.
func (t *RouteTable) Singletons() []SingletonEntry {
	return slices.Clone(t.singletons)
}

// target returns the subfeature a route lands on and its owning feature.
func (t *RouteTable) target(r decl.Route) (sub, feature RouteEntry, ok bool) {
	re, ok := t.routes[r]
	if !ok {
		return RouteEntry{}, RouteEntry{}, false
	}
	if re.Kind == decl.KindFeature {
		return t.byNode[re.Start], re, true
	}
	return re, t.features[re.Parent], true
}
