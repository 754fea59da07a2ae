// SPDX-License-Identifier: MPL-2.0

package graph

import (
	"slices"

	"github.com/skeleton-dev/skeleton/pkg/decl"
)

// ValidateTree checks the feature/subfeature hierarchy and the rules each
// kind imposes on its own declaration.
func ValidateTree(g *RawGraph) error {
	var errs []error
	for _, id := range g.ids {
		errs = append(errs, g.validateNode(g.nodes[id])...)
	}
	if app := g.app; app != nil {
		if valid, appErrs := app.IsValid(); !valid {
			for _, err := range appErrs {
				errs = append(errs, &StructuralError{Reason: err.Error()})
			}
		} else if start, ok := g.nodes[app.Start]; !ok {
			errs = append(errs, &StructuralError{Reason: "app start " + string(app.Start) + " is not declared"})
		} else if start.Kind != decl.KindFeature {
			errs = append(errs, &StructuralError{Reason: "app start " + string(app.Start) + " is a " + string(start.Kind) + ", not a feature"})
		}
	}
	if len(errs) > 0 {
		return &BuildError{Phase: PhaseTree, Errors: errs}
	}
	return nil
}

func (g *RawGraph) validateNode(n *Node) []error {
	var errs []error
	id := n.ID

	switch {
	case n.Kind.Routable() && n.Route == "":
		errs = append(errs, structural(id, "%s nodes must declare a route", n.Kind))
	case !n.Kind.Routable() && n.Route != "":
		errs = append(errs, structural(id, "%s nodes cannot declare a route", n.Kind))
	}

	if n.Kind == decl.KindSubfeature {
		errs = append(errs, g.validateParent(n)...)
	} else if n.Parent != "" {
		errs = append(errs, structural(id, "only subfeatures declare a parent"))
	}

	if n.Kind == decl.KindFeature {
		errs = append(errs, g.validateStart(n)...)
	} else if n.Start != "" {
		errs = append(errs, structural(id, "only features declare a start subfeature"))
	}

	if n.Kind == decl.KindPlatform {
		if len(n.Requires) > 0 {
			errs = append(errs, structural(id, "platform nodes cannot require capabilities"))
		}
		if len(n.Dependencies) > 0 {
			errs = append(errs, structural(id, "platform nodes cannot declare dependencies"))
		}
	}

	seenDeps := make(map[decl.NodeID]bool, len(n.Dependencies))
	for _, dep := range n.Dependencies {
		if seenDeps[dep] {
			errs = append(errs, structural(id, "dependency %s listed twice", dep))
			continue
		}
		seenDeps[dep] = true
		if dep == id {
			errs = append(errs, structural(id, "node cannot depend on itself"))
			continue
		}
		target, ok := g.nodes[dep]
		if !ok {
			errs = append(errs, structural(id, "dependency %s is not declared", dep))
			continue
		}
		if n.Kind == decl.KindLibrary && !target.Kind.Singleton() {
			errs = append(errs, structural(id, "library nodes may only depend on platforms and libraries, not %s %s", target.Kind, dep))
		}
	}

	seenProvided := make(map[decl.Capability]bool, len(n.Provides))
	for _, p := range n.Provides {
		if seenProvided[p.Name] {
			errs = append(errs, structural(id, "capability %s provided twice", p.Name))
		}
		seenProvided[p.Name] = true
	}
	seenRequired := make(map[decl.Capability]bool, len(n.Requires))
	for _, r := range n.Requires {
		if seenRequired[r.Name] {
			errs = append(errs, structural(id, "capability %s required twice", r.Name))
		}
		seenRequired[r.Name] = true
	}
	return errs
}

func (g *RawGraph) validateParent(n *Node) []error {
	if n.Parent == "" {
		return []error{structural(n.ID, "subfeature must declare its owning feature")}
	}
	parent, ok := g.nodes[n.Parent]
	if !ok {
		return []error{structural(n.ID, "owning feature %s is not declared", n.Parent)}
	}
	if parent.Kind != decl.KindFeature {
		return []error{structural(n.ID, "owner %s is a %s, not a feature", n.Parent, parent.Kind)}
	}
	return nil
}

func (g *RawGraph) validateStart(n *Node) []error {
	var errs []error
	if len(n.Children) == 0 {
		errs = append(errs, structural(n.ID, "feature owns no subfeatures"))
	}
	switch {
	case n.Start == "":
		errs = append(errs, structural(n.ID, "feature must declare a start subfeature"))
	case !slices.Contains(n.Children, n.Start):
		errs = append(errs, structural(n.ID, "start %s is not one of its subfeatures", n.Start))
	}
	return errs
}
