// SPDX-License-Identifier: MPL-2.0

package graph

import "github.com/skeleton-dev/skeleton/pkg/decl"

// Build runs Collect, ValidateTree, Resolve and ValidateAcyclic in order and
// returns the first phase error. Hierarchy problems are reported before
// resolution so a missing owner is not also reported as a missing provider.
func Build(set decl.Set) (*ResolvedGraph, error) {
	raw, err := Collect(set)
	if err != nil {
		return nil, err
	}
	if err := ValidateTree(raw); err != nil {
		return nil, err
	}
	resolved, err := Resolve(raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateAcyclic(resolved); err != nil {
		return nil, err
	}
	return resolved, nil
}
