// SPDX-License-Identifier: MPL-2.0

// Package graph builds and validates the application dependency graph.
//
// Build runs four phases over a decl.Set and stops at the first phase that
// reports errors:
//
//  1. Collect: unique node ids and unique routes.
//  2. ValidateTree: subfeature ownership, start screens and per-kind rules.
//  3. Resolve: every required capability bound to exactly one in-scope
//     provider, producing one Edge per require entry.
//  4. ValidateAcyclic: the library/feature/subfeature dependency relation,
//     including subfeature ownership, must be a DAG.
//
// A node's scope is every platform, every other library, its owning feature
// (for a subfeature) and the nodes it lists in Dependencies. Features are
// never visible implicitly.
//
// Every phase processes nodes in id order and reports all the problems it
// finds, not just the first, as a *BuildError.
package graph
