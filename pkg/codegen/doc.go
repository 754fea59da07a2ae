// SPDX-License-Identifier: MPL-2.0

// Package codegen turns a validated graph into Go source: one container
// constructor file per node, a nodes.go with id and capability constants, and
// a routes.go holding the route constants and the route table constructor.
//
// Generation is a pure function of the graph. Identical graphs produce
// byte-identical, gofmt-formatted output; implementations are never
// inspected.
package codegen
