// SPDX-License-Identifier: MPL-2.0

// Package issue holds the user-facing guides printed by --explain and the
// ActionableError type that attaches suggestions to CLI failures. ForError
// maps an error returned by the graph, codegen or router packages to the
// guide that explains it.
package issue
