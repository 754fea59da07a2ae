// SPDX-License-Identifier: MPL-2.0

// Package discovery finds declaration files (skeleton.cue and *.skeleton.cue)
// under the configured search paths and merges them into one decl.Set.
//
// Problems that do not prevent the remaining files from loading, such as a
// missing search path or a file that fails to parse, are returned as
// Diagnostics rather than written to stderr so the CLI decides how to render
// them.
package discovery
