// SPDX-License-Identifier: MPL-2.0

// Package decl holds the declaration model: the records a platform, library,
// feature or subfeature module contributes to describe what it provides and
// what it requires.
//
// Declarations are plain values. A module contributes them either by calling
// Register from its own package (explicit registration, typically from an
// init function or from the application's main) or by shipping a
// skeleton.cue file that ParseFile decodes. Declarations make no assumption
// about ordering or completeness; the graph builder validates the assembled
// set as a whole.
package decl
