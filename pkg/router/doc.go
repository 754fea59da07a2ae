// SPDX-License-Identifier: MPL-2.0

// Package router resolves navigation routes to scoped containers.
//
// A Router keeps a stack of entries. Each subfeature entry sits above the
// entry of its owning feature; a feature entry is shared by consecutive
// subfeature entries of the same feature. Entries move through
// Unresolved -> Materializing -> Active -> Disposed:
//
//   - Navigate pushes (or reuses) entries and materializes them, feature
//     before subfeature, at most once per entry even under concurrent calls.
//   - Pop removes an entry and everything above it and disposes them,
//     topmost first: tasks are cancelled and awaited, container resources are
//     released, then observers are notified.
//
// Platform and library singletons are materialized by New in dependency order
// and disposed in reverse order by Shutdown.
package router
