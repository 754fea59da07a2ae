// SPDX-License-Identifier: MPL-2.0

// Package testutil builds throwaway project trees for tests (MustWriteFile,
// WriteTree) and reads generated output back (MustReadFile). Every helper
// fails the test immediately on error.
package testutil
