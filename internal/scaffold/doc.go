// SPDX-License-Identifier: MPL-2.0

// Package scaffold writes the declaration file and binding stub of a new
// feature, subfeature or library.
package scaffold
