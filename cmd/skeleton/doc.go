// SPDX-License-Identifier: MPL-2.0

// Package cmd implements the skeleton command line: build, check, graph,
// routes, new and config. Commands share one App holding the loaded
// configuration and output streams.
package cmd
