// SPDX-License-Identifier: MPL-2.0

// Package config handles skeleton's configuration using Viper with CUE as the
// primary file format and TOML as an alternative.
//
// A global file lives in the user configuration directory (for example
// ~/.config/skeleton/config.cue) and a project file (.skeleton.cue or
// .skeleton.toml) in the working directory overrides it key by key. Every file
// is validated against the embedded CUE schema (config_schema.cue) regardless
// of its format. SKELETON_* environment variables override file values.
package config
