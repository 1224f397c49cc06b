// SPDX-License-Identifier: MPL-2.0

// Package config handles the launch manifest using Viper, with CUE (or TOML)
// as the file format.
//
// The manifest is optional and lives in the install root as bootshim.cue or
// bootshim.toml. It names the program, where its pre-built binary and
// platform packages live, which toolchain runs it from source, and which
// environment variable enables permission repair. Every key can be
// overridden with a BOOTSHIM_<KEY> environment variable (dots become
// underscores, e.g. BOOTSHIM_TOOLCHAIN_COMMAND).
//
// Both file formats are validated against the embedded CUE schema
// (config_schema.cue), so errors carry the offending field path.
package config
