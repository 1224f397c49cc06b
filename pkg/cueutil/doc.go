// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the CUE validation flow used for launch manifests:
//
//  1. Compile the embedded schema
//  2. Compile user data and unify it with a schema definition
//  3. Validate (non-concrete, since every manifest field is optional) and
//     decode to a plain map that can be merged into Viper
//
// Errors carry the manifest path and a JSON-path style location
// (e.g. "bootshim.cue: toolchain.run_args[0]: ...").
package cueutil
