// SPDX-License-Identifier: MPL-2.0

// Package resolver decides how the target program is started on this host.
//
// Three candidates are considered, strictly in this order:
//  1. a pre-built binary in the build directory next to the install root;
//  2. the platform package for the host, located through Node's package
//     folders;
//  3. the run-from-source toolchain fallback, usable only when a version
//     probe of the toolchain succeeds.
//
// Select stops at the first available candidate. No process other than the
// toolchain probe is started here.
package resolver
