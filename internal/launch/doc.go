// SPDX-License-Identifier: MPL-2.0

// Package launch defines the values exchanged between the resolver and the
// delegator: a Plan describing one way to start the target program, and the
// Outcome of running it.
package launch
