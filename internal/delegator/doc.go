// SPDX-License-Identifier: MPL-2.0

// Package delegator starts exactly one launch plan and relays its outcome.
//
// The child inherits the dispatcher's environment and standard streams.
// Arguments are passed as an argument vector, never through a shell. Once
// the child has started, its termination status is final.
package delegator
