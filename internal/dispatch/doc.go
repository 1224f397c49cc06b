// SPDX-License-Identifier: MPL-2.0

// Package dispatch drives one dispatcher run: resolve a launch plan, start
// it, and turn its outcome into the dispatcher's own exit status.
//
// A run moves through
//
//	Idle -> Resolving -> NoCandidateAvailable
//	Idle -> Resolving -> Spawning -> SpawnFailed
//	Idle -> Resolving -> Spawning -> Running -> Terminated
//
// and never returns to Resolving once Spawning has begun.
package dispatch
