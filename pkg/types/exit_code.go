// SPDX-License-Identifier: MPL-2.0

package types

import (
	"strconv"
)

// Exit codes the dispatcher produces on its own behalf. Every other value
// is the spawned program's status, relayed unchanged.
const (
	// ExitSuccess is the conventional success status.
	ExitSuccess ExitCode = 0
	// ExitNoCandidate means no launch plan was viable: no pre-built binary,
	// no platform artifact and no usable toolchain.
	ExitNoCandidate ExitCode = 1
	// ExitConfig means the launch manifest could not be loaded (sysexits EX_CONFIG).
	ExitConfig ExitCode = 78
	// ExitCannotExecute means the selected candidate exists but could not be started.
	ExitCannotExecute ExitCode = 126
	// ExitNotFound means the selected candidate disappeared before it could be started.
	ExitNotFound ExitCode = 127
	// ExitCanceled means the run was canceled before anything was started
	// (the status of a shell job stopped by SIGINT).
	ExitCanceled ExitCode = 130

	// signalExitBase is added to a signal number to form the shell-style
	// status of a signal-terminated process.
	signalExitBase = 128
)

// ExitCode represents a process exit status code.
// Exit codes are in the range 0-255 on POSIX systems; Windows hosts may
// report larger values (e.g. NTSTATUS codes), which are relayed untouched.
// The zero value (0) means success.
type ExitCode int

// FromSignal returns the shell-style status (128+N) of a process that was
// terminated by signal number sig.
func FromSignal(sig int) ExitCode {
	return ExitCode(signalExitBase + sig)
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

// Int returns the value in the form os.Exit expects.
func (c ExitCode) Int() int { return int(c) }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
