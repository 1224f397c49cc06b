// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"fmt"
	"os"
	"syscall"

	"github.com/invowk/bootshim/pkg/types"
)

// Outcome is the termination status of a spawned program. It is produced
// once per run and becomes the dispatcher's own exit status.
type Outcome struct {
	// Code is the status to exit with. For signal terminations it is 128+N.
	Code types.ExitCode
	// Signal is set when the program was terminated by a signal.
	Signal syscall.Signal
}

// OutcomeFromState converts the state of a finished process.
func OutcomeFromState(ps *os.ProcessState) Outcome {
	if ps == nil {
		return Outcome{Code: types.ExitCannotExecute}
	}
	if ws, ok := ps.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		sig := ws.Signal()
		return Outcome{Code: types.FromSignal(int(sig)), Signal: sig}
	}
	return Outcome{Code: types.ExitCode(ps.ExitCode())}
}

// Signaled reports whether the program was terminated by a signal.
func (o Outcome) Signaled() bool { return o.Signal != 0 }

// String describes the outcome.
func (o Outcome) String() string {
	if o.Signaled() {
		return fmt.Sprintf("terminated by %s (status %d)", o.Signal, o.Code)
	}
	return fmt.Sprintf("exited with status %d", o.Code)
}
