// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/invowk/bootshim/pkg/types"
)

// ExitError ends a command with Code. Err, when set, is printed by the fang
// error handler; a nil Err means the command already reported on stderr.
type ExitError struct {
	Code types.ExitCode
	Err  error
}

// configError wraps a manifest or install-root failure.
func configError(err error) *ExitError {
	return &ExitError{Code: types.ExitConfig, Err: err}
}

// reported exits with code after the command printed its own diagnostic.
func reported(code types.ExitCode) *ExitError {
	return &ExitError{Code: code}
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %s", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }
