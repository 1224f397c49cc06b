// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package delegator

import (
	"os"
	"syscall"
)

// relayedSignals returns the signals forwarded to the child and the
// signals the dispatcher only absorbs.
func relayedSignals() (forward, absorb []os.Signal) {
	return []os.Signal{syscall.SIGTERM, syscall.SIGHUP}, []os.Signal{os.Interrupt, syscall.SIGQUIT}
}
