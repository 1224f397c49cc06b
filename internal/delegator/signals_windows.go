// SPDX-License-Identifier: MPL-2.0

//go:build windows

package delegator

import "os"

// relayedSignals returns the signals forwarded to the child and the
// signals the dispatcher only absorbs. Console control events reach every
// process attached to the console, and os.Process.Signal cannot deliver
// them, so nothing is forwarded.
func relayedSignals() (forward, absorb []os.Signal) {
	return nil, []os.Signal{os.Interrupt}
}
