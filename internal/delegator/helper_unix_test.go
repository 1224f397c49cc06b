// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package delegator

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// waitForSignal announces readiness and exits 42 on SIGTERM.
func waitForSignal() int {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM)
	fmt.Println("ready")
	select {
	case <-ch:
		return 42
	case <-time.After(10 * time.Second):
		return 1
	}
}
