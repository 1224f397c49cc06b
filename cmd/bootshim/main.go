// SPDX-License-Identifier: MPL-2.0

// Command bootshim is a bootstrap dispatcher. It finds the best way to run
// its target program on this host (a pre-built binary, the platform package,
// or the source tree through the Go toolchain), runs it with the original
// arguments and standard streams, and exits with its status.
//
// bootshim takes no flags of its own: every argument belongs to the target
// program. Behaviour is configured through an optional bootshim.cue or
// bootshim.toml next to the install root and BOOTSHIM_* environment
// variables; use bootshimctl to inspect it.
package main

import (
	"context"
	"os"

	"github.com/invowk/bootshim/internal/dispatch"
)

func main() {
	os.Exit(run())
}

func run() int {
	return dispatch.Main(context.Background(), os.Args[1:], os.Stderr).Int()
}
