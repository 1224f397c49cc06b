// SPDX-License-Identifier: MPL-2.0

// Command bootshimctl inspects a bootshim install: which launch candidates
// exist on this host, which one the dispatcher would pick and why, and the
// effective launch manifest.
package main

import "os"

func main() {
	os.Exit(execute(newApp(), os.Args[1:]))
}
