// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"os"
	"sync"
)

// SandboxType names the application sandbox the dispatcher runs in. The
// empty value means none.
type SandboxType string

const (
	SandboxNone    SandboxType = ""
	SandboxFlatpak SandboxType = "flatpak"
	SandboxSnap    SandboxType = "snap"
)

// sandboxProbe recognises one sandbox from the environment or a marker file.
type sandboxProbe struct {
	kind   SandboxType
	marker string
	env    string
}

// Checked in order; Flatpak first because its marker file is authoritative.
var sandboxProbes = []sandboxProbe{
	{kind: SandboxFlatpak, marker: "/.flatpak-info"},
	{kind: SandboxSnap, env: "SNAP_NAME"},
}

// detectOnce must never panic: sync.OnceValue would re-panic on every call.
var detectOnce = sync.OnceValue(func() SandboxType {
	return detectSandboxFrom(os.Getenv, func(path string) error {
		_, err := os.Stat(path)
		return err
	})
})

// DetectSandbox reports the sandbox of the current process, cached after
// the first call.
func DetectSandbox() SandboxType {
	return detectOnce()
}

// HidesHostTools reports whether host-installed toolchains are invisible
// here. Snap classic confinement sees the host filesystem, so only Flatpak
// qualifies.
func (st SandboxType) HidesHostTools() bool {
	return st == SandboxFlatpak
}

// HostSpawn returns the argv prefix that runs a program on the host, or
// nil when the toolchain can be started directly.
func (st SandboxType) HostSpawn() []string {
	if !st.HidesHostTools() {
		return nil
	}
	return []string{"flatpak-spawn", "--host"}
}

func detectSandboxFrom(getenv func(string) string, stat func(string) error) SandboxType {
	for _, p := range sandboxProbes {
		if p.marker != "" && stat(p.marker) == nil {
			return p.kind
		}
		if p.env != "" && getenv(p.env) != "" {
			return p.kind
		}
	}
	return SandboxNone
}
