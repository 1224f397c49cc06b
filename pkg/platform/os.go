// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// Architecture constants for runtime.GOARCH comparisons.
const (
	AMD64 = "amd64"
	ARM64 = "arm64"
)

// windowsExeSuffix is the only executable suffix any supported host requires.
const windowsExeSuffix = ".exe"

// ErrInvalidHost is the sentinel error wrapped by InvalidHostError.
var ErrInvalidHost = errors.New("invalid host")

type (
	// Host identifies the machine a dispatcher runs on: the operating system
	// and CPU architecture pair, spelled the way runtime.GOOS/GOARCH spell them.
	// A Host is a plain comparable value and is used as a map key.
	Host struct {
		OS   string
		Arch string
	}

	// InvalidHostError is returned when a host string cannot be parsed.
	InvalidHostError struct {
		Value string
	}
)

// Error implements the error interface.
func (e *InvalidHostError) Error() string {
	return fmt.Sprintf("invalid host %q (expected <os>/<arch>, e.g. linux/amd64)", e.Value)
}

// Unwrap returns ErrInvalidHost so callers can use errors.Is for programmatic detection.
func (e *InvalidHostError) Unwrap() error { return ErrInvalidHost }

// CurrentHost returns the Host of the running process.
func CurrentHost() Host {
	return Host{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// ParseHost parses the "<os>/<arch>" form produced by Host.String.
// Both halves are lowercased; neither may be empty.
func ParseHost(s string) (Host, error) {
	osName, arch, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || osName == "" || arch == "" || strings.Contains(arch, "/") {
		return Host{}, &InvalidHostError{Value: s}
	}
	return Host{OS: strings.ToLower(osName), Arch: strings.ToLower(arch)}, nil
}

// String returns the "<os>/<arch>" form of the host.
func (h Host) String() string {
	return h.OS + "/" + h.Arch
}

// IsWindows reports whether the host belongs to the Windows family.
func (h Host) IsWindows() bool { return h.OS == Windows }

// ExecutableSuffix returns the file name suffix executables need on the host.
func (h Host) ExecutableSuffix() string {
	return ExecutableSuffix(h.OS)
}

// ExecutableSuffix returns the file name suffix executables need on the
// given operating system: ".exe" on Windows, nothing elsewhere.
func ExecutableSuffix(goos string) string {
	if goos == Windows {
		return windowsExeSuffix
	}
	return ""
}

// ExecutableName appends the host's executable suffix to base unless it is
// already present.
func (h Host) ExecutableName(base string) string {
	suffix := h.ExecutableSuffix()
	if suffix == "" || strings.HasSuffix(strings.ToLower(base), suffix) {
		return base
	}
	return base + suffix
}
