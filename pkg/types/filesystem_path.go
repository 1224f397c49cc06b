// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is the sentinel wrapped by every InvalidPathError.
var ErrInvalidPath = errors.New("invalid filesystem path")

type (
	// FilesystemPath is a host path to an install root, a build directory or
	// an artifact. Relative values are resolved against the install root by
	// their consumers, never against the working directory.
	FilesystemPath string

	// InvalidPathError reports a FilesystemPath that no OS call could accept.
	InvalidPathError struct {
		Value  FilesystemPath
		Reason string
	}
)

func (p FilesystemPath) String() string { return string(p) }

// IsZero reports whether the path is unset.
func (p FilesystemPath) IsZero() bool { return p == "" }

// Validate rejects blank paths and paths carrying a NUL byte, which exec
// and stat would otherwise fail on with a less useful message.
func (p FilesystemPath) Validate() error {
	switch {
	case strings.TrimSpace(string(p)) == "":
		return &InvalidPathError{Value: p, Reason: "path is blank"}
	case strings.IndexByte(string(p), 0) >= 0:
		return &InvalidPathError{Value: p, Reason: "path contains a NUL byte"}
	}
	return nil
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("%s %q: %s", ErrInvalidPath, string(e.Value), e.Reason)
}

func (e *InvalidPathError) Unwrap() error { return ErrInvalidPath }
