// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/bootshim/internal/issue"
	"github.com/invowk/bootshim/pkg/platform"
	"github.com/invowk/bootshim/pkg/types"
)

const toolchainInstallURL = "https://go.dev/dl/"

var (
	// ErrNoCandidate is the sentinel error wrapped by NoCandidateError.
	ErrNoCandidate = errors.New("no launch candidate available")
	// ErrToolchainUnavailable is the sentinel error wrapped by ToolchainError.
	ErrToolchainUnavailable = errors.New("toolchain not invocable")
)

type (
	// ToolchainError reports a failed toolchain probe.
	ToolchainError struct {
		Command string
		Argv    []string
		Err     error
	}

	// NoCandidateError reports that every candidate was unavailable. It
	// names both the missing artifacts and the missing toolchain so the
	// reader can pick the applicable remedy.
	NoCandidateError struct {
		Name         string
		Host         platform.Host
		PrebuiltPath types.FilesystemPath
		// Package is the host's platform package, or "" when none applies.
		Package       string
		PackageDetail string
		Toolchain     *ToolchainError
	}
)

// Error implements the error interface.
func (e *ToolchainError) Error() string {
	return fmt.Sprintf("toolchain %q is not invocable: %v", e.Command, e.Err)
}

// Unwrap returns both the sentinel and the probe failure.
func (e *ToolchainError) Unwrap() []error { return []error{ErrToolchainUnavailable, e.Err} }

// Error implements the error interface.
func (e *NoCandidateError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "no way to start %s on %s: ", e.Name, e.Host)
	fmt.Fprintf(&sb, "pre-built binary not found at %s; ", e.PrebuiltPath)
	sb.WriteString(e.PackageDetail)
	sb.WriteString("; ")
	if e.Toolchain != nil {
		sb.WriteString(e.Toolchain.Error())
	} else {
		sb.WriteString("toolchain is not invocable")
	}
	return sb.String()
}

// Unwrap returns ErrNoCandidate so callers can use errors.Is for programmatic detection.
func (e *NoCandidateError) Unwrap() error { return ErrNoCandidate }

// Actionable converts e into the user-facing error with remediation hints.
func (e *NoCandidateError) Actionable() *issue.ActionableError {
	command := "go"
	if e.Toolchain != nil && e.Toolchain.Command != "" {
		command = e.Toolchain.Command
	}

	ctx := issue.NewErrorContext().
		WithOperation("start " + e.Name).
		WithSuggestion(fmt.Sprintf("Install the %q toolchain (Go: %s) and make sure it is on PATH", command, toolchainInstallURL)).
		WithSuggestion(fmt.Sprintf("Or run 'make build' to create %s", e.PrebuiltPath))
	if e.Package != "" {
		ctx = ctx.WithSuggestion(fmt.Sprintf("Or reinstall with optional dependencies enabled (npm install --include=optional) so %s is present", e.Package))
	}
	return ctx.
		WithSuggestion("Run 'bootshimctl doctor' for a full report").
		WithIssue(issue.NoCandidateId).
		Wrap(e).
		Build()
}
