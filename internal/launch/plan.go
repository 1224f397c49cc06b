// SPDX-License-Identifier: MPL-2.0

package launch

import (
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/invowk/bootshim/pkg/types"

	"mvdan.cc/sh/v3/syntax"
)

const (
	// KindDirectBinary plans spawn an executable file.
	KindDirectBinary Kind = iota + 1
	// KindToolchainSource plans run a source entry point through a toolchain.
	KindToolchainSource
)

type (
	// Kind identifies which shape a Plan carries.
	Kind int

	// Toolchain describes a run-from-source invocation:
	// [Launcher...] Command [DirFlag Dir] RunArgs... EntryPoint args...
	Toolchain struct {
		// Launcher runs Command outside a sandbox (e.g. "flatpak-spawn --host").
		// Empty when the toolchain is started directly.
		Launcher []string
		// Command is the toolchain executable, looked up on PATH.
		Command string
		// DirFlag and Dir make the toolchain work from Dir ("go -C <root>")
		// while the child keeps the caller's working directory. Both must be
		// set for either to be emitted.
		DirFlag string
		Dir     types.FilesystemPath
		// RunArgs are the fixed subcommands that mean "run from source".
		RunArgs []string
		// EntryPoint is a module identifier, a path relative to Dir
		// ("./cmd/tool") or an absolute source path.
		EntryPoint string
	}

	// Plan is one way to start the target program. Exactly one shape is
	// populated, selected by Kind. A Plan is immutable: accessors return copies.
	// The zero Plan is invalid.
	Plan struct {
		kind      Kind
		binary    types.FilesystemPath
		mode      fs.FileMode
		toolchain Toolchain
	}
)

// DirectBinary returns a plan that spawns the executable at path. A non-zero
// mode lists permission bits the file must carry before it is spawned.
func DirectBinary(path types.FilesystemPath, mode fs.FileMode) Plan {
	return Plan{kind: KindDirectBinary, binary: path, mode: mode & fs.ModePerm}
}

// ToolchainSource returns a plan that runs a source entry point through tc.
func ToolchainSource(tc Toolchain) Plan {
	return Plan{kind: KindToolchainSource, toolchain: tc.clone()}
}

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDirectBinary:
		return "binary"
	case KindToolchainSource:
		return "toolchain"
	default:
		return "invalid"
	}
}

// Kind returns the populated shape.
func (p Plan) Kind() Kind { return p.kind }

// IsZero reports whether p was never constructed.
func (p Plan) IsZero() bool { return p.kind == 0 }

// Binary returns the executable path and required mode bits of a
// DirectBinary plan. ok is false for other plans.
func (p Plan) Binary() (path types.FilesystemPath, mode fs.FileMode, ok bool) {
	if p.kind != KindDirectBinary {
		return "", 0, false
	}
	return p.binary, p.mode, true
}

// Toolchain returns the invocation of a ToolchainSource plan. ok is false
// for other plans.
func (p Plan) Toolchain() (Toolchain, bool) {
	if p.kind != KindToolchainSource {
		return Toolchain{}, false
	}
	return p.toolchain.clone(), true
}

// Argv returns the complete argument vector, program first, that starts the
// plan with args appended. args are copied unchanged.
func (p Plan) Argv(args []string) []string {
	switch p.kind {
	case KindDirectBinary:
		argv := make([]string, 0, 1+len(args))
		argv = append(argv, string(p.binary))
		return append(argv, args...)
	case KindToolchainSource:
		tc := p.toolchain
		argv := make([]string, 0, len(tc.Launcher)+4+len(tc.RunArgs)+len(args))
		argv = append(argv, tc.Launcher...)
		argv = append(argv, tc.Command)
		if tc.DirFlag != "" && tc.Dir != "" {
			argv = append(argv, tc.DirFlag, string(tc.Dir))
		}
		argv = append(argv, tc.RunArgs...)
		argv = append(argv, tc.EntryPoint)
		return append(argv, args...)
	default:
		return nil
	}
}

// CommandLine renders Argv(args) as a single line a POSIX shell would split
// back into the same vector. It is for display only; plans are never run
// through a shell.
func (p Plan) CommandLine(args []string) string {
	argv := p.Argv(args)
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			// NUL bytes cannot be quoted for a shell.
			q = strconv.Quote(arg)
		}
		quoted[i] = q
	}
	return strings.Join(quoted, " ")
}

// String describes the plan without arguments.
func (p Plan) String() string {
	if p.IsZero() {
		return "invalid plan"
	}
	return p.kind.String() + ": " + p.CommandLine(nil)
}

func (tc Toolchain) clone() Toolchain {
	tc.Launcher = slices.Clone(tc.Launcher)
	tc.RunArgs = slices.Clone(tc.RunArgs)
	return tc
}
