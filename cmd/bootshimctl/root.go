// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/invowk/bootshim/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "bootshimctl",
		Short: "Inspect a bootshim install",
		Long: TitleStyle.Render("bootshimctl") + SubtitleStyle.Render(" - inspect a bootshim install") + `

bootshim starts a program from the best candidate available on this host:
a pre-built binary in the build directory, the platform package for the
host, or the source tree through the Go toolchain. bootshimctl shows which
candidates exist, which one would run and what to do when none does.

` + SubtitleStyle.Render("Examples:") + `
  bootshimctl resolve                 Show every candidate and the pick
  bootshimctl resolve --host windows/arm64
  bootshimctl doctor                  Check preconditions and explain failures
  bootshimctl platforms               List platform package names
  bootshimctl config show             Print the effective manifest
  bootshimctl exec -- --help          Dispatch exactly like the launcher`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.root, "root", "", "install root (default $BOOTSHIM_INSTALL_ROOT, then the working directory)")
	pf.StringVar(&a.flags.manifest, "manifest", "", "launch manifest (default bootshim.cue or bootshim.toml under the root)")
	pf.StringVar(&a.flags.name, "name", "", "program name when the manifest sets none (default the root's base name)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newResolveCommand(a),
		newDoctorCommand(a),
		newPlatformsCommand(a),
		newConfigCommand(a),
		newExecCommand(a),
		newVersionCommand(a),
	)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	return root
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// execute runs the command tree and returns the process exit code.
func execute(a *app, args []string) int {
	root := newRootCommand(a)
	root.SetArgs(args)
	err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(a.handleError),
	)
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code.Int()
	}
	return 1
}

// handleError prints actionable errors in their own format and stays quiet
// for exit codes whose diagnostic was already printed.
func (a *app) handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.Err == nil {
		return
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		fmt.Fprintln(w, ErrorStyle.Render("Error: ")+ae.Format(a.flags.verbose))
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the bootshimctl version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(a.stdout, "bootshimctl "+getVersionString())
		},
	}
}
