// SPDX-License-Identifier: MPL-2.0

package main

import (
	"github.com/invowk/bootshim/internal/dispatch"

	"github.com/spf13/cobra"
)

func newExecCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [--] [args...]",
		Short: "Dispatch exactly like the installed launcher",
		Long: `Resolve and run the program for the install at --root, passing args
through unchanged and exiting with the program's status. Flags after the
first argument belong to the program.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := a.installRoot()
			if err != nil {
				return configError(err)
			}
			code := dispatch.Launch(cmd.Context(), dispatch.LaunchOptions{
				Root:         root,
				ManifestPath: a.flags.manifest,
				DefaultName:  a.defaultName(root),
				Stderr:       a.stderr,
				Getenv:       a.getenv,
			}, args)
			if code.IsSuccess() {
				return nil
			}
			return reported(code)
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}
