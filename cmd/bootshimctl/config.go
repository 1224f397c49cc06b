// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/invowk/bootshim/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCommand(a *app) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the launch manifest",
		Long: `Inspect the launch manifest.

The manifest is read from bootshim.cue, then bootshim.toml, in the install
root. Every field can be overridden with a BOOTSHIM_* environment variable,
e.g. BOOTSHIM_TOOLCHAIN_COMMAND or BOOTSHIM_PACKAGES_ENABLED.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective manifest as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			source := s.manifest
			if source == "" {
				source = "defaults"
			}
			fmt.Fprintf(a.stdout, "// source: %s\n", source)
			fmt.Fprint(a.stdout, config.GenerateCUE(s.cfg))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the manifest path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.load(cmd.Context())
			if err != nil {
				return err
			}
			if s.manifest == "" {
				fmt.Fprintln(a.stdout, SubtitleStyle.Render("no manifest under "+string(s.root)+"; using defaults"))
				return nil
			}
			fmt.Fprintln(a.stdout, s.manifest)
			return nil
		},
	})

	return cfgCmd
}
