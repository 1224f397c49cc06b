// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newPlatformsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List the platform package published for each host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.load(cmd.Context())
			if err != nil {
				return err
			}

			artifacts := s.cfg.ArtifactTable()
			t := table.New().
				Border(lipgloss.NormalBorder()).
				BorderStyle(SubtitleStyle).
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == table.HeaderRow {
						return tableHeaderStyle
					}
					return tableCellStyle
				}).
				Headers("", "HOST", "PACKAGE", "EXECUTABLE")

			for _, h := range artifacts.Hosts() {
				art, _ := artifacts.Lookup(h)
				current := ""
				if h == a.host {
					current = "*"
				}
				t.Row(current, h.String(), art.Package, art.ExecutableName())
			}

			fmt.Fprintln(a.stdout, TitleStyle.Render("Platform packages for "+s.cfg.Name))
			fmt.Fprintln(a.stdout, t.Render())
			if _, ok := artifacts.Lookup(a.host); !ok {
				fmt.Fprintln(a.stdout, WarningStyle.Render("No platform package is published for this host ("+a.host.String()+")."))
			}
			if !s.cfg.Packages.Enabled {
				fmt.Fprintln(a.stdout, WarningStyle.Render("Platform package lookup is disabled in the manifest."))
			}
			return nil
		},
	}
}
