// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/invowk/bootshim/internal/resolver"
	"github.com/invowk/bootshim/pkg/platform"
	"github.com/invowk/bootshim/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newResolveCommand(a *app) *cobra.Command {
	var hostFlag string
	cmd := &cobra.Command{
		Use:   "resolve [-- args...]",
		Short: "Show every launch candidate and the one that would run",
		Long: `Evaluate the pre-built binary, the platform package and the toolchain
fallback in preference order, without starting anything. The toolchain
probe is run. Arguments after -- are shown in the final command line.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd.Context(), a, hostFlag, args)
		},
	}
	cmd.Flags().StringVar(&hostFlag, "host", "", "evaluate for another host, as <os>/<arch>")
	return cmd
}

func runResolve(ctx context.Context, a *app, hostFlag string, args []string) error {
	s, err := a.load(ctx)
	if err != nil {
		return err
	}

	host := a.host
	if hostFlag != "" {
		if host, err = platform.ParseHost(hostFlag); err != nil {
			return err
		}
	}

	res := a.newResolver(s, host)
	reports := res.Inspect(ctx)

	fmt.Fprintln(a.stdout, TitleStyle.Render(s.cfg.Name)+SubtitleStyle.Render(" on "+host.String()))
	fmt.Fprintln(a.stdout, candidateTable(reports))

	for _, r := range reports {
		if r.Available {
			fmt.Fprintln(a.stdout, SubtitleStyle.Render("Would run: ")+CmdStyle.Render(r.Plan.CommandLine(args)))
			return nil
		}
	}

	// Select rebuilds the full diagnostic the launcher would print.
	_, err = res.Select(ctx)
	var nc *resolver.NoCandidateError
	if errors.As(err, &nc) {
		fmt.Fprintln(a.stderr, ErrorStyle.Render("Error: ")+nc.Actionable().Format(a.flags.verbose))
		return reported(types.ExitNoCandidate)
	}
	if err != nil {
		return err
	}
	// The toolchain came up between the two probes.
	return nil
}

func candidateTable(reports []resolver.CandidateReport) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtitleStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		}).
		Headers("#", "SOURCE", "OK", "LOCATION", "DETAIL")

	for i, r := range reports {
		location := r.Location
		if location == "" {
			location = "-"
		}
		t.Row(strconv.Itoa(i+1), r.Source.String(), mark(r.Available), location, r.Reason)
	}
	return t.Render()
}
