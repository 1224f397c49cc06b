// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/invowk/bootshim/internal/issue"
	"github.com/invowk/bootshim/internal/resolver"
	"github.com/invowk/bootshim/pkg/types"

	"github.com/spf13/cobra"
)

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
)

type (
	checkStatus int

	// check is one doctor line. A non-zero issue is rendered below the
	// summary.
	check struct {
		status checkStatus
		text   string
		issue  issue.Id
	}
)

func newDoctorCommand(a *app) *cobra.Command {
	var style string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check launch preconditions and explain what to fix",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd.Context(), a, style)
		},
	}
	cmd.Flags().StringVar(&style, "style", "dark", "glamour style for remediation text (dark, light, notty, ascii, ...)")
	return cmd
}

func runDoctor(ctx context.Context, a *app, style string) error {
	s, err := a.load(ctx)
	if err != nil {
		printChecks(a, []check{{status: checkFail, text: "launch manifest could not be loaded"}})
		id := issue.ManifestInvalidId
		if ae := (*issue.ActionableError)(nil); errors.As(err, &ae) && ae.Issue != 0 {
			id = ae.Issue
		}
		if rerr := renderIssues(a, style, []issue.Id{id}); rerr != nil {
			return rerr
		}
		return err
	}

	checks := diagnose(ctx, a, s)
	printChecks(a, checks)

	var ids []issue.Id
	failed := false
	for _, c := range checks {
		if c.issue != 0 {
			ids = append(ids, c.issue)
		}
		failed = failed || c.issue == issue.NoCandidateId
	}
	if err := renderIssues(a, style, ids); err != nil {
		return err
	}
	if failed {
		return reported(types.ExitNoCandidate)
	}
	return nil
}

func diagnose(ctx context.Context, a *app, s *session) []check {
	var checks []check

	manifest := s.manifest
	if manifest == "" {
		manifest = "none, using defaults"
	}
	checks = append(checks, check{text: "launch manifest: " + manifest})

	if art, ok := s.cfg.ArtifactTable().Lookup(a.host); ok {
		checks = append(checks, check{text: "platform package for " + a.host.String() + ": " + art.Package})
	} else {
		checks = append(checks, check{
			status: checkWarn,
			text:   "no platform package is published for " + a.host.String(),
			issue:  issue.HostNotSupportedId,
		})
	}

	if a.sandbox.HidesHostTools() {
		c := check{status: checkWarn, text: "running inside a " + string(a.sandbox) + " sandbox", issue: issue.SandboxedToolchainId}
		if !s.cfg.Toolchain.HostSpawn {
			c.text += "; host spawn is disabled"
		}
		checks = append(checks, c)
	}

	reports := a.newResolver(s, a.host).Inspect(ctx)
	binaries := false
	toolchain := false
	for _, r := range reports {
		switch r.Source {
		case resolver.SourceToolchain:
			toolchain = r.Available
		default:
			binaries = binaries || r.Available
		}
		checks = append(checks, reportCheck(a, s, r))
	}

	switch {
	case !binaries && !toolchain:
		checks = append(checks, check{status: checkFail, text: "no candidate can start " + s.cfg.Name, issue: issue.NoCandidateId})
	case !binaries:
		checks = append(checks, check{status: checkWarn, text: "no pre-built executable; " + s.cfg.Name + " runs from source", issue: issue.ArtifactMissingId})
	case !toolchain:
		checks = append(checks, check{status: checkWarn, text: "toolchain fallback unavailable", issue: issue.ToolchainNotFoundId})
	}
	return checks
}

// reportCheck turns a candidate report into a check. Binaries without
// execute bits are flagged: they would exit 126 at spawn.
func reportCheck(a *app, s *session, r resolver.CandidateReport) check {
	label := r.Source.String()
	if !r.Available {
		return check{status: checkWarn, text: label + ": " + r.Reason}
	}
	path, mode, ok := r.Plan.Binary()
	if !ok {
		return check{text: label + ": " + r.Location}
	}
	info, err := os.Stat(string(path))
	if err == nil && mode != 0 && info.Mode().Perm()&0o111 == 0 {
		return check{
			status: checkWarn,
			text: fmt.Sprintf("%s: %s is %s; set %s=1 to repair",
				label, path, info.Mode().Perm(), s.cfg.Permissions.RepairEnv),
			issue: issue.SpawnFailedId,
		}
	}
	return check{text: label + ": " + string(path)}
}

func printChecks(a *app, checks []check) {
	for _, c := range checks {
		var m string
		switch c.status {
		case checkOK:
			m = mark(true)
		case checkWarn:
			m = WarningStyle.Render("!")
		default:
			m = mark(false)
		}
		fmt.Fprintln(a.stdout, m+" "+c.text)
	}
}

func renderIssues(a *app, style string, ids []issue.Id) error {
	seen := make(map[issue.Id]bool, len(ids))
	var out strings.Builder
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		md, err := issue.Get(id).Render(style)
		if err != nil {
			return fmt.Errorf("render remediation: %w", err)
		}
		out.WriteString(md)
	}
	if out.Len() > 0 {
		fmt.Fprint(a.stdout, out.String())
	}
	return nil
}
