// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"slices"
	"strings"

	"golang.org/x/exp/maps"
)

type (
	// Artifact names the externally distributed package that carries the
	// pre-built executable for one host, plus the executable suffix that host
	// requires.
	Artifact struct {
		// Package is the distribution package name (e.g. "tool-linux-amd64").
		Package string
		// Suffix is appended to Package to form the executable file name.
		Suffix string
	}

	// ArtifactTable maps hosts to their platform artifact.
	// Hosts missing from the table have no platform artifact.
	ArtifactTable map[Host]Artifact
)

// supportedHosts is the fixed set of hosts that get a platform artifact.
//
//nolint:gochecknoglobals // Immutable lookup table.
var supportedHosts = []Host{
	{OS: Darwin, Arch: AMD64},
	{OS: Darwin, Arch: ARM64},
	{OS: Linux, Arch: AMD64},
	{OS: Linux, Arch: ARM64},
	{OS: Windows, Arch: AMD64},
	{OS: Windows, Arch: ARM64},
}

// SupportedHosts returns the hosts covered by DefaultArtifactTable.
func SupportedHosts() []Host {
	return slices.Clone(supportedHosts)
}

// DefaultArtifactTable returns the table of platform artifacts for product:
// one "<product>-<os>-<arch>" package per supported host.
func DefaultArtifactTable(product string) ArtifactTable {
	table := make(ArtifactTable, len(supportedHosts))
	for _, h := range supportedHosts {
		table[h] = Artifact{
			Package: product + "-" + h.OS + "-" + h.Arch,
			Suffix:  ExecutableSuffix(h.OS),
		}
	}
	return table
}

// Lookup returns the artifact registered for h. The boolean is false for
// hosts outside the table; that is never an error.
func (t ArtifactTable) Lookup(h Host) (Artifact, bool) {
	a, ok := t[h]
	if !ok || a.Package == "" {
		return Artifact{}, false
	}
	return a, true
}

// Hosts returns the table's hosts sorted by their string form.
func (t ArtifactTable) Hosts() []Host {
	hosts := maps.Keys(t)
	slices.SortFunc(hosts, func(a, b Host) int {
		return strings.Compare(a.String(), b.String())
	})
	return hosts
}

// ExecutableName returns the artifact's executable file name.
func (a Artifact) ExecutableName() string {
	return a.Package + a.Suffix
}
