// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	NoCandidateId Id = iota + 1
	ToolchainNotFoundId
	ArtifactMissingId
	SpawnFailedId
	ManifestInvalidId
	HostNotSupportedId
	SandboxedToolchainId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render renders the issue's Markdown with the given glamour style
// ("dark", "light", "notty", ...).
func (i *Issue) Render(stylePath string) (string, error) {
	var extraMd strings.Builder
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd.WriteString("\n\n## See also:\n")
		for _, link := range i.docLinks {
			extraMd.WriteString("- <" + string(link) + ">\n")
		}
		for _, link := range i.extLinks {
			extraMd.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(string(i.mdMsg)+extraMd.String(), stylePath)
}

var (
	render = glamour.Render

	noCandidateIssue = &Issue{
		id: NoCandidateId,
		mdMsg: `
# No way to start the program!

Neither a pre-built executable nor a working toolchain was found.

## What was checked (in order):
1. A pre-built binary in the install's ` + "`build/`" + ` directory
2. The platform package for your operating system and architecture
3. The toolchain, by running its version command

## Things you can try:
- Reinstall with optional dependencies enabled so the platform package is installed:
~~~
$ npm install --include=optional
~~~
- Or install the toolchain and retry; the program is then run from source
- Or build the binary into the install's ` + "`build/`" + ` directory:
~~~
$ make build
~~~`,
		extLinks: []HttpLink{"https://go.dev/dl/"},
	}

	toolchainNotFoundIssue = &Issue{
		id: ToolchainNotFoundId,
		mdMsg: `
# Toolchain not available!

The toolchain used to run from source could not be started, or its version
command did not exit cleanly.

## Things you can try:
- Install the toolchain and make sure it is on your PATH
- Check that the version command works in your shell:
~~~
$ go version
~~~
- Point the dispatcher at another command with ` + "`BOOTSHIM_TOOLCHAIN_COMMAND`",
		extLinks: []HttpLink{"https://go.dev/doc/install"},
	}

	artifactMissingIssue = &Issue{
		id: ArtifactMissingId,
		mdMsg: `
# Platform artifact missing!

No pre-built binary and no platform package could be located for this host.

## Things you can try:
- Reinstall without ` + "`--omit=optional`" + ` / ` + "`--no-optional`" + `
- Check that your host appears in ` + "`bootshimctl platforms`" + `
- Build the binary locally:
~~~
$ make build
~~~`,
	}

	spawnFailedIssue = &Issue{
		id: SpawnFailedId,
		mdMsg: `
# The selected program could not be started!

A candidate passed its checks but disappeared or was not executable when it
was started. Nothing was retried.

## Things you can try:
- Re-run the command; another process may have been replacing the file
- Check that the file is executable:
~~~
$ ls -l build/
~~~
- If the install lost its executable bits, set ` + "`BOOTSHIM_REPAIR_PERMISSIONS=1`",
	}

	manifestInvalidIssue = &Issue{
		id: ManifestInvalidId,
		mdMsg: `
# Failed to load the launch manifest!

The ` + "`bootshim.cue`" + ` (or ` + "`bootshim.toml`" + `) file next to the install is invalid.

## Things you can try:
- Check the error above for the field path
- Print the effective configuration:
~~~
$ bootshimctl config show
~~~
- Remove the manifest to use the defaults

## Example manifest:
~~~cue
name: "tool"
toolchain: {
	command: "go"
	run_args: ["run"]
	entry_point: "cmd/tool"
}
~~~`,
	}

	hostNotSupportedIssue = &Issue{
		id: HostNotSupportedId,
		mdMsg: `
# Host not supported!

There is no platform package for your operating system and architecture.

## Things you can try:
- List the supported hosts:
~~~
$ bootshimctl platforms
~~~
- Install the toolchain so the program can run from source`,
	}

	sandboxedToolchainIssue = &Issue{
		id: SandboxedToolchainId,
		mdMsg: `
# Running inside a sandbox!

Host tools are not visible from this Flatpak sandbox, so the toolchain is
started through ` + "`flatpak-spawn --host`" + `.

## Things you can try:
- Grant the sandbox permission to talk to the host:
~~~
$ flatpak override --user --talk-name=org.freedesktop.Flatpak <app-id>
~~~
- Or disable the prefix with ` + "`BOOTSHIM_TOOLCHAIN_HOST_SPAWN=false`",
	}

	issues = map[Id]*Issue{
		noCandidateIssue.Id():        noCandidateIssue,
		toolchainNotFoundIssue.Id():  toolchainNotFoundIssue,
		artifactMissingIssue.Id():    artifactMissingIssue,
		spawnFailedIssue.Id():        spawnFailedIssue,
		manifestInvalidIssue.Id():    manifestInvalidIssue,
		hostNotSupportedIssue.Id():   hostNotSupportedIssue,
		sandboxedToolchainIssue.Id(): sandboxedToolchainIssue,
	}
)

func Values() []*Issue {
	all := maps.Values(issues)
	slices.SortFunc(all, func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
	return all
}

func Get(id Id) *Issue {
	return issues[id]
}
