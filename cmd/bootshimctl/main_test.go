// SPDX-License-Identifier: MPL-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/invowk/bootshim/internal/config"
	"github.com/invowk/bootshim/internal/resolver"
	"github.com/invowk/bootshim/internal/testutil"
	"github.com/invowk/bootshim/pkg/platform"
)

var errNoToolchain = errors.New(`exec: "go": executable file not found in $PATH`)

func probeOK(context.Context, []string) error { return nil }

func probeMissing(context.Context, []string) error { return errNoToolchain }

// testApp is an app rooted at a fresh install directory with buffered
// streams and a fake toolchain probe.
type testApp struct {
	*app
	root   string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestApp(t *testing.T, probe resolver.ProbeFunc) *testApp {
	t.Helper()
	root := t.TempDir()
	var stdout, stderr bytes.Buffer
	return &testApp{
		app: &app{
			config:       config.NewProvider(),
			stdout:       &stdout,
			stderr:       &stderr,
			getenv:       func(string) string { return "" },
			getwd:        func() (string, error) { return root, nil },
			host:         platform.CurrentHost(),
			sandbox:      platform.SandboxNone,
			resolverOpts: []resolver.Option{resolver.WithProbe(probe)},
		},
		root:   root,
		stdout: &stdout,
		stderr: &stderr,
	}
}

// run executes the command tree without fang so errors come back raw.
func (ta *testApp) run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCommand(ta.app)
	cmd.SetArgs(append([]string{}, args...))
	return cmd.ExecuteContext(t.Context())
}

// writeFile creates root/rel with content and mode.
func (ta *testApp) writeFile(t *testing.T, rel, content string, mode os.FileMode) string {
	t.Helper()
	return testutil.MustWriteFile(t, filepath.Join(ta.root, filepath.FromSlash(rel)), content, mode)
}

// writePrebuilt creates the pre-built binary for "tool" on the current host.
func (ta *testApp) writePrebuilt(t *testing.T, mode os.FileMode) string {
	t.Helper()
	return ta.writeFile(t, "build/"+ta.host.ExecutableName("tool"), "#!/bin/sh\n", mode)
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("error = %v, want *ExitError", err)
	}
	return exitErr.Code.Int()
}
