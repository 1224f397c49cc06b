// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/invowk/bootshim/internal/config"
	"github.com/invowk/bootshim/internal/issue"
)

func TestConfigShow(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, probeOK)
	manifest := ta.writeFile(t, "bootshim.toml", "name = \"demo\"\n[toolchain]\ncommand = \"go1.25\"\n", 0o644)

	if err := ta.run(t, "config", "show"); err != nil {
		t.Fatalf("config show: %v", err)
	}
	out := ta.stdout.String()
	for _, want := range []string{"// source: " + manifest, `name: "demo"`, `command: "go1.25"`, `entry_point: "cmd/demo"`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestConfigPath(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		ta := newTestApp(t, probeOK)
		if err := ta.run(t, "config", "path"); err != nil {
			t.Fatalf("config path: %v", err)
		}
		if out := ta.stdout.String(); !strings.Contains(out, "using defaults") {
			t.Errorf("output = %q", out)
		}
	})

	t.Run("manifest", func(t *testing.T) {
		t.Parallel()
		ta := newTestApp(t, probeOK)
		manifest := ta.writeFile(t, "bootshim.cue", "name: \"demo\"\n", 0o644)
		if err := ta.run(t, "config", "path"); err != nil {
			t.Fatalf("config path: %v", err)
		}
		if out := strings.TrimSpace(ta.stdout.String()); out != manifest {
			t.Errorf("output = %q, want %q", out, manifest)
		}
	})
}

func TestConfigInvalidManifest(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, probeOK)
	ta.writeFile(t, "bootshim.cue", "toolchain: command: \"\"\n", 0o644)

	err := ta.run(t, "config", "show")
	if got := exitCode(t, err); got != 78 {
		t.Fatalf("exit code = %d, want 78", got)
	}
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || !ae.HasSuggestions() {
		t.Errorf("error = %v, want an actionable error with suggestions", err)
	}
}

func TestManifestFlag(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, probeOK)
	other := ta.writeFile(t, "elsewhere/custom.cue", "name: \"custom\"\n", 0o644)

	if err := ta.run(t, "config", "show", "--manifest", other); err != nil {
		t.Fatalf("config show: %v", err)
	}
	if out := ta.stdout.String(); !strings.Contains(out, `name: "custom"`) {
		t.Errorf("output = %s", out)
	}
}

func TestLoadPassesFlagsToProvider(t *testing.T) {
	t.Parallel()

	ta := newTestApp(t, probeOK)
	var got config.LoadOptions
	ta.config = config.ProviderFunc(func(_ context.Context, opts config.LoadOptions) (*config.Config, string, error) {
		got = opts
		return config.DefaultConfig(opts.DefaultName), "", nil
	})

	if err := ta.run(t, "config", "path", "--name", "renamed", "--manifest", "x.cue"); err != nil {
		t.Fatalf("config path: %v", err)
	}
	if got.DefaultName != "renamed" || got.ManifestPath != "x.cue" || string(got.InstallRoot) != ta.root {
		t.Errorf("LoadOptions = %+v", got)
	}
}
