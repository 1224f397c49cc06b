// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/invowk/bootshim/internal/issue"
	"github.com/invowk/bootshim/internal/testutil"
	"github.com/invowk/bootshim/pkg/platform"
	"github.com/invowk/bootshim/pkg/types"
)

func writeManifest(t *testing.T, dir, name, content string) string {
	t.Helper()
	return testutil.MustWriteFile(t, filepath.Join(dir, name), content, 0o644)
}

func load(t *testing.T, opts LoadOptions) (*Config, string, error) {
	t.Helper()
	return NewProvider().Load(context.Background(), opts)
}

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, path, err := load(t, LoadOptions{InstallRoot: types.FilesystemPath(root), DefaultName: "tool"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if path != "" {
		t.Errorf("resolved manifest = %q, want none", path)
	}

	if cfg.Name != "tool" {
		t.Errorf("Name = %q, want tool", cfg.Name)
	}
	if cfg.BuildDir != DefaultBuildDir {
		t.Errorf("BuildDir = %q, want %q", cfg.BuildDir, DefaultBuildDir)
	}
	if !cfg.Packages.Enabled || cfg.Packages.Prefix != "tool" || cfg.Packages.BinDir != "bin" {
		t.Errorf("Packages = %+v", cfg.Packages)
	}
	if cfg.Toolchain.Command != "go" || !slices.Equal(cfg.Toolchain.RunArgs, []string{"run"}) ||
		!slices.Equal(cfg.Toolchain.VersionArgs, []string{"version"}) {
		t.Errorf("Toolchain = %+v", cfg.Toolchain)
	}
	if cfg.Toolchain.EntryPoint != "cmd/tool" {
		t.Errorf("EntryPoint = %q, want cmd/tool", cfg.Toolchain.EntryPoint)
	}
	if cfg.Toolchain.ChdirFlag != DefaultChdirFlag {
		t.Errorf("ChdirFlag = %q, want %q", cfg.Toolchain.ChdirFlag, DefaultChdirFlag)
	}
	if cfg.Toolchain.ProbeTimeout != DefaultProbeTimeout {
		t.Errorf("ProbeTimeout = %v, want %v", cfg.Toolchain.ProbeTimeout, DefaultProbeTimeout)
	}
	if cfg.Permissions.RepairEnv != DefaultRepairEnv || cfg.PermissionMode() != 0o755 {
		t.Errorf("Permissions = %+v", cfg.Permissions)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoadCUEManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "bootshim.cue", `
name: "slack-mcp-server"
build_dir: "dist"
packages: names: "linux/riscv64": "slack-mcp-server-linux-riscv"
toolchain: {
	run_args: ["run", "-trimpath"]
	entry_point: "cmd/slack-mcp-server/main.go"
	probe_timeout: "3s"
}
permissions: {
	repair_env: "SLACK_MCP_DXT"
	mode: 0o700
}
`)

	cfg, path, err := load(t, LoadOptions{InstallRoot: types.FilesystemPath(root), DefaultName: "ignored"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if filepath.Base(path) != "bootshim.cue" {
		t.Errorf("resolved manifest = %q", path)
	}
	if cfg.Name != "slack-mcp-server" || cfg.BuildDir != "dist" {
		t.Errorf("Name/BuildDir = %q/%q", cfg.Name, cfg.BuildDir)
	}
	if cfg.Packages.Prefix != "slack-mcp-server" {
		t.Errorf("Prefix = %q, want name-derived default", cfg.Packages.Prefix)
	}
	if !slices.Equal(cfg.Toolchain.RunArgs, []string{"run", "-trimpath"}) {
		t.Errorf("RunArgs = %v", cfg.Toolchain.RunArgs)
	}
	if cfg.Toolchain.ProbeTimeout != 3*time.Second {
		t.Errorf("ProbeTimeout = %v, want 3s", cfg.Toolchain.ProbeTimeout)
	}
	if cfg.Permissions.RepairEnv != "SLACK_MCP_DXT" || cfg.PermissionMode() != 0o700 {
		t.Errorf("Permissions = %+v", cfg.Permissions)
	}

	a, ok := cfg.ArtifactTable().Lookup(platform.Host{OS: platform.Linux, Arch: "riscv64"})
	if !ok || a.Package != "slack-mcp-server-linux-riscv" {
		t.Errorf("override lookup = %+v, %v", a, ok)
	}
}

func TestLoadTOMLManifest(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "bootshim.toml", `
name = "tool"
log_level = "debug"

[toolchain]
command = "gotip"
version_args = ["version"]

[permissions]
mode = 0o750
`)

	cfg, path, err := load(t, LoadOptions{InstallRoot: types.FilesystemPath(root), DefaultName: "x"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if filepath.Base(path) != "bootshim.toml" {
		t.Errorf("resolved manifest = %q", path)
	}
	if cfg.Toolchain.Command != "gotip" || cfg.LogLevel != "debug" || cfg.PermissionMode() != 0o750 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadPrefersCUEOverTOML(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "bootshim.cue", `name: "from-cue"`)
	writeManifest(t, root, "bootshim.toml", `name = "from-toml"`)

	cfg, _, err := load(t, LoadOptions{InstallRoot: types.FilesystemPath(root)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "from-cue" {
		t.Errorf("Name = %q, want from-cue", cfg.Name)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "bootshim.cue", `toolchain: command: "go"`)

	t.Setenv("BOOTSHIM_NAME", "env-tool")
	t.Setenv("BOOTSHIM_TOOLCHAIN_COMMAND", "fakego")
	t.Setenv("BOOTSHIM_TOOLCHAIN_RUN_ARGS", "run,-race")
	t.Setenv("BOOTSHIM_TOOLCHAIN_HOST_SPAWN", "false")
	t.Setenv("BOOTSHIM_PACKAGES_ENABLED", "false")

	cfg, _, err := load(t, LoadOptions{InstallRoot: types.FilesystemPath(root), DefaultName: "tool"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "env-tool" || cfg.Toolchain.EntryPoint != "cmd/env-tool" {
		t.Errorf("Name/EntryPoint = %q/%q", cfg.Name, cfg.Toolchain.EntryPoint)
	}
	if cfg.Toolchain.Command != "fakego" {
		t.Errorf("Command = %q, env should beat the manifest", cfg.Toolchain.Command)
	}
	if !slices.Equal(cfg.Toolchain.RunArgs, []string{"run", "-race"}) {
		t.Errorf("RunArgs = %v", cfg.Toolchain.RunArgs)
	}
	if cfg.Toolchain.HostSpawn || cfg.Packages.Enabled {
		t.Errorf("bool overrides not applied: %+v / %+v", cfg.Toolchain, cfg.Packages)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		explicit string
		wantSub  string
	}{
		{name: "invalid CUE field", file: "bootshim.cue", content: `toolchain: command: ""`, wantSub: "toolchain.command"},
		{name: "unknown CUE field", file: "bootshim.cue", content: `tool_chain: {}`, wantSub: "tool_chain"},
		{name: "bad host key", file: "bootshim.cue", content: `packages: names: "linux": "x"`, wantSub: "packages.names"},
		{name: "invalid TOML", file: "bootshim.toml", content: `name = `, wantSub: "bootshim.toml"},
		{name: "TOML schema violation", file: "bootshim.toml", content: "[permissions]\nmode = 99999", wantSub: "permissions.mode"},
		{name: "unsupported format", file: "manifest.yaml", content: "name: x", explicit: "manifest.yaml", wantSub: "unsupported manifest format"},
		{name: "explicit path missing", explicit: "missing.cue", wantSub: "manifest not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.file != "" {
				writeManifest(t, root, tt.file, tt.content)
			}
			opts := LoadOptions{InstallRoot: types.FilesystemPath(root), DefaultName: "tool"}
			if tt.explicit != "" {
				opts.ManifestPath = filepath.Join(root, tt.explicit)
			}

			_, _, err := load(t, opts)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			var ae *issue.ActionableError
			if !errors.As(err, &ae) {
				t.Fatalf("error should be *issue.ActionableError, got %T: %v", err, err)
			}
			if !ae.HasSuggestions() {
				t.Error("manifest errors should carry suggestions")
			}
			if ae.Issue != issue.ManifestInvalidId {
				t.Errorf("Issue = %d, want ManifestInvalidId", ae.Issue)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := NewProvider().Load(ctx, LoadOptions{DefaultName: "tool"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty name", mutate: func(c *Config) { c.Name = " " }, field: "name"},
		{name: "name with separator", mutate: func(c *Config) { c.Name = "a/b" }, field: "name"},
		{name: "reserved name", mutate: func(c *Config) { c.Name = "aux" }, field: "name"},
		{name: "empty build dir", mutate: func(c *Config) { c.BuildDir = "" }, field: "build_dir"},
		{name: "empty toolchain", mutate: func(c *Config) { c.Toolchain.Command = "" }, field: "toolchain.command"},
		{name: "empty entry point", mutate: func(c *Config) { c.Toolchain.EntryPoint = "" }, field: "toolchain.entry_point"},
		{name: "mode out of range", mutate: func(c *Config) { c.Permissions.Mode = 0o10000 }, field: "permissions.mode"},
		{name: "bad host key", mutate: func(c *Config) { c.Packages.Names = map[string]string{"linux": "x"} }, field: "packages.names"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig("tool")
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var ice *InvalidConfigError
			if !errors.As(err, &ice) || !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Validate() error = %v, want InvalidConfigError", err)
			}
			if ice.Field != tt.field {
				t.Errorf("Field = %q, want %q", ice.Field, tt.field)
			}
		})
	}
}

func TestGenerateCUERoundTrip(t *testing.T) {
	root := t.TempDir()

	want := DefaultConfig("tool")
	want.Packages.Names = map[string]string{"linux/amd64": "tool-linux-x64"}
	want.Toolchain.RunArgs = []string{"run", "-tags", "with space"}
	want.Toolchain.ChdirFlag = ""
	want.Permissions.Mode = 0o750
	writeManifest(t, root, "bootshim.cue", GenerateCUE(want))

	got, _, err := load(t, LoadOptions{InstallRoot: types.FilesystemPath(root), DefaultName: "other"})
	if err != nil {
		t.Fatalf("Load() of generated manifest error = %v", err)
	}
	if got.Name != want.Name || got.Permissions != want.Permissions ||
		!slices.Equal(got.Toolchain.RunArgs, want.Toolchain.RunArgs) ||
		got.Toolchain.ProbeTimeout != want.Toolchain.ProbeTimeout ||
		got.Toolchain.ChdirFlag != "" ||
		got.Packages.Names["linux/amd64"] != "tool-linux-x64" {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, want)
	}
}
