// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/bootshim/internal/issue"
	"github.com/invowk/bootshim/pkg/cueutil"
	"github.com/invowk/bootshim/pkg/fspath"
	"github.com/invowk/bootshim/pkg/types"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "bootshim"
	// ManifestBaseName is the manifest file name without extension.
	ManifestBaseName = "bootshim"
	// ManifestExtCUE and ManifestExtTOML are the accepted manifest formats,
	// in lookup order.
	ManifestExtCUE  = ".cue"
	ManifestExtTOML = ".toml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "BOOTSHIM"
	// EnvInstallRoot overrides install-root discovery.
	EnvInstallRoot = "BOOTSHIM_INSTALL_ROOT"

	schemaDefinition = "#Config"
)

//go:embed config_schema.cue
var configSchema string

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// InstallRoot is searched for bootshim.cue, then bootshim.toml.
	InstallRoot types.FilesystemPath
	// ManifestPath forces loading from a specific manifest when set.
	ManifestPath string
	// DefaultName is the program name used when the manifest does not set one.
	DefaultName string
}

// loadWithOptions performs option-driven manifest loading. It returns the
// effective config and the manifest path that was read ("" when none).
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig(opts.DefaultName)
	v.SetDefault("name", defaults.Name)
	v.SetDefault("build_dir", defaults.BuildDir)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("packages.enabled", defaults.Packages.Enabled)
	v.SetDefault("packages.prefix", "")
	v.SetDefault("packages.bin_dir", defaults.Packages.BinDir)
	v.SetDefault("toolchain.command", defaults.Toolchain.Command)
	v.SetDefault("toolchain.version_args", defaults.Toolchain.VersionArgs)
	v.SetDefault("toolchain.run_args", defaults.Toolchain.RunArgs)
	v.SetDefault("toolchain.chdir_flag", defaults.Toolchain.ChdirFlag)
	v.SetDefault("toolchain.entry_point", "")
	v.SetDefault("toolchain.probe_timeout", defaults.Toolchain.ProbeTimeout)
	v.SetDefault("toolchain.host_spawn", defaults.Toolchain.HostSpawn)
	v.SetDefault("permissions.repair_env", defaults.Permissions.RepairEnv)
	v.SetDefault("permissions.mode", defaults.Permissions.Mode)

	resolvedPath := opts.ManifestPath
	if resolvedPath == "" && opts.InstallRoot != "" {
		resolvedPath = findManifest(opts.InstallRoot)
	} else if resolvedPath != "" && !fileExists(resolvedPath) {
		return nil, "", issue.NewErrorContext().
			WithOperation("load launch manifest").
			WithResource(resolvedPath).
			WithSuggestion("Verify the manifest path is correct").
			WithSuggestion("Omit the path to use the manifest next to the install, or the defaults").
			WithIssue(issue.ManifestInvalidId).
			Wrap(fmt.Errorf("manifest not found: %s", resolvedPath)).
			BuildError()
	}

	if resolvedPath != "" {
		if err := loadManifestIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load launch manifest").
				WithResource(resolvedPath).
				WithSuggestion("Check the field named in the error against the manifest schema").
				WithSuggestion("Run 'bootshimctl config show' to see the effective configuration").
				WithSuggestion("Remove the manifest to fall back to the defaults").
				WithIssue(issue.ManifestInvalidId).
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDerivedDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate launch manifest").
			WithResource(resolvedPath).
			WithSuggestion("Check BOOTSHIM_* environment overrides as well as the manifest").
			WithIssue(issue.ManifestInvalidId).
			Wrap(err).
			BuildError()
	}

	return &cfg, resolvedPath, nil
}

// findManifest returns the first manifest present in root, or "".
func findManifest(root types.FilesystemPath) string {
	for _, ext := range []string{ManifestExtCUE, ManifestExtTOML} {
		candidate := string(fspath.JoinStr(root, ManifestBaseName+ext))
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// loadManifestIntoViper parses a manifest, validates it against the #Config
// schema, and merges its contents into Viper. Values merged this way take
// precedence over defaults; environment overrides still win.
func loadManifestIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ManifestExtCUE:
		manifest, err = cueutil.DecodeToMap(configSchema, data, schemaDefinition, path)
	case ManifestExtTOML:
		manifest, err = decodeTOML(data, path)
	default:
		return fmt.Errorf("unsupported manifest format %q (want %s or %s)", ext, ManifestExtCUE, ManifestExtTOML)
	}
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(manifest); err != nil {
		return fmt.Errorf("failed to merge manifest: %w", err)
	}
	return nil
}

// decodeTOML decodes a TOML manifest and runs it through the CUE schema so
// both formats report the same errors.
func decodeTOML(data []byte, path string) (map[string]any, error) {
	if err := cueutil.CheckFileSize(data, cueutil.DefaultMaxFileSize, path); err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cueutil.ValidateMap(configSchema, doc, schemaDefinition, path)
}

// GenerateCUE renders cfg as a manifest that loads back to the same values.
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// bootshim launch manifest\n\n")
	fmt.Fprintf(&sb, "name: %q\n", cfg.Name)
	fmt.Fprintf(&sb, "build_dir: %q\n", cfg.BuildDir)
	fmt.Fprintf(&sb, "log_level: %q\n", cfg.LogLevel)

	sb.WriteString("\npackages: {\n")
	fmt.Fprintf(&sb, "\tenabled: %v\n", cfg.Packages.Enabled)
	fmt.Fprintf(&sb, "\tprefix: %q\n", cfg.Packages.Prefix)
	fmt.Fprintf(&sb, "\tbin_dir: %q\n", cfg.Packages.BinDir)
	if len(cfg.Packages.Names) > 0 {
		sb.WriteString("\tnames: {\n")
		for _, h := range cfg.ArtifactTable().Hosts() {
			if name, ok := cfg.Packages.Names[h.String()]; ok {
				fmt.Fprintf(&sb, "\t\t%q: %q\n", h.String(), name)
			}
		}
		sb.WriteString("\t}\n")
	}
	sb.WriteString("}\n")

	sb.WriteString("\ntoolchain: {\n")
	fmt.Fprintf(&sb, "\tcommand: %q\n", cfg.Toolchain.Command)
	fmt.Fprintf(&sb, "\tversion_args: %s\n", cueList(cfg.Toolchain.VersionArgs))
	fmt.Fprintf(&sb, "\trun_args: %s\n", cueList(cfg.Toolchain.RunArgs))
	fmt.Fprintf(&sb, "\tchdir_flag: %q\n", cfg.Toolchain.ChdirFlag)
	fmt.Fprintf(&sb, "\tentry_point: %q\n", cfg.Toolchain.EntryPoint)
	fmt.Fprintf(&sb, "\tprobe_timeout: %q\n", cfg.Toolchain.ProbeTimeout.String())
	fmt.Fprintf(&sb, "\thost_spawn: %v\n", cfg.Toolchain.HostSpawn)
	sb.WriteString("}\n")

	sb.WriteString("\npermissions: {\n")
	fmt.Fprintf(&sb, "\trepair_env: %q\n", cfg.Permissions.RepairEnv)
	fmt.Fprintf(&sb, "\tmode: 0o%o\n", cfg.Permissions.Mode)
	sb.WriteString("}\n")

	return sb.String()
}

func cueList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = fmt.Sprintf("%q", item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// fileExists checks if a file exists and is not a directory
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
