// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/invowk/bootshim/pkg/platform"
)

const (
	// DefaultBuildDir is the sibling build output directory of the install root.
	DefaultBuildDir = "build"
	// DefaultPackageBinDir is where platform packages keep their executable.
	DefaultPackageBinDir = "bin"
	// DefaultToolchainCommand is the toolchain used to run from source.
	DefaultToolchainCommand = "go"
	// DefaultChdirFlag makes the toolchain resolve its module from the
	// install root instead of the caller's working directory.
	DefaultChdirFlag = "-C"
	// DefaultRepairEnv is the environment variable that enables permission repair.
	DefaultRepairEnv = "BOOTSHIM_REPAIR_PERMISSIONS"
	// DefaultPermissionMode is the mode bits a repaired binary must carry.
	DefaultPermissionMode = 0o755
	// DefaultProbeTimeout bounds the toolchain version probe.
	DefaultProbeTimeout = 10 * time.Second
	// DefaultLogLevel keeps the dispatcher silent unless something is wrong.
	DefaultLogLevel = "warn"

	maxPermissionMode = 0o7777
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")

	// defaultVersionArgs and defaultRunArgs form "go version" and "go run".
	defaultVersionArgs = []string{"version"}
	defaultRunArgs     = []string{"run"}
)

type (
	// Config is the effective launch manifest.
	Config struct {
		// Name is the program name; defaults to the dispatcher's own executable name.
		Name string `mapstructure:"name"`
		// BuildDir is the build output directory, relative to the install root.
		BuildDir string `mapstructure:"build_dir"`
		// LogLevel is the dispatcher's own log level.
		LogLevel    string            `mapstructure:"log_level"`
		Packages    PackagesConfig    `mapstructure:"packages"`
		Toolchain   ToolchainConfig   `mapstructure:"toolchain"`
		Permissions PermissionsConfig `mapstructure:"permissions"`
	}

	// PackagesConfig controls platform package lookup.
	PackagesConfig struct {
		Enabled bool `mapstructure:"enabled"`
		// Prefix defaults to Config.Name.
		Prefix string `mapstructure:"prefix"`
		BinDir string `mapstructure:"bin_dir"`
		// Names overrides the package name for individual "<os>/<arch>" hosts.
		Names map[string]string `mapstructure:"names"`
	}

	// ToolchainConfig describes the run-from-source fallback.
	ToolchainConfig struct {
		Command     string   `mapstructure:"command"`
		VersionArgs []string `mapstructure:"version_args"`
		RunArgs     []string `mapstructure:"run_args"`
		// ChdirFlag, followed by the install root, leads the toolchain
		// arguments of a path entry point. Empty disables it and passes the
		// entry point as an absolute path instead.
		ChdirFlag string `mapstructure:"chdir_flag"`
		// EntryPoint defaults to "cmd/<name>".
		EntryPoint   string        `mapstructure:"entry_point"`
		ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
		// HostSpawn prefixes toolchain invocations with the sandbox's host
		// spawn helper when running inside a sandbox that hides host tools.
		HostSpawn bool `mapstructure:"host_spawn"`
	}

	// PermissionsConfig controls the opt-in executable-bit repair.
	PermissionsConfig struct {
		RepairEnv string `mapstructure:"repair_env"`
		Mode      int    `mapstructure:"mode"`
	}

	// InvalidConfigError describes the first invalid field found by Validate.
	InvalidConfigError struct {
		Field  string
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid config: %s: %s", e.Field, e.Reason)
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// DefaultConfig returns the built-in manifest for a program called name.
func DefaultConfig(name string) *Config {
	cfg := &Config{
		Name:     name,
		BuildDir: DefaultBuildDir,
		LogLevel: DefaultLogLevel,
		Packages: PackagesConfig{
			Enabled: true,
			BinDir:  DefaultPackageBinDir,
		},
		Toolchain: ToolchainConfig{
			Command:      DefaultToolchainCommand,
			VersionArgs:  append([]string(nil), defaultVersionArgs...),
			RunArgs:      append([]string(nil), defaultRunArgs...),
			ChdirFlag:    DefaultChdirFlag,
			ProbeTimeout: DefaultProbeTimeout,
			HostSpawn:    true,
		},
		Permissions: PermissionsConfig{
			RepairEnv: DefaultRepairEnv,
			Mode:      DefaultPermissionMode,
		},
	}
	cfg.applyDerivedDefaults()
	return cfg
}

// applyDerivedDefaults fills fields whose default depends on Name.
func (c *Config) applyDerivedDefaults() {
	if c.Packages.Prefix == "" {
		c.Packages.Prefix = c.Name
	}
	if c.Toolchain.EntryPoint == "" && c.Name != "" {
		c.Toolchain.EntryPoint = "cmd/" + c.Name
	}
	if c.Toolchain.ProbeTimeout <= 0 {
		c.Toolchain.ProbeTimeout = DefaultProbeTimeout
	}
}

// Validate checks constraints the schema cannot see (values that may come
// from environment overrides or defaults).
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &InvalidConfigError{Field: "name", Reason: "must not be empty"}
	}
	if strings.ContainsAny(c.Name, `/\`) {
		return &InvalidConfigError{Field: "name", Reason: "must not contain path separators"}
	}
	if platform.IsWindowsReservedName(c.Name) {
		return &InvalidConfigError{Field: "name", Reason: "is a reserved device name on Windows"}
	}
	if strings.TrimSpace(c.BuildDir) == "" {
		return &InvalidConfigError{Field: "build_dir", Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.Toolchain.Command) == "" {
		return &InvalidConfigError{Field: "toolchain.command", Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.Toolchain.EntryPoint) == "" {
		return &InvalidConfigError{Field: "toolchain.entry_point", Reason: "must not be empty"}
	}
	if c.Permissions.Mode < 0 || c.Permissions.Mode > maxPermissionMode {
		return &InvalidConfigError{
			Field:  "permissions.mode",
			Reason: fmt.Sprintf("%#o is outside 0-%#o", c.Permissions.Mode, maxPermissionMode),
		}
	}
	for key := range c.Packages.Names {
		if _, err := platform.ParseHost(key); err != nil {
			return &InvalidConfigError{Field: "packages.names", Reason: err.Error()}
		}
	}
	return nil
}

// ArtifactTable returns the platform package table: the default
// "<prefix>-<os>-<arch>" names, with per-host overrides applied. Overrides
// may add hosts the default table does not know.
func (c *Config) ArtifactTable() platform.ArtifactTable {
	table := platform.DefaultArtifactTable(c.Packages.Prefix)
	for key, name := range c.Packages.Names {
		h, err := platform.ParseHost(key)
		if err != nil {
			continue
		}
		table[h] = platform.Artifact{Package: name, Suffix: platform.ExecutableSuffix(h.OS)}
	}
	return table
}

// PermissionMode returns the repair mode as file mode bits.
func (c *Config) PermissionMode() fs.FileMode {
	return fs.FileMode(c.Permissions.Mode) & fs.ModePerm
}
