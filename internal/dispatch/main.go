// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/invowk/bootshim/internal/config"
	"github.com/invowk/bootshim/internal/delegator"
	"github.com/invowk/bootshim/internal/issue"
	"github.com/invowk/bootshim/internal/resolver"
	"github.com/invowk/bootshim/pkg/fspath"
	"github.com/invowk/bootshim/pkg/platform"
	"github.com/invowk/bootshim/pkg/types"

	"github.com/charmbracelet/log"
)

// Install is where the running dispatcher lives.
type Install struct {
	// Executable is the dispatcher binary, symlinks resolved.
	Executable types.FilesystemPath
	// Root is the directory the build directory, entry points and manifest
	// are relative to.
	Root types.FilesystemPath
}

// Main is the dispatcher's process entry point. It never parses args.
func Main(ctx context.Context, args []string, stderr io.Writer) types.ExitCode {
	inst, err := DiscoverInstall(os.Getenv, os.Executable)
	if err != nil {
		fmt.Fprintln(stderr, issue.NewErrorContext().
			WithOperation("locate the dispatcher installation").
			WithSuggestion("Set "+config.EnvInstallRoot+" to the installation directory").
			Wrap(err).
			Build().
			Format(false))
		return types.ExitConfig
	}

	return Launch(ctx, LaunchOptions{
		Root:        inst.Root,
		DefaultName: ExecutableName(inst.Executable),
		Stderr:      stderr,
		Getenv:      os.Getenv,
	}, args)
}

// LaunchOptions locates the install for Launch.
type LaunchOptions struct {
	Root types.FilesystemPath
	// ManifestPath overrides the manifest discovered under Root.
	ManifestPath string
	DefaultName  string
	Stderr       io.Writer
	Getenv       func(string) string
}

// Launch loads the manifest for an install, then resolves and delegates
// once. Manifest errors exit 78.
func Launch(ctx context.Context, opts LaunchOptions, args []string) types.ExitCode {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	cfg, manifest, err := config.NewProvider().Load(ctx, config.LoadOptions{
		InstallRoot:  opts.Root,
		ManifestPath: opts.ManifestPath,
		DefaultName:  opts.DefaultName,
	})
	if err != nil {
		fmt.Fprintln(opts.Stderr, formatError(err))
		return types.ExitConfig
	}

	logger := NewLogger(opts.Stderr, cfg.Name, cfg.LogLevel)
	logger.Debug("install discovered", "root", opts.Root, "manifest", manifest)

	res := resolver.New(cfg, opts.Root, platform.CurrentHost(), resolver.WithLogger(logger))
	del := delegator.New(delegator.Options{
		Logger:            logger,
		RepairPermissions: delegator.RepairRequested(getenv(cfg.Permissions.RepairEnv)),
	})

	return New(res, del, Options{
		Stderr:  opts.Stderr,
		Logger:  logger,
		Verbose: logger.GetLevel() <= log.DebugLevel,
	}).Run(ctx, args)
}

// DiscoverInstall locates the dispatcher. The root is the parent of the
// directory holding the executable, unless BOOTSHIM_INSTALL_ROOT names one.
func DiscoverInstall(getenv func(string) string, executable func() (string, error)) (Install, error) {
	exe, err := executable()
	if err != nil {
		return Install{}, fmt.Errorf("resolve own executable: %w", err)
	}
	inst := Install{Executable: types.FilesystemPath(exe)}
	if err := inst.Executable.Validate(); err != nil {
		return Install{}, fmt.Errorf("resolve own executable: %w", err)
	}
	// npm links bin entries as symlinks; the real file marks the install.
	if resolved, err := fspath.EvalSymlinks(inst.Executable); err == nil {
		inst.Executable = resolved
	}

	if override := strings.TrimSpace(getenv(config.EnvInstallRoot)); override != "" {
		root := types.FilesystemPath(override)
		if err := root.Validate(); err != nil {
			return Install{}, fmt.Errorf("%s: %w", config.EnvInstallRoot, err)
		}
		root, err := fspath.Abs(root)
		if err != nil {
			return Install{}, fmt.Errorf("%s: %w", config.EnvInstallRoot, err)
		}
		inst.Root = root
		return inst, nil
	}

	inst.Root = fspath.Dir(fspath.Dir(inst.Executable))
	return inst, nil
}

// ExecutableName returns the program name of a dispatcher binary: its base
// name without a Windows ".exe" suffix.
func ExecutableName(exe types.FilesystemPath) string {
	name := fspath.Base(exe)
	if len(name) > 4 && strings.EqualFold(name[len(name)-4:], ".exe") {
		name = name[:len(name)-4]
	}
	return name
}

// NewLogger returns the dispatcher's stderr logger. Unknown levels fall
// back to warn.
func NewLogger(w io.Writer, prefix, level string) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix: prefix,
		Level:  lvl,
	})
	if err != nil {
		logger.Warn("unknown log level, using warn", "level", level)
	}
	return logger
}

func formatError(err error) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(false)
	}
	return "Error: " + err.Error()
}
