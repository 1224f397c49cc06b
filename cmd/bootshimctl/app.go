// SPDX-License-Identifier: MPL-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/invowk/bootshim/internal/config"
	"github.com/invowk/bootshim/internal/dispatch"
	"github.com/invowk/bootshim/internal/resolver"
	"github.com/invowk/bootshim/pkg/fspath"
	"github.com/invowk/bootshim/pkg/platform"
	"github.com/invowk/bootshim/pkg/types"

	"github.com/charmbracelet/log"
)

type (
	// app is the composition root shared by every command handler.
	app struct {
		config  config.Provider
		stdout  io.Writer
		stderr  io.Writer
		getenv  func(string) string
		getwd   func() (string, error)
		host    platform.Host
		sandbox platform.SandboxType
		// resolverOpts are appended after the defaults; tests inject
		// probes and package finders here.
		resolverOpts []resolver.Option
		flags        globalFlags
	}

	globalFlags struct {
		root     string
		manifest string
		name     string
		verbose  bool
	}

	// session is one loaded install.
	session struct {
		root     types.FilesystemPath
		cfg      *config.Config
		manifest string
	}
)

func newApp() *app {
	return &app{
		config:  config.NewProvider(),
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		getenv:  os.Getenv,
		getwd:   os.Getwd,
		host:    platform.CurrentHost(),
		sandbox: platform.DetectSandbox(),
	}
}

// installRoot is --root, then BOOTSHIM_INSTALL_ROOT, then the working
// directory.
func (a *app) installRoot() (types.FilesystemPath, error) {
	root := a.flags.root
	if root == "" {
		root = strings.TrimSpace(a.getenv(config.EnvInstallRoot))
	}
	if root == "" {
		wd, err := a.getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		root = wd
	}
	if err := types.FilesystemPath(root).Validate(); err != nil {
		return "", err
	}
	return fspath.Abs(types.FilesystemPath(root))
}

// defaultName is --name, or the install root's base name.
func (a *app) defaultName(root types.FilesystemPath) string {
	if a.flags.name != "" {
		return a.flags.name
	}
	return dispatch.ExecutableName(root)
}

func (a *app) load(ctx context.Context) (*session, error) {
	root, err := a.installRoot()
	if err != nil {
		return nil, configError(err)
	}
	cfg, manifest, err := a.config.Load(ctx, config.LoadOptions{
		InstallRoot:  root,
		ManifestPath: a.flags.manifest,
		DefaultName:  a.defaultName(root),
	})
	if err != nil {
		return nil, configError(err)
	}
	return &session{root: root, cfg: cfg, manifest: manifest}, nil
}

func (a *app) logger(cfg *config.Config) *log.Logger {
	level := cfg.LogLevel
	if a.flags.verbose {
		level = log.DebugLevel.String()
	}
	return dispatch.NewLogger(a.stderr, "bootshimctl", level)
}

func (a *app) newResolver(s *session, host platform.Host) *resolver.Resolver {
	opts := []resolver.Option{
		resolver.WithLogger(a.logger(s.cfg)),
		resolver.WithSandbox(a.sandbox),
	}
	return resolver.New(s.cfg, s.root, host, append(opts, a.resolverOpts...)...)
}
