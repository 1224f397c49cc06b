// SPDX-License-Identifier: MPL-2.0

package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"path"
	"path/filepath"
	"strings"

	"github.com/invowk/bootshim/internal/config"
	"github.com/invowk/bootshim/internal/launch"
	"github.com/invowk/bootshim/internal/nodepkg"
	"github.com/invowk/bootshim/pkg/fspath"
	"github.com/invowk/bootshim/pkg/platform"
	"github.com/invowk/bootshim/pkg/types"

	"github.com/charmbracelet/log"
)

const (
	// SourcePrebuilt is the binary in the build directory.
	SourcePrebuilt Source = iota + 1
	// SourcePackage is the platform package binary.
	SourcePackage
	// SourceToolchain is the run-from-source fallback.
	SourceToolchain
)

type (
	// Source identifies where a candidate comes from.
	Source int

	// PackageFinder locates a file inside an installed package.
	PackageFinder interface {
		Resolve(from types.FilesystemPath, pkg, file string) (types.FilesystemPath, error)
	}

	// ProbeFunc runs argv to completion with output discarded and returns
	// nil only when it started and exited with status 0.
	ProbeFunc func(ctx context.Context, argv []string) error

	// Resolver evaluates launch candidates for one program on one host.
	Resolver struct {
		cfg     *config.Config
		root    types.FilesystemPath
		host    platform.Host
		sandbox platform.SandboxType
		finder  PackageFinder
		probe   ProbeFunc
		logger  *log.Logger
	}

	// Option configures a Resolver during construction.
	Option func(*Resolver)

	// CandidateReport describes one evaluated candidate.
	CandidateReport struct {
		Source Source
		// Location is the binary path, package name or toolchain command line.
		Location string
		// Available is true when the candidate's precondition holds.
		Available bool
		// Plan is set for every toolchain report and for available binaries.
		Plan launch.Plan
		// Reason explains an unavailable candidate.
		Reason string
	}
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourcePrebuilt:
		return "prebuilt"
	case SourcePackage:
		return "package"
	case SourceToolchain:
		return "toolchain"
	default:
		return "unknown"
	}
}

// WithLogger sets the logger used for candidate traces.
func WithLogger(l *log.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithPackageFinder overrides the Node package lookup.
func WithPackageFinder(f PackageFinder) Option {
	return func(r *Resolver) { r.finder = f }
}

// WithProbe overrides how the toolchain probe is run.
func WithProbe(p ProbeFunc) Option {
	return func(r *Resolver) { r.probe = p }
}

// WithSandbox overrides sandbox detection.
func WithSandbox(st platform.SandboxType) Option {
	return func(r *Resolver) { r.sandbox = st }
}

// New creates a Resolver for cfg installed at root, running on host.
func New(cfg *config.Config, root types.FilesystemPath, host platform.Host, opts ...Option) *Resolver {
	r := &Resolver{cfg: cfg, root: root, host: host, sandbox: platform.DetectSandbox()}
	for _, opt := range opts {
		opt(r)
	}
	if r.finder == nil {
		r.finder = nodepkg.New()
	}
	if r.probe == nil {
		r.probe = runProbe
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	return r
}

// Host returns the host candidates are resolved for.
func (r *Resolver) Host() platform.Host { return r.host }

// PrebuiltPath returns where the pre-built binary is expected.
func (r *Resolver) PrebuiltPath() types.FilesystemPath {
	dir := fspath.FromSlash(types.FilesystemPath(r.cfg.BuildDir))
	if !fspath.IsAbs(dir) {
		dir = fspath.JoinStr(r.root, string(dir))
	}
	return fspath.JoinStr(dir, r.host.ExecutableName(r.cfg.Name))
}

// ResolvePrebuiltBinary returns the pre-built binary when it exists.
// Absence is not an error.
func (r *Resolver) ResolvePrebuiltBinary() (types.FilesystemPath, bool) {
	p := r.PrebuiltPath()
	if !fspath.IsRegularFile(p) {
		r.logger.Debug("no pre-built binary", "path", p)
		return "", false
	}
	r.logger.Debug("found pre-built binary", "path", p)
	return p, true
}

// ResolvePlatformPackage returns the binary of the platform package for
// host. Hosts outside the artifact table and lookup failures both yield
// false; neither is an error.
func (r *Resolver) ResolvePlatformPackage(host platform.Host) (types.FilesystemPath, bool) {
	p, detail := r.resolvePackage(host)
	if p == "" {
		r.logger.Debug("no platform package", "host", host, "reason", detail)
		return "", false
	}
	r.logger.Debug("found platform package binary", "path", p)
	return p, true
}

// resolvePackage returns the package binary, or "" and a description of why
// there is none.
func (r *Resolver) resolvePackage(host platform.Host) (types.FilesystemPath, string) {
	if !r.cfg.Packages.Enabled {
		return "", "platform packages are disabled"
	}
	artifact, ok := r.cfg.ArtifactTable().Lookup(host)
	if !ok {
		return "", fmt.Sprintf("no platform package is published for %s", host)
	}
	file := path.Join(filepath.ToSlash(r.cfg.Packages.BinDir), artifact.ExecutableName())
	p, err := r.finder.Resolve(r.root, artifact.Package, file)
	if err != nil {
		return "", fmt.Sprintf("platform package %s is not installed (%v)", artifact.Package, err)
	}
	return p, ""
}

// ResolveToolchainFallback returns the run-from-source plan. It is always
// constructible; ProbeToolchain decides whether it is usable.
func (r *Resolver) ResolveToolchainFallback() launch.Plan {
	tc := r.cfg.Toolchain
	dir, entry := r.entryPoint()
	return launch.ToolchainSource(launch.Toolchain{
		Launcher:   r.launcher(),
		Command:    tc.Command,
		DirFlag:    tc.ChdirFlag,
		Dir:        dir,
		RunArgs:    tc.RunArgs,
		EntryPoint: entry,
	})
}

// ProbeToolchain runs the toolchain's version query. It returns a
// *ToolchainError unless the toolchain started and exited cleanly within the
// configured timeout.
func (r *Resolver) ProbeToolchain(ctx context.Context) error {
	argv := r.probeArgv()

	timeout := r.cfg.Toolchain.ProbeTimeout
	if timeout <= 0 {
		timeout = config.DefaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := r.probe(ctx, argv); err != nil {
		r.logger.Debug("toolchain probe failed", "argv", argv, "err", err)
		return &ToolchainError{Command: r.cfg.Toolchain.Command, Argv: argv, Err: err}
	}
	r.logger.Debug("toolchain probe succeeded", "argv", argv)
	return nil
}

// Select returns the first available candidate. Later candidates are not
// examined once one is found. When none is available it returns a
// *NoCandidateError that names every missing precondition.
func (r *Resolver) Select(ctx context.Context) (launch.Plan, error) {
	if err := ctx.Err(); err != nil {
		return launch.Plan{}, fmt.Errorf("resolution canceled: %w", err)
	}

	if p, ok := r.ResolvePrebuiltBinary(); ok {
		return launch.DirectBinary(p, r.requiredMode()), nil
	}

	pkgPath, pkgDetail := r.resolvePackage(r.host)
	if pkgPath != "" {
		r.logger.Debug("found platform package binary", "path", pkgPath)
		return launch.DirectBinary(pkgPath, r.requiredMode()), nil
	}
	r.logger.Debug("no platform package", "host", r.host, "reason", pkgDetail)

	plan := r.ResolveToolchainFallback()
	if err := r.ProbeToolchain(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return launch.Plan{}, fmt.Errorf("resolution canceled: %w", ctxErr)
		}
		var te *ToolchainError
		if !errors.As(err, &te) {
			te = &ToolchainError{Command: r.cfg.Toolchain.Command, Err: err}
		}
		return launch.Plan{}, &NoCandidateError{
			Name:          r.cfg.Name,
			Host:          r.host,
			PrebuiltPath:  r.PrebuiltPath(),
			Package:       r.packageName(),
			PackageDetail: pkgDetail,
			Toolchain:     te,
		}
	}
	return plan, nil
}

// Inspect evaluates every candidate, without stopping at the first
// available one, and reports each in preference order.
func (r *Resolver) Inspect(ctx context.Context) []CandidateReport {
	reports := make([]CandidateReport, 0, 3)

	prebuilt := CandidateReport{Source: SourcePrebuilt, Location: string(r.PrebuiltPath())}
	if p, ok := r.ResolvePrebuiltBinary(); ok {
		prebuilt.Available = true
		prebuilt.Plan = launch.DirectBinary(p, r.requiredMode())
	} else {
		prebuilt.Reason = "file does not exist"
	}
	reports = append(reports, prebuilt)

	pkg := CandidateReport{Source: SourcePackage, Location: r.packageName()}
	if p, detail := r.resolvePackage(r.host); p != "" {
		pkg.Available = true
		pkg.Location = string(p)
		pkg.Plan = launch.DirectBinary(p, r.requiredMode())
	} else {
		pkg.Reason = detail
	}
	reports = append(reports, pkg)

	plan := r.ResolveToolchainFallback()
	tc := CandidateReport{Source: SourceToolchain, Location: plan.CommandLine(nil), Plan: plan}
	if err := r.ProbeToolchain(ctx); err != nil {
		tc.Reason = err.Error()
	} else {
		tc.Available = true
	}
	reports = append(reports, tc)

	return reports
}

// packageName returns the host's platform package name, or "".
func (r *Resolver) packageName() string {
	if a, ok := r.cfg.ArtifactTable().Lookup(r.host); ok && r.cfg.Packages.Enabled {
		return a.Package
	}
	return ""
}

// requiredMode is the permission bits binary candidates must carry. Windows
// has no executable bit.
func (r *Resolver) requiredMode() fs.FileMode {
	if r.host.IsWindows() {
		return 0
	}
	return r.cfg.PermissionMode()
}

// launcher returns the host-spawn prefix when the toolchain lives outside
// the sandbox.
func (r *Resolver) launcher() []string {
	if !r.cfg.Toolchain.HostSpawn {
		return nil
	}
	return r.sandbox.HostSpawn()
}

func (r *Resolver) probeArgv() []string {
	argv := r.launcher()
	argv = append(argv, r.cfg.Toolchain.Command)
	return append(argv, r.cfg.Toolchain.VersionArgs...)
}

// entryPoint returns the directory the toolchain works from and the entry
// point as seen from there. Module identifiers
// ("example.com/tool/cmd/tool@latest") need no directory. A path inside the
// install root becomes "./rel" under the root; without a chdir flag, or
// outside the root, it stays absolute.
func (r *Resolver) entryPoint() (types.FilesystemPath, string) {
	ep := r.cfg.Toolchain.EntryPoint
	if IsModuleIdentifier(ep) {
		return "", ep
	}
	p := fspath.FromSlash(types.FilesystemPath(ep))
	if !fspath.IsAbs(p) {
		p = fspath.JoinStr(r.root, string(p))
	}
	if r.cfg.Toolchain.ChdirFlag == "" {
		return "", string(p)
	}
	rel, err := filepath.Rel(string(r.root), string(p))
	switch {
	case err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)):
		return r.root, string(p)
	case rel == ".":
		return r.root, "."
	}
	return r.root, "./" + filepath.ToSlash(rel)
}

// IsModuleIdentifier reports whether entry is a versioned module path
// rather than a filesystem path.
func IsModuleIdentifier(entry string) bool {
	return strings.Contains(entry, "@") && !strings.HasPrefix(entry, ".") && !filepath.IsAbs(entry)
}

// runProbe is the production ProbeFunc.
func runProbe(ctx context.Context, argv []string) error {
	if len(argv) == 0 {
		return errors.New("empty probe command")
	}
	// Nil streams are connected to the null device.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("timed out: %w", ctxErr)
		}
		return err
	}
	return nil
}
