// SPDX-License-Identifier: MPL-2.0

// Package nodepkg locates files inside installed npm packages the way Node's
// module resolution does, without running Node.
//
// A request for package "tool-linux-amd64", file "bin/tool-linux-amd64" is
// looked up in, in order:
//   - <dir>/node_modules/tool-linux-amd64/bin/tool-linux-amd64 for the
//     starting directory and each of its ancestors (directories that are
//     themselves named node_modules are skipped);
//   - each NODE_PATH entry;
//   - $HOME/.node_modules and $HOME/.node_libraries.
package nodepkg

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invowk/bootshim/pkg/fspath"
	"github.com/invowk/bootshim/pkg/types"
)

const (
	nodeModulesDir = "node_modules"
	// EnvNodePath lists extra package folders, separated like PATH.
	EnvNodePath = "NODE_PATH"
)

var (
	// ErrNotFound is the sentinel error wrapped by NotFoundError.
	ErrNotFound = errors.New("package file not found")
	// ErrInvalidPackageName is returned for names that could escape the
	// package folder.
	ErrInvalidPackageName = errors.New("invalid package name")
)

type (
	// Finder resolves package files. The zero value is not usable; use New.
	Finder struct {
		getenv  func(string) string
		homeDir func() (string, error)
		exists  func(types.FilesystemPath) bool
	}

	// NotFoundError lists every location that was searched.
	NotFoundError struct {
		Package  string
		File     string
		Searched []types.FilesystemPath
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s/%s not found in %d package folders", e.Package, e.File, len(e.Searched))
}

// Unwrap returns ErrNotFound so callers can use errors.Is for programmatic detection.
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// New returns a Finder reading NODE_PATH and the home directory from the
// process environment.
func New() *Finder {
	return &Finder{
		getenv:  os.Getenv,
		homeDir: os.UserHomeDir,
		exists:  fspath.IsRegularFile,
	}
}

// Resolve returns the path of file inside package pkg, searching upwards
// from the directory from. file uses forward slashes. Only regular files
// match.
func (f *Finder) Resolve(from types.FilesystemPath, pkg, file string) (types.FilesystemPath, error) {
	if err := ValidatePackageName(pkg); err != nil {
		return "", err
	}
	rel := filepath.FromSlash(pkg + "/" + file)

	searched := f.SearchDirs(from)
	for _, dir := range searched {
		candidate := fspath.JoinStr(dir, rel)
		if f.exists(candidate) {
			return candidate, nil
		}
	}
	return "", &NotFoundError{Package: pkg, File: file, Searched: searched}
}

// SearchDirs returns the package folders consulted for a lookup starting at
// from, in lookup order.
func (f *Finder) SearchDirs(from types.FilesystemPath) []types.FilesystemPath {
	var dirs []types.FilesystemPath

	if from != "" {
		dir := types.FilesystemPath(filepath.Clean(string(from)))
		if abs, err := fspath.Abs(dir); err == nil {
			dir = abs
		}
		for {
			if fspath.Base(dir) != nodeModulesDir {
				dirs = append(dirs, fspath.JoinStr(dir, nodeModulesDir))
			}
			parent := fspath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	for _, entry := range filepath.SplitList(f.getenv(EnvNodePath)) {
		if entry != "" {
			dirs = append(dirs, types.FilesystemPath(entry))
		}
	}

	if home, err := f.homeDir(); err == nil && home != "" {
		h := types.FilesystemPath(home)
		dirs = append(dirs, fspath.JoinStr(h, ".node_modules"), fspath.JoinStr(h, ".node_libraries"))
	}

	return dirs
}

// ValidatePackageName accepts "name" and "@scope/name" package names.
func ValidatePackageName(pkg string) error {
	name := pkg
	if scope, rest, scoped := strings.Cut(pkg, "/"); scoped {
		if !strings.HasPrefix(scope, "@") || len(scope) == 1 {
			return fmt.Errorf("%w: %q (only scoped names may contain '/')", ErrInvalidPackageName, pkg)
		}
		name = rest
	}
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidPackageName, pkg)
	case strings.ContainsAny(name, `/\`), strings.HasPrefix(name, "."):
		return fmt.Errorf("%w: %q", ErrInvalidPackageName, pkg)
	}
	return nil
}
