// SPDX-License-Identifier: MPL-2.0

package delegator

import (
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/invowk/bootshim/pkg/types"
)

// RepairResult is the outcome of a permission repair attempt. Err is
// informational: callers log it and carry on.
type RepairResult struct {
	Path    types.FilesystemPath
	Before  fs.FileMode
	After   fs.FileMode
	Changed bool
	Err     error
}

// RepairPermissions adds the bits in mode to path's permissions when any of
// them are missing. It does nothing on Windows or for a zero mode.
func RepairPermissions(path types.FilesystemPath, mode fs.FileMode) RepairResult {
	res := RepairResult{Path: path}
	mode &= fs.ModePerm
	if runtime.GOOS == "windows" || mode == 0 {
		return res
	}

	info, err := os.Stat(string(path))
	if err != nil {
		res.Err = fmt.Errorf("stat: %w", err)
		return res
	}
	res.Before = info.Mode().Perm()
	res.After = res.Before
	if res.Before&mode == mode {
		return res
	}

	want := res.Before | mode
	if err := os.Chmod(string(path), want); err != nil {
		res.Err = fmt.Errorf("chmod %o: %w", want, err)
		return res
	}
	res.After = want
	res.Changed = true
	return res
}

// RepairRequested reports whether an environment value enables permission
// repair. Empty, "0", "false", "no" and "off" (any case) do not.
func RepairRequested(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "0", "false", "no", "off":
		return false
	default:
		return true
	}
}
