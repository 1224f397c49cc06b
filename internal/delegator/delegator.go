// SPDX-License-Identifier: MPL-2.0

package delegator

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"syscall"

	"github.com/invowk/bootshim/internal/launch"
	"github.com/invowk/bootshim/pkg/types"

	"github.com/charmbracelet/log"
)

var (
	// ErrSpawn is the sentinel error wrapped by SpawnError.
	ErrSpawn = errors.New("failed to start process")
	// ErrInvalidPlan is returned for a zero launch.Plan.
	ErrInvalidPlan = errors.New("invalid launch plan")
)

type (
	// Options configures a Delegator. Nil streams default to the
	// dispatcher's own standard streams.
	Options struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		Logger *log.Logger
		// RepairPermissions enables the executable-bit repair for binary plans.
		RepairPermissions bool
	}

	// Delegator spawns launch plans.
	Delegator struct {
		stdin  io.Reader
		stdout io.Writer
		stderr io.Writer
		logger *log.Logger
		repair bool
	}

	// Process is a started child.
	Process struct {
		cmd   *exec.Cmd
		relay *signalRelay
	}

	// SpawnError reports a child that never started. Code is the status the
	// dispatcher exits with: 127 when the program is missing, 126 otherwise.
	SpawnError struct {
		Program string
		Code    types.ExitCode
		Err     error
	}
)

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Program, e.Err)
}

// Unwrap returns both the sentinel and the underlying cause.
func (e *SpawnError) Unwrap() []error { return []error{ErrSpawn, e.Err} }

// New creates a Delegator.
func New(opts Options) *Delegator {
	d := &Delegator{
		stdin:  opts.Stdin,
		stdout: opts.Stdout,
		stderr: opts.Stderr,
		logger: opts.Logger,
		repair: opts.RepairPermissions,
	}
	if d.stdin == nil {
		d.stdin = os.Stdin
	}
	if d.stdout == nil {
		d.stdout = os.Stdout
	}
	if d.stderr == nil {
		d.stderr = os.Stderr
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	return d
}

// Run starts plan with args and waits for it to terminate.
func (d *Delegator) Run(plan launch.Plan, args []string) (launch.Outcome, error) {
	p, err := d.Start(plan, args)
	if err != nil {
		return launch.Outcome{}, err
	}
	return p.Wait()
}

// Start spawns plan with args appended to its argument vector. A returned
// error is always a *SpawnError or ErrInvalidPlan: the child did not start.
func (d *Delegator) Start(plan launch.Plan, args []string) (*Process, error) {
	if plan.IsZero() {
		return nil, ErrInvalidPlan
	}

	if path, mode, ok := plan.Binary(); ok && mode != 0 && d.repair {
		res := RepairPermissions(path, mode)
		switch {
		case res.Err != nil:
			// Not fatal: the file may still be executable.
			d.logger.Debug("permission repair failed", "path", path, "err", res.Err)
		case res.Changed:
			d.logger.Debug("repaired permissions", "path", path, "before", res.Before, "after", res.After)
		}
	}

	argv := plan.Argv(args)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = d.stdin
	cmd.Stdout = d.stdout
	cmd.Stderr = d.stderr

	relay := startSignalRelay(d.logger)
	if err := cmd.Start(); err != nil {
		relay.stop()
		return nil, &SpawnError{Program: argv[0], Code: spawnExitCode(err), Err: err}
	}
	relay.forwardTo(cmd.Process)

	d.logger.Debug("started", "pid", cmd.Process.Pid, "argv", argv)
	return &Process{cmd: cmd, relay: relay}, nil
}

// Pid returns the child's process id.
func (p *Process) Pid() int { return p.cmd.Process.Pid }

// Wait waits for the child to terminate and returns its outcome. A non-zero
// exit is an outcome, not an error.
func (p *Process) Wait() (launch.Outcome, error) {
	err := p.cmd.Wait()
	p.relay.stop()

	if p.cmd.ProcessState == nil {
		return launch.Outcome{Code: types.ExitCannotExecute}, fmt.Errorf("wait for child: %w", err)
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		// Stream copy failures; the status is still known.
		return launch.OutcomeFromState(p.cmd.ProcessState), fmt.Errorf("relay child streams: %w", err)
	}
	return launch.OutcomeFromState(p.cmd.ProcessState), nil
}

// spawnExitCode maps a start failure to the shell's convention.
func spawnExitCode(err error) types.ExitCode {
	switch {
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOENT):
		return types.ExitNotFound
	default:
		return types.ExitCannotExecute
	}
}
