// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/invowk/bootshim/internal/delegator"
	"github.com/invowk/bootshim/internal/issue"
	"github.com/invowk/bootshim/internal/launch"
	"github.com/invowk/bootshim/internal/resolver"
	"github.com/invowk/bootshim/pkg/types"

	"github.com/charmbracelet/log"
)

type (
	// Selector picks the launch plan. *resolver.Resolver implements it.
	Selector interface {
		Select(ctx context.Context) (launch.Plan, error)
	}

	// Options configures a Dispatcher.
	Options struct {
		// Stderr receives fatal diagnostics. Defaults to os.Stderr.
		Stderr io.Writer
		Logger *log.Logger
		// Verbose adds the error chain to diagnostics.
		Verbose bool
		// OnTransition, when set, is called after every state change.
		OnTransition func(from, to State)
	}

	// Dispatcher runs a single resolution and delegation. It is single-use.
	Dispatcher struct {
		selector  Selector
		delegator *delegator.Delegator
		stderr    io.Writer
		logger    *log.Logger
		verbose   bool
		observe   func(from, to State)
		state     atomic.Int32
	}
)

// New creates a Dispatcher.
func New(sel Selector, del *delegator.Delegator, opts Options) *Dispatcher {
	d := &Dispatcher{
		selector:  sel,
		delegator: del,
		stderr:    opts.Stderr,
		logger:    opts.Logger,
		verbose:   opts.Verbose,
		observe:   opts.OnTransition,
	}
	if d.stderr == nil {
		d.stderr = os.Stderr
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard)
	}
	return d
}

// State returns the current state.
func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// Run resolves a plan, starts it with args and returns the exit status the
// dispatcher must terminate with. Fatal conditions are reported on stderr.
// Run panics with a *TransitionError when called on a used Dispatcher.
func (d *Dispatcher) Run(ctx context.Context, args []string) types.ExitCode {
	d.mustTransition(StateIdle, StateResolving)

	plan, err := d.selector.Select(ctx)
	if err != nil {
		d.mustTransition(StateResolving, StateNoCandidateAvailable)
		return d.resolutionFailed(ctx, err)
	}
	d.logger.Debug("selected", "plan", plan)

	d.mustTransition(StateResolving, StateSpawning)
	proc, err := d.delegator.Start(plan, args)
	if err != nil {
		d.mustTransition(StateSpawning, StateSpawnFailed)
		return d.spawnFailed(err)
	}

	d.mustTransition(StateSpawning, StateRunning)
	outcome, err := proc.Wait()
	d.mustTransition(StateRunning, StateTerminated)
	if err != nil {
		d.logger.Warn("child finished with a relay error", "err", err)
	}
	d.logger.Debug("child finished", "outcome", outcome)
	return outcome.Code
}

func (d *Dispatcher) resolutionFailed(ctx context.Context, err error) types.ExitCode {
	if ctx.Err() != nil && !errors.Is(err, resolver.ErrNoCandidate) {
		d.logger.Debug("resolution interrupted", "err", err)
		return types.ExitCanceled
	}

	var nc *resolver.NoCandidateError
	if errors.As(err, &nc) {
		d.fail(nc.Actionable())
	} else {
		d.fail(issue.WrapWithContext(err, "resolve a launch candidate", ""))
	}
	return types.ExitNoCandidate
}

func (d *Dispatcher) spawnFailed(err error) types.ExitCode {
	var se *delegator.SpawnError
	if !errors.As(err, &se) {
		d.fail(issue.WrapWithContext(err, "start the selected candidate", ""))
		return types.ExitCannotExecute
	}
	d.fail(issue.NewErrorContext().
		WithOperation("start the selected candidate").
		WithResource(se.Program).
		WithSuggestion("The candidate was present during resolution; check that it was not removed or replaced").
		WithSuggestion("Re-run once the installation is complete").
		WithIssue(issue.SpawnFailedId).
		Wrap(se.Err).
		Build())
	return se.Code
}

func (d *Dispatcher) fail(ae *issue.ActionableError) {
	fmt.Fprintln(d.stderr, ae.Format(d.verbose))
}

func (d *Dispatcher) transition(from, to State) error {
	if !from.CanTransition(to) || !d.state.CompareAndSwap(int32(from), int32(to)) {
		return &TransitionError{From: d.State(), To: to}
	}
	if d.observe != nil {
		d.observe(from, to)
	}
	return nil
}

// mustTransition is for transitions Run's own control flow guarantees.
func (d *Dispatcher) mustTransition(from, to State) {
	if err := d.transition(from, to); err != nil {
		panic(err)
	}
}
