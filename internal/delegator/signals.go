// SPDX-License-Identifier: MPL-2.0

package delegator

import (
	"os"
	"os/signal"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
)

// signalRelay keeps the dispatcher alive while a child runs and passes
// termination requests on to it. It is registered before the child starts
// so no signal falls into the gap between spawn and relay.
type signalRelay struct {
	ch      chan os.Signal
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
	logger  *log.Logger
	forward []os.Signal
}

func startSignalRelay(logger *log.Logger) *signalRelay {
	forward, absorb := relayedSignals()
	r := &signalRelay{
		ch:      make(chan os.Signal, 8),
		done:    make(chan struct{}),
		logger:  logger,
		forward: forward,
	}
	signal.Notify(r.ch, append(slices.Clone(forward), absorb...)...)
	return r
}

// forwardTo starts delivering forwarded signals to p. Absorbed signals are
// dropped: the terminal delivers them to the child's process group itself.
func (r *signalRelay) forwardTo(p *os.Process) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case sig := <-r.ch:
				if !slices.Contains(r.forward, sig) {
					r.logger.Debug("signal left to the child", "signal", sig)
					continue
				}
				if err := p.Signal(sig); err != nil {
					r.logger.Debug("failed to forward signal", "signal", sig, "err", err)
				}
			case <-r.done:
				return
			}
		}
	}()
}

func (r *signalRelay) stop() {
	r.once.Do(func() {
		signal.Stop(r.ch)
		close(r.done)
		r.wg.Wait()
	})
}
