// Package signalrelay installs OS signal handlers that set a process-wide
// flag, and exposes a narrow Relay step that copies that flag into a
// cancellation token. The handler itself does only async-signal-safe work
// (a single atomic store); everything else in the system observes
// cancellation through the normal token, not through the signal handler
// directly.
package signalrelay

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/flowmesh/runtime/token"
)

var (
	installOnce sync.Once
	flagged     atomic.Bool
	sigCh       chan os.Signal
)

// Install registers handlers for interrupt and termination signals exactly
// once per process. Subsequent calls are no-ops. It is a singleton module
// by design: the flag it sets is process-wide and is never torn down.
func Install() {
	installOnce.Do(func() {
		sigCh = make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			for range sigCh {
				flagged.Store(true)
			}
		}()
	})
}

// Relay copies the signal flag into tok with release ordering, if set. It
// is meant to be called periodically from the orchestrator's wait loop,
// not from the signal handler itself.
func Relay(tok *token.Token) {
	if flagged.Load() {
		tok.RequestStop()
	}
}

// Reset clears the process-wide flag. Exposed only for tests that need to
// run multiple scenarios against the same installed handler in one binary.
func Reset() {
	flagged.Store(false)
}
