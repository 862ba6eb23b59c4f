package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SetupSignalHandler returns a context cancelled on SIGINT or SIGTERM.
// Call stop to release the signal registration.
func SetupSignalHandler(parent context.Context) (ctx context.Context, stop context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// RunRequests delivers a value each time the process receives runSignal, until
// ctx is done. A signal arriving while the previous one is still pending is
// dropped. On platforms without runSignal the channel never fires.
func RunRequests(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	if runSignal == nil {
		return out
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, runSignal)
	go func() {
		defer signal.Stop(sig)
		for {
			select {
			case <-ctx.Done():
				return
			case <-sig:
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out
}
