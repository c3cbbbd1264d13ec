package shutdown

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithSignals cancels the returned context on SIGINT, SIGTERM or any of the
// extra signals given.
func WithSignals(parent context.Context, extra ...os.Signal) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigs := append([]os.Signal{syscall.SIGINT, syscall.SIGTERM}, extra...)
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)

	go func() {
		defer signal.Stop(ch)
		select {
		case <-ctx.Done():
			return
		case <-ch:
			cancel()
		}
	}()

	return ctx, cancel
}
