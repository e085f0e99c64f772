// Package lifecycle owns the process-wide signal dispositions.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NotifyContext returns a context cancelled on SIGINT or SIGTERM.
//
// It also subscribes to SIGPIPE: with a subscriber present the runtime no
// longer kills the process when the status bar closes stdout, and the write
// fails with EPIPE instead. The returned stop function restores the default
// dispositions and must be called on every shutdown path.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)

	pipe := make(chan os.Signal, 1)
	signal.Notify(pipe, syscall.SIGPIPE)
	go func() {
		for {
			select {
			case <-pipe:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ctx, func() {
		signal.Stop(pipe)
		signal.Reset(syscall.SIGPIPE)
		stop()
	}
}
