//go:build unix

package lifecycle

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestNotifyContext_Interrupt(t *testing.T) {
	ctx, stop := NotifyContext(context.Background())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("Failed to signal self: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Context was not cancelled by SIGTERM")
	}
}

func TestNotifyContext_SigpipeDoesNotCancel(t *testing.T) {
	ctx, stop := NotifyContext(context.Background())
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGPIPE); err != nil {
		t.Fatalf("Failed to signal self: %v", err)
	}

	select {
	case <-ctx.Done():
		t.Fatal("SIGPIPE must not cancel the context")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifyContext_StopCancels(t *testing.T) {
	ctx, stop := NotifyContext(context.Background())
	stop()

	select {
	case <-ctx.Done():
	case <-time.After(1 * time.Second):
		t.Fatal("stop should cancel the context")
	}
}
