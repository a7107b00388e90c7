package shutdown

import (
	"context"
	"errors"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestHandler_ReverseOrder(t *testing.T) {
	h := NewHandler(time.Second)

	var order []string
	for _, name := range []string{"store", "session", "metrics"} {
		h.OnShutdown(name, func(context.Context) error {
			order = append(order, name)
			return nil
		})
	}

	if err := h.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if got := strings.Join(order, ","); got != "metrics,session,store" {
		t.Errorf("order = %s", got)
	}

	select {
	case <-h.Done():
	default:
		t.Error("Done() should be closed after Shutdown()")
	}
}

func TestHandler_JoinsErrorsAndRunsOnce(t *testing.T) {
	h := NewHandler(time.Second)
	errA := errors.New("a failed")
	calls := 0

	h.OnShutdown("a", func(context.Context) error { calls++; return errA })
	h.OnShutdown("b", func(context.Context) error { calls++; return nil })

	err := h.Shutdown()
	if !errors.Is(err, errA) || !strings.Contains(err.Error(), "a:") {
		t.Errorf("Shutdown() error = %v", err)
	}
	if again := h.Shutdown(); again != err {
		t.Errorf("second Shutdown() = %v, want the first result", again)
	}
	if calls != 2 {
		t.Errorf("hooks ran %d times, want 2", calls)
	}
}

func TestHandler_HookDeadline(t *testing.T) {
	h := NewHandler(20 * time.Millisecond)
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	if err := h.Shutdown(); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown() error = %v, want deadline exceeded", err)
	}
}

func TestHandler_WaitOnCancel(t *testing.T) {
	h := NewHandler(time.Second)
	ran := make(chan struct{})
	h.OnShutdown("x", func(context.Context) error { close(ran); return nil })

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(ctx) }()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Wait() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Wait() did not return after cancel")
	}
	<-ran
}

func TestHandler_ContextCancelledBySignal(t *testing.T) {
	h := NewHandler(time.Second)
	h.signals = []os.Signal{syscall.SIGUSR1}

	ctx := h.Context(context.Background())
	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled by the signal")
	}
}
