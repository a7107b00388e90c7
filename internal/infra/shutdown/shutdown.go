package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// Hook releases one resource. It should return when ctx expires.
type Hook func(context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler runs shutdown hooks once the process is asked to stop.
type Handler struct {
	timeout time.Duration
	signals []os.Signal
	mu      sync.Mutex
	hooks   []namedHook
	once    sync.Once
	err     error
	done    chan struct{}
}

// NewHandler creates a handler that gives hooks timeout to complete.
func NewHandler(timeout time.Duration) *Handler {
	return &Handler{
		timeout: timeout,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a hook. Hooks run in reverse order of registration.
func (h *Handler) OnShutdown(name string, hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, namedHook{name: name, fn: hook})
}

// Context returns a child of parent cancelled on SIGINT or SIGTERM.
func (h *Handler) Context(parent context.Context) context.Context {
	ctx, stop := signal.NotifyContext(parent, h.signals...)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx
}

// Wait blocks until ctx is done, then runs the hooks.
func (h *Handler) Wait(ctx context.Context) error {
	<-ctx.Done()
	return h.Shutdown()
}

// Shutdown runs every hook once, newest first, and joins their errors.
// Later calls return the first result.
func (h *Handler) Shutdown() error {
	h.once.Do(func() {
		defer close(h.done)

		timeout := h.timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		h.mu.Lock()
		hooks := append([]namedHook(nil), h.hooks...)
		h.mu.Unlock()

		var errs []error
		for i := len(hooks) - 1; i >= 0; i-- {
			if err := hooks[i].fn(ctx); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", hooks[i].name, err))
			}
		}
		h.err = errors.Join(errs...)
	})
	return h.err
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
