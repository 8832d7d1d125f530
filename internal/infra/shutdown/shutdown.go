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

	"github.com/Saiguru2554/Health-Link-Qr/internal/telemetry/logger"
)

// Hook is a named cleanup step.
type Hook struct {
	Name string
	Fn   func(context.Context) error
}

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	logger  logger.Logger
	signals []os.Signal

	mu    sync.Mutex
	hooks []Hook

	trigger     chan struct{}
	triggerOnce sync.Once
	done        chan struct{}
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger used to report hook progress.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithSignals replaces the default SIGINT/SIGTERM set.
func WithSignals(sigs ...os.Signal) Option {
	return func(h *Handler) {
		h.signals = sigs
	}
}

// NewHandler creates a new shutdown handler. timeout bounds the total
// time all hooks may take.
func NewHandler(timeout time.Duration, opts ...Option) *Handler {
	h := &Handler{
		timeout: timeout,
		logger:  logger.Default(),
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// OnShutdown registers a shutdown hook.
func (h *Handler) OnShutdown(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, Hook{Name: name, Fn: fn})
}

// Trigger starts shutdown without a signal. Safe to call more than once.
func (h *Handler) Trigger() {
	h.triggerOnce.Do(func() { close(h.trigger) })
}

// Wait blocks until a signal arrives, Trigger is called or ctx is done,
// then runs the hooks. Errors from all hooks are joined.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		h.logger.Info("shutdown signal received", "signal", sig.String())
	case <-h.trigger:
		h.logger.Info("shutdown triggered")
	case <-ctx.Done():
		h.logger.Info("shutdown context done", "reason", ctx.Err())
	}

	return h.run()
}

func (h *Handler) run() error {
	defer close(h.done)

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]Hook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		start := time.Now()
		if err := hook.Fn(ctx); err != nil {
			h.logger.Error("shutdown hook failed", "hook", hook.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", hook.Name, err))
			continue
		}
		h.logger.Debug("shutdown hook done", "hook", hook.Name, "elapsed", time.Since(start))
	}

	return errors.Join(errs...)
}

// Done returns a channel that closes when all hooks have run.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
