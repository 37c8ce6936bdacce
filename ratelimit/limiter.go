/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/service"
)

// Acquirer is implemented by anything that can block until an operation is admitted.
type Acquirer interface {
	Acquire(ctx context.Context) error
}

// WindowLimiterOpts represents options for WindowLimiter.
type WindowLimiterOpts struct {
	// Logger is used for lifecycle and tick messages. Disabled logger is used if nil.
	Logger log.FieldLogger

	// MetricsCollector receives limiter metrics. Metrics are not collected if nil.
	MetricsCollector MetricsCollector

	// ShutdownTimeout bounds how long Shutdown waits for the window ticker to stop.
	// DefaultShutdownTimeout is used if zero.
	ShutdownTimeout time.Duration
}

// WindowLimiter admits at most capacity operations per fixed window.
// Callers beyond the budget wait in FIFO order until the next window tick.
type WindowLimiter struct {
	capacity int
	window   time.Duration
	logger   log.FieldLogger
	metrics  MetricsCollector

	mu         sync.Mutex
	available  int
	waiters    *list.List // of *waiter
	generation uint64

	stopped      atomic.Bool
	grantedTotal atomic.Uint64

	tickUnit        *service.WorkerUnit
	shutdownTimeout time.Duration
	shutdownOnce    sync.Once
	shutdownErr     error
}

var _ Acquirer = (*WindowLimiter)(nil)

type waiter struct {
	// ready receives nil on grant or ErrShutdown. It is written at most once and only under WindowLimiter.mu.
	ready chan error
	// generation is the window the permit was granted in.
	generation uint64
}

// NewWindowLimiter creates a new WindowLimiter with default options and starts its window ticker.
func NewWindowLimiter(window time.Duration, capacity int) (*WindowLimiter, error) {
	return NewWindowLimiterWithOpts(window, capacity, WindowLimiterOpts{})
}

// NewWindowLimiterWithOpts creates a new WindowLimiter and starts its window ticker.
// Shutdown must be called to release the ticker goroutine.
func NewWindowLimiterWithOpts(window time.Duration, capacity int, opts WindowLimiterOpts) (*WindowLimiter, error) {
	return newWindowLimiter(window, capacity, opts, nil)
}

// NewWindowLimiterFromConfig creates a new WindowLimiter using parameters loaded from Config.
// opts.ShutdownTimeout takes precedence over the configured one when set.
func NewWindowLimiterFromConfig(cfg *Config, opts WindowLimiterOpts) (*WindowLimiter, error) {
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = time.Duration(cfg.ShutdownTimeout)
	}
	return NewWindowLimiterWithOpts(time.Duration(cfg.Window), cfg.Capacity, opts)
}

func newWindowLimiter(window time.Duration, capacity int, opts WindowLimiterOpts, onTick func()) (*WindowLimiter, error) {
	if capacity < 1 {
		return nil, &ConfigError{Param: "capacity", Reason: fmt.Sprintf("must be at least 1, got %d", capacity)}
	}
	if window <= 0 {
		return nil, &ConfigError{Param: "window", Reason: fmt.Sprintf("must be positive, got %s", window)}
	}
	if opts.ShutdownTimeout < 0 {
		return nil, &ConfigError{Param: "shutdown timeout", Reason: "cannot be negative"}
	}
	if opts.ShutdownTimeout == 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.MetricsCollector == nil {
		opts.MetricsCollector = disabledMetricsCollector
	}

	l := &WindowLimiter{
		capacity:        capacity,
		window:          window,
		logger:          opts.Logger,
		metrics:         opts.MetricsCollector,
		available:       capacity,
		waiters:         list.New(),
		shutdownTimeout: opts.ShutdownTimeout,
	}

	ticker := service.NewPeriodicWorker(service.WorkerFunc(func(ctx context.Context) error {
		if onTick != nil {
			onTick()
		}
		l.refill()
		return nil
	}), window, l.logger)
	l.tickUnit = service.NewWorkerUnitWithOpts(ticker, service.WorkerUnitOpts{GracefulStopTimeout: l.shutdownTimeout})

	go l.runTickUnit(l.tickUnit)

	l.logger.Debug("rate limiter started", log.Duration("window", window), log.Int("capacity", capacity))
	return l, nil
}

// runTickUnit blocks until the unit stops. A unit failure means no further windows start, so it is logged.
func (l *WindowLimiter) runTickUnit(unit service.Unit) {
	fatalErr := make(chan error, 1)
	unit.Start(fatalErr)
	select {
	case err := <-fatalErr:
		l.logger.Error("rate limiter ticker failed, windows are no longer refilled", log.Error(err))
	default:
	}
}

// Acquire blocks until a permit is granted, the limiter is shut down or ctx is done.
// It returns immediately if the current window still has permits.
// A caller that gives up (ctx done) is removed from the queue and does not consume a permit.
func (l *WindowLimiter) Acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	if l.stopped.Load() {
		l.mu.Unlock()
		l.metrics.IncShutdownRejections()
		return ErrShutdown
	}
	if l.available > 0 {
		l.available--
		l.mu.Unlock()
		l.grantedTotal.Inc()
		l.metrics.IncGrants(false)
		return nil
	}
	w := &waiter{ready: make(chan error, 1)}
	elem := l.waiters.PushBack(w)
	l.metrics.SetWaiting(l.waiters.Len())
	l.mu.Unlock()

	startTime := time.Now()
	select {
	case err := <-w.ready:
		return l.resolveWaiter(err, startTime)
	case <-ctx.Done():
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case err := <-w.ready:
		// Resolved concurrently with the cancellation.
		if err == nil && w.generation == l.generation && !l.stopped.Load() {
			l.available++
			l.dispatchLocked()
		}
	default:
		l.waiters.Remove(elem)
		l.metrics.SetWaiting(l.waiters.Len())
	}
	return ctx.Err()
}

func (l *WindowLimiter) resolveWaiter(err error, startTime time.Time) error {
	if err != nil {
		l.metrics.IncShutdownRejections()
		return err
	}
	l.grantedTotal.Inc()
	l.metrics.IncGrants(true)
	l.metrics.ObserveWaitDuration(time.Since(startTime))
	return nil
}

// TryAcquire takes a permit if the current window has one. It never blocks.
// Queued callers have priority, so it returns false while anybody waits.
func (l *WindowLimiter) TryAcquire() bool {
	l.mu.Lock()
	if l.stopped.Load() || l.available == 0 {
		l.mu.Unlock()
		return false
	}
	l.available--
	l.mu.Unlock()
	l.grantedTotal.Inc()
	l.metrics.IncGrants(false)
	return true
}

// refill starts a new window: the budget is reset to capacity and queued callers are served in FIFO order.
func (l *WindowLimiter) refill() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped.Load() {
		return
	}
	l.generation++
	l.available = l.capacity
	if granted := l.dispatchLocked(); granted > 0 {
		l.logger.Debug("rate limiter window started",
			log.Int("granted_queued", granted), log.Int("waiting", l.waiters.Len()))
	}
}

func (l *WindowLimiter) dispatchLocked() int {
	granted := 0
	for l.available > 0 && l.waiters.Len() > 0 {
		w := l.waiters.Remove(l.waiters.Front()).(*waiter)
		w.generation = l.generation
		w.ready <- nil
		l.available--
		granted++
	}
	if granted > 0 {
		l.metrics.SetWaiting(l.waiters.Len())
	}
	return granted
}

// Shutdown stops the window ticker, fails every waiting caller with ErrShutdown
// and makes subsequent Acquire calls fail immediately.
// It waits for the ticker goroutine at most ShutdownTimeout and returns ErrShutdownTimeout if it did not stop in time.
// Shutdown is idempotent: repeated calls return the result of the first one.
func (l *WindowLimiter) Shutdown() error {
	l.shutdownOnce.Do(func() {
		l.shutdownErr = l.shutdown()
	})
	return l.shutdownErr
}

func (l *WindowLimiter) shutdown() error {
	l.mu.Lock()
	l.stopped.Store(true)
	l.available = 0
	released := l.waiters.Len()
	for e := l.waiters.Front(); e != nil; e = e.Next() {
		e.Value.(*waiter).ready <- ErrShutdown
	}
	l.waiters.Init()
	l.metrics.SetWaiting(0)
	l.mu.Unlock()

	if err := l.tickUnit.Stop(true); err != nil {
		if errors.Is(err, service.ErrWorkerUnitStopTimeoutExceeded) {
			l.logger.Warn("rate limiter ticker did not stop in time, abandoning it",
				log.Duration("timeout", l.shutdownTimeout))
			return ErrShutdownTimeout
		}
		return fmt.Errorf("stop rate limiter ticker: %w", err)
	}
	l.logger.Info("rate limiter shut down",
		log.Int("released_waiters", released), log.Int64("granted_total", int64(l.grantedTotal.Load())))
	return nil
}

// Capacity returns the number of permits per window.
func (l *WindowLimiter) Capacity() int {
	return l.capacity
}

// Window returns the window duration.
func (l *WindowLimiter) Window() time.Duration {
	return l.window
}

// Available returns the number of permits left in the current window.
func (l *WindowLimiter) Available() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.available
}

// Waiting returns the number of callers blocked in Acquire.
func (l *WindowLimiter) Waiting() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiters.Len()
}

// Stopped reports whether Shutdown has been called.
func (l *WindowLimiter) Stopped() bool {
	return l.stopped.Load()
}

// GrantedTotal returns the number of permits granted since the limiter was created.
func (l *WindowLimiter) GrantedTotal() uint64 {
	return l.grantedTotal.Load()
}
