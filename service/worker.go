/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/acronis/go-crptapi/log"
)

// ErrPeriodicWorkerStop may be returned by the underlying worker to interrupt PeriodicWorker's loop.
var ErrPeriodicWorkerStop = errors.New("stop periodic worker error")

// Worker performs some (usually long-running) work.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc is an adapter to allow the use of ordinary functions as Worker.
type WorkerFunc func(ctx context.Context) error

// Run is a part of Worker interface.
func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// PeriodicWorker runs the underlying worker at a fixed rate.
// The first run happens one interval after Run is called.
// If a run takes longer than the interval, missed ticks are dropped rather than queued.
type PeriodicWorker struct {
	worker   Worker
	interval time.Duration
	logger   log.FieldLogger
}

// NewPeriodicWorker creates a new instance of PeriodicWorker. The interval must be positive.
func NewPeriodicWorker(worker Worker, interval time.Duration, logger log.FieldLogger) *PeriodicWorker {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &PeriodicWorker{worker: worker, interval: interval, logger: logger}
}

// Run runs PeriodicWorker loop until ctx is done or the worker returns ErrPeriodicWorkerStop.
func (pw *PeriodicWorker) Run(ctx context.Context) (resErr error) {
	defer func() {
		if p := recover(); p != nil {
			const logStackSize = 8192
			stack := make([]byte, logStackSize)
			stack = stack[:runtime.Stack(stack, false)]
			pw.logger.Error(fmt.Sprintf("panic: %+v", p), log.Bytes("stack", stack))
			panic(p)
		}
		if resErr != nil {
			pw.logger.Error("periodic worker stopped with error", log.Error(resErr))
			return
		}
		pw.logger.Debug("periodic worker stopped")
	}()

	pw.logger.Debug("running periodic worker", log.Duration("interval", pw.interval))

	ticker := time.NewTicker(pw.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if err := pw.worker.Run(ctx); err != nil {
			if errors.Is(err, ErrPeriodicWorkerStop) {
				return nil
			}
			pw.logger.Error("periodically running worker finished with error", log.Error(err))
		}
	}
}
