/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"time"
)

// ErrWorkerUnitStopTimeoutExceeded is an error that occurs when WorkerUnit's gracefully stop timeout is exceeded.
var ErrWorkerUnitStopTimeoutExceeded = errors.New("worker unit stop timeout exceeded")

// WorkerUnit allows presenting Worker as Unit.
type WorkerUnit struct {
	worker              Worker
	ctx                 context.Context
	cancel              context.CancelFunc
	stopDone            chan struct{}
	gracefulStopTimeout time.Duration
}

var _ Unit = (*WorkerUnit)(nil)

// WorkerUnitOpts contains optional parameters for constructing WorkerUnit.
type WorkerUnitOpts struct {
	// GracefulStopTimeout bounds how long Stop(true) waits for the worker. Zero means wait forever.
	GracefulStopTimeout time.Duration
}

// NewWorkerUnit creates a new instance of WorkerUnit.
func NewWorkerUnit(worker Worker) *WorkerUnit {
	return NewWorkerUnitWithOpts(worker, WorkerUnitOpts{})
}

// NewWorkerUnitWithOpts creates a new instance of WorkerUnit
// with an ability to specify different optional parameters.
func NewWorkerUnitWithOpts(worker Worker, opts WorkerUnitOpts) *WorkerUnit {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerUnit{
		worker:              worker,
		ctx:                 ctx,
		cancel:              cancel,
		stopDone:            make(chan struct{}),
		gracefulStopTimeout: opts.GracefulStopTimeout,
	}
}

// Start runs the underlying Worker and blocks until it returns.
// It must be called at most once.
func (u *WorkerUnit) Start(fatalErr chan<- error) {
	defer close(u.stopDone)
	if err := u.worker.Run(u.ctx); err != nil {
		fatalErr <- err
	}
}

// Stop cancels the underlying Worker's context.
// If gracefully is true, it also waits until the worker returns, at most GracefulStopTimeout.
// Stop may be called several times.
func (u *WorkerUnit) Stop(gracefully bool) error {
	u.cancel()
	if !gracefully {
		return nil
	}
	if u.gracefulStopTimeout == 0 {
		<-u.stopDone
		return nil
	}
	timer := time.NewTimer(u.gracefulStopTimeout)
	defer timer.Stop()
	select {
	case <-u.stopDone:
		return nil
	case <-timer.C:
		return ErrWorkerUnitStopTimeoutExceeded
	}
}

// Done returns a channel that is closed when the underlying Worker returns.
func (u *WorkerUnit) Done() <-chan struct{} {
	return u.stopDone
}
