/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/testutil"
)

func TestWorkerUnit_Start_Stop(t *testing.T) {
	t.Run("start, stop no gracefully", func(t *testing.T) {
		var c atomic.Int32
		periodicWorker := NewPeriodicWorker(WorkerFunc(func(ctx context.Context) error {
			c.Inc()
			return nil
		}), time.Millisecond*100, log.NewDisabledLogger())

		unit := NewWorkerUnit(periodicWorker)
		fatalErr := make(chan error, 1)
		go func() {
			unit.Start(fatalErr)
		}()
		time.Sleep(time.Millisecond * 450)
		require.NoError(t, unit.Stop(false))
		<-unit.Done()
		require.Equal(t, 4, int(c.Load()))
		testutil.RequireNoErrorInChannel(t, fatalErr)
	})

	t.Run("start, stop gracefully with timeout", func(t *testing.T) {
		longRunningWorker := WorkerFunc(func(ctx context.Context) error {
			time.Sleep(time.Second * 3) // Emulate long blocking operation.
			return nil
		})
		unit := NewWorkerUnitWithOpts(longRunningWorker, WorkerUnitOpts{GracefulStopTimeout: time.Millisecond * 500})
		fatalErr := make(chan error, 1)
		go func() {
			unit.Start(fatalErr)
		}()
		time.Sleep(time.Millisecond * 100)
		require.ErrorIs(t, unit.Stop(true), ErrWorkerUnitStopTimeoutExceeded)
	})

	t.Run("start, stop gracefully without timeout", func(t *testing.T) {
		var answer atomic.Int32
		longRunningWorker := WorkerFunc(func(ctx context.Context) error {
			time.Sleep(time.Millisecond * 250)
			answer.Store(42)
			return nil
		})
		unit := NewWorkerUnit(longRunningWorker)
		fatalErr := make(chan error, 1)
		go func() {
			unit.Start(fatalErr)
		}()
		time.Sleep(time.Millisecond * 100)
		require.NoError(t, unit.Stop(true))
		require.Equal(t, 42, int(answer.Load()))
		testutil.RequireNoErrorInChannel(t, fatalErr)
	})

	t.Run("worker error goes to fatal channel", func(t *testing.T) {
		errBoom := errors.New("boom")
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return errBoom
		}))
		fatalErr := make(chan error, 1)
		unit.Start(fatalErr)
		require.ErrorIs(t, testutil.RequireErrorFromChannel(t, fatalErr, time.Second), errBoom)
		require.NoError(t, unit.Stop(true))
	})
}
