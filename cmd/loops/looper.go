package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/strataml/strata/cmd/loops/recurring"
	"github.com/strataml/strata/cmd/loops/tasks/orphan"
	"github.com/strataml/strata/cmd/loops/tasks/tiering"
	"github.com/strataml/strata/pkg/domain"
	"github.com/strataml/strata/pkg/domain/strata"
	"github.com/strataml/strata/pkg/loop"
)

type LoggerOptions func(*log.Logger) *log.Logger

func byLogger(l *log.Logger, opt ...LoggerOptions) *log.Logger {
	for _, o := range opt {
		l = o(l)
	}
	return l
}

func Copied() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		return log.New(l.Writer(), l.Prefix(), l.Flags())
	}
}

func WithPrefix(pre string) LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetPrefix(pre)
		return l
	}
}

func WithTimestamp() LoggerOptions {
	return func(l *log.Logger) *log.Logger {
		l.SetFlags(l.Flags() | log.Ldate | log.Ltime | log.Lmicroseconds)
		return l
	}
}

// Wrapper for monitoring loop tasks
//
//	Log the start and end of each time a task is executed. Essentially, it executes a task.
func monitor[T any](logger *log.Logger, task loop.Task[T]) loop.Task[T] {
	// counter for execution of the task
	var counter uint64
	return func(ctx context.Context, t T) (ret T, next loop.Next) {
		// func() capture the 'counter' variable
		counter += 1
		timestamp := time.Now()

		logger.Printf("task start: #0x%X: ", counter)

		// log at the end of the task
		defer func() {
			logger.Printf(
				"task end: #0x%X (takes %s): %s\n with value = %#v",
				counter, time.Since(timestamp), next, ret,
			)
		}()

		// execute the task specified by the argument
		ret, next = task(ctx, t)
		return
	}
}

// Manifest for starting a loop, which determines how the loop should behave.
type LoopManifest struct {
	// Which sweep to run
	Type domain.SweepName

	// Policy for the looping
	Policy recurring.Policy
}

// Start the loop the manifest names, blocking until it breaks.
func StartLoop(
	ctx context.Context,
	logger *log.Logger,
	s strata.Strata,
	manifest LoopManifest,
) error {
	switch manifest.Type {
	case domain.SweepTiering:
		return StartTieringLoop(ctx, logger, s, manifest)
	case domain.SweepOrphan:
		return StartOrphanLoop(ctx, logger, s, manifest)
	}
	return fmt.Errorf("%w: %s", domain.ErrUnknownSweepName, manifest.Type)
}

func StartTieringLoop(
	ctx context.Context,
	logger *log.Logger,
	s strata.Strata,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[tiering loop]"))
	sweep := s.Config().Sweep()
	_, err := loop.Start(
		ctx, tiering.Seed(),
		monitor(
			l,
			tiering.Task(
				l,
				s.Database().Tracker(),
				s.Executor(),
				s.Stores().Hot(),
				s.Config().Policies(),
				s.Database().Sweeps(),
				sweep.BatchSize(),
				sweep.Workers(),
			).Applied(manifest.Policy),
		),
	)
	return err
}

func StartOrphanLoop(
	ctx context.Context,
	logger *log.Logger,
	s strata.Strata,
	manifest LoopManifest,
) error {
	l := byLogger(logger, Copied(), WithPrefix("[orphan loop]"))
	sweep := s.Config().Sweep()
	_, err := loop.Start(
		ctx, orphan.Seed(),
		monitor(
			l,
			orphan.Task(
				l,
				s.Database().Tracker(),
				s.Stores(),
				s.Database().Sweeps(),
				sweep.OrphanGrace(),
				sweep.BatchSize(),
				sweep.Workers(),
			).Applied(manifest.Policy),
		),
	)
	return err
}
