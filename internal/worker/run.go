// Package worker consumes overlay job ids from the queue and runs them.
package worker

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/VivekAsole/video-processing-backend/internal/pkg/logger"
	"github.com/VivekAsole/video-processing-backend/internal/worker/processor"
)

// Run starts d.Concurrency consumer loops and blocks until ctx is done and
// every job in flight has finished. Canceling ctx only stops the loops from
// taking new jobs; a running job keeps going to its terminal status.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	p := processor.New(processor.Deps{
		Store:        d.Store,
		Records:      d.Records,
		Renderer:     d.Renderer,
		SP:           d.SP,
		WorkDir:      d.WorkDir,
		CleanupLocal: d.CleanupLocal,
		Namer:        d.Namer,
		Log:          log,
	})

	n := d.Concurrency
	if n < 1 {
		n = 1
	}
	log.Info("worker started", "concurrency", n)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		loopLog := &logger.Logger{Logger: log.Logger.With("loop", i)}
		g.Go(func() error {
			return consume(gctx, d, p, loopLog)
		})
	}

	err := g.Wait()
	log.Info("worker stopped")
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func consume(ctx context.Context, d Deps, p *processor.Processor, log *logger.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		jobID, err := d.Queue.Pop(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("queue pop error, retrying", "error", err.Error())
			if !sleep(ctx, time.Second) {
				return ctx.Err()
			}
			continue
		}
		if jobID == "" {
			continue
		}

		runOne(ctx, p, log, jobID)
	}
}

// runOne isolates a job so a panic outside the processor's own recovery
// cannot stop the loop.
func runOne(ctx context.Context, p *processor.Processor, log *logger.Logger, jobID string) {
	jobCtx := logger.ContextWithJobID(context.WithoutCancel(ctx), jobID)
	jobLog := log.WithJobID(jobID)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			jobLog.Error("job panicked", "panic", fmt.Sprint(r))
		}
	}()

	jobLog.Info("processing job")
	if err := p.ProcessJob(jobCtx, jobID); err != nil {
		jobLog.Error("job failed",
			"error", err.Error(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}
	jobLog.Info("job completed", "duration_ms", time.Since(start).Milliseconds())
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
