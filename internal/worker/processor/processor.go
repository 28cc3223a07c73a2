// Package processor runs one overlay job from claim to terminal status.
package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/logger"
	"github.com/VivekAsole/video-processing-backend/internal/ports"
	"github.com/VivekAsole/video-processing-backend/internal/worker/renderer"
)

// statusTimeout bounds each terminal status write. Those writes run on a
// context detached from the job's, so a canceled job is still recorded.
const statusTimeout = 10 * time.Second

type Deps struct {
	Store        jobs.Store
	Records      jobs.RecordStore
	Renderer     renderer.Client
	SP           ports.StorageProvider
	WorkDir      string
	CleanupLocal bool
	Namer        jobs.Namer
	Log          *logger.Logger
}

type Processor struct {
	store jobs.Store
	namer jobs.Namer
	log   *logger.Logger

	inputHandler    *InputHandler
	outputHandler   *OutputHandler
	rendererAdapter *RendererAdapter
	cleanup         *Cleanup
}

func New(d Deps) *Processor {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}

	return &Processor{
		store:           d.Store,
		namer:           d.Namer,
		log:             log.WithComponent("processor"),
		inputHandler:    NewInputHandler(d.SP, d.WorkDir),
		outputHandler:   NewOutputHandler(d.SP, d.Records),
		rendererAdapter: NewRendererAdapter(d.Renderer, d.WorkDir),
		cleanup:         NewCleanup(d.WorkDir, d.CleanupLocal),
	}
}

// ProcessJob claims jobID and runs it to Succeeded or Failed. A job that is
// no longer Pending was taken by another worker and is skipped without
// error. The returned error is the cause recorded on a failed job.
func (p *Processor) ProcessJob(ctx context.Context, jobID string) (err error) {
	ctx = logger.ContextWithJobID(ctx, jobID)
	log := p.log.FromContext(ctx)

	job, err := p.store.Claim(ctx, jobID)
	if err != nil {
		if errors.IsCode(err, errors.CodeConflict) || errors.IsNotFound(err) {
			log.Warn("job not claimable, skipping", "error", err.Error())
			return nil
		}
		return errors.Wrap(err, "processor.claim", "failed to claim job")
	}

	defer func() {
		if cerr := p.cleanup.CleanupJob(jobID); cerr != nil {
			log.Warn("cleanup failed", "error", cerr.Error())
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			err = p.failJob(ctx, jobID, errors.New(errors.CodeInternal, fmt.Sprintf("panic: %v", r)))
		}
	}()

	return p.run(ctx, log, job)
}

func (p *Processor) run(ctx context.Context, log *logger.Logger, job jobs.Job) error {
	parsed, err := Parse(job)
	if err != nil {
		return p.failJob(ctx, job.ID, errors.WrapWithCode(err, errors.CodeValidation, "processor.parse", "invalid job payload"))
	}

	log.Debug("materializing inputs", "media", len(parsed.Plan.Inputs))
	inputs, err := p.inputHandler.Materialize(ctx, parsed)
	if err != nil {
		return p.failJob(ctx, job.ID, errors.Wrap(err, "processor.inputs", "failed to materialize inputs"))
	}

	filename := p.outputName(parsed)
	log.Info("starting render", "steps", len(parsed.Plan.Steps), "output", filename)
	start := time.Now()

	out, err := p.rendererAdapter.Render(ctx, parsed, inputs, filename)
	if err != nil {
		return p.failJob(ctx, job.ID, errors.Render(err))
	}
	log.Debug("render completed", "duration_ms", time.Since(start).Milliseconds())

	if _, err := p.outputHandler.Publish(ctx, parsed, out, filename); err != nil {
		return p.failJob(ctx, job.ID, errors.Wrap(err, "processor.outputs", "failed to publish output"))
	}

	if err := p.succeed(ctx, job.ID, filename); err != nil {
		log.Error("output published but job not marked succeeded",
			"output", filename,
			"error", err.Error(),
		)
		return errors.Wrap(err, "processor.status", "failed to mark job succeeded")
	}
	log.Info("job succeeded", "output", filename)
	return nil
}

// succeed records the terminal status, retrying once. The record and the
// output already exist at this point.
func (p *Processor) succeed(ctx context.Context, jobID, filename string) error {
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		sctx, cancel := statusContext(ctx)
		err = p.store.Succeed(sctx, jobID, filename)
		cancel()
		if err == nil || errors.IsCode(err, errors.CodeConflict) {
			return err
		}
	}
	return err
}

func statusContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), statusTimeout)
}

// outputName keeps the source container for a stream copy; rendered
// output is always H.264 in MP4.
func (p *Processor) outputName(job *ParsedJob) string {
	if job.Plan.Identity() {
		return p.namer.NameLike(job.Payload.InputKey)
	}
	return p.namer.Name(jobs.DefaultExt)
}

func (p *Processor) failJob(ctx context.Context, jobID string, cause error) error {
	log := p.log.FromContext(ctx)

	var coded *errors.Error
	if errors.As(cause, &coded) {
		log.Error("job failed",
			"code", string(coded.Code),
			"op", coded.Op,
			"message", coded.Message,
			"error", cause.Error(),
		)
	} else {
		log.Error("job failed", "error", cause.Error())
	}

	sctx, cancel := statusContext(ctx)
	defer cancel()
	if err := p.store.Fail(sctx, jobID, jobs.TruncateError(cause.Error())); err != nil {
		log.Error("failed to mark job failed", "error", err.Error())
	}
	return cause
}
