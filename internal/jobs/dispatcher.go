package jobs

import (
	"context"
	"time"

	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/logger"
)

// Dispatcher records a Pending job and enqueues it. It never renders.
type Dispatcher struct {
	store Store
	queue Enqueuer
	log   *logger.Logger
	now   func() time.Time
	newID func() string
}

func NewDispatcher(store Store, queue Enqueuer, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		store: store,
		queue: queue,
		log:   log.WithComponent("dispatcher"),
		now:   time.Now,
		newID: NewJobID,
	}
}

// Dispatch returns the new job id once the job is durably enqueued. A queue
// failure marks the job Failed and is returned as CodeUnavailable; a store
// failure is returned as CodeInternal.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) (string, error) {
	id := d.newID()
	log := d.log.FromContext(ctx).WithJobID(id)

	job := Job{
		ID:        id,
		Status:    StatusPending,
		Payload:   p,
		CreatedAt: d.now().UTC(),
	}
	if err := d.store.Create(ctx, job); err != nil {
		return "", errors.Wrap(err, "jobs.dispatch", "failed to create job")
	}

	if err := d.queue.Push(ctx, id); err != nil {
		log.Error("queue push failed", "error", err.Error())
		if ferr := d.store.Fail(ctx, id, TruncateError("enqueue failed: "+err.Error())); ferr != nil {
			log.Error("failed to mark job failed after enqueue error", "error", ferr.Error())
		}
		return "", errors.WrapWithCode(err, errors.CodeUnavailable, "jobs.dispatch", "service unavailable: job queue")
	}

	log.Info("job dispatched", "video_id", p.VideoID, "overlays", len(p.Overlays))
	return id, nil
}
