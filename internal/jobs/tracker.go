package jobs

import (
	"context"
)

// StatusView is the stable status shape returned to pollers.
type StatusView struct {
	TaskID string  `json:"task_id"`
	Status Status  `json:"status"`
	Result *string `json:"result"`
}

// Tracker is a read-only view over the job store.
type Tracker struct {
	store Store
}

func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Status reports a job's state. Result is nil while the job is Pending or
// Running, the output filename once Succeeded and the error text once
// Failed. Unknown ids return the store's not-found error.
func (t *Tracker) Status(ctx context.Context, id string) (StatusView, error) {
	job, err := t.store.Get(ctx, id)
	if err != nil {
		return StatusView{}, err
	}
	return View(job), nil
}

// View projects a job onto its StatusView.
func View(job Job) StatusView {
	v := StatusView{TaskID: job.ID, Status: job.Status}
	switch job.Status {
	case StatusSucceeded:
		r := job.Result
		v.Result = &r
	case StatusFailed:
		r := job.Error
		v.Result = &r
	}
	return v
}
