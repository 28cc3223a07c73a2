// Package jobstest provides in-memory implementations of the jobs storage
// and queue contracts for tests.
package jobstest

import (
	"context"
	"sync"
	"time"

	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/models"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
)

// Store is a concurrency-safe jobs.Store. Reads counts Get calls.
type Store struct {
	mu    sync.Mutex
	jobs  map[string]jobs.Job
	Reads int
	// CreateErr, when set, is returned by Create.
	CreateErr error
}

func NewStore() *Store {
	return &Store{jobs: make(map[string]jobs.Job)}
}

func (s *Store) Create(ctx context.Context, job jobs.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return s.CreateErr
	}
	if _, ok := s.jobs[job.ID]; ok {
		return errors.New(errors.CodeConflict, "job already exists: "+job.ID)
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	job, ok := s.jobs[id]
	if !ok {
		return jobs.Job{}, errors.NotFound("job", id)
	}
	return job, nil
}

func (s *Store) Claim(ctx context.Context, id string) (jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return jobs.Job{}, errors.NotFound("job", id)
	}
	if job.Status != jobs.StatusPending {
		return jobs.Job{}, errors.New(errors.CodeConflict, "job is not pending: "+id)
	}
	now := time.Now().UTC()
	job.Status = jobs.StatusRunning
	job.StartedAt = &now
	s.jobs[id] = job
	return job, nil
}

func (s *Store) Succeed(ctx context.Context, id, result string) error {
	return s.finish(id, jobs.StatusSucceeded, result, "")
}

func (s *Store) Fail(ctx context.Context, id, message string) error {
	return s.finish(id, jobs.StatusFailed, "", message)
}

func (s *Store) finish(id string, status jobs.Status, result, msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return errors.NotFound("job", id)
	}
	if job.Status.Terminal() {
		return errors.New(errors.CodeConflict, "job already finished: "+id)
	}
	now := time.Now().UTC()
	job.Status = status
	job.Result = result
	job.Error = msg
	job.FinishedAt = &now
	s.jobs[id] = job
	return nil
}

// Snapshot returns a job without counting it as a read.
func (s *Store) Snapshot(id string) (jobs.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	return job, ok
}

// Queue is a FIFO jobs.Enqueuer and jobs.Dequeuer.
type Queue struct {
	mu    sync.Mutex
	items []string
	ready chan struct{}
	// PushErr, when set, is returned by Push.
	PushErr error
}

func NewQueue() *Queue {
	return &Queue{ready: make(chan struct{}, 1)}
}

func (q *Queue) Push(ctx context.Context, jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.PushErr != nil {
		return q.PushErr
	}
	q.items = append(q.items, jobID)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return nil
}

// Pop blocks until an item is available or ctx is done.
func (q *Queue) Pop(ctx context.Context) (string, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			id := q.items[0]
			q.items = q.items[1:]
			if len(q.items) > 0 {
				select {
				case q.ready <- struct{}{}:
				default:
				}
			}
			q.mu.Unlock()
			return id, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-q.ready:
		}
	}
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Records is an in-memory jobs.RecordStore.
type Records struct {
	mu      sync.Mutex
	records map[string]models.OverlayRecord
	// SaveErr, when set, is returned by SaveRecord.
	SaveErr error
}

func NewRecords() *Records {
	return &Records{records: make(map[string]models.OverlayRecord)}
}

func (r *Records) SaveRecord(ctx context.Context, rec models.OverlayRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	if _, ok := r.records[rec.JobID]; ok {
		return errors.New(errors.CodeConflict, "record already exists: "+rec.JobID)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	r.records[rec.JobID] = rec
	return nil
}

func (r *Records) GetRecord(ctx context.Context, jobID string) (models.OverlayRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[jobID]
	if !ok {
		return models.OverlayRecord{}, errors.NotFound("overlay record", jobID)
	}
	return rec, nil
}
