// Package jobs owns the overlay job lifecycle: dispatching work onto the
// queue, the storage contracts the executor and status tracker rely on, and
// output naming.
package jobs

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/VivekAsole/video-processing-backend/internal/models"
	"github.com/VivekAsole/video-processing-backend/internal/overlay"
)

// Status is the externally visible job state. The values are the wire form
// of GET /process/status.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "STARTED"
	StatusSucceeded Status = "SUCCESS"
	StatusFailed    Status = "FAILURE"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// MaxErrorLen bounds the stored error text of a failed job.
const MaxErrorLen = 2000

// Payload is everything the executor needs to run a job.
type Payload struct {
	VideoID string `json:"video_id"`
	// InputKey is the storage key of the base video.
	InputKey string             `json:"input_key"`
	Overlays []overlay.Resolved `json:"overlays"`
}

type Job struct {
	ID         string     `json:"id"`
	Status     Status     `json:"status"`
	Payload    Payload    `json:"payload"`
	Result     string     `json:"result,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Store persists jobs. Implementations return a CodeNotFound error for
// unknown ids.
type Store interface {
	Create(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	// Claim moves a Pending job to Running and returns it. A job in any
	// other state yields a CodeConflict error and is left untouched.
	Claim(ctx context.Context, id string) (Job, error)
	Succeed(ctx context.Context, id, result string) error
	Fail(ctx context.Context, id, message string) error
}

// Enqueuer is the producing side of the durable job queue.
type Enqueuer interface {
	Push(ctx context.Context, jobID string) error
}

// Dequeuer is the consuming side. Pop blocks until a job id is available or
// ctx is done; it may return "" with a nil error when a poll times out.
type Dequeuer interface {
	Pop(ctx context.Context) (string, error)
}

// RecordStore persists the OverlayRecord of succeeded jobs.
type RecordStore interface {
	SaveRecord(ctx context.Context, rec models.OverlayRecord) error
	// GetRecord returns a CodeNotFound error when no record exists.
	GetRecord(ctx context.Context, jobID string) (models.OverlayRecord, error)
}

// NewJobID returns a fresh opaque job id.
func NewJobID() string {
	return uuid.NewString()
}

// TruncateError bounds msg to MaxErrorLen bytes without splitting a UTF-8
// sequence.
func TruncateError(msg string) string {
	if len(msg) <= MaxErrorLen {
		return msg
	}
	cut := MaxErrorLen
	for cut > 0 && !utf8.RuneStart(msg[cut]) {
		cut--
	}
	return msg[:cut]
}
