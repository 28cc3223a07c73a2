package repositories

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VivekAsole/video-processing-backend/internal/httpkit"
	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
)

// JobRepository is the Postgres jobs.Store.
type JobRepository struct {
	db *pgxpool.Pool
}

func NewJobRepository(db *pgxpool.Pool) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, status, payload, COALESCE(result, ''), COALESCE(error_text, ''), created_at, started_at, finished_at`

func (r *JobRepository) Create(ctx context.Context, job jobs.Job) error {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO overlay_jobs (id, status, payload, created_at)
		VALUES ($1,$2,$3,$4)
	`, job.ID, string(job.Status), payload, job.CreatedAt)
	if httpkit.IsUniqueViolation(err) {
		return errors.New(errors.CodeConflict, "job already exists: "+job.ID)
	}
	return err
}

func (r *JobRepository) Get(ctx context.Context, id string) (jobs.Job, error) {
	job, err := scanJob(r.db.QueryRow(ctx, `SELECT `+jobColumns+` FROM overlay_jobs WHERE id=$1`, id))
	if httpkit.IsNoRows(err) {
		return jobs.Job{}, errors.NotFound("job", id)
	}
	return job, err
}

// Claim is a conditional update, so of several workers handed the same id
// only one moves it out of PENDING.
func (r *JobRepository) Claim(ctx context.Context, id string) (jobs.Job, error) {
	job, err := scanJob(r.db.QueryRow(ctx, `
		UPDATE overlay_jobs
		SET status=$2, started_at=NOW()
		WHERE id=$1 AND status=$3
		RETURNING `+jobColumns,
		id, string(jobs.StatusRunning), string(jobs.StatusPending),
	))
	if httpkit.IsNoRows(err) {
		return jobs.Job{}, r.notClaimable(ctx, id)
	}
	return job, err
}

func (r *JobRepository) notClaimable(ctx context.Context, id string) error {
	var status string
	err := r.db.QueryRow(ctx, `SELECT status FROM overlay_jobs WHERE id=$1`, id).Scan(&status)
	if httpkit.IsNoRows(err) {
		return errors.NotFound("job", id)
	}
	if err != nil {
		return err
	}
	return errors.New(errors.CodeConflict, "job is not pending: "+id).WithField("status", status)
}

func (r *JobRepository) Succeed(ctx context.Context, id, result string) error {
	return r.finish(ctx, id, jobs.StatusSucceeded, &result, nil)
}

func (r *JobRepository) Fail(ctx context.Context, id, message string) error {
	msg := jobs.TruncateError(message)
	return r.finish(ctx, id, jobs.StatusFailed, nil, &msg)
}

func (r *JobRepository) finish(ctx context.Context, id string, status jobs.Status, result, msg *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE overlay_jobs
		SET status=$2, result=$3, error_text=$4, finished_at=NOW()
		WHERE id=$1 AND status NOT IN ($5, $6)
	`, id, string(status), result, msg, string(jobs.StatusSucceeded), string(jobs.StatusFailed))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return errors.New(errors.CodeConflict, "job already finished: "+id)
	}
	return nil
}

func scanJob(row pgx.Row) (jobs.Job, error) {
	var (
		job     jobs.Job
		status  string
		payload []byte
	)
	err := row.Scan(&job.ID, &status, &payload, &job.Result, &job.Error, &job.CreatedAt, &job.StartedAt, &job.FinishedAt)
	if err != nil {
		return jobs.Job{}, err
	}
	job.Status = jobs.Status(status)
	if err := json.Unmarshal(payload, &job.Payload); err != nil {
		return jobs.Job{}, errors.Wrap(err, "repositories.job", "corrupt job payload")
	}
	return job, nil
}
