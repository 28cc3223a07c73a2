package repositories

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/models"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
)

// testPool connects to TEST_DATABASE_URL and skips the test when it is not
// set.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("schema: %v", err)
	}
	return pool
}

func TestJobRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository(testPool(t))

	id := jobs.NewJobID()
	job := jobs.Job{ID: id, Status: jobs.StatusPending, Payload: jobs.Payload{VideoID: "v", InputKey: "videos/a.mp4"}, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, job); err != nil {
		t.Fatalf("create: %v", err)
	}

	claimed, err := repo.Claim(ctx, id)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.Status != jobs.StatusRunning || claimed.Payload.InputKey != "videos/a.mp4" || claimed.StartedAt == nil {
		t.Errorf("unexpected claimed job %+v", claimed)
	}

	if _, err := repo.Claim(ctx, id); !errors.IsCode(err, errors.CodeConflict) {
		t.Errorf("second claim should conflict, got %v", err)
	}

	if err := repo.Succeed(ctx, id, "video_x.mp4"); err != nil {
		t.Fatalf("succeed: %v", err)
	}
	if err := repo.Fail(ctx, id, "late"); !errors.IsCode(err, errors.CodeConflict) {
		t.Errorf("terminal jobs must not change, got %v", err)
	}

	got, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != jobs.StatusSucceeded || got.Result != "video_x.mp4" || got.Error != "" {
		t.Errorf("unexpected job %+v", got)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := repo.Claim(ctx, "missing"); !errors.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestVideoAndRecordRepositories(t *testing.T) {
	ctx := context.Background()
	pool := testPool(t)
	videos, trimmed, records := NewVideoRepository(pool), NewTrimmedVideoRepository(pool), NewOverlayRecordRepository(pool)

	size := int64(10)
	v := &models.VideoAsset{ID: uuid.NewString(), OriginalFilename: "a.mp4", SavedFilename: "video_1.mp4", ObjectKey: "videos/video_1.mp4", Size: &size}
	if err := videos.Create(ctx, v); err != nil {
		t.Fatalf("create video: %v", err)
	}
	if v.UploadTime.IsZero() {
		t.Error("upload time should be set")
	}
	got, err := videos.Get(ctx, v.ID)
	if err != nil || got.ObjectKey != v.ObjectKey || got.Duration != nil {
		t.Errorf("get video: %+v %v", got, err)
	}

	tv := &models.TrimmedVideoAsset{ID: uuid.NewString(), OriginalFileID: v.ID, SavedFilename: "video_2.mp4", ObjectKey: "videos/video_2.mp4", StartTime: 1, EndTime: 2}
	if err := trimmed.Create(ctx, tv); err != nil {
		t.Fatalf("create trimmed: %v", err)
	}
	orphan := &models.TrimmedVideoAsset{ID: uuid.NewString(), OriginalFileID: "missing", SavedFilename: "x", ObjectKey: "x"}
	if err := trimmed.Create(ctx, orphan); !errors.IsNotFound(err) {
		t.Errorf("expected not found for a missing source, got %v", err)
	}

	rec := models.OverlayRecord{JobID: jobs.NewJobID(), OverlayFilename: "video_3.mp4", ObjectKey: "overlays/video_3.mp4", Overlays: json.RawMessage(`[{"type":"text"}]`)}
	if err := records.SaveRecord(ctx, rec); err != nil {
		t.Fatalf("save record: %v", err)
	}
	if err := records.SaveRecord(ctx, rec); !errors.IsCode(err, errors.CodeConflict) {
		t.Errorf("records are written once, got %v", err)
	}
	back, err := records.GetRecord(ctx, rec.JobID)
	if err != nil || back.OverlayFilename != "video_3.mp4" {
		t.Errorf("get record: %+v %v", back, err)
	}
}
