package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VivekAsole/video-processing-backend/internal/httpkit"
	"github.com/VivekAsole/video-processing-backend/internal/models"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
)

// OverlayRecordRepository is the Postgres jobs.RecordStore.
type OverlayRecordRepository struct {
	db *pgxpool.Pool
}

func NewOverlayRecordRepository(db *pgxpool.Pool) *OverlayRecordRepository {
	return &OverlayRecordRepository{db: db}
}

func (r *OverlayRecordRepository) SaveRecord(ctx context.Context, rec models.OverlayRecord) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO overlays (job_id, overlay_filename, object_key, overlay)
		VALUES ($1,$2,$3,$4)
	`, rec.JobID, rec.OverlayFilename, rec.ObjectKey, []byte(rec.Overlays))
	if httpkit.IsUniqueViolation(err) {
		return errors.New(errors.CodeConflict, "record already exists: "+rec.JobID)
	}
	return err
}

func (r *OverlayRecordRepository) GetRecord(ctx context.Context, jobID string) (models.OverlayRecord, error) {
	var (
		rec      models.OverlayRecord
		overlays []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT job_id, overlay_filename, object_key, overlay, created_at
		FROM overlays
		WHERE job_id=$1
	`, jobID).Scan(&rec.JobID, &rec.OverlayFilename, &rec.ObjectKey, &overlays, &rec.CreatedAt)
	if err != nil {
		if httpkit.IsNoRows(err) {
			return models.OverlayRecord{}, errors.NotFound("overlay record", jobID)
		}
		return models.OverlayRecord{}, err
	}
	rec.Overlays = overlays
	return rec, nil
}
