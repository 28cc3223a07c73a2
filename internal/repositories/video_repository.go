package repositories

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VivekAsole/video-processing-backend/internal/httpkit"
	"github.com/VivekAsole/video-processing-backend/internal/models"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
)

type VideoRepository struct {
	db *pgxpool.Pool
}

func NewVideoRepository(db *pgxpool.Pool) *VideoRepository {
	return &VideoRepository{db: db}
}

func (r *VideoRepository) Create(ctx context.Context, v *models.VideoAsset) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO videos (id, original_filename, saved_filename, object_key, size, duration)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING upload_time
	`, v.ID, v.OriginalFilename, v.SavedFilename, v.ObjectKey, v.Size, v.Duration).Scan(&v.UploadTime)
}

func (r *VideoRepository) Get(ctx context.Context, id string) (*models.VideoAsset, error) {
	var v models.VideoAsset
	err := r.db.QueryRow(ctx, `
		SELECT id, original_filename, saved_filename, object_key, size, duration, upload_time
		FROM videos
		WHERE id=$1
	`, id).Scan(&v.ID, &v.OriginalFilename, &v.SavedFilename, &v.ObjectKey, &v.Size, &v.Duration, &v.UploadTime)
	if err != nil {
		if httpkit.IsNoRows(err) {
			return nil, errors.NotFound("video", id)
		}
		return nil, err
	}
	return &v, nil
}

func (r *VideoRepository) List(ctx context.Context) ([]models.VideoAsset, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, original_filename, saved_filename, object_key, size, duration, upload_time
		FROM videos
		ORDER BY upload_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.VideoAsset{}
	for rows.Next() {
		var v models.VideoAsset
		if err := rows.Scan(&v.ID, &v.OriginalFilename, &v.SavedFilename, &v.ObjectKey, &v.Size, &v.Duration, &v.UploadTime); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

type TrimmedVideoRepository struct {
	db *pgxpool.Pool
}

func NewTrimmedVideoRepository(db *pgxpool.Pool) *TrimmedVideoRepository {
	return &TrimmedVideoRepository{db: db}
}

func (r *TrimmedVideoRepository) Create(ctx context.Context, v *models.TrimmedVideoAsset) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO trimmed_videos (id, original_file_id, saved_filename, object_key, start_time, end_time)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING upload_time
	`, v.ID, v.OriginalFileID, v.SavedFilename, v.ObjectKey, v.StartTime, v.EndTime).Scan(&v.UploadTime)
	if httpkit.IsForeignKeyViolation(err) {
		return errors.NotFound("video", v.OriginalFileID)
	}
	return err
}

func (r *TrimmedVideoRepository) Get(ctx context.Context, id string) (*models.TrimmedVideoAsset, error) {
	var v models.TrimmedVideoAsset
	err := r.db.QueryRow(ctx, `
		SELECT id, original_file_id, saved_filename, object_key, start_time, end_time, upload_time
		FROM trimmed_videos
		WHERE id=$1
	`, id).Scan(&v.ID, &v.OriginalFileID, &v.SavedFilename, &v.ObjectKey, &v.StartTime, &v.EndTime, &v.UploadTime)
	if err != nil {
		if httpkit.IsNoRows(err) {
			return nil, errors.NotFound("trimmed video", id)
		}
		return nil, err
	}
	return &v, nil
}
