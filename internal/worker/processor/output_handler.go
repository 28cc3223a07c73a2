package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/models"
	"github.com/VivekAsole/video-processing-backend/internal/ports"
	"github.com/VivekAsole/video-processing-backend/internal/storage"
)

type OutputHandler struct {
	sp      ports.StorageProvider
	records jobs.RecordStore
}

func NewOutputHandler(sp ports.StorageProvider, records jobs.RecordStore) *OutputHandler {
	return &OutputHandler{sp: sp, records: records}
}

// Publish uploads the rendered file to overlays/<filename> and writes the
// job's overlay record.
func (oh *OutputHandler) Publish(ctx context.Context, job *ParsedJob, localPath, filename string) (models.OverlayRecord, error) {
	st, err := os.Stat(localPath)
	if err != nil {
		return models.OverlayRecord{}, fmt.Errorf("rendered output not found: %w", err)
	}
	if st.Size() == 0 {
		return models.OverlayRecord{}, fmt.Errorf("rendered output is empty")
	}

	f, err := os.Open(localPath)
	if err != nil {
		return models.OverlayRecord{}, fmt.Errorf("failed to open output: %w", err)
	}
	defer f.Close()

	put, err := oh.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   storage.Key(storage.PrefixOverlays, filename),
		ContentType: "video/mp4",
		Reader:      f,
		Size:        st.Size(),
	})
	if err != nil {
		return models.OverlayRecord{}, fmt.Errorf("failed to upload output: %w", err)
	}

	overlays, err := json.Marshal(job.Payload.Overlays)
	if err != nil {
		return models.OverlayRecord{}, err
	}

	rec := models.OverlayRecord{
		JobID:           job.ID,
		OverlayFilename: filename,
		ObjectKey:       put.ObjectKey,
		Overlays:        overlays,
	}
	if err := oh.records.SaveRecord(ctx, rec); err != nil {
		// Best effort: the upload is unreachable without a record.
		_ = oh.sp.DeleteObject(ctx, put.ObjectKey)
		return models.OverlayRecord{}, fmt.Errorf("failed to save overlay record: %w", err)
	}
	return rec, nil
}
