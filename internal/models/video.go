package models

import (
	"encoding/json"
	"time"
)

// VideoAsset is an uploaded source video.
type VideoAsset struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	SavedFilename    string    `json:"saved_filename"`
	// ObjectKey is the storage provider's handle for the file.
	ObjectKey        string    `json:"object_key"`
	Size             *int64    `json:"size"`
	Duration         *float64  `json:"duration"`
	UploadTime       time.Time `json:"upload_time"`
}

// TrimmedVideoAsset is a cut of a VideoAsset. It has its own stored file.
type TrimmedVideoAsset struct {
	ID             string    `json:"id"`
	OriginalFileID string    `json:"original_file_id"`
	SavedFilename  string    `json:"saved_filename"`
	ObjectKey      string    `json:"object_key"`
	StartTime      float64   `json:"start_time"`
	EndTime        float64   `json:"end_time"`
	UploadTime     time.Time `json:"upload_time"`
}

// OverlayRecord is written once, when an overlay job succeeds.
type OverlayRecord struct {
	JobID           string          `json:"job_id"`
	OverlayFilename string          `json:"overlay_filename"`
	ObjectKey       string          `json:"object_key"`
	Overlays        json.RawMessage `json:"overlays"`
	CreatedAt       time.Time       `json:"created_at"`
}
