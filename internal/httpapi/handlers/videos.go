package handlers

import (
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/VivekAsole/video-processing-backend/internal/httpkit"
	"github.com/VivekAsole/video-processing-backend/internal/models"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
	"github.com/VivekAsole/video-processing-backend/internal/storage"
)

// UploadVideo stores a video, probes it and records it.
func (h *Handler) UploadVideo(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	if err := h.parseMultipart(w, r); err != nil {
		return err
	}
	fh := formFile(r, "file")
	if fh == nil {
		return errors.ValidationField("file", "file is required")
	}

	filename := h.namer.NameLike(fh.Filename)
	local, err := h.spool(fh, filename)
	if err != nil {
		return errors.Wrap(err, "video.upload", "failed to receive upload")
	}
	defer os.Remove(local)

	probe, err := h.prober.Inspect(ctx, local)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeValidation, "video.upload", "file is not a readable video")
	}

	video := &models.VideoAsset{
		ID:               newAssetID(),
		OriginalFilename: fh.Filename,
		SavedFilename:    filename,
	}
	if d, ok := probe.Duration(); ok {
		video.Duration = &d
	}
	size := fh.Size
	if s, ok := probe.Size(); ok {
		size = s
	}
	video.Size = &size

	key, err := h.putFile(ctx, storage.Key(storage.PrefixVideos, filename), local)
	if err != nil {
		return errors.Wrap(err, "video.upload", "failed to store video")
	}
	video.ObjectKey = key

	if err := h.videos.Create(ctx, video); err != nil {
		_ = h.sp.DeleteObject(ctx, key)
		return errors.Wrap(err, "video.upload", "failed to save video")
	}

	log.Info("video uploaded", "video_id", video.ID, "saved_filename", filename, "size", size)
	httpkit.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Upload successful",
		"result":  video,
	})
	return nil
}

func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) error {
	videos, err := h.videos.List(r.Context())
	if err != nil {
		return errors.Wrap(err, "video.list", "failed to list videos")
	}
	httpkit.WriteJSON(w, http.StatusOK, videos)
	return nil
}

type TrimRequest struct {
	VideoID   string   `json:"video_id"`
	StartTime *float64 `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
}

// TrimVideo cuts [start_time, end_time) out of a stored video, records the
// cut and answers with it as a download.
func (h *Handler) TrimVideo(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	var req TrimRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		return errors.BadRequest("invalid json body")
	}
	if req.VideoID == "" {
		return errors.ValidationField("video_id", "video_id is required")
	}
	if req.StartTime == nil || req.EndTime == nil {
		return errors.Validation("start_time and end_time are required")
	}
	start, end := *req.StartTime, *req.EndTime
	if start < 0 {
		return errors.ValidationField("start_time", "Start time must not be negative.")
	}
	if end-start <= 0 {
		return errors.Validation("End time must be greater than start time.")
	}

	src, err := h.videos.Get(ctx, req.VideoID)
	if err != nil {
		return err
	}
	if src.Duration != nil && *src.Duration < end-start {
		return errors.Validation("Trim duration must be smaller than video duration.")
	}

	if err := os.MkdirAll(h.workDir, 0o755); err != nil {
		return errors.Wrap(err, "video.trim", "failed to prepare trim")
	}
	dir, err := os.MkdirTemp(h.workDir, "trim-")
	if err != nil {
		return errors.Wrap(err, "video.trim", "failed to prepare trim")
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "source"+filepath.Ext(src.SavedFilename))
	if err := h.download(r, src.ObjectKey, in); err != nil {
		return errors.Wrap(err, "video.trim", "failed to read source video")
	}

	filename := h.namer.NameLike(src.SavedFilename)
	out := filepath.Join(dir, filename)
	if err := h.trimmer.Trim(ctx, in, out, start, end); err != nil {
		return errors.Wrap(err, "video.trim", "failed to trim video")
	}

	key, err := h.putFile(ctx, storage.Key(storage.PrefixVideos, filename), out)
	if err != nil {
		return errors.Wrap(err, "video.trim", "failed to store trimmed video")
	}

	trimmed := &models.TrimmedVideoAsset{
		ID:             newAssetID(),
		OriginalFileID: src.ID,
		SavedFilename:  filename,
		ObjectKey:      key,
		StartTime:      start,
		EndTime:        end,
	}
	if err := h.trimmed.Create(ctx, trimmed); err != nil {
		_ = h.sp.DeleteObject(ctx, key)
		return errors.Wrap(err, "video.trim", "failed to save trimmed video")
	}
	log.Info("video trimmed", "video_id", src.ID, "trimmed_id", trimmed.ID, "start", start, "end", end)

	f, err := os.Open(out)
	if err != nil {
		return errors.Wrap(err, "video.trim", "failed to open trimmed video")
	}
	defer f.Close()

	size := int64(-1)
	if st, err := f.Stat(); err == nil {
		size = st.Size()
	}
	w.Header().Set("X-Trimmed-Video-ID", trimmed.ID)
	if err := httpkit.WriteAttachment(w, filename, size, f); err != nil {
		log.Warn("trim download interrupted", "error", err.Error())
	}
	return nil
}

func (h *Handler) download(r *http.Request, objectKey, dst string) error {
	rc, _, _, err := h.sp.GetObject(r.Context(), objectKey)
	if err != nil {
		return err
	}
	defer rc.Close()

	f, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, rc)
	return err
}
