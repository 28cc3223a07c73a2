package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/VivekAsole/video-processing-backend/internal/httpkit"
	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/overlay"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
	"github.com/VivekAsole/video-processing-backend/internal/ports"
	"github.com/VivekAsole/video-processing-backend/internal/storage"
)

// OverlayFileKeys are the multipart fields that may carry overlay media.
var OverlayFileKeys = []string{"overlay_file_1", "overlay_file_2", "overlay_file_3"}

// PostOverlay validates an overlay request, stores its media and dispatches
// the render job.
func (h *Handler) PostOverlay(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	if err := h.parseMultipart(w, r); err != nil {
		return err
	}

	videoID := strings.TrimSpace(r.FormValue("video_id"))
	if videoID == "" {
		return errors.ValidationField("video_id", "video_id is required")
	}

	var raw []overlay.RawSpec
	if err := json.Unmarshal([]byte(r.FormValue("overlays")), &raw); err != nil {
		return errors.BadRequest("Invalid JSON for overlays")
	}

	uploads := make(map[string]string, len(OverlayFileKeys))
	for _, key := range OverlayFileKeys {
		if fh := formFile(r, key); fh != nil {
			uploads[key] = fh.Filename
		}
	}

	res := overlay.Validate(raw, uploads, overlay.MaxOverlays)
	if !res.Valid() {
		return res.Err()
	}

	inputKey, err := h.sourceKey(ctx, videoID)
	if err != nil {
		return err
	}

	stored, err := h.storeOverlayFiles(r, res.Specs)
	if err != nil {
		return errors.Wrap(err, "overlay.submit", "failed to store overlay files")
	}

	resolved, err := overlay.Resolve(res.Specs, stored)
	if err != nil {
		return err
	}

	jobID, err := h.dispatcher.Dispatch(ctx, jobs.Payload{
		VideoID:  videoID,
		InputKey: inputKey,
		Overlays: resolved,
	})
	if err != nil {
		return err
	}

	log.Info("overlay job submitted", "job_id", jobID, "video_id", videoID, "overlays", len(resolved))
	httpkit.WriteJSON(w, http.StatusCreated, map[string]any{"job_id": jobID})
	return nil
}

// sourceKey resolves a video or trimmed video id to its storage key.
func (h *Handler) sourceKey(ctx context.Context, id string) (string, error) {
	v, err := h.videos.Get(ctx, id)
	if err == nil {
		return v.ObjectKey, nil
	}
	if !errors.IsNotFound(err) {
		return "", errors.Wrap(err, "overlay.submit", "failed to look up video")
	}

	if h.trimmed != nil {
		t, terr := h.trimmed.Get(ctx, id)
		if terr == nil {
			return t.ObjectKey, nil
		}
		if !errors.IsNotFound(terr) {
			return "", errors.Wrap(terr, "overlay.submit", "failed to look up video")
		}
	}
	return "", errors.NotFound("video", id)
}

// storeOverlayFiles uploads the files the specs reference and maps each form
// key to its storage key. Unreferenced uploads are ignored.
func (h *Handler) storeOverlayFiles(r *http.Request, specs []overlay.Spec) (overlay.StoredFiles, error) {
	stored := overlay.StoredFiles{}
	for _, s := range specs {
		if s.Media == nil {
			continue
		}
		key := s.Media.FileKey
		if _, done := stored[key]; done {
			continue
		}
		fh := formFile(r, key)
		if fh == nil {
			return nil, fmt.Errorf("upload %s disappeared", key)
		}
		objectKey, err := h.putUpload(r.Context(), storage.Key(storage.PrefixOverlayItems, h.namer.NameLike(fh.Filename)), fh)
		if err != nil {
			return nil, err
		}
		stored[key] = objectKey
	}
	return stored, nil
}

func (h *Handler) OverlayStatus(w http.ResponseWriter, r *http.Request) error {
	view, err := h.tracker.Status(r.Context(), chi.URLParam(r, "jobId"))
	if err != nil {
		return err
	}
	httpkit.WriteJSON(w, http.StatusOK, view)
	return nil
}

// OverlayResult streams the rendered file of a succeeded job.
func (h *Handler) OverlayResult(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	jobID := chi.URLParam(r, "jobId")

	rec, err := h.records.GetRecord(ctx, jobID)
	if err != nil {
		return err
	}

	rc, _, size, err := h.sp.GetObject(ctx, rec.ObjectKey)
	if err != nil {
		if errors.Is(err, ports.ErrObjectNotFound) {
			return errors.NotFound("overlay output", jobID)
		}
		return errors.Wrap(err, "overlay.result", "failed to read overlay output")
	}
	defer rc.Close()

	if err := httpkit.WriteAttachment(w, rec.OverlayFilename, size, rc); err != nil {
		h.log.FromContext(ctx).Warn("result download interrupted", "job_id", jobID, "error", err.Error())
	}
	return nil
}
