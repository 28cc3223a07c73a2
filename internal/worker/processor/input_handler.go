package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/VivekAsole/video-processing-backend/internal/overlay"
	"github.com/VivekAsole/video-processing-backend/internal/ports"
)

type InputHandler struct {
	sp      ports.StorageProvider
	workDir string
}

func NewInputHandler(sp ports.StorageProvider, workDir string) *InputHandler {
	return &InputHandler{sp: sp, workDir: workDir}
}

// Inputs are the local copies of a job's media.
type Inputs struct {
	Base  string
	Media []string
}

// Materialize downloads the base video and every media overlay into the
// job's inputs directory. Media is returned in plan input order.
func (ih *InputHandler) Materialize(ctx context.Context, job *ParsedJob) (*Inputs, error) {
	baseDir := filepath.Join(jobDir(ih.workDir, job.ID), "inputs")
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create inputs directory: %w", err)
	}

	base, err := ih.download(ctx, baseDir, "base", job.Payload.InputKey)
	if err != nil {
		return nil, err
	}

	in := &Inputs{Base: base, Media: make([]string, 0, len(job.Plan.Inputs))}
	for i, o := range job.Payload.Overlays {
		if !o.Kind.HasMedia() {
			continue
		}
		name := fmt.Sprintf("overlay_%d", i+1)
		p, err := ih.download(ctx, baseDir, name, o.Source)
		if err != nil {
			return nil, err
		}
		if o.Kind == overlay.KindImage && needsNormalise(filepath.Ext(p)) {
			if p, err = normaliseImage(p); err != nil {
				return nil, fmt.Errorf("failed to prepare image input=%s: %w", name, err)
			}
		}
		in.Media = append(in.Media, p)
	}
	return in, nil
}

func (ih *InputHandler) download(ctx context.Context, baseDir, name, objectKey string) (string, error) {
	rc, contentType, _, err := ih.sp.GetObject(ctx, objectKey)
	if err != nil {
		return "", fmt.Errorf("download input failed input=%s key=%s: %w", name, objectKey, err)
	}
	defer rc.Close()

	localPath := filepath.Join(baseDir, name+localExt(objectKey, contentType))
	f, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to save input locally input=%s: %w", name, err)
	}
	if err := copyClose(f, rc); err != nil {
		return "", fmt.Errorf("failed to save input locally input=%s: %w", name, err)
	}
	return localPath, nil
}

// normaliseImage applies the EXIF orientation and writes a PNG next to src.
// ffmpeg ignores orientation tags on still images.
func normaliseImage(src string) (string, error) {
	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return "", err
	}
	dst := strings.TrimSuffix(src, filepath.Ext(src)) + ".png"
	if err := imaging.Save(img, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func jobDir(workDir, jobID string) string {
	return filepath.Join(workDir, "jobs", jobID)
}
