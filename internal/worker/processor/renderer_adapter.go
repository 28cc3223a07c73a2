package processor

import (
	"context"
	"path/filepath"

	"github.com/VivekAsole/video-processing-backend/internal/worker/renderer"
)

type RendererAdapter struct {
	client  renderer.Client
	workDir string
}

func NewRendererAdapter(client renderer.Client, workDir string) *RendererAdapter {
	return &RendererAdapter{client: client, workDir: workDir}
}

// Render writes job's output under the job directory and returns its path.
func (ra *RendererAdapter) Render(ctx context.Context, job *ParsedJob, in *Inputs, filename string) (string, error) {
	dir := jobDir(ra.workDir, job.ID)
	out := filepath.Join(dir, "output", filename)

	err := ra.client.Render(ctx, renderer.Request{
		JobID:      job.ID,
		Plan:       job.Plan,
		BasePath:   in.Base,
		InputPaths: in.Media,
		OutputPath: out,
		WorkDir:    filepath.Join(dir, "scratch"),
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
