// Package renderer executes composition plans against real media.
package renderer

import (
	"context"

	"github.com/VivekAsole/video-processing-backend/internal/overlay"
)

// Request is one render. Paths are local to the worker.
type Request struct {
	JobID string
	Plan  overlay.Plan
	// BasePath and InputPaths are the materialised Plan.Base and
	// Plan.Inputs, index for index.
	BasePath   string
	InputPaths []string
	OutputPath string
	// WorkDir holds scratch files the renderer may need.
	WorkDir string
}

// Client renders one request, blocking until the output file is written or
// the render has failed. Callers must not run two renders against the same
// OutputPath concurrently.
type Client interface {
	Render(ctx context.Context, req Request) error
}
