// Package v0 is the wire contract between the worker and an external
// renderer service. Paths refer to the volume the worker and the renderer
// share.
package v0

import "github.com/VivekAsole/video-processing-backend/internal/overlay"

// RenderPath is the endpoint the worker posts RenderRequest to.
const RenderPath = "/render/overlay"

type RenderRequest struct {
	JobID string `json:"job_id"`
	// Base is the base video; Inputs[i] is the media input labelled
	// overlay.InputLabel(i).
	Base        string         `json:"base"`
	Inputs      []string       `json:"inputs"`
	Steps       []overlay.Step `json:"steps"`
	OutputLabel string         `json:"output_label"`
	FontFile    string         `json:"font_file,omitempty"`
	Output      struct {
		Path string `json:"path"`
	} `json:"output"`
}

// ErrorResponse is the body a renderer answers with on failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
