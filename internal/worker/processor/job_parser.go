package processor

import (
	"fmt"
	"strings"

	"github.com/VivekAsole/video-processing-backend/internal/jobs"
	"github.com/VivekAsole/video-processing-backend/internal/overlay"
	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
)

// ParsedJob is a claimed job with its composition plan.
type ParsedJob struct {
	ID      string
	Payload jobs.Payload
	Plan    overlay.Plan
}

// Parse re-checks a stored payload and builds its plan. Payloads were
// validated at submission; this guards against rows written by other
// producers.
func Parse(job jobs.Job) (*ParsedJob, error) {
	p := job.Payload
	if strings.TrimSpace(p.InputKey) == "" {
		return nil, errors.ValidationField("input_key", "missing input video")
	}
	if len(p.Overlays) > overlay.MaxOverlays {
		return nil, errors.Validation(fmt.Sprintf("Maximum %d overlays allowed", overlay.MaxOverlays))
	}
	for i, o := range p.Overlays {
		if !o.Kind.Valid() {
			return nil, errors.Validation(fmt.Sprintf("Overlay %d: Invalid type '%s'", i+1, o.Kind))
		}
		if o.Kind.HasMedia() && strings.TrimSpace(o.Source) == "" {
			return nil, errors.Validation(fmt.Sprintf("Overlay %d: Missing or invalid file for overlay", i+1))
		}
		if o.Kind == overlay.KindText && o.Text == nil {
			return nil, errors.Validation(fmt.Sprintf("Overlay %d: Text overlay must have 'content'", i+1))
		}
	}

	return &ParsedJob{
		ID:      job.ID,
		Payload: p,
		Plan:    overlay.Build(p.InputKey, p.Overlays),
	}, nil
}
