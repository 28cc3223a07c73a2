// Package ffmpeg wraps the ffmpeg operations the API performs directly.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VivekAsole/video-processing-backend/internal/media"
)

// Trimmer cuts a segment out of a video without re-encoding.
type Trimmer struct {
	Bin string
	Run media.RunFunc
}

// TrimArgs returns the ffmpeg arguments that copy [start, end) of in to out.
func TrimArgs(in, out string, start, end float64) []string {
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-ss", media.FormatSeconds(start),
		"-to", media.FormatSeconds(end),
		"-i", in,
		"-c", "copy",
		"-avoid_negative_ts", "make_zero",
		out,
	}
}

func (t Trimmer) Trim(ctx context.Context, in, out string, start, end float64) error {
	if end <= start {
		return errors.New("ffmpeg trim: end must be greater than start")
	}
	bin := strings.TrimSpace(t.Bin)
	if bin == "" {
		bin = "ffmpeg"
	}
	run := t.Run
	if run == nil {
		run = media.Exec
	}
	if _, err := run(ctx, bin, TrimArgs(in, out, start, end)...); err != nil {
		return fmt.Errorf("ffmpeg trim: %w", err)
	}
	return nil
}
