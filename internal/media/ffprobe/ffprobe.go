// Package ffprobe inspects media files with the ffprobe binary.
package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/VivekAsole/video-processing-backend/internal/media"
)

// Result is the subset of ffprobe's JSON output the service reads.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Prober runs ffprobe. A zero Prober uses "ffprobe" from PATH.
type Prober struct {
	Bin string
	Run media.RunFunc
}

// Inspect probes path.
func (p Prober) Inspect(ctx context.Context, path string) (Result, error) {
	bin := strings.TrimSpace(p.Bin)
	if bin == "" {
		bin = "ffprobe"
	}
	run := p.Run
	if run == nil {
		run = media.Exec
	}
	if strings.TrimSpace(path) == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	out, err := run(ctx, bin, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var res Result
	if err := json.Unmarshal(out, &res); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	if res.VideoStreamCount() == 0 {
		return Result{}, errors.New("ffprobe inspect: no video stream")
	}
	return res, nil
}

func (r Result) VideoStreamCount() int {
	return r.count("video")
}

func (r Result) HasAudio() bool {
	return r.count("audio") > 0
}

func (r Result) count(kind string) int {
	n := 0
	for _, s := range r.Streams {
		if strings.EqualFold(s.CodecType, kind) {
			n++
		}
	}
	return n
}

// Duration returns the container duration in seconds; ok is false when
// ffprobe did not report a usable value.
func (r Result) Duration() (seconds float64, ok bool) {
	d, err := strconv.ParseFloat(strings.TrimSpace(r.Format.Duration), 64)
	if err != nil || d < 0 {
		return 0, false
	}
	return d, true
}

// Size returns the container size in bytes; ok is false when unknown.
func (r Result) Size() (bytes int64, ok bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(r.Format.Size), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
