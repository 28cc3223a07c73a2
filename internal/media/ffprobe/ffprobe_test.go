package ffprobe

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

const sample = `{
  "streams": [
    {"index": 0, "codec_name": "h264", "codec_type": "video", "width": 1280, "height": 720},
    {"index": 1, "codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {"filename": "in.mp4", "duration": "10.000000", "size": "104857", "format_name": "mov,mp4"}
}`

func TestInspect(t *testing.T) {
	var gotArgs []string
	p := Prober{Bin: "/opt/ffprobe", Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = append([]string{name}, args...)
		return []byte(sample), nil
	}}

	res, err := p.Inspect(context.Background(), "/tmp/in.mp4")
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if gotArgs[0] != "/opt/ffprobe" || gotArgs[len(gotArgs)-1] != "/tmp/in.mp4" {
		t.Errorf("unexpected command %v", gotArgs)
	}
	if d, ok := res.Duration(); !ok || d != 10 {
		t.Errorf("unexpected duration %v %v", d, ok)
	}
	if s, ok := res.Size(); !ok || s != 104857 {
		t.Errorf("unexpected size %v %v", s, ok)
	}
	if !res.HasAudio() || res.VideoStreamCount() != 1 {
		t.Errorf("unexpected streams %+v", res.Streams)
	}
}

func TestInspectErrors(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
		want string
	}{
		{"command failure", "", fmt.Errorf("exit status 1"), "ffprobe inspect"},
		{"bad json", "not json", nil, "ffprobe parse"},
		{"no video", `{"streams":[{"codec_type":"audio"}],"format":{}}`, nil, "no video stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Prober{Run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
				return []byte(tt.out), tt.err
			}}
			_, err := p.Inspect(context.Background(), "in.mp4")
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestResultMissingValues(t *testing.T) {
	var r Result
	if _, ok := r.Duration(); ok {
		t.Error("empty duration should not be ok")
	}
	r.Format.Size = "-5"
	if _, ok := r.Size(); ok {
		t.Error("negative size should not be ok")
	}
}
