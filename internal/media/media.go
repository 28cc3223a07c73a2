// Package media holds the process plumbing shared by the ffmpeg and ffprobe
// wrappers.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// RunFunc runs an external binary and returns its combined output.
type RunFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Exec is the RunFunc backed by os/exec. A failing command's output is
// folded into the error, trimmed to its last lines.
func Exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s: %w: %s", name, err, Tail(string(out), 20))
	}
	return out, nil
}

// Tail returns the last n non-empty lines of s.
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) > n {
		kept = kept[len(kept)-n:]
	}
	return strings.Join(kept, "\n")
}

// FormatSeconds renders t for ffmpeg command lines and filter expressions.
func FormatSeconds(t float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", t), "0"), ".")
}
