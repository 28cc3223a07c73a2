package renderer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/VivekAsole/video-processing-backend/internal/media"
	"github.com/VivekAsole/video-processing-backend/internal/overlay"
)

// FFmpegClient renders a plan with a single ffmpeg -filter_complex run.
type FFmpegClient struct {
	Bin string
	// FontFile is passed to drawtext when set; otherwise ffmpeg's
	// fontconfig default is used.
	FontFile string
	Run      media.RunFunc
}

func NewFFmpegClient(bin, fontFile string) *FFmpegClient {
	return &FFmpegClient{Bin: bin, FontFile: fontFile}
}

func (c *FFmpegClient) Render(ctx context.Context, req Request) error {
	if len(req.InputPaths) != len(req.Plan.Inputs) {
		return fmt.Errorf("render: %d media inputs for %d plan inputs", len(req.InputPaths), len(req.Plan.Inputs))
	}

	textFiles, err := writeTextFiles(req)
	if err != nil {
		return err
	}

	bin := c.Bin
	if bin == "" {
		bin = "ffmpeg"
	}
	run := c.Run
	if run == nil {
		run = media.Exec
	}

	if err := os.MkdirAll(filepath.Dir(req.OutputPath), 0o755); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if _, err := run(ctx, bin, Args(req, textFiles, c.FontFile)...); err != nil {
		return err
	}
	return nil
}

// writeTextFiles stores each drawtext string in its own file so user text
// never has to be escaped into the filter graph.
func writeTextFiles(req Request) (map[int]string, error) {
	files := make(map[int]string)
	for _, s := range req.Plan.Steps {
		if s.Op != overlay.OpDrawText || s.Text == nil {
			continue
		}
		if err := os.MkdirAll(req.WorkDir, 0o755); err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		p := filepath.Join(req.WorkDir, fmt.Sprintf("text_%d.txt", s.Layer))
		if err := os.WriteFile(p, []byte(s.Text.Content), 0o644); err != nil {
			return nil, fmt.Errorf("render: write text: %w", err)
		}
		files[s.Layer] = p
	}
	return files, nil
}

// Args builds the ffmpeg command line for req. textFiles maps a drawtext
// layer to the file holding its text.
func Args(req Request, textFiles map[int]string, fontFile string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-y", "-i", req.BasePath}

	if req.Plan.Identity() {
		return append(args, "-map", "0", "-c", "copy", req.OutputPath)
	}

	for _, p := range req.InputPaths {
		args = append(args, "-i", p)
	}

	return append(args,
		"-filter_complex", FilterGraph(req.Plan, textFiles, fontFile),
		"-map", "["+req.Plan.Output+"]",
		"-map", "0:a?",
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-pix_fmt", "yuv420p",
		"-c:a", "copy",
		req.OutputPath,
	)
}

// FilterGraph renders the plan's steps as an ffmpeg filtergraph.
func FilterGraph(p overlay.Plan, textFiles map[int]string, fontFile string) string {
	chains := make([]string, 0, len(p.Steps))
	for _, s := range p.Steps {
		chains = append(chains, filter(s, textFiles, fontFile))
	}
	return strings.Join(chains, ";")
}

func filter(s overlay.Step, textFiles map[int]string, fontFile string) string {
	in := labels(s.Inputs)
	out := "[" + s.Output + "]"

	switch s.Op {
	case overlay.OpDrawText:
		opts := []string{
			"textfile=" + filterValue(textFiles[s.Layer]),
			"expansion=none",
			"x=" + num(s.Position.X),
			"y=" + num(s.Position.Y),
			"fontsize=" + strconv.Itoa(s.Text.Size),
			"fontcolor=" + s.Text.Color,
		}
		if fontFile != "" {
			opts = append(opts, "fontfile="+filterValue(fontFile))
		}
		opts = append(opts, "enable="+enable(s.Window))
		return in + "drawtext=" + strings.Join(opts, ":") + out

	case overlay.OpScale:
		return fmt.Sprintf("%sscale=%d:%d%s", in, s.Width, s.Height, out)

	case overlay.OpAlpha:
		return fmt.Sprintf("%sformat=rgba,colorchannelmixer=aa=%s%s", in, num(s.Alpha), out)

	case overlay.OpComposite:
		return fmt.Sprintf("%soverlay=x=%s:y=%s:enable=%s%s", in, num(s.Position.X), num(s.Position.Y), enable(s.Window), out)
	}
	return in + "null" + out
}

// enable gates a filter to [start, end).
func enable(w *overlay.Window) string {
	if w == nil {
		return "1"
	}
	return fmt.Sprintf("'gte(t,%s)*lt(t,%s)'", media.FormatSeconds(w.Start), media.FormatSeconds(w.End))
}

func labels(ls []string) string {
	var b strings.Builder
	for _, l := range ls {
		b.WriteString("[" + l + "]")
	}
	return b.String()
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

var (
	optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	graphEscaper  = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)
)

// filterValue escapes v for use as a filter option value inside a
// filtergraph (both escaping levels).
func filterValue(v string) string {
	return graphEscaper.Replace(optionEscaper.Replace(v))
}
