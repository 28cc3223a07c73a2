package overlay

import (
	"fmt"
	"strconv"
)

const (
	DefaultFontSize  = 24
	DefaultFontColor = "white"
)

// BaseLabel is the stream label of the base video.
const BaseLabel = "0:v"

// Op is the kind of one composition step.
type Op string

const (
	OpDrawText  Op = "drawtext"
	OpScale     Op = "scale"
	OpAlpha     Op = "alpha"
	OpComposite Op = "composite"
)

// Step is one node of the composition graph. Inputs and Output are stream
// labels; Layer is the 1-based index of the overlay that produced the step.
type Step struct {
	Op       Op        `json:"op"`
	Layer    int       `json:"layer"`
	Inputs   []string  `json:"inputs"`
	Output   string    `json:"output"`
	Window   *Window   `json:"window,omitempty"`
	Position Position  `json:"position"`
	Text     *DrawText `json:"text,omitempty"`
	Width    int       `json:"width,omitempty"`
	Height   int       `json:"height,omitempty"`
	// Alpha is always serialised: 0 is a valid opacity.
	Alpha    float64   `json:"alpha"`
}

// DrawText is a text draw with defaults already applied.
type DrawText struct {
	Content string `json:"content"`
	Size    int    `json:"size"`
	// Color may carry an alpha suffix ("white@0.5").
	Color string `json:"color"`
}

// Plan is an ordered composition graph over a base video and zero or more
// media inputs. Input i is addressed by the label InputLabel(i).
type Plan struct {
	Base   string   `json:"base"`
	Inputs []string `json:"inputs"`
	Steps  []Step   `json:"steps"`
	// Output is the label of the final video stream.
	Output string `json:"output"`
}

// InputLabel returns the stream label of the i-th media input.
func InputLabel(i int) string {
	return strconv.Itoa(i+1) + ":v"
}

// Identity reports whether the plan leaves the base video untouched.
func (p Plan) Identity() bool {
	return len(p.Steps) == 0
}

// VisibleAt returns the 1-based overlay indices whose composite or draw step
// is active at time t, bottom layer first.
func (p Plan) VisibleAt(t float64) []int {
	var layers []int
	for _, s := range p.Steps {
		if s.Window != nil && s.Window.Active(t) {
			layers = append(layers, s.Layer)
		}
	}
	return layers
}

// Build turns the resolved overlays into a plan over base. Each overlay is
// layered on top of the result of the previous one, so list order is
// z-order. Media inputs are consumed in the order their overlays appear.
func Build(base string, overlays []Resolved) Plan {
	p := Plan{Base: base, Inputs: []string{}, Steps: []Step{}, Output: BaseLabel}

	top := BaseLabel
	for i, o := range overlays {
		layer := i + 1
		window := o.Window

		switch {
		case o.Kind == KindText && o.Text != nil:
			out := fmt.Sprintf("v%d", layer)
			p.Steps = append(p.Steps, Step{
				Op:       OpDrawText,
				Layer:    layer,
				Inputs:   []string{top},
				Output:   out,
				Window:   &window,
				Position: o.Position,
				Text:     drawText(o.Text, o.Opacity),
			})
			top = out

		case o.Kind.HasMedia():
			idx := len(p.Inputs)
			p.Inputs = append(p.Inputs, o.Source)
			media := InputLabel(idx)

			if o.Scale != nil {
				out := fmt.Sprintf("m%d", layer)
				p.Steps = append(p.Steps, Step{
					Op:     OpScale,
					Layer:  layer,
					Inputs: []string{media},
					Output: out,
					Width:  o.Scale.Width,
					Height: o.Scale.Height,
				})
				media = out
			}
			if o.Opacity != nil && *o.Opacity < 1 {
				out := fmt.Sprintf("m%da", layer)
				p.Steps = append(p.Steps, Step{
					Op:     OpAlpha,
					Layer:  layer,
					Inputs: []string{media},
					Output: out,
					Alpha:  *o.Opacity,
				})
				media = out
			}

			out := fmt.Sprintf("v%d", layer)
			p.Steps = append(p.Steps, Step{
				Op:       OpComposite,
				Layer:    layer,
				Inputs:   []string{top, media},
				Output:   out,
				Window:   &window,
				Position: o.Position,
			})
			top = out
		}
	}

	p.Output = top
	return p
}

func drawText(t *Text, opacity *float64) *DrawText {
	d := &DrawText{Content: t.Content, Size: t.FontSize, Color: t.FontColor}
	if d.Size <= 0 {
		d.Size = DefaultFontSize
	}
	if d.Color == "" {
		d.Color = DefaultFontColor
	}
	if opacity != nil && *opacity < 1 {
		d.Color += "@" + strconv.FormatFloat(*opacity, 'f', -1, 64)
	}
	return d
}
