// Package overlay validates overlay requests and turns them into composition
// plans. Nothing in this package performs I/O.
package overlay

import "encoding/json"

// Kind is the closed set of overlay variants.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// MaxOverlays bounds the length of one overlay request.
const MaxOverlays = 3

func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVideo:
		return true
	}
	return false
}

// HasMedia reports whether the kind composites an uploaded file.
func (k Kind) HasMedia() bool {
	return k == KindImage || k == KindVideo
}

// RawSpec is one overlay exactly as the client sent it. Pointer fields let
// the validator tell "absent" from "zero".
type RawSpec struct {
	Type      string       `json:"type"`
	Start     *float64     `json:"start"`
	End       *float64     `json:"end"`
	Position  *RawPosition `json:"position"`
	Opacity   *float64     `json:"opacity,omitempty"`
	Scale     *RawScale    `json:"scale,omitempty"`
	Content   string       `json:"content,omitempty"`
	Language  string       `json:"language,omitempty"`
	FontSize  *float64     `json:"fontsize,omitempty"`
	FontColor string       `json:"fontcolor,omitempty"`
	FileKey   string       `json:"file_key,omitempty"`

	// mistyped holds the JSON names of fields whose value had the wrong
	// type. "overlay" means the element itself was not an object.
	mistyped map[string]bool
}

// UnmarshalJSON decodes field by field. A value of the wrong JSON type is
// left unset and remembered for Validate, so one bad field does not hide
// the violations of the other overlays. A non-string type is kept as its
// raw text and fails the kind check.
func (r *RawSpec) UnmarshalJSON(data []byte) error {
	*r = RawSpec{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		r.markMistyped("overlay")
		return nil
	}

	if raw, ok := fields["type"]; ok {
		if err := json.Unmarshal(raw, &r.Type); err != nil {
			r.Type = string(raw)
		}
	}

	var ok bool
	for name, dst := range map[string]**float64{
		"start":    &r.Start,
		"end":      &r.End,
		"opacity":  &r.Opacity,
		"fontsize": &r.FontSize,
	} {
		if *dst, ok = numberField(fields, name); !ok {
			r.markMistyped(name)
		}
	}
	for name, dst := range map[string]*string{
		"content":   &r.Content,
		"language":  &r.Language,
		"fontcolor": &r.FontColor,
		"file_key":  &r.FileKey,
	} {
		if *dst, ok = stringField(fields, name); !ok {
			r.markMistyped(name)
		}
	}

	if obj, present, ok := objectField(fields, "position"); !ok {
		r.markMistyped("position")
	} else if present {
		r.Position = &RawPosition{}
		r.Position.X, _ = numberField(obj, "x")
		r.Position.Y, _ = numberField(obj, "y")
	}

	if obj, present, ok := objectField(fields, "scale"); !ok {
		r.markMistyped("scale")
		r.Scale = &RawScale{}
	} else if present {
		r.Scale = &RawScale{}
		r.Scale.Width, _ = numberField(obj, "width")
		r.Scale.Height, _ = numberField(obj, "height")
	}
	return nil
}

func (r *RawSpec) markMistyped(name string) {
	if r.mistyped == nil {
		r.mistyped = make(map[string]bool)
	}
	r.mistyped[name] = true
}

func (r RawSpec) isMistyped(name string) bool {
	return r.mistyped[name]
}

// numberField returns nil for an absent or null value. ok is false when the
// value is not a JSON number.
func numberField(fields map[string]json.RawMessage, name string) (v *float64, ok bool) {
	raw, present := fields[name]
	if !present || string(raw) == "null" {
		return nil, true
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, false
	}
	return &f, true
}

func stringField(fields map[string]json.RawMessage, name string) (v string, ok bool) {
	raw, present := fields[name]
	if !present || string(raw) == "null" {
		return "", true
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	return v, true
}

func objectField(fields map[string]json.RawMessage, name string) (obj map[string]json.RawMessage, present, ok bool) {
	raw, found := fields[name]
	if !found || string(raw) == "null" {
		return nil, false, true
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false, false
	}
	return obj, true, true
}

type RawPosition struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
}

type RawScale struct {
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

// Window is the visibility interval [Start, End) in seconds of output time.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Active reports whether the overlay is visible at time t.
func (w Window) Active(t float64) bool {
	return t >= w.Start && t < w.End
}

// Position is the top-left corner of the overlay in output pixels.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Scale resizes media overlays. -1 on one side keeps the aspect ratio.
type Scale struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Text struct {
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	// FontSize and FontColor are zero when the client left them out.
	FontSize  int    `json:"fontsize,omitempty"`
	FontColor string `json:"fontcolor,omitempty"`
}

type Media struct {
	// FileKey names the uploaded form file (overlay_file_N).
	FileKey string `json:"file_key"`
}

// Spec is a validated overlay. Exactly one of Text and Media is set,
// according to Kind.
type Spec struct {
	Kind     Kind     `json:"type"`
	Window   Window   `json:"window"`
	Position Position `json:"position"`
	Opacity  *float64 `json:"opacity,omitempty"`
	Scale    *Scale   `json:"scale,omitempty"`
	Text     *Text    `json:"text,omitempty"`
	Media    *Media   `json:"media,omitempty"`
}
