package overlay

import (
	"fmt"
	"math"
	"regexp"

	"golang.org/x/text/language"

	"github.com/VivekAsole/video-processing-backend/internal/pkg/errors"
)

// SupportedLanguages are the languages a text overlay may declare.
var SupportedLanguages = []language.Tag{
	language.English,
	language.Hindi,
	language.Tamil,
	language.Bengali,
	language.Telugu,
	language.Marathi,
}

// fontColorPattern admits ffmpeg colour names and hex forms. Anything else
// could break out of the filter graph.
var fontColorPattern = regexp.MustCompile(`^(#|0x)?[A-Za-z0-9]{1,32}$`)

// Result is the outcome of Validate: either the accepted specs or a
// non-empty list of messages.
type Result struct {
	Specs  []Spec
	Errors []string
}

func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// Err returns nil for a valid result and a batched validation error
// otherwise.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	return errors.ValidationList(r.Errors)
}

// Validate checks raw against every overlay rule and reports all violations.
// files maps an upload form key to the uploaded file name; a key with an
// empty name counts as missing. limit <= 0 means MaxOverlays.
func Validate(raw []RawSpec, files map[string]string, limit int) Result {
	if limit <= 0 {
		limit = MaxOverlays
	}

	var errs []string
	if len(raw) > limit {
		errs = append(errs, fmt.Sprintf("Maximum %d overlays allowed", limit))
	}

	for i, r := range raw {
		for _, msg := range checkSpec(r, files) {
			errs = append(errs, fmt.Sprintf("Overlay %d: %s", i+1, msg))
		}
	}

	if len(errs) > 0 {
		return Result{Errors: errs}
	}

	specs := make([]Spec, len(raw))
	for i, r := range raw {
		specs[i] = toSpec(r)
	}
	return Result{Specs: specs}
}

func checkSpec(r RawSpec, files map[string]string) []string {
	if r.isMistyped("overlay") {
		return []string{"Overlay must be a JSON object"}
	}

	var errs []string
	kind := Kind(r.Type)

	if !kind.Valid() {
		errs = append(errs, fmt.Sprintf("Invalid type '%s'", r.Type))
	}

	switch {
	case r.Start == nil || r.End == nil || !finite(*r.Start) || !finite(*r.End):
		errs = append(errs, "start and end must be numeric")
	case *r.Start >= *r.End:
		errs = append(errs, "start must be less than end")
	case *r.Start < 0:
		errs = append(errs, "start must not be negative")
	}

	if kind == KindText {
		if r.Content == "" {
			errs = append(errs, "Text overlay must have 'content'")
		}
		if r.isMistyped("language") {
			errs = append(errs, "Language must be a string")
		} else if r.Language != "" && !supportedLanguage(r.Language) {
			errs = append(errs, fmt.Sprintf("Invalid language '%s'", r.Language))
		}
		if r.isMistyped("fontsize") || r.FontSize != nil && (!finite(*r.FontSize) || *r.FontSize < 1) {
			errs = append(errs, "Font size must be a positive number")
		}
		if r.isMistyped("fontcolor") {
			errs = append(errs, "Font color must be a string")
		} else if r.FontColor != "" && !fontColorPattern.MatchString(r.FontColor) {
			errs = append(errs, fmt.Sprintf("Invalid font color '%s'", r.FontColor))
		}
	}

	if kind.HasMedia() {
		if r.FileKey == "" || files[r.FileKey] == "" {
			errs = append(errs, "Missing or invalid file for overlay")
		}
	}

	if r.isMistyped("opacity") || r.Opacity != nil && (!finite(*r.Opacity) || *r.Opacity < 0 || *r.Opacity > 1) {
		errs = append(errs, "Opacity must be a number between 0 and 1")
	}

	if r.Scale != nil {
		if r.Scale.Width == nil || r.Scale.Height == nil {
			errs = append(errs, "Scale must have 'width' and 'height'")
		} else if !scaleSide(*r.Scale.Width) || !scaleSide(*r.Scale.Height) ||
			(*r.Scale.Width == -1 && *r.Scale.Height == -1) {
			errs = append(errs, "Scale width and height must be positive integers (one may be -1)")
		}
	}

	if r.Position == nil || r.Position.X == nil || r.Position.Y == nil {
		errs = append(errs, "Position must have 'x' and 'y'")
	} else if !finite(*r.Position.X) || !finite(*r.Position.Y) {
		errs = append(errs, "Position 'x' and 'y' must be numbers")
	}

	return errs
}

// toSpec converts a raw spec that passed checkSpec.
func toSpec(r RawSpec) Spec {
	s := Spec{
		Kind:     Kind(r.Type),
		Window:   Window{Start: *r.Start, End: *r.End},
		Position: Position{X: *r.Position.X, Y: *r.Position.Y},
		Opacity:  r.Opacity,
	}
	if r.Scale != nil {
		s.Scale = &Scale{Width: int(*r.Scale.Width), Height: int(*r.Scale.Height)}
	}

	if s.Kind == KindText {
		t := &Text{Content: r.Content, FontColor: r.FontColor}
		if r.Language != "" {
			t.Language = canonicalLanguage(r.Language)
		}
		if r.FontSize != nil {
			t.FontSize = int(math.Round(*r.FontSize))
		}
		s.Text = t
	} else {
		s.Media = &Media{FileKey: r.FileKey}
	}
	return s
}

// supportedLanguage accepts a supported language code, including regional
// variants such as "hi-IN".
func supportedLanguage(code string) bool {
	tag, err := language.Parse(code)
	if err != nil {
		return false
	}
	base, _ := tag.Base()
	for _, t := range SupportedLanguages {
		if b, _ := t.Base(); b == base {
			return true
		}
	}
	return false
}

func canonicalLanguage(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	base, _ := tag.Base()
	return base.String()
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func scaleSide(f float64) bool {
	return f == math.Trunc(f) && (f >= 1 || f == -1) && f <= 16384
}
