package overlay

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
)

func mustResolve(t *testing.T, raw []RawSpec, files StoredFiles) []Resolved {
	t.Helper()
	present := map[string]string{}
	for k, v := range files {
		present[k] = v
	}
	res := Validate(raw, present, MaxOverlays)
	if !res.Valid() {
		t.Fatalf("validate: %v", res.Errors)
	}
	resolved, err := Resolve(res.Specs, files)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return resolved
}

func TestBuildEmptyIsIdentity(t *testing.T) {
	p := Build("videos/base.mp4", nil)

	if !p.Identity() {
		t.Error("expected identity plan")
	}
	if p.Output != BaseLabel {
		t.Errorf("expected output %s, got %s", BaseLabel, p.Output)
	}
	if len(p.Inputs) != 0 || p.Base != "videos/base.mp4" {
		t.Errorf("unexpected plan %+v", p)
	}
	if got := p.VisibleAt(1); len(got) != 0 {
		t.Errorf("nothing should be visible, got %v", got)
	}
}

func TestBuildTextWindow(t *testing.T) {
	resolved := mustResolve(t, []RawSpec{textSpec(2, 5)}, nil)

	p := Build("videos/base.mp4", resolved)

	if len(p.Steps) != 1 {
		t.Fatalf("expected one step, got %d", len(p.Steps))
	}
	step := p.Steps[0]
	if step.Op != OpDrawText || step.Inputs[0] != BaseLabel || p.Output != step.Output {
		t.Errorf("unexpected step %+v", step)
	}
	if step.Text.Size != DefaultFontSize || step.Text.Color != DefaultFontColor || step.Text.Content != "Hi" {
		t.Errorf("expected defaults applied, got %+v", step.Text)
	}
	if step.Position != (Position{X: 10, Y: 10}) {
		t.Errorf("unexpected position %+v", step.Position)
	}

	tests := []struct {
		t       float64
		visible bool
	}{
		{0, false},
		{1.999, false},
		{2, true},
		{3.5, true},
		{4.999, true},
		{5, false},
		{9, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.t), func(t *testing.T) {
			if got := step.Window.Active(tt.t); got != tt.visible {
				t.Errorf("Active(%v) = %v, want %v", tt.t, got, tt.visible)
			}
		})
	}
}

func TestBuildLaterOverlayOnTop(t *testing.T) {
	a := imageSpec("overlay_file_1")
	a.Start, a.End = num(0), num(4)
	b := imageSpec("overlay_file_2")
	b.Type = "video"
	b.Start, b.End = num(2), num(6)

	files := StoredFiles{"overlay_file_1": "overlay_items/a.png", "overlay_file_2": "overlay_items/b.mp4"}
	p := Build("videos/base.mp4", mustResolve(t, []RawSpec{a, b}, files))

	if len(p.Inputs) != 2 || p.Inputs[0] != "overlay_items/a.png" || p.Inputs[1] != "overlay_items/b.mp4" {
		t.Fatalf("inputs must follow list order, got %v", p.Inputs)
	}
	if len(p.Steps) != 2 {
		t.Fatalf("expected two composite steps, got %d", len(p.Steps))
	}

	first, second := p.Steps[0], p.Steps[1]
	if first.Layer != 1 || first.Inputs[0] != BaseLabel || first.Inputs[1] != InputLabel(0) {
		t.Errorf("A should composite input 1 over the base, got %+v", first)
	}
	if second.Layer != 2 || second.Inputs[0] != first.Output || second.Inputs[1] != InputLabel(1) {
		t.Errorf("B should composite over A's output, got %+v", second)
	}
	if p.Output != second.Output {
		t.Errorf("plan output should be B's output, got %s", p.Output)
	}

	if got := fmt.Sprint(p.VisibleAt(3)); got != "[1 2]" {
		t.Errorf("expected A below B at t=3, got %s", got)
	}
	if got := fmt.Sprint(p.VisibleAt(5)); got != "[2]" {
		t.Errorf("expected only B at t=5, got %s", got)
	}
}

func TestBuildScaleAndOpacity(t *testing.T) {
	img := imageSpec("overlay_file_1")
	img.Scale = &RawScale{Width: num(200), Height: num(100)}
	img.Opacity = num(0.25)
	txt := textSpec(0, 1)
	txt.Opacity = num(0.5)
	txt.FontColor = "yellow"
	txt.FontSize = num(40)

	files := StoredFiles{"overlay_file_1": "overlay_items/a.png"}
	p := Build("videos/base.mp4", mustResolve(t, []RawSpec{img, txt}, files))

	ops := make([]Op, len(p.Steps))
	for i, s := range p.Steps {
		ops[i] = s.Op
	}
	if fmt.Sprint(ops) != fmt.Sprint([]Op{OpScale, OpAlpha, OpComposite, OpDrawText}) {
		t.Fatalf("unexpected step order %v", ops)
	}

	scale, alpha, comp, text := p.Steps[0], p.Steps[1], p.Steps[2], p.Steps[3]
	if scale.Width != 200 || scale.Height != 100 || scale.Inputs[0] != InputLabel(0) {
		t.Errorf("unexpected scale step %+v", scale)
	}
	if alpha.Alpha != 0.25 || alpha.Inputs[0] != scale.Output {
		t.Errorf("unexpected alpha step %+v", alpha)
	}
	if comp.Inputs[1] != alpha.Output {
		t.Errorf("composite should take the faded media, got %+v", comp)
	}
	if text.Inputs[0] != comp.Output || text.Text.Color != "yellow@0.5" || text.Text.Size != 40 {
		t.Errorf("unexpected text step %+v", text.Text)
	}
	if scale.Window != nil || alpha.Window != nil {
		t.Error("only draw and composite steps are time gated")
	}
}

func TestBuildFullOpacityAddsNoAlphaStep(t *testing.T) {
	img := imageSpec("overlay_file_1")
	img.Opacity = num(1)

	p := Build("videos/base.mp4", mustResolve(t, []RawSpec{img}, StoredFiles{"overlay_file_1": "k"}))

	if len(p.Steps) != 1 || p.Steps[0].Op != OpComposite {
		t.Errorf("expected a single composite step, got %+v", p.Steps)
	}
}

func TestBuildZeroOpacityKeepsAlphaOnTheWire(t *testing.T) {
	img := imageSpec("overlay_file_1")
	img.Opacity = num(0)

	p := Build("videos/base.mp4", mustResolve(t, []RawSpec{img}, StoredFiles{"overlay_file_1": "k"}))

	if len(p.Steps) != 2 || p.Steps[0].Op != OpAlpha {
		t.Fatalf("expected an alpha step before the composite, got %+v", p.Steps)
	}
	b, err := json.Marshal(p.Steps[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"alpha":0`) {
		t.Errorf("alpha 0 must be serialised, got %s", b)
	}
}

func TestResolveKeepsInput(t *testing.T) {
	specs := []Spec{
		{Kind: KindText, Text: &Text{Content: "a"}},
		{Kind: KindImage, Media: &Media{FileKey: "overlay_file_1"}},
	}

	resolved, err := Resolve(specs, StoredFiles{"overlay_file_1": "overlay_items/x.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved[0].Source != "" || resolved[1].Source != "overlay_items/x.png" {
		t.Errorf("unexpected sources %+v", resolved)
	}
	if specs[1].Media.FileKey != "overlay_file_1" {
		t.Error("resolve must not modify its input")
	}
	if got := MediaSources(resolved); len(got) != 1 || got[0] != "overlay_items/x.png" {
		t.Errorf("unexpected media sources %v", got)
	}

	if _, err := Resolve(specs, StoredFiles{}); err == nil {
		t.Error("expected unresolved key to fail")
	}
}
