// Package panel describes the animation form for the host toolbar to render.
package panel

import (
	"animation_panel_server/internal/session"
	"animation_panel_server/internal/types"
	"animation_panel_server/internal/validation"
)

// FieldKind tells the host which input primitive to use.
type FieldKind string

const (
	KindSelect FieldKind = "select"
	KindNumber FieldKind = "number"
	KindText   FieldKind = "text"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Field struct {
	Name    string      `json:"name"`
	Label   string      `json:"label"`
	Kind    FieldKind   `json:"kind"`
	Value   interface{} `json:"value"`
	Options []Option    `json:"options,omitempty"`
	Min     *int        `json:"min,omitempty"`
	Max     *int        `json:"max,omitempty"`
	Unit    string      `json:"unit,omitempty"`

	// Suggestions are offered but not enforced, as with easing presets.
	Suggestions []string `json:"suggestions,omitempty"`
}

type PropertyChoice struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
	Custom   bool   `json:"custom"`
}

// View is the full panel state sent to the host.
type View struct {
	SessionID  string                 `json:"sessionId,omitempty"`
	Title      string                 `json:"title"`
	Fields     []Field                `json:"fields"`
	Properties []PropertyChoice       `json:"properties"`
	Config     *types.AnimationConfig `json:"config,omitempty"`
	Validation *validation.Result     `json:"validation,omitempty"`
	Warnings   []string               `json:"warnings,omitempty"`
	Pending    bool                   `json:"pending"`
	Fallback   bool                   `json:"fallback,omitempty"`
	Message    string                 `json:"message,omitempty"`
}

const (
	Title           = "Animation Configuration"
	FallbackMessage = "Something went wrong. Please try again."
)

func intPtr(v int) *int { return &v }

// Build renders the current state of s.
func Build(s *session.Session) View {
	cfg := s.Config()
	result := s.Result()

	view := View{
		SessionID:  s.ID,
		Title:      Title,
		Fields:     fields(cfg),
		Properties: properties(cfg),
		Config:     &cfg,
		Validation: &result,
		Pending:    s.Pending(),
	}
	if !validation.IsKnownEasing(cfg.Easing) {
		view.Warnings = append(view.Warnings, "Easing \""+cfg.Easing+"\" is not a standard timing function")
	}
	return view
}

// Fallback is shown instead of the form after an internal fault.
func Fallback() View {
	return View{
		Title:    Title,
		Fields:   []Field{},
		Fallback: true,
		Message:  FallbackMessage,
	}
}

func fields(cfg types.AnimationConfig) []Field {
	typeOptions := make([]Option, 0, len(types.AnimationTypes))
	for _, t := range types.AnimationTypes {
		typeOptions = append(typeOptions, Option{Value: string(t), Label: t.Label()})
	}
	directionOptions := make([]Option, 0, len(types.Directions))
	for _, d := range types.Directions {
		directionOptions = append(directionOptions, Option{Value: string(d), Label: string(d)})
	}
	fillOptions := make([]Option, 0, len(types.FillModes))
	for _, f := range types.FillModes {
		fillOptions = append(fillOptions, Option{Value: string(f), Label: string(f)})
	}

	return []Field{
		{Name: session.FieldType, Label: "Animation Type", Kind: KindSelect, Value: cfg.Type, Options: typeOptions},
		{Name: session.FieldDuration, Label: "Duration", Kind: KindNumber, Value: cfg.Duration, Min: intPtr(0), Max: intPtr(types.MaxDuration), Unit: "ms"},
		{Name: session.FieldEasing, Label: "Easing", Kind: KindText, Value: cfg.Easing, Suggestions: types.EasingPresets},
		{Name: session.FieldDelay, Label: "Delay", Kind: KindNumber, Value: cfg.Delay, Min: intPtr(0), Max: intPtr(types.MaxDelay), Unit: "ms"},
		{Name: session.FieldIterations, Label: "Iterations", Kind: KindText, Value: cfg.Iterations, Suggestions: []string{"1", "2", "3", types.InfiniteIterations}},
		{Name: session.FieldDirection, Label: "Direction", Kind: KindSelect, Value: cfg.Direction, Options: directionOptions},
		{Name: session.FieldFillMode, Label: "Fill Mode", Kind: KindSelect, Value: cfg.FillMode, Options: fillOptions},
	}
}

// properties lists the common vocabulary first, then custom entries in
// insertion order.
func properties(cfg types.AnimationConfig) []PropertyChoice {
	out := make([]PropertyChoice, 0, len(types.CommonProperties)+len(cfg.Properties))
	for _, p := range types.CommonProperties {
		out = append(out, PropertyChoice{Name: p, Selected: cfg.HasProperty(p)})
	}
	for _, p := range cfg.Properties {
		if !types.IsCommonProperty(p) {
			out = append(out, PropertyChoice{Name: p, Selected: true, Custom: true})
		}
	}
	return out
}
