package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// GeneratedFile represents the structure expected from the LLM for each file.
type GeneratedFile struct {
	Filename string `json:"filename"`
	Type     string `json:"type"` // e.g., "tsx", "css", "json"
	Content  string `json:"content"`
}

// AnimationType is the animation backend the generated code should target.
type AnimationType string

const (
	TypeCSSTransition AnimationType = "css-transition"
	TypeCSSKeyframes  AnimationType = "css-keyframes"
	TypeFramerMotion  AnimationType = "framer-motion"
	TypeReactSpring   AnimationType = "react-spring"
	TypeGSAP          AnimationType = "gsap"
	TypeLottie        AnimationType = "lottie"
)

// AnimationTypes lists every supported backend in display order.
var AnimationTypes = []AnimationType{
	TypeCSSTransition,
	TypeCSSKeyframes,
	TypeFramerMotion,
	TypeReactSpring,
	TypeGSAP,
	TypeLottie,
}

// Label returns the human-readable name of the backend.
func (t AnimationType) Label() string {
	switch t {
	case TypeCSSTransition:
		return "CSS Transition"
	case TypeCSSKeyframes:
		return "CSS Keyframes"
	case TypeFramerMotion:
		return "Framer Motion"
	case TypeReactSpring:
		return "React Spring"
	case TypeGSAP:
		return "GSAP"
	case TypeLottie:
		return "Lottie"
	}
	return ""
}

// Valid reports whether t is one of the supported backends.
func (t AnimationType) Valid() bool {
	return t.Label() != ""
}

func ParseAnimationType(s string) (AnimationType, bool) {
	t := AnimationType(strings.TrimSpace(s))
	return t, t.Valid()
}

type Direction string

const (
	DirectionNormal           Direction = "normal"
	DirectionReverse          Direction = "reverse"
	DirectionAlternate        Direction = "alternate"
	DirectionAlternateReverse Direction = "alternate-reverse"
)

var Directions = []Direction{DirectionNormal, DirectionReverse, DirectionAlternate, DirectionAlternateReverse}

func (d Direction) Valid() bool {
	for _, known := range Directions {
		if d == known {
			return true
		}
	}
	return false
}

func ParseDirection(s string) (Direction, bool) {
	d := Direction(strings.TrimSpace(s))
	return d, d.Valid()
}

type FillMode string

const (
	FillNone      FillMode = "none"
	FillForwards  FillMode = "forwards"
	FillBackwards FillMode = "backwards"
	FillBoth      FillMode = "both"
)

var FillModes = []FillMode{FillNone, FillForwards, FillBackwards, FillBoth}

func (f FillMode) Valid() bool {
	for _, known := range FillModes {
		if f == known {
			return true
		}
	}
	return false
}

func ParseFillMode(s string) (FillMode, bool) {
	f := FillMode(strings.TrimSpace(s))
	return f, f.Valid()
}

// Domain bounds for the numeric fields.
const (
	MaxDuration       = 30000
	MaxDelay          = 10000
	MinIterations     = 1
	MaxIterations     = 100
	MaxPropertyLength = 50
	MaxInputLength    = 100
)

// InfiniteIterations is the wire form of the endless iteration sentinel.
const InfiniteIterations = "infinite"

// Iterations is either a finite count or the infinite sentinel.
// On the wire it is a JSON number or the string "infinite".
type Iterations struct {
	Infinite bool
	Count    int
}

func Finite(n int) Iterations { return Iterations{Count: n} }

func Infinite() Iterations { return Iterations{Infinite: true} }

func (it Iterations) String() string {
	if it.Infinite {
		return InfiniteIterations
	}
	return strconv.Itoa(it.Count)
}

// ParseIterations accepts "infinite" or a base-10 integer.
func ParseIterations(s string) (Iterations, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, InfiniteIterations) {
		return Infinite(), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Iterations{}, fmt.Errorf("invalid iteration count %q: %w", s, err)
	}
	return Finite(n), nil
}

func (it Iterations) MarshalJSON() ([]byte, error) {
	if it.Infinite {
		return json.Marshal(InfiniteIterations)
	}
	return json.Marshal(it.Count)
}

func (it *Iterations) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*it = Finite(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("iterations must be a number or %q", InfiniteIterations)
	}
	parsed, err := ParseIterations(s)
	if err != nil {
		return err
	}
	*it = parsed
	return nil
}

func (it Iterations) MarshalYAML() (interface{}, error) {
	if it.Infinite {
		return InfiniteIterations, nil
	}
	return it.Count, nil
}

func (it *Iterations) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("iterations must be a number or %q", InfiniteIterations)
	}
	parsed, err := ParseIterations(value.Value)
	if err != nil {
		return err
	}
	*it = parsed
	return nil
}

// OptionKind tags the primitive held by an OptionValue.
type OptionKind int

const (
	OptionNull OptionKind = iota
	OptionString
	OptionNumber
	OptionBool
)

// OptionValue is a loosely typed custom option value.
type OptionValue struct {
	Kind OptionKind
	Str  string
	Num  float64
	Bool bool
}

func StringOption(s string) OptionValue  { return OptionValue{Kind: OptionString, Str: s} }
func NumberOption(n float64) OptionValue { return OptionValue{Kind: OptionNumber, Num: n} }
func BoolOption(b bool) OptionValue      { return OptionValue{Kind: OptionBool, Bool: b} }

func (v OptionValue) String() string {
	switch v.Kind {
	case OptionString:
		return v.Str
	case OptionNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case OptionBool:
		return strconv.FormatBool(v.Bool)
	}
	return "null"
}

func (v OptionValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case OptionString:
		return json.Marshal(v.Str)
	case OptionNumber:
		return json.Marshal(v.Num)
	case OptionBool:
		return json.Marshal(v.Bool)
	}
	return []byte("null"), nil
}

func (v *OptionValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := OptionFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

func (v OptionValue) MarshalYAML() (interface{}, error) {
	switch v.Kind {
	case OptionString:
		return v.Str, nil
	case OptionNumber:
		return v.Num, nil
	case OptionBool:
		return v.Bool, nil
	}
	return nil, nil
}

func (v *OptionValue) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := OptionFromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// OptionFromAny converts a decoded JSON/YAML scalar into an OptionValue.
// Nested objects and arrays are rejected.
func OptionFromAny(raw interface{}) (OptionValue, error) {
	switch x := raw.(type) {
	case nil:
		return OptionValue{}, nil
	case string:
		return StringOption(x), nil
	case bool:
		return BoolOption(x), nil
	case float64:
		return NumberOption(x), nil
	case float32:
		return NumberOption(float64(x)), nil
	case int:
		return NumberOption(float64(x)), nil
	case int64:
		return NumberOption(float64(x)), nil
	}
	return OptionValue{}, fmt.Errorf("unsupported option value of type %T", raw)
}

// AnimationConfig is the state edited through the panel.
type AnimationConfig struct {
	Type          AnimationType          `json:"type" yaml:"type"`
	Duration      int                    `json:"duration" yaml:"duration"`
	Easing        string                 `json:"easing" yaml:"easing"`
	Delay         int                    `json:"delay" yaml:"delay"`
	Iterations    Iterations             `json:"iterations" yaml:"iterations"`
	Direction     Direction              `json:"direction" yaml:"direction"`
	FillMode      FillMode               `json:"fillMode" yaml:"fillMode"`
	Properties    []string               `json:"properties" yaml:"properties"`
	CustomOptions map[string]OptionValue `json:"customOptions,omitempty" yaml:"customOptions,omitempty"`
}

// DefaultAnimationConfig returns the configuration a new panel opens with.
func DefaultAnimationConfig() AnimationConfig {
	return AnimationConfig{
		Type:          TypeCSSTransition,
		Duration:      300,
		Easing:        "ease",
		Delay:         0,
		Iterations:    Finite(1),
		Direction:     DirectionNormal,
		FillMode:      FillBoth,
		Properties:    []string{"opacity", "transform"},
		CustomOptions: map[string]OptionValue{},
	}
}

// Clone returns a deep copy so snapshots never alias live session state.
func (c AnimationConfig) Clone() AnimationConfig {
	out := c
	out.Properties = append([]string(nil), c.Properties...)
	if c.CustomOptions != nil {
		out.CustomOptions = make(map[string]OptionValue, len(c.CustomOptions))
		for k, v := range c.CustomOptions {
			out.CustomOptions[k] = v
		}
	}
	return out
}

func (c AnimationConfig) HasProperty(name string) bool {
	for _, p := range c.Properties {
		if p == name {
			return true
		}
	}
	return false
}

// CommonProperties is the fixed vocabulary offered as checkboxes on the panel.
var CommonProperties = []string{
	"opacity",
	"transform",
	"scale",
	"rotate",
	"translate",
	"width",
	"height",
	"color",
	"background-color",
	"border-radius",
	"box-shadow",
	"filter",
}

func IsCommonProperty(name string) bool {
	for _, p := range CommonProperties {
		if p == name {
			return true
		}
	}
	return false
}

// EasingPresets are the named timing functions the panel offers.
var EasingPresets = []string{"linear", "ease", "ease-in", "ease-out", "ease-in-out"}

// SelectedElement is a DOM element the user picked in the host toolbar.
type SelectedElement struct {
	TagName   string   `json:"tagName,omitempty"`
	ID        string   `json:"id,omitempty"`
	ClassList []string `json:"classList,omitempty"`
	Selector  string   `json:"selector,omitempty"`
	Text      string   `json:"textContent,omitempty"`
}

// Describe renders the element as tag#id.class, falling back to its selector.
func (e SelectedElement) Describe() string {
	if e.TagName == "" {
		if e.Selector != "" {
			return e.Selector
		}
		return "element"
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(e.TagName))
	if e.ID != "" {
		b.WriteString("#")
		b.WriteString(e.ID)
	}
	for _, class := range e.ClassList {
		if class = strings.TrimSpace(class); class != "" {
			b.WriteString(".")
			b.WriteString(class)
		}
	}
	return b.String()
}

// ContextSnippet is a named block of text the host appends to a prompt.
type ContextSnippet struct {
	PromptContextName string `json:"promptContextName"`
	Content           string `json:"content"`
}
