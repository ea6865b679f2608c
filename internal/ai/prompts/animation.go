package prompts

import (
	"fmt"
	"sort"
	"strings"

	"animation_panel_server/internal/types"
)

// Marker lines delimiting injected context from the user's own text.
const (
	SpecStartMarker = "<animation-spec>"
	SpecEndMarker   = "</animation-spec>"
)

// AnimationContextName is the snippet name the host shows for the injected block.
const AnimationContextName = "animation-config"

// implementationHint names the technique the closing instruction asks for.
// Every AnimationType must have a case; TestEveryTypeHasHint enforces it.
func implementationHint(t types.AnimationType) (string, bool) {
	switch t {
	case types.TypeCSSTransition:
		return "CSS transitions", true
	case types.TypeCSSKeyframes:
		return "a CSS @keyframes animation", true
	case types.TypeFramerMotion:
		return "Framer Motion's motion components", true
	case types.TypeReactSpring:
		return "React Spring's useSpring hook", true
	case types.TypeGSAP:
		return "GSAP tweens", true
	case types.TypeLottie:
		return "a Lottie player", true
	}
	return "", false
}

// GenerateAnimationPrompt renders cfg as the text block appended to the
// user's prompt. It reports false when there is nothing to inject: no
// configuration, no selected elements or an unsupported type.
func GenerateAnimationPrompt(cfg *types.AnimationConfig, elements []types.SelectedElement) (string, bool) {
	if cfg == nil || len(elements) == 0 {
		return "", false
	}
	hint, ok := implementationHint(cfg.Type)
	if !ok {
		return "", false
	}
	label := cfg.Type.Label()

	lines := []string{
		SpecStartMarker,
		fmt.Sprintf("Animation Implementation Request (%s)", label),
		"Type: " + label,
		fmt.Sprintf("Duration: %dms", cfg.Duration),
		"Easing: " + cfg.Easing,
		fmt.Sprintf("Delay: %dms", cfg.Delay),
		"Iterations: " + cfg.Iterations.String(),
		"Direction: " + string(cfg.Direction),
		"Fill Mode: " + string(cfg.FillMode),
		"Properties: " + strings.Join(cfg.Properties, ", "),
	}
	if opts := formatOptions(cfg.CustomOptions); opts != "" {
		lines = append(lines, "Custom Options: "+opts)
	}

	targets := make([]string, 0, len(elements))
	for _, el := range elements {
		targets = append(targets, el.Describe())
	}
	lines = append(lines,
		"Target Elements: "+strings.Join(targets, "; "),
		closingInstruction(hint, len(elements)),
		SpecEndMarker,
	)
	return strings.Join(lines, "\n"), true
}

func closingInstruction(hint string, count int) string {
	if count == 1 {
		return fmt.Sprintf("Implement this animation on the selected element using %s.", hint)
	}
	return fmt.Sprintf("Implement this animation on the %d selected elements using %s.", count, hint)
}

func formatOptions(opts map[string]types.OptionValue) string {
	if len(opts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+opts[k].String())
	}
	return strings.Join(parts, ", ")
}
