// Package validation checks animation configurations against their domain
// rules. Failures are returned as data so the panel can render them inline.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"animation_panel_server/internal/types"

	"github.com/go-playground/validator/v10"
)

// Error messages. Callers and tests match on these literally.
const (
	MsgDurationNegative = "Duration must be a non-negative number"
	MsgDelayNegative    = "Delay must be a non-negative number"
	MsgIterationsBelow  = "Iterations must be a positive integer"
	MsgNoProperties     = "At least one property must be selected"
	MsgPropertyEmpty    = "Property name cannot be empty"
	MsgPropertyGrammar  = "Property name must start with a letter or hyphen and contain only letters, numbers, and hyphens"
)

var (
	MsgDurationMax   = fmt.Sprintf("Duration must be at most %dms (%d seconds)", types.MaxDuration, types.MaxDuration/1000)
	MsgDelayMax      = fmt.Sprintf("Delay must be at most %dms (%d seconds)", types.MaxDelay, types.MaxDelay/1000)
	MsgIterationsMax = fmt.Sprintf("Iterations must be at most %d", types.MaxIterations)
	MsgPropertyLong  = fmt.Sprintf("Property name must be at most %d characters", types.MaxPropertyLength)
)

var propertyNamePattern = regexp.MustCompile(`^[a-zA-Z-][a-zA-Z0-9-]*$`)

var cubicBezierPattern = regexp.MustCompile(`^cubic-bezier\(\s*(-?[0-9]*\.?[0-9]+)\s*,\s*(-?[0-9]*\.?[0-9]+)\s*,\s*(-?[0-9]*\.?[0-9]+)\s*,\s*(-?[0-9]*\.?[0-9]+)\s*\)$`)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	_ = validate.RegisterValidation("css_property", func(fl validator.FieldLevel) bool {
		return propertyNamePattern.MatchString(fl.Field().String())
	})
}

// Result is the outcome of a validation pass.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func newResult(errs []string) Result {
	if errs == nil {
		errs = []string{}
	}
	return Result{Valid: len(errs) == 0, Errors: errs}
}

func check(value interface{}, tag string) bool {
	return validate.Var(value, tag) == nil
}

// Duration checks a duration in milliseconds.
func Duration(ms int) Result {
	var errs []string
	if !check(ms, "gte=0") {
		errs = append(errs, MsgDurationNegative)
	}
	if !check(ms, "lte="+strconv.Itoa(types.MaxDuration)) {
		errs = append(errs, MsgDurationMax)
	}
	return newResult(errs)
}

// Delay checks a delay in milliseconds.
func Delay(ms int) Result {
	var errs []string
	if !check(ms, "gte=0") {
		errs = append(errs, MsgDelayNegative)
	}
	if !check(ms, "lte="+strconv.Itoa(types.MaxDelay)) {
		errs = append(errs, MsgDelayMax)
	}
	return newResult(errs)
}

// Iterations always accepts the infinite sentinel.
func Iterations(it types.Iterations) Result {
	if it.Infinite {
		return newResult(nil)
	}
	var errs []string
	if !check(it.Count, "gte="+strconv.Itoa(types.MinIterations)) {
		errs = append(errs, MsgIterationsBelow)
	}
	if !check(it.Count, "lte="+strconv.Itoa(types.MaxIterations)) {
		errs = append(errs, MsgIterationsMax)
	}
	return newResult(errs)
}

// CustomProperty runs the emptiness, length and grammar checks
// independently, so one bad name can produce several messages.
func CustomProperty(name string) Result {
	var errs []string
	if !check(name, "required") {
		errs = append(errs, MsgPropertyEmpty)
	}
	if !check(name, "max="+strconv.Itoa(types.MaxPropertyLength)) {
		errs = append(errs, MsgPropertyLong)
	}
	if !check(name, "css_property") {
		errs = append(errs, MsgPropertyGrammar)
	}
	return newResult(errs)
}

// Config validates a whole configuration. Errors are ordered duration,
// delay, iterations, empty properties, then each custom property in list
// order, followed by duplicate and enum checks.
func Config(cfg types.AnimationConfig) Result {
	var errs []string
	errs = append(errs, Duration(cfg.Duration).Errors...)
	errs = append(errs, Delay(cfg.Delay).Errors...)
	errs = append(errs, Iterations(cfg.Iterations).Errors...)

	if len(cfg.Properties) == 0 {
		errs = append(errs, MsgNoProperties)
	}
	for _, prop := range cfg.Properties {
		if types.IsCommonProperty(prop) {
			continue
		}
		for _, e := range CustomProperty(prop).Errors {
			errs = append(errs, prop+": "+e)
		}
	}

	seen := make(map[string]bool, len(cfg.Properties))
	for _, prop := range cfg.Properties {
		if seen[prop] {
			errs = append(errs, "Duplicate property: "+prop)
		}
		seen[prop] = true
	}

	if !cfg.Type.Valid() {
		errs = append(errs, fmt.Sprintf("Unknown animation type: %s", cfg.Type))
	}
	if !cfg.Direction.Valid() {
		errs = append(errs, fmt.Sprintf("Unknown direction: %s", cfg.Direction))
	}
	if !cfg.FillMode.Valid() {
		errs = append(errs, fmt.Sprintf("Unknown fill mode: %s", cfg.FillMode))
	}

	return newResult(distinct(errs))
}

func distinct(msgs []string) []string {
	if len(msgs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(msgs))
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// IsKnownEasing reports whether easing is a named preset or a well-formed
// cubic-bezier whose x control points lie in [0, 1]. Other values are still
// accepted by Config.
func IsKnownEasing(easing string) bool {
	easing = strings.TrimSpace(easing)
	for _, preset := range types.EasingPresets {
		if easing == preset {
			return true
		}
	}
	m := cubicBezierPattern.FindStringSubmatch(easing)
	if m == nil {
		return false
	}
	for _, idx := range []int{1, 3} {
		x, err := strconv.ParseFloat(m[idx], 64)
		if err != nil || x < 0 || x > 1 {
			return false
		}
	}
	return true
}
