package validation

import (
	"strings"
	"testing"

	"animation_panel_server/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	assert.True(t, Duration(0).Valid)
	assert.True(t, Duration(30000).Valid)

	r := Duration(-1)
	assert.False(t, r.Valid)
	assert.Equal(t, []string{MsgDurationNegative}, r.Errors)

	r = Duration(30001)
	assert.False(t, r.Valid)
	assert.Equal(t, []string{MsgDurationMax}, r.Errors)
	assert.Contains(t, r.Errors[0], "30000")
}

func TestDelay(t *testing.T) {
	assert.True(t, Delay(10000).Valid)
	assert.Equal(t, []string{MsgDelayNegative}, Delay(-5).Errors)
	assert.Equal(t, []string{MsgDelayMax}, Delay(10001).Errors)
}

func TestIterations(t *testing.T) {
	assert.True(t, Iterations(types.Infinite()).Valid)
	assert.True(t, Iterations(types.Finite(1)).Valid)
	assert.True(t, Iterations(types.Finite(100)).Valid)
	assert.Equal(t, []string{MsgIterationsBelow}, Iterations(types.Finite(0)).Errors)
	assert.Equal(t, []string{MsgIterationsMax}, Iterations(types.Finite(101)).Errors)
}

func TestCustomProperty(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"--brand-color", nil},
		{"my-prop", nil},
		{"-webkit-mask", nil},
		{"a", nil},
		{"", []string{MsgPropertyEmpty, MsgPropertyGrammar}},
		{"my$prop", []string{MsgPropertyGrammar}},
		{"has space", []string{MsgPropertyGrammar}},
		{"1starts-with-digit", []string{MsgPropertyGrammar}},
		{strings.Repeat("a", 51), []string{MsgPropertyLong}},
		{strings.Repeat("$", 51), []string{MsgPropertyLong, MsgPropertyGrammar}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CustomProperty(tt.name)
			if tt.want == nil {
				assert.True(t, r.Valid)
				assert.Empty(t, r.Errors)
				return
			}
			assert.False(t, r.Valid)
			assert.Equal(t, tt.want, r.Errors)
		})
	}
}

func TestCustomPropertySingleCharacterMutation(t *testing.T) {
	base := "valid-name-42"
	require.True(t, CustomProperty(base).Valid)
	for i := 1; i < len(base); i++ {
		for _, bad := range []string{" ", "$"} {
			mutated := base[:i] + bad + base[i+1:]
			assert.False(t, CustomProperty(mutated).Valid, mutated)
		}
	}
}

func TestConfigDefaultIsValid(t *testing.T) {
	r := Config(types.DefaultAnimationConfig())
	assert.True(t, r.Valid)
	assert.Empty(t, r.Errors)
}

func TestConfigDurationOverMaxReportedOnce(t *testing.T) {
	for _, d := range []int{30001, 50000, 1 << 20} {
		cfg := types.DefaultAnimationConfig()
		cfg.Duration = d
		r := Config(cfg)
		assert.False(t, r.Valid)
		count := 0
		for _, e := range r.Errors {
			if e == MsgDurationMax {
				count++
			}
		}
		assert.Equal(t, 1, count)
	}
}

func TestConfigDoesNotCorrectInput(t *testing.T) {
	cfg := types.DefaultAnimationConfig()
	cfg.Duration = 50000
	r := Config(cfg)
	require.Len(t, r.Errors, 1)
	assert.Contains(t, r.Errors[0], "30000")
	assert.Equal(t, 50000, cfg.Duration)
}

func TestConfigEmptyProperties(t *testing.T) {
	cfg := types.DefaultAnimationConfig()
	cfg.Properties = []string{}
	r := Config(cfg)
	assert.False(t, r.Valid)
	assert.Contains(t, r.Errors, MsgNoProperties)
}

func TestConfigErrorOrder(t *testing.T) {
	cfg := types.DefaultAnimationConfig()
	cfg.Duration = -1
	cfg.Delay = 20000
	cfg.Iterations = types.Finite(0)
	cfg.Properties = []string{"opacity", "bad$one", strings.Repeat("z", 60), "--fine"}

	r := Config(cfg)
	assert.Equal(t, []string{
		MsgDurationNegative,
		MsgDelayMax,
		MsgIterationsBelow,
		"bad$one: " + MsgPropertyGrammar,
		strings.Repeat("z", 60) + ": " + MsgPropertyLong,
	}, r.Errors)

	// same input, same output
	assert.Equal(t, r, Config(cfg))
}

func TestConfigDuplicatesAndEnums(t *testing.T) {
	cfg := types.DefaultAnimationConfig()
	cfg.Properties = []string{"opacity", "opacity", "x$", "x$"}
	cfg.Type = "webgl"
	cfg.Direction = "sideways"
	cfg.FillMode = "all"

	r := Config(cfg)
	assert.Equal(t, []string{
		"x$: " + MsgPropertyGrammar,
		"Duplicate property: opacity",
		"Duplicate property: x$",
		"Unknown animation type: webgl",
		"Unknown direction: sideways",
		"Unknown fill mode: all",
	}, r.Errors)
}

func TestIsKnownEasing(t *testing.T) {
	for _, e := range []string{"ease", "linear", "ease-in-out", "cubic-bezier(0.68, -0.55, 0.265, 1.55)", "cubic-bezier(0,0,1,1)"} {
		assert.True(t, IsKnownEasing(e), e)
	}
	for _, e := range []string{"", "bouncy", "cubic-bezier(1.5, 0, 0, 1)", "cubic-bezier(0, 0, 1)", "steps(4, end)"} {
		assert.False(t, IsKnownEasing(e), e)
	}
}
