package tokens_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in   string
		want tokens.Category
		ok   bool
	}{
		{"spacing", tokens.CategorySpacing, true},
		{"FONT_SIZE", tokens.CategoryFontSize, true},
		{"tap-area", tokens.CategoryTapArea, true},
		{"typography", tokens.CategoryTypography, true},
		{"depth", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := tokens.ParseCategory(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePlatform(t *testing.T) {
	p, err := tokens.ParsePlatform(" iOS ")
	require.NoError(t, err)
	assert.Equal(t, tokens.PlatformIOS, p)

	_, err = tokens.ParsePlatform("tvos")
	var unsupported *tokens.UnsupportedPlatformError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "tvos", unsupported.Platform)
}

func TestGrid(t *testing.T) {
	assert.True(t, tokens.IsGridAligned(24, 8))
	assert.False(t, tokens.IsGridAligned(7, 8))
	assert.False(t, tokens.IsGridAligned(8, 0))

	lower, upper := tokens.NearestGridValues(12, 8)
	assert.Equal(t, 8.0, lower)
	assert.Equal(t, 16.0, upper)

	assert.True(t, tokens.IsStrategicFlexibilityValue(6))
	assert.False(t, tokens.IsStrategicFlexibilityValue(7))

	assert.Equal(t, "base × 1.5 = 12", tokens.Relationship(12, 8))
	assert.Equal(t, "0.1", tokens.FormatNumber(0.1000000001))
}

func TestAggregate(t *testing.T) {
	got := tokens.Aggregate("space090",
		tokens.Pass("space090", "ok", "first", "a"),
		tokens.Warning("space090", "careful", "second", "b", "use space100"),
		tokens.Error("space090", "broken", "third", "c", "use space100", "use space075"),
	)
	assert.Equal(t, tokens.LevelError, got.Level)
	assert.Equal(t, "broken", got.Message)
	assert.Equal(t, "first; second; third", got.Rationale)
	assert.Equal(t, "a; b; c", got.MathematicalReasoning)
	assert.Equal(t, []string{"use space100", "use space075"}, got.Suggestions)

	empty := tokens.Aggregate("space100")
	assert.Equal(t, tokens.LevelPass, empty.Level)
	assert.NotEmpty(t, empty.Rationale)
}

func TestCountLevels(t *testing.T) {
	c := tokens.CountLevels([]tokens.ValidationResult{
		tokens.Pass("a", "", "r", ""),
		tokens.Pass("b", "", "r", ""),
		tokens.Error("c", "", "r", ""),
	})
	assert.Equal(t, tokens.Counts{Total: 3, Pass: 2, Error: 1}, c)
}

func TestLevelJSON(t *testing.T) {
	b, err := json.Marshal(tokens.Warning("space075", "m", "r", "x"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"level":"Warning"`)

	var got tokens.ValidationResult
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, tokens.LevelWarning, got.Level)

	assert.Error(t, json.Unmarshal([]byte(`{"level":"fatal"}`), &got))
}

func TestClone(t *testing.T) {
	orig := &tokens.PrimitiveToken{
		Name:     "color.primary",
		Category: tokens.CategoryColor,
		Platforms: tokens.PlatformValues{
			Web: tokens.PlatformValue{Unit: tokens.UnitHex, Modes: tokens.ModeValues{"light": {"base": "#FFFFFF"}}},
		},
	}
	c := orig.Clone()
	c.Platforms.Web.Modes["light"]["base"] = "#000000"

	v, ok := orig.Platforms.Web.Modes.Lookup("light", "base")
	require.True(t, ok)
	assert.Equal(t, "#FFFFFF", v)
}

func TestPrimaryReference(t *testing.T) {
	tok := &tokens.SemanticToken{PrimitiveReferences: map[string]string{"vertical": "space050", "horizontal": "space100"}}
	role, name, ok := tok.PrimaryReference()
	require.True(t, ok)
	assert.Equal(t, "horizontal", role)
	assert.Equal(t, "space100", name)

	tok.PrimitiveReferences[tokens.RoleDefault] = "space200"
	_, name, _ = tok.PrimaryReference()
	assert.Equal(t, "space200", name)
}
