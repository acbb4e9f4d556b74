package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/validate"
)

func TestCompositionPatternValidator_Semantic(t *testing.T) {
	f := newFixture(t)
	v := validate.NewCompositionPatternValidator(f.semantics)

	tok, ok := f.semantics.Get("space.inset.comfortable")
	require.True(t, ok)

	res := v.ValidateTokenUsage(tok, validate.UsageContext{UsageContext: "card", PropertyType: "padding"}, validate.DefaultCompositionOptions())
	assert.Equal(t, tokens.LevelPass, res.Level)
	assert.Contains(t, res.Message, "follows best practices")
	assert.Contains(t, res.Rationale, `"card"`)
	assert.Contains(t, res.Rationale, `"padding"`)
	assert.Contains(t, res.MathematicalReasoning, "mathematical consistency")
}

func TestCompositionPatternValidator_Primitive(t *testing.T) {
	f := newFixture(t)
	v := validate.NewCompositionPatternValidator(f.semantics)

	space100, _ := f.primitives.Get("space100")
	space300, _ := f.primitives.Get("space300")
	button := validate.UsageContext{UsageContext: "button", PropertyType: "padding"}

	tests := []struct {
		name            string
		token           *tokens.PrimitiveToken
		opts            validate.CompositionOptions
		want            tokens.Level
		wantMessage     string
		wantSuggestions []string
	}{
		{
			name:            "semantic alternative exists",
			token:           space100,
			opts:            validate.DefaultCompositionOptions(),
			want:            tokens.LevelWarning,
			wantMessage:     "Consider using semantic token",
			wantSuggestions: []string{"Use semantic token(s): space.button.padding, space.grouped.normal"},
		},
		{
			name:        "semantic alternative exists without suggestions",
			token:       space100,
			opts:        validate.CompositionOptions{EnforceSemanticFirst: true, AllowPrimitiveFallback: true},
			want:        tokens.LevelWarning,
			wantMessage: "Consider using semantic token",
		},
		{
			name:        "semantic first not enforced",
			token:       space100,
			opts:        validate.CompositionOptions{AllowPrimitiveFallback: true},
			want:        tokens.LevelPass,
			wantMessage: "accepted",
		},
		{
			name:        "no semantic alternative",
			token:       space300,
			opts:        validate.DefaultCompositionOptions(),
			want:        tokens.LevelPass,
			wantMessage: "acceptable",
		},
		{
			name:        "no semantic alternative and fallback disabled",
			token:       space300,
			opts:        validate.CompositionOptions{EnforceSemanticFirst: true},
			want:        tokens.LevelError,
			wantMessage: "not allowed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateTokenUsage(tt.token, button, tt.opts)
			assert.Equal(t, tt.want, res.Level)
			assert.Contains(t, res.Message, tt.wantMessage)
			if tt.wantSuggestions != nil {
				assert.Equal(t, tt.wantSuggestions, res.Suggestions)
			}
		})
	}
}

func TestCompositionPatternValidator_FallbackWording(t *testing.T) {
	f := newFixture(t)
	v := validate.NewCompositionPatternValidator(f.semantics)
	space300, _ := f.primitives.Get("space300")

	res := v.ValidateTokenUsage(space300, validate.UsageContext{UsageContext: "hero", PropertyType: "margin"}, validate.DefaultCompositionOptions())
	assert.Contains(t, res.Message, "no semantic alternative")
	assert.Contains(t, res.MathematicalReasoning, "acceptable")
}

func TestCompositionStats(t *testing.T) {
	f := newFixture(t)
	v := validate.NewCompositionPatternValidator(f.semantics)

	grouped, _ := f.semantics.Get("space.grouped.normal")
	primary, _ := f.semantics.Get("color.primary")
	space100, _ := f.primitives.Get("space100")
	component := &tokens.ComponentToken{Name: "button.padding.dense", Component: "button", BaseValue: 14, Reasoning: "dense layout"}

	results := v.ValidateComposition([]validate.Usage{
		{Token: grouped, Context: validate.UsageContext{UsageContext: "list", PropertyType: "gap"}},
		{Token: primary, Context: validate.UsageContext{UsageContext: "button", PropertyType: "background"}},
		{Token: space100, Context: validate.UsageContext{UsageContext: "button", PropertyType: "padding"}},
		{Token: component, Context: validate.UsageContext{UsageContext: "button", PropertyType: "padding"}},
	}, validate.DefaultCompositionOptions())
	require.Len(t, results, 4)
	assert.Equal(t, tokens.KindPrimitive, results[2].Kind)

	stats := validate.GetCompositionStats(results)
	assert.Equal(t, validate.CompositionStats{
		Total:                   4,
		SemanticUsage:           2,
		PrimitiveUsage:          1,
		ComponentUsage:          1,
		Pass:                    3,
		Warning:                 1,
		SemanticFirstPercentage: 50,
	}, stats)

	assert.Zero(t, validate.GetCompositionStats(nil).SemanticFirstPercentage)
}

func TestCategoryForProperty(t *testing.T) {
	tests := []struct {
		property string
		want     tokens.Category
		ok       bool
	}{
		{property: "padding", want: tokens.CategorySpacing, ok: true},
		{property: "background-color", want: tokens.CategoryColor, ok: true},
		{property: "fontSize", want: tokens.CategoryTypography, ok: true},
		{property: "border_radius", want: tokens.CategoryRadius, ok: true},
		{property: "shadow", want: tokens.CategoryElevation, ok: true},
		{property: "z-index", ok: false},
	}

	for _, tt := range tests {
		got, ok := validate.CategoryForProperty(tt.property)
		assert.Equal(t, tt.ok, ok, tt.property)
		assert.Equal(t, tt.want, got, tt.property)
	}
}

func TestSuggestSemanticToken(t *testing.T) {
	f := newFixture(t)
	v := validate.NewCompositionPatternValidator(f.semantics)

	assert.Equal(t,
		[]string{"space.button.padding", "space.grouped.normal", "space.inset.comfortable"},
		v.SuggestSemanticToken(validate.UsageContext{PropertyType: "gap"}))
	assert.Nil(t, v.SuggestSemanticToken(validate.UsageContext{PropertyType: "z-index"}))
}
