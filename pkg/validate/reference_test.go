package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/validate"
)

func TestPrimitiveReferenceValidator_Scenario(t *testing.T) {
	prims := registry.NewPrimitiveRegistry()
	require.NoError(t, prims.Register(&tokens.PrimitiveToken{
		Name:      "space100",
		Category:  tokens.CategorySpacing,
		BaseValue: 8,
		Platforms: tokens.PlatformValues{
			Web:     tokens.PlatformValue{Value: 8, Unit: tokens.UnitPx},
			IOS:     tokens.PlatformValue{Value: 8, Unit: tokens.UnitPt},
			Android: tokens.PlatformValue{Value: 8, Unit: tokens.UnitDp},
		},
	}, registry.RegisterOptions{}))
	sems := registry.NewSemanticRegistry(prims)
	v := validate.NewPrimitiveReferenceValidator(prims, nil)

	grouped := &tokens.SemanticToken{Name: "space.grouped.normal", Category: tokens.CategorySpacing, PrimitiveReferences: map[string]string{"default": "space100"}}
	require.NoError(t, sems.Register(grouped, registry.RegisterOptions{}))
	assert.Equal(t, tokens.LevelPass, v.Validate(grouped, validate.DefaultReferenceOptions()).Level)

	broken := &tokens.SemanticToken{Name: "space.broken", Category: tokens.CategorySpacing, PrimitiveReferences: map[string]string{"default": "doesNotExist"}}
	require.NoError(t, sems.Register(broken, registry.RegisterOptions{}))
	res := v.Validate(broken, validate.DefaultReferenceOptions())
	assert.Equal(t, tokens.LevelError, res.Level)
	assert.Contains(t, res.Message, "doesNotExist")
	assert.Contains(t, res.Message, "non-existent")
}

func TestPrimitiveReferenceValidator(t *testing.T) {
	f := newFixture(t)
	v := validate.NewPrimitiveReferenceValidator(f.primitives, nil)

	tests := []struct {
		name         string
		token        *tokens.SemanticToken
		opts         validate.ReferenceOptions
		want         tokens.Level
		wantContains string
	}{
		{
			name:  "all references resolve",
			token: semantic("space.button.padding", tokens.CategorySpacing, map[string]string{"horizontal": "space100", "vertical": "space075"}),
			opts:  validate.DefaultReferenceOptions(),
			want:  tokens.LevelPass,
		},
		{
			name:  "empty references rejected",
			token: semantic("space.empty", tokens.CategorySpacing, map[string]string{}),
			opts:  validate.DefaultReferenceOptions(),
			want:  tokens.LevelError,
		},
		{
			name:  "empty references allowed",
			token: semantic("space.empty", tokens.CategorySpacing, nil),
			opts:  validate.ReferenceOptions{AllowEmptyReferences: true, StrictValidation: true},
			want:  tokens.LevelWarning,
		},
		{
			name:         "raw px value",
			token:        semantic("space.raw", tokens.CategorySpacing, map[string]string{"default": "8px"}),
			opts:         validate.DefaultReferenceOptions(),
			want:         tokens.LevelError,
			wantContains: "raw values",
		},
		{
			name:         "raw hex value",
			token:        semantic("color.raw", tokens.CategoryColor, map[string]string{"default": "#FF00FF"}),
			opts:         validate.DefaultReferenceOptions(),
			want:         tokens.LevelError,
			wantContains: "#FF00FF",
		},
		{
			name:         "raw typography sub role uses role category",
			token:        semantic("typography.body", tokens.CategoryTypography, map[string]string{"fontSize": "fontSize100", "fontWeight": "bold"}),
			opts:         validate.DefaultReferenceOptions(),
			want:         tokens.LevelError,
			wantContains: "fontWeight 'bold'",
		},
		{
			name:         "malformed name in strict mode is raw",
			token:        semantic("space.odd", tokens.CategorySpacing, map[string]string{"default": "space 100"}),
			opts:         validate.DefaultReferenceOptions(),
			want:         tokens.LevelError,
			wantContains: "raw values",
		},
		{
			name:         "malformed name in lenient mode is unresolved",
			token:        semantic("space.odd", tokens.CategorySpacing, map[string]string{"default": "space 100"}),
			opts:         validate.ReferenceOptions{},
			want:         tokens.LevelError,
			wantContains: "non-existent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Validate(tt.token, tt.opts)
			assert.Equal(t, tt.want, res.Level, res.Message)
			assert.NotEmpty(t, res.Rationale)
			if tt.wantContains != "" {
				assert.Contains(t, res.Message, tt.wantContains)
			}
		})
	}
}

func TestPrimitiveReferenceValidator_ReferenceIntegrity(t *testing.T) {
	f := newFixture(t)
	v := validate.NewPrimitiveReferenceValidator(f.primitives, nil)

	for _, s := range f.semantics.Query(registry.SemanticQuery{}) {
		assert.NotEqual(t, tokens.LevelError, v.Validate(s, validate.DefaultReferenceOptions()).Level, s.Name)
	}
}
