package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/selection"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

func (f *fixture) integrator() *selection.Integrator {
	return selection.NewIntegrator(f.primitives, f.semantics, f.components, f.conv)
}

func TestIntegrator_GetTokensForPlatform(t *testing.T) {
	f := newFixture(t)
	ctx := testContext(t)
	in := f.integrator()

	_, err := in.GenerateComponentToken(ctx, selection.ComponentSpec{Name: "button.padding.dense", Component: "button", Category: tokens.CategorySpacing, BaseValue: 14, Reasoning: "dense"})
	require.NoError(t, err)

	got, err := in.GetTokensForPlatform(ctx, tokens.PlatformWeb)
	require.NoError(t, err)
	require.Len(t, got, 5+3+1)

	byName := map[string]selection.PlatformToken{}
	for _, pt := range got {
		byName[pt.Name] = pt
	}

	assert.Equal(t, tokens.PlatformValue{Value: 8, Unit: tokens.UnitPx}, byName["space.grouped.normal"].Value)
	assert.Equal(t, tokens.KindSemantic, byName["space.grouped.normal"].Kind)
	assert.Equal(t, tokens.PlatformValue{Value: 1, Unit: tokens.UnitRem}, byName["fontSize100"].Value)
	assert.Equal(t, tokens.PlatformValue{Value: 14, Unit: tokens.UnitPx}, byName["button.padding.dense"].Value)
	assert.Equal(t, "fontSize100", got[0].Name)
	assert.Equal(t, "button.padding.dense", got[len(got)-1].Name)

	_, err = in.GetTokensForPlatform(ctx, tokens.Platform("windows"))
	var unsupported *tokens.UnsupportedPlatformError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "windows", unsupported.Platform)
}

func TestIntegrator_ConvertToken(t *testing.T) {
	f := newFixture(t)
	in := f.integrator()

	grouped, ok := f.semantics.Get("space.grouped.normal")
	require.True(t, ok)

	pt, err := in.ConvertToken(grouped, tokens.PlatformAndroid)
	require.NoError(t, err)
	assert.Equal(t, tokens.PlatformValue{Value: 8, Unit: tokens.UnitDp}, pt.Value)
	assert.Equal(t, map[string]string{"default": "space100"}, pt.References)

	// Storage never checks references, so conversion is where a dangling one surfaces.
	require.NoError(t, f.semantics.Register(semantic("space.broken", tokens.CategorySpacing, map[string]string{"default": "doesNotExist"}), registry.RegisterOptions{}))
	broken, _ := f.semantics.Get("space.broken")

	_, err = in.ConvertToken(broken, tokens.PlatformIOS)
	var unresolved *tokens.UnresolvedReferenceError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "doesNotExist", unresolved.Reference)

	_, err = in.GetTokensForPlatform(testContext(t), tokens.PlatformIOS)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "space.broken")
}

func TestIntegrator_ConvertTokenProjectsMissingPlatforms(t *testing.T) {
	f := newFixture(t)
	bare := &tokens.PrimitiveToken{Name: "space150", Category: tokens.CategorySpacing, BaseValue: 12}

	pt, err := f.integrator().ConvertToken(bare, tokens.PlatformIOS)
	require.NoError(t, err)
	assert.Equal(t, tokens.PlatformValue{Value: 12, Unit: tokens.UnitPt}, pt.Value)
}

func TestIntegrator_ValidateMathematicalConsistency(t *testing.T) {
	f := newFixture(t)
	in := f.integrator()

	tests := []struct {
		name    string
		token   tokens.Token
		wantOK  bool
		wantWeb tokens.PlatformValue
		wantErr bool
	}{
		{
			name:    "spacing",
			token:   &tokens.PrimitiveToken{Name: "space150", Category: tokens.CategorySpacing, BaseValue: 12},
			wantOK:  true,
			wantWeb: tokens.PlatformValue{Value: 12, Unit: tokens.UnitPx},
		},
		{
			name:    "font size rounds within tolerance",
			token:   &tokens.PrimitiveToken{Name: "fontSize075", Category: tokens.CategoryFontSize, BaseValue: 13},
			wantOK:  true,
			wantWeb: tokens.PlatformValue{Value: 0.81, Unit: tokens.UnitRem},
		},
		{
			name:    "semantic resolves through references",
			token:   semantic("space.button.padding", tokens.CategorySpacing, map[string]string{"horizontal": "space100", "vertical": "space075"}),
			wantOK:  true,
			wantWeb: tokens.PlatformValue{Value: 8, Unit: tokens.UnitPx},
		},
		{
			name:    "semantic with missing primitive",
			token:   semantic("space.broken", tokens.CategorySpacing, map[string]string{"default": "doesNotExist"}),
			wantErr: true,
		},
		{
			name:    "component",
			token:   &tokens.ComponentToken{Name: "button.padding.dense", Category: tokens.CategorySpacing, BaseValue: 14},
			wantOK:  true,
			wantWeb: tokens.PlatformValue{Value: 14, Unit: tokens.UnitPx},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := in.ValidateMathematicalConsistency(tt.token)
			if tt.wantErr {
				var unresolved *tokens.UnresolvedReferenceError
				require.True(t, errors.As(err, &unresolved))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, report.Consistent, report.Issues)
			assert.Equal(t, tt.wantWeb, report.Platforms.Web)
			assert.Equal(t, tt.token.TokenName(), report.Token)
		})
	}
}
