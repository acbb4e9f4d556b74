package validate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

type fixture struct {
	conv       *convert.Converter
	primitives *registry.PrimitiveRegistry
	semantics  *registry.SemanticRegistry
}

func primitive(conv *convert.Converter, name string, cat tokens.Category, v float64) *tokens.PrimitiveToken {
	t := &tokens.PrimitiveToken{
		Name:                   name,
		Category:               cat,
		BaseValue:              v,
		FamilyBaseValue:        8,
		BaselineGridAlignment:  cat.RequiresGridAlignment() && tokens.IsGridAligned(v, 8),
		IsStrategicFlexibility: cat.RequiresGridAlignment() && tokens.IsStrategicFlexibilityValue(v),
	}
	if cat == tokens.CategoryFontSize {
		t.FamilyBaseValue = 16
	}
	t.Platforms = conv.Project(t)
	return t
}

func colorPrimitive(name string, modes tokens.ModeValues) *tokens.PrimitiveToken {
	v := tokens.PlatformValue{Unit: tokens.UnitHex, Modes: modes}
	return &tokens.PrimitiveToken{
		Name:      name,
		Category:  tokens.CategoryColor,
		Platforms: tokens.PlatformValues{IOS: v, Android: v, Web: v},
	}
}

func semantic(name string, cat tokens.Category, refs map[string]string) *tokens.SemanticToken {
	return &tokens.SemanticToken{
		Name:                name,
		Category:            cat,
		PrimitiveReferences: refs,
		Description:         "documented " + name,
		Context:             "used for " + name,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{conv: convert.New(), primitives: registry.NewPrimitiveRegistry()}
	f.semantics = registry.NewSemanticRegistry(f.primitives)

	for _, p := range []*tokens.PrimitiveToken{
		primitive(f.conv, "space075", tokens.CategorySpacing, 6),
		primitive(f.conv, "space100", tokens.CategorySpacing, 8),
		primitive(f.conv, "space200", tokens.CategorySpacing, 16),
		primitive(f.conv, "space300", tokens.CategorySpacing, 24),
		primitive(f.conv, "fontSize100", tokens.CategoryFontSize, 16),
		primitive(f.conv, "lineHeight100", tokens.CategoryLineHeight, 24),
		primitive(f.conv, "fontWeight400", tokens.CategoryFontWeight, 400),
		colorPrimitive("purple300", tokens.ModeValues{"light": {"base": "#A78BFA"}, "dark": {"base": "#C4B5FD"}}),
	} {
		require.NoError(t, f.primitives.Register(p, registry.RegisterOptions{}))
	}

	for _, s := range []*tokens.SemanticToken{
		semantic("space.grouped.normal", tokens.CategorySpacing, map[string]string{"default": "space100"}),
		semantic("space.button.padding", tokens.CategorySpacing, map[string]string{"horizontal": "space100", "vertical": "space075"}),
		semantic("space.inset.comfortable", tokens.CategorySpacing, map[string]string{"default": "space200"}),
		semantic("color.primary", tokens.CategoryColor, map[string]string{"default": "purple300"}),
	} {
		require.NoError(t, f.semantics.Register(s, registry.RegisterOptions{}))
	}
	return f
}
