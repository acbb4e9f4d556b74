package selection

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

// PlatformToken is a token flattened to the value one platform consumes.
type PlatformToken struct {
	Name     string               `json:"name"`
	Kind     tokens.Kind          `json:"kind"`
	Category tokens.Category      `json:"category"`
	Platform tokens.Platform      `json:"platform"`
	Value    tokens.PlatformValue `json:"value"`
	// References holds the role → primitive mapping for semantic tokens.
	References map[string]string `json:"references,omitempty"`
}

// ConsistencyReport is the result of ValidateMathematicalConsistency.
type ConsistencyReport struct {
	Token      string                `json:"token"`
	Consistent bool                  `json:"consistent"`
	Platforms  tokens.PlatformValues `json:"platforms"`
	Issues     []string              `json:"issues,omitempty"`
}

// Integrator is the surface the platform build layer consumes.
type Integrator struct {
	primitives *registry.PrimitiveRegistry
	semantics  *registry.SemanticRegistry
	components *registry.ComponentRegistry
	converter  *convert.Converter
	selector   *Selector
}

func NewIntegrator(primitives *registry.PrimitiveRegistry, semantics *registry.SemanticRegistry, components *registry.ComponentRegistry, converter *convert.Converter) *Integrator {
	return &Integrator{
		primitives: primitives,
		semantics:  semantics,
		components: components,
		converter:  converter,
		selector:   NewSelector(primitives, semantics, components, converter),
	}
}

// GetTokensForPlatform flattens every registered token for p: primitives by
// name, then semantics, then component tokens.
func (i *Integrator) GetTokensForPlatform(ctx context.Context, p tokens.Platform) ([]PlatformToken, error) {
	if _, err := tokens.ParsePlatform(string(p)); err != nil {
		return nil, err
	}

	var out []PlatformToken
	for _, t := range i.primitives.Query(registry.PrimitiveQuery{}) {
		pt, err := i.ConvertToken(t, p)
		if err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	for _, t := range i.semantics.Query(registry.SemanticQuery{}) {
		pt, err := i.ConvertToken(t, p)
		if err != nil {
			return nil, errors.Errorf("flattening %s: %w", t.Name, err)
		}
		out = append(out, pt)
	}
	for _, t := range i.components.All() {
		pt, err := i.ConvertToken(t, p)
		if err != nil {
			return nil, err
		}
		out = append(out, pt)
	}

	zerolog.Ctx(ctx).Debug().Str("platform", string(p)).Int("tokens", len(out)).Msg("tokens flattened for platform")
	return out, nil
}

// ConvertToken returns the value of token on p. Declared platform values win
// over the converter projection. A semantic token resolves through its primary
// reference and fails with *tokens.UnresolvedReferenceError when the primitive
// is missing.
func (i *Integrator) ConvertToken(token tokens.Token, p tokens.Platform) (PlatformToken, error) {
	if _, err := tokens.ParsePlatform(string(p)); err != nil {
		return PlatformToken{}, err
	}

	switch t := token.(type) {
	case *tokens.PrimitiveToken:
		return PlatformToken{Name: t.Name, Kind: tokens.KindPrimitive, Category: t.Category, Platform: p, Value: i.primitiveValue(t, p)}, nil
	case *tokens.SemanticToken:
		role, ref, ok := t.PrimaryReference()
		if !ok {
			return PlatformToken{}, errors.Errorf("semantic token %s has no primitive references", t.Name)
		}
		prim, ok := i.primitives.Get(ref)
		if !ok {
			return PlatformToken{}, errors.WithStack(&tokens.UnresolvedReferenceError{Token: t.Name, Role: role, Reference: ref})
		}
		return PlatformToken{Name: t.Name, Kind: tokens.KindSemantic, Category: t.Category, Platform: p, Value: i.primitiveValue(prim, p), References: t.PrimitiveReferences}, nil
	case *tokens.ComponentToken:
		v, ok := t.Platforms.Get(p)
		if !ok || isEmpty(v) {
			var err error
			if v, err = i.converter.ToPlatform(t.BaseValue, t.Name, t.Category, p); err != nil {
				return PlatformToken{}, err
			}
		}
		return PlatformToken{Name: t.Name, Kind: tokens.KindComponent, Category: t.Category, Platform: p, Value: v}, nil
	}
	return PlatformToken{}, errors.Errorf("unsupported token type %T", token)
}

func (i *Integrator) primitiveValue(t *tokens.PrimitiveToken, p tokens.Platform) tokens.PlatformValue {
	if v, ok := t.Platforms.Get(p); ok && !isEmpty(v) {
		return v
	}
	projected, _ := i.converter.Project(t).Get(p)
	return projected
}

func isEmpty(v tokens.PlatformValue) bool {
	return v.Unit == "" && v.Value == 0 && v.Text == "" && len(v.Modes) == 0
}

// SelectToken runs the priority chain for req.
func (i *Integrator) SelectToken(ctx context.Context, req Request) (*Selection, error) {
	return i.selector.Select(ctx, req)
}

// GenerateComponentToken mints a component token directly, bypassing lookup.
func (i *Integrator) GenerateComponentToken(ctx context.Context, spec ComponentSpec) (*tokens.ComponentToken, error) {
	return i.selector.GenerateComponentToken(ctx, spec)
}

// ValidateMathematicalConsistency converts the token's base value to every
// platform and checks the results agree. Typography compares through the rem
// scale; everything else requires exact equality.
func (i *Integrator) ValidateMathematicalConsistency(token tokens.Token) (ConsistencyReport, error) {
	var (
		base     float64
		name     string
		category tokens.Category
	)
	switch t := token.(type) {
	case *tokens.PrimitiveToken:
		base, name, category = t.BaseValue, t.Name, t.Category
	case *tokens.SemanticToken:
		if len(t.PrimitiveReferences) == 0 {
			return ConsistencyReport{}, errors.Errorf("semantic token %s has no primitive references", t.Name)
		}
		report := ConsistencyReport{Token: t.Name, Consistent: true}
		for _, role := range tokens.SortedRoles(t.PrimitiveReferences) {
			ref := t.PrimitiveReferences[role]
			prim, ok := i.primitives.Get(ref)
			if !ok {
				return ConsistencyReport{}, errors.WithStack(&tokens.UnresolvedReferenceError{Token: t.Name, Role: role, Reference: ref})
			}
			sub, err := i.ValidateMathematicalConsistency(prim)
			if err != nil {
				return ConsistencyReport{}, err
			}
			if role == tokens.RoleDefault || report.Platforms.IsZero() {
				report.Platforms = sub.Platforms
			}
			if !sub.Consistent {
				report.Consistent = false
				for _, issue := range sub.Issues {
					report.Issues = append(report.Issues, fmt.Sprintf("%s (%s): %s", role, ref, issue))
				}
			}
		}
		return report, nil
	case *tokens.ComponentToken:
		base, name, category = t.BaseValue, t.Name, t.Category
	default:
		return ConsistencyReport{}, errors.Errorf("unsupported token type %T", token)
	}

	if p, ok := token.(*tokens.PrimitiveToken); ok && !convert.IsUnitless(category) && !p.Platforms.Web.IsNumeric() && !p.Platforms.IsZero() {
		// Strings and modes have no numeric projection to check.
		return ConsistencyReport{Token: name, Consistent: true, Platforms: p.Platforms}, nil
	}

	conv := i.converter.ToAllPlatforms(base, name, category)
	report := ConsistencyReport{Token: name, Consistent: true, Platforms: conv.Platforms()}

	ios, android, web := conv.IOS.Value, conv.Android.Value, conv.Web.Value
	if conv.Web.Unit == tokens.UnitRem {
		web *= i.converter.WebBaseFontSize()
	}
	if ios != android {
		report.Issues = append(report.Issues, fmt.Sprintf("ios (%s) and android (%s) differ", tokens.FormatNumber(ios), tokens.FormatNumber(android)))
	}
	if !conv.MathematicallyConsistent && ios != web {
		report.Issues = append(report.Issues, fmt.Sprintf("ios (%s) and web (%spx) differ beyond %s", tokens.FormatNumber(ios), tokens.FormatNumber(web), tokens.FormatNumber(i.converter.Tolerance())))
	}
	report.Consistent = conv.MathematicallyConsistent
	return report, nil
}
