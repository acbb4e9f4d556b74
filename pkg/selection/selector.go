// Package selection picks the token that satisfies a design requirement, trying
// semantic tokens first, then primitives, and minting a component token last.
package selection

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/validate"
)

// Tier names the level of the token hierarchy that satisfied a request.
type Tier string

const (
	TierSemantic  Tier = "semantic"
	TierPrimitive Tier = "primitive"
	TierComponent Tier = "component"
)

// ComponentSpec describes a component token to mint when nothing else fits.
type ComponentSpec struct {
	Name      string          `json:"name" yaml:"name"`
	Component string          `json:"component" yaml:"component"`
	Category  tokens.Category `json:"category,omitempty" yaml:"category,omitempty"`
	BaseValue float64         `json:"baseValue" yaml:"baseValue"`
	Reasoning string          `json:"reasoning" yaml:"reasoning"`
}

// Request is one token requirement. Category may be left empty when Property maps
// to one.
type Request struct {
	Property  string          `json:"property,omitempty"`
	Category  tokens.Category `json:"category,omitempty"`
	Context   string          `json:"context,omitempty"`
	TokenName string          `json:"tokenName,omitempty"`
	Value     *float64        `json:"value,omitempty"`
	Component *ComponentSpec  `json:"component,omitempty"`
}

// Selection is the outcome of a request. Exactly one of Semantic, Primitive and
// Component is set.
type Selection struct {
	Requested                    Request                `json:"requested"`
	Priority                     Tier                   `json:"priority"`
	Semantic                     *tokens.SemanticToken  `json:"semantic,omitempty"`
	Primitive                    *tokens.PrimitiveToken `json:"primitive,omitempty"`
	Component                    *tokens.ComponentToken `json:"component,omitempty"`
	SemanticInsufficiencyReason  string                 `json:"semanticInsufficiencyReason,omitempty"`
	PrimitiveInsufficiencyReason string                 `json:"primitiveInsufficiencyReason,omitempty"`
	MathematicallyValid          bool                   `json:"mathematicallyValid"`
}

type state int

const (
	stateTrySemantic state = iota
	stateTryPrimitive
	stateGenerateComponent
	stateDone
)

func (s state) String() string {
	switch s {
	case stateTrySemantic:
		return "TrySemantic"
	case stateTryPrimitive:
		return "TryPrimitive"
	case stateGenerateComponent:
		return "GenerateComponent"
	}
	return "Done"
}

// Selector runs the fixed semantic → primitive → component chain.
type Selector struct {
	primitives  registry.PrimitiveStore
	semantics   registry.SemanticStore
	components  *registry.ComponentRegistry
	converter   *convert.Converter
	consistency *validate.CrossPlatformConsistencyValidator
}

func NewSelector(primitives registry.PrimitiveStore, semantics registry.SemanticStore, components *registry.ComponentRegistry, converter *convert.Converter) *Selector {
	return &Selector{
		primitives:  primitives,
		semantics:   semantics,
		components:  components,
		converter:   converter,
		consistency: validate.NewCrossPlatformConsistencyValidator(converter),
	}
}

// Select walks the chain and stops at the first tier that succeeds. When neither
// lookup tier matches and the request carries no component spec the error wraps
// tokens.ErrNoTokenAvailable.
func (s *Selector) Select(ctx context.Context, req Request) (*Selection, error) {
	logger := zerolog.Ctx(ctx).With().Str("property", req.Property).Str("category", string(req.Category)).Logger()

	sel := &Selection{Requested: req}
	st := stateTrySemantic
	for st != stateDone {
		logger.Trace().Stringer("state", st).Msg("token selection")
		switch st {
		case stateTrySemantic:
			tok, reason := s.trySemantic(req)
			if tok != nil {
				sel.Priority, sel.Semantic = TierSemantic, tok
				st = stateDone
				continue
			}
			sel.SemanticInsufficiencyReason = reason
			st = stateTryPrimitive
		case stateTryPrimitive:
			tok, reason := s.tryPrimitive(req)
			if tok != nil {
				sel.Priority, sel.Primitive = TierPrimitive, tok
				st = stateDone
				continue
			}
			sel.PrimitiveInsufficiencyReason = reason
			st = stateGenerateComponent
		case stateGenerateComponent:
			if req.Component == nil {
				return nil, errors.Errorf("%w: semantic: %s; primitive: %s", tokens.ErrNoTokenAvailable,
					sel.SemanticInsufficiencyReason, sel.PrimitiveInsufficiencyReason)
			}
			spec := *req.Component
			if spec.Category == "" {
				spec.Category = requestCategory(req)
			}
			tok, err := s.GenerateComponentToken(ctx, spec)
			if err != nil {
				return nil, errors.Errorf("generating component token: %w", err)
			}
			sel.Priority, sel.Component = TierComponent, tok
			st = stateDone
		}
	}

	sel.MathematicallyValid = s.mathematicallyValid(sel)
	logger.Debug().Str("priority", string(sel.Priority)).Bool("mathematically_valid", sel.MathematicallyValid).Msg("token selected")
	return sel, nil
}

func requestCategory(req Request) tokens.Category {
	if req.Category != "" {
		return req.Category
	}
	if c, ok := validate.CategoryForProperty(req.Property); ok {
		return c
	}
	return ""
}

func (s *Selector) trySemantic(req Request) (*tokens.SemanticToken, string) {
	if req.TokenName != "" {
		if t, ok := s.semantics.Get(req.TokenName); ok {
			return t, ""
		}
		return nil, fmt.Sprintf("requested token %s is not a registered semantic token", req.TokenName)
	}

	cat := requestCategory(req)
	if cat == "" {
		return nil, fmt.Sprintf("property %q does not map to a semantic category", req.Property)
	}

	candidates := s.semantics.Query(registry.SemanticQuery{Category: cat})
	if len(candidates) == 0 {
		return nil, fmt.Sprintf("no semantic tokens exist in category %s", cat)
	}

	if req.Value != nil {
		var matching []*tokens.SemanticToken
		for _, c := range candidates {
			if v, ok := s.semanticValue(c); ok && v == *req.Value {
				matching = append(matching, c)
			}
		}
		if len(matching) == 0 {
			return nil, fmt.Sprintf("no semantic token in category %s resolves to %s", cat, tokens.FormatNumber(*req.Value))
		}
		candidates = matching
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := contextScore(candidates[i], req.Context), contextScore(candidates[j], req.Context)
		if a != b {
			return a > b
		}
		return candidates[i].Name < candidates[j].Name
	})
	if req.Context != "" && contextScore(candidates[0], req.Context) == 0 {
		return nil, fmt.Sprintf("no semantic token in category %s matches context %q", cat, req.Context)
	}
	return candidates[0], ""
}

func contextScore(t *tokens.SemanticToken, usage string) int {
	if usage == "" {
		return 0
	}
	c := strings.ToLower(usage)
	score := 0
	if strings.Contains(strings.ToLower(t.Name), c) {
		score += 2
	}
	if strings.Contains(strings.ToLower(t.Context), c) {
		score++
	}
	return score
}

func (s *Selector) semanticValue(t *tokens.SemanticToken) (float64, bool) {
	_, ref, ok := t.PrimaryReference()
	if !ok {
		return 0, false
	}
	p, ok := s.primitives.Get(ref)
	if !ok {
		return 0, false
	}
	return p.BaseValue, true
}

// primitiveCategory maps semantic-only families onto the primitive family that
// carries their size.
func primitiveCategory(c tokens.Category) tokens.Category {
	switch c {
	case tokens.CategoryTypography:
		return tokens.CategoryFontSize
	case tokens.CategoryBorder:
		return tokens.CategoryBorderWidth
	}
	return c
}

func (s *Selector) tryPrimitive(req Request) (*tokens.PrimitiveToken, string) {
	if req.TokenName != "" {
		if t, ok := s.primitives.Get(req.TokenName); ok {
			return t, ""
		}
		return nil, fmt.Sprintf("requested token %s is not a registered primitive token", req.TokenName)
	}

	cat := primitiveCategory(requestCategory(req))
	if cat == "" {
		return nil, fmt.Sprintf("property %q does not map to a primitive category", req.Property)
	}
	if req.Value == nil {
		return nil, fmt.Sprintf("no value requested to match against %s primitives", cat)
	}

	candidates := s.primitives.Query(registry.PrimitiveQuery{Category: cat, SortBy: registry.SortByValue})
	for _, c := range candidates {
		if c.BaseValue == *req.Value {
			return c, ""
		}
	}

	if len(candidates) == 0 {
		return nil, fmt.Sprintf("no primitive tokens exist in category %s", cat)
	}
	nearest := nearestPrimitive(candidates, *req.Value)
	return nil, fmt.Sprintf("no %s primitive has value %s (nearest: %s = %s)",
		cat, tokens.FormatNumber(*req.Value), nearest.Name, tokens.FormatNumber(nearest.BaseValue))
}

func nearestPrimitive(ps []*tokens.PrimitiveToken, v float64) *tokens.PrimitiveToken {
	best := ps[0]
	for _, p := range ps[1:] {
		if math.Abs(p.BaseValue-v) < math.Abs(best.BaseValue-v) {
			best = p
		}
	}
	return best
}

// GenerateComponentToken mints and stores a component token. Name, component and
// reasoning are required.
func (s *Selector) GenerateComponentToken(ctx context.Context, spec ComponentSpec) (*tokens.ComponentToken, error) {
	var missing []string
	if strings.TrimSpace(spec.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(spec.Component) == "" {
		missing = append(missing, "component")
	}
	if strings.TrimSpace(spec.Reasoning) == "" {
		missing = append(missing, "reasoning")
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("%w: missing %s", tokens.ErrInvalidComponentSpec, strings.Join(missing, ", "))
	}

	tok := &tokens.ComponentToken{
		Name:      spec.Name,
		Component: spec.Component,
		Category:  spec.Category,
		BaseValue: spec.BaseValue,
		Reasoning: spec.Reasoning,
		Platforms: s.converter.ToAllPlatforms(spec.BaseValue, spec.Name, spec.Category).Platforms(),
	}
	if cat := primitiveCategory(spec.Category); cat != "" {
		if ps := s.primitives.Query(registry.PrimitiveQuery{Category: cat}); len(ps) > 0 {
			tok.CreatedFrom = nearestPrimitive(ps, spec.BaseValue).Name
		}
	}

	if err := s.components.Register(tok, registry.RegisterOptions{}); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Str("token", tok.Name).Str("component", tok.Component).Msg("component token generated")
	return tok, nil
}

func (s *Selector) mathematicallyValid(sel *Selection) bool {
	switch sel.Priority {
	case TierSemantic:
		for _, ref := range sel.Semantic.PrimitiveReferences {
			p, ok := s.primitives.Get(ref)
			if !ok {
				return false
			}
			if !p.Platforms.IsZero() && !s.consistency.Validate(p, validate.ConsistencyOptions{}).Consistent {
				return false
			}
		}
		return len(sel.Semantic.PrimitiveReferences) > 0
	case TierPrimitive:
		return sel.Primitive.Platforms.IsZero() || s.consistency.Validate(sel.Primitive, validate.ConsistencyOptions{}).Consistent
	case TierComponent:
		return s.converter.Consistent(sel.Component.Platforms, convert.IsTypographyRelated(sel.Component.Name, sel.Component.Category))
	}
	return false
}

// ValidateTokenSelection checks that a selection populates exactly one tier and
// documents why every skipped tier was insufficient.
func ValidateTokenSelection(sel *Selection) tokens.ValidationResult {
	if sel == nil {
		return tokens.Error("",
			"Token selection is missing",
			"No selection was provided",
			"A selection resolves to a single token",
			"Run selection before validating it")
	}
	name := selectedName(sel)

	populated := 0
	for _, set := range []bool{sel.Semantic != nil, sel.Primitive != nil, sel.Component != nil} {
		if set {
			populated++
		}
	}
	if populated != 1 {
		return tokens.Error(name,
			"Token selection must populate exactly one tier",
			fmt.Sprintf("%d tiers are populated", populated),
			"A selection resolves to a single token",
			"Re-run selection")
	}

	var tierSet bool
	switch sel.Priority {
	case TierSemantic:
		tierSet = sel.Semantic != nil
	case TierPrimitive:
		tierSet = sel.Primitive != nil
	case TierComponent:
		tierSet = sel.Component != nil
	}
	if !tierSet {
		return tokens.Error(name,
			"Token selection priority does not match the populated tier",
			fmt.Sprintf("Priority is %q", sel.Priority),
			"Priority must name the tier that satisfied the request")
	}

	if sel.Priority != TierSemantic && strings.TrimSpace(sel.SemanticInsufficiencyReason) == "" {
		return tokens.Error(name,
			fmt.Sprintf("%s token selected without semantic insufficiency reasoning", sel.Priority),
			"Lower tiers may only be used when the semantic tier is documented as insufficient",
			"Selection without documented justification is itself a defect",
			"Record why no semantic token satisfies the request")
	}
	if sel.Priority == TierComponent && strings.TrimSpace(sel.PrimitiveInsufficiencyReason) == "" {
		return tokens.Error(name,
			"Component token selected without primitive insufficiency reasoning",
			"Component tokens may only be minted when the primitive tier is documented as insufficient",
			"Selection without documented justification is itself a defect",
			"Record why no primitive token satisfies the request")
	}

	if !sel.MathematicallyValid {
		return tokens.Warning(name,
			"Token selection is not mathematically consistent across platforms",
			fmt.Sprintf("%s tier selection failed the cross-platform consistency check", sel.Priority),
			"Platform values of the selected token do not agree",
			"Regenerate platform values from the base value")
	}

	rationale := fmt.Sprintf("Selected %s token %s", sel.Priority, name)
	if sel.SemanticInsufficiencyReason != "" {
		rationale += "; semantic insufficient: " + sel.SemanticInsufficiencyReason
	}
	if sel.PrimitiveInsufficiencyReason != "" {
		rationale += "; primitive insufficient: " + sel.PrimitiveInsufficiencyReason
	}
	return tokens.Pass(name,
		"Token selection follows priority order",
		rationale,
		"Selected token maintains mathematical consistency across platforms")
}

func selectedName(sel *Selection) string {
	switch {
	case sel.Semantic != nil:
		return sel.Semantic.Name
	case sel.Primitive != nil:
		return sel.Primitive.Name
	case sel.Component != nil:
		return sel.Component.Name
	}
	return sel.Requested.TokenName
}
