package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

// Policy carries the configurable thresholds of the three tiers.
type Policy struct {
	GridUnit                        float64
	RequireCrossPlatformConsistency bool
	StrictMathematics               bool
	StrategicFlexibilityThreshold   float64
	PrimitiveUsageThreshold         float64
}

func DefaultPolicy() Policy {
	return Policy{
		GridUnit:                        tokens.DefaultBaselineGridUnit,
		RequireCrossPlatformConsistency: true,
		StrictMathematics:               true,
		StrategicFlexibilityThreshold:   0.8,
		PrimitiveUsageThreshold:         0.3,
	}
}

// FlexibilityUsage counts how strategic flexibility tokens are used system wide.
type FlexibilityUsage struct {
	TotalUsage       int `json:"totalUsage"`
	AppropriateUsage int `json:"appropriateUsage"`
}

// FamilyUsage counts primitive against total usage within one category.
type FamilyUsage struct {
	PrimitiveUsage int `json:"primitiveUsage"`
	TotalUsage     int `json:"totalUsage"`
}

// Context is the input to every tier. Only Token is required.
type Context struct {
	Token                   tokens.Token
	Usage                   *UsageContext
	FlexibilityUsage        *FlexibilityUsage
	FamilyUsage             *FamilyUsage
	AvailableSemanticTokens []string
}

var integerCategories = map[tokens.Category]bool{
	tokens.CategorySpacing:    true,
	tokens.CategoryRadius:     true,
	tokens.CategoryFontWeight: true,
	tokens.CategoryTapArea:    true,
}

var dimensionalCategories = map[tokens.Category]bool{
	tokens.CategorySpacing:     true,
	tokens.CategoryFontSize:    true,
	tokens.CategoryRadius:      true,
	tokens.CategoryTapArea:     true,
	tokens.CategoryBorderWidth: true,
}

func isStrategic(t *tokens.PrimitiveToken) bool {
	return t.IsStrategicFlexibility || (t.Category.RequiresGridAlignment() && tokens.IsStrategicFlexibilityValue(t.BaseValue))
}

// ErrorValidator reports violations that make a token unusable.
type ErrorValidator struct {
	policy      Policy
	references  *PrimitiveReferenceValidator
	consistency *CrossPlatformConsistencyValidator
	semantics   registry.SemanticStore
}

func (v *ErrorValidator) Validate(c Context) (tokens.ValidationResult, bool) {
	switch t := c.Token.(type) {
	case *tokens.PrimitiveToken:
		if r, ok := v.grid(t); ok {
			return r, true
		}
		return v.crossPlatform(t)
	case *tokens.SemanticToken:
		return v.semanticReferences(t)
	case *tokens.ComponentToken:
		if strings.TrimSpace(t.Reasoning) == "" {
			return tokens.Error(t.Name,
				"Component token missing reasoning",
				"Component tokens must document why semantic and primitive tokens were insufficient",
				"A component token without justification cannot be audited",
				"Record the insufficiency reasoning when generating the token"), true
		}
	}
	return tokens.ValidationResult{}, false
}

func (v *ErrorValidator) grid(t *tokens.PrimitiveToken) (tokens.ValidationResult, bool) {
	if !t.Category.RequiresGridAlignment() || isStrategic(t) {
		return tokens.ValidationResult{}, false
	}

	unit := v.policy.GridUnit
	aligned := tokens.IsGridAligned(t.BaseValue, unit)
	if !aligned && !t.IsPrecisionTargeted {
		lower, upper := tokens.NearestGridValues(t.BaseValue, unit)
		return tokens.Error(t.Name,
			"Baseline grid alignment violation",
			fmt.Sprintf("Token value %s does not align with %s-unit baseline grid", tokens.FormatNumber(t.BaseValue), tokens.FormatNumber(unit)),
			fmt.Sprintf("%s ÷ %s = %s (non-integer)", tokens.FormatNumber(t.BaseValue), tokens.FormatNumber(unit), tokens.FormatNumber(t.BaseValue/unit)),
			fmt.Sprintf("Use %s or %s for baseline grid alignment", tokens.FormatNumber(lower), tokens.FormatNumber(upper)),
			fmt.Sprintf("Ensure value is multiple of %s", tokens.FormatNumber(unit)),
			"Consider if this should be a strategic flexibility token"), true
	}

	if aligned != t.BaselineGridAlignment {
		return tokens.Error(t.Name,
			"Baseline grid alignment flag inconsistency",
			fmt.Sprintf("Token baselineGridAlignment flag (%t) does not match actual alignment (%t)", t.BaselineGridAlignment, aligned),
			"Baseline grid alignment flag must match actual mathematical alignment",
			fmt.Sprintf("Set baselineGridAlignment to %t", aligned)), true
	}
	return tokens.ValidationResult{}, false
}

func (v *ErrorValidator) crossPlatform(t *tokens.PrimitiveToken) (tokens.ValidationResult, bool) {
	if !v.policy.RequireCrossPlatformConsistency || v.consistency == nil || t.Platforms.IsZero() {
		return tokens.ValidationResult{}, false
	}
	res := v.consistency.Validate(t, ConsistencyOptions{})
	if res.Consistent {
		return tokens.ValidationResult{}, false
	}
	return tokens.Error(t.Name,
		"Cross-platform consistency violation",
		"Mathematical relationships not maintained across platforms: "+strings.Join(res.Issues, ", "),
		fmt.Sprintf("Consistency score %.1f%%; %s", res.Score*100, res.ToleranceReasoning),
		"Review unit conversion for the affected platforms",
		"Regenerate platform values from the base value"), true
}

func (v *ErrorValidator) semanticReferences(t *tokens.SemanticToken) (tokens.ValidationResult, bool) {
	for _, role := range tokens.SortedRoles(t.PrimitiveReferences) {
		ref := t.PrimitiveReferences[role]
		if ref == t.Name {
			return tokens.Error(t.Name,
				"Self-reference violation",
				fmt.Sprintf("Semantic token cannot reference itself (role %s)", role),
				"Semantic tokens must reference primitive tokens, not themselves",
				"Reference a primitive token"), true
		}
		if v.semantics != nil && v.semantics.Has(ref) {
			return tokens.Error(t.Name,
				"Semantic token references semantic token",
				fmt.Sprintf("Role %s references semantic token '%s'; semantic tokens must reference primitives", role, ref),
				"Chained semantic references break the single-level token hierarchy",
				fmt.Sprintf("Reference the primitive behind '%s' directly", ref)), true
		}
	}

	if v.references == nil {
		return tokens.ValidationResult{}, false
	}
	r := v.references.Validate(t, ReferenceOptions{StrictValidation: v.policy.StrictMathematics})
	if r.Level == tokens.LevelError {
		return r, true
	}
	return tokens.ValidationResult{}, false
}

// WarningValidator reports legal but questionable tokens and usage.
type WarningValidator struct {
	policy      Policy
	composition *CompositionPatternValidator
}

func (v *WarningValidator) Validate(c Context) (tokens.ValidationResult, bool) {
	switch t := c.Token.(type) {
	case *tokens.PrimitiveToken:
		checks := []func() (tokens.ValidationResult, bool){
			func() (tokens.ValidationResult, bool) { return v.precisionTargeted(t) },
			func() (tokens.ValidationResult, bool) { return v.edgeCases(t) },
			func() (tokens.ValidationResult, bool) { return v.flexibilityOveruse(t, c.FlexibilityUsage) },
			func() (tokens.ValidationResult, bool) { return v.primitiveOveruse(t, c.FamilyUsage, c.AvailableSemanticTokens) },
			func() (tokens.ValidationResult, bool) { return v.usage(t, c.Usage) },
		}
		for _, check := range checks {
			if r, ok := check(); ok {
				return r, true
			}
		}
	case *tokens.SemanticToken:
		if r := ValidateSemanticStructure(t); r.Level == tokens.LevelWarning {
			return r, true
		}
	}
	return tokens.ValidationResult{}, false
}

func (v *WarningValidator) precisionTargeted(t *tokens.PrimitiveToken) (tokens.ValidationResult, bool) {
	if !t.IsPrecisionTargeted || isStrategic(t) || tokens.IsGridAligned(t.BaseValue, v.policy.GridUnit) || !t.Category.RequiresGridAlignment() {
		return tokens.ValidationResult{}, false
	}
	return tokens.Warning(t.Name,
		"Precision-targeted token is not grid aligned",
		fmt.Sprintf("%s intentionally targets sub-grid precision", tokens.FormatNumber(t.BaseValue)),
		tokens.Relationship(t.BaseValue, t.FamilyBaseValue),
		"Confirm the precision target is documented"), true
}

func (v *WarningValidator) edgeCases(t *tokens.PrimitiveToken) (tokens.ValidationResult, bool) {
	if dimensionalCategories[t.Category] {
		if t.BaseValue > 0 && t.BaseValue < 1 {
			return tokens.Warning(t.Name,
				"Small value precision concern",
				fmt.Sprintf("Base value %s may cause precision issues in some contexts", tokens.FormatNumber(t.BaseValue)),
				"Values below 1 lose relative precision when rounded to platform units",
				"Validate precision across all target platforms"), true
		}
		if t.BaseValue > 1000 {
			return tokens.Warning(t.Name,
				"Large value overflow concern",
				fmt.Sprintf("Base value %s is unusually large, verify intended usage", tokens.FormatNumber(t.BaseValue)),
				tokens.Relationship(t.BaseValue, t.FamilyBaseValue),
				"Verify large value is intentional and necessary"), true
		}
	}
	if integerCategories[t.Category] && t.BaseValue != math.Trunc(t.BaseValue) {
		return tokens.Warning(t.Name,
			"Non-integer value in integer category",
			fmt.Sprintf("%s tokens typically use integer values, but found %s", t.Category, tokens.FormatNumber(t.BaseValue)),
			tokens.Relationship(t.BaseValue, t.FamilyBaseValue),
			"Consider if integer value would be more appropriate"), true
	}
	return tokens.ValidationResult{}, false
}

func (v *WarningValidator) flexibilityOveruse(t *tokens.PrimitiveToken, stats *FlexibilityUsage) (tokens.ValidationResult, bool) {
	if stats == nil || !isStrategic(t) {
		return tokens.ValidationResult{}, false
	}
	appropriate := 1.0
	if stats.TotalUsage > 0 {
		appropriate = float64(stats.AppropriateUsage) / float64(stats.TotalUsage)
	}
	if appropriate >= v.policy.StrategicFlexibilityThreshold {
		return tokens.ValidationResult{}, false
	}
	return tokens.Warning(t.Name,
		"Strategic flexibility overuse detected",
		fmt.Sprintf("Strategic flexibility usage is %.1f%% appropriate, below %s%% threshold", appropriate*100, tokens.FormatNumber(v.policy.StrategicFlexibilityThreshold*100)),
		fmt.Sprintf("%d/%d usages are appropriate", stats.AppropriateUsage, stats.TotalUsage),
		"Review strategic flexibility token usage patterns",
		"Consider creating semantic tokens for common use cases"), true
}

func (v *WarningValidator) primitiveOveruse(t *tokens.PrimitiveToken, family *FamilyUsage, available []string) (tokens.ValidationResult, bool) {
	if family == nil || len(available) == 0 || family.TotalUsage == 0 {
		return tokens.ValidationResult{}, false
	}
	ratio := float64(family.PrimitiveUsage) / float64(family.TotalUsage)
	if ratio <= 1-v.policy.PrimitiveUsageThreshold {
		return tokens.ValidationResult{}, false
	}
	return tokens.Warning(t.Name,
		"High primitive token usage detected",
		fmt.Sprintf("%.1f%% primitive token usage in %s family, consider semantic alternatives", ratio*100, t.Category),
		fmt.Sprintf("High primitive usage: %d/%d", family.PrimitiveUsage, family.TotalUsage),
		"Consider using semantic tokens for contextual abstraction",
		"Available semantic alternatives: "+strings.Join(available, ", ")), true
}

func (v *WarningValidator) usage(t *tokens.PrimitiveToken, u *UsageContext) (tokens.ValidationResult, bool) {
	if u == nil || v.composition == nil {
		return tokens.ValidationResult{}, false
	}
	r := v.composition.ValidateTokenUsage(t, *u, DefaultCompositionOptions())
	return r, r.Level == tokens.LevelWarning
}

// PassValidator explains why a token that raised nothing is sound.
type PassValidator struct {
	policy Policy
}

func (v *PassValidator) Validate(c Context) tokens.ValidationResult {
	switch t := c.Token.(type) {
	case *tokens.PrimitiveToken:
		switch {
		case isStrategic(t):
			return tokens.Pass(t.Name,
				"Strategic flexibility token validated",
				fmt.Sprintf("%s is a sanctioned exception to the %s-unit grid", tokens.FormatNumber(t.BaseValue), tokens.FormatNumber(v.policy.GridUnit)),
				tokens.Relationship(t.BaseValue, t.FamilyBaseValue))
		case t.Category.RequiresGridAlignment() && tokens.IsGridAligned(t.BaseValue, v.policy.GridUnit):
			return tokens.Pass(t.Name,
				"Baseline grid alignment validated",
				fmt.Sprintf("%s is a multiple of the %s-unit grid", tokens.FormatNumber(t.BaseValue), tokens.FormatNumber(v.policy.GridUnit)),
				fmt.Sprintf("%s ÷ %s = %s", tokens.FormatNumber(t.BaseValue), tokens.FormatNumber(v.policy.GridUnit), tokens.FormatNumber(t.BaseValue/v.policy.GridUnit)))
		}
		return tokens.Pass(t.Name,
			"Mathematical foundation validated",
			fmt.Sprintf("%s token %s raised no errors or warnings", t.Category, t.Name),
			tokens.Relationship(t.BaseValue, t.FamilyBaseValue))
	case *tokens.SemanticToken:
		return tokens.Pass(t.Name,
			"Primitive reference(s) validated",
			fmt.Sprintf("References: %s", formatReferences(t.PrimitiveReferences)),
			"Semantic token inherits mathematical consistency from its primitives")
	case *tokens.ComponentToken:
		return tokens.Pass(t.Name,
			"Component token validated",
			t.Reasoning,
			fmt.Sprintf("Component value %s derived for %s", tokens.FormatNumber(t.BaseValue), t.Component))
	}
	return tokens.Pass("", "Token validated", "No checks apply", "No mathematical constraints evaluated")
}

func formatReferences(refs map[string]string) string {
	parts := make([]string, 0, len(refs))
	for _, role := range tokens.SortedRoles(refs) {
		parts = append(parts, role+"="+refs[role])
	}
	return strings.Join(parts, ", ")
}

// TierResults holds the output of each tier that ran.
type TierResults struct {
	Error   *tokens.ValidationResult `json:"error,omitempty"`
	Warning *tokens.ValidationResult `json:"warning,omitempty"`
	Pass    *tokens.ValidationResult `json:"pass,omitempty"`
}

// ThreeTierResult holds the verdict plus the per-tier detail.
type ThreeTierResult struct {
	Primary                tokens.ValidationResult `json:"primary"`
	ResultsByLevel         TierResults             `json:"resultsByLevel"`
	AllIssues              []string                `json:"allIssues,omitempty"`
	AllSuggestions         []string                `json:"allSuggestions,omitempty"`
	ComprehensiveReasoning string                  `json:"comprehensiveReasoning"`
}

// ThreeTierValidator runs Error, then Warning, then Pass. A later tier only runs
// when the earlier ones found nothing.
type ThreeTierValidator struct {
	errors   *ErrorValidator
	warnings *WarningValidator
	passes   *PassValidator
}

func NewThreeTierValidator(primitives registry.PrimitiveStore, semantics registry.SemanticStore, converter *convert.Converter, policy Policy) *ThreeTierValidator {
	if policy.GridUnit <= 0 {
		policy.GridUnit = tokens.DefaultBaselineGridUnit
	}
	if converter == nil {
		converter = convert.New()
	}
	refs := NewPrimitiveReferenceValidator(primitives, nil)
	var comp *CompositionPatternValidator
	if semantics != nil {
		comp = NewCompositionPatternValidator(semantics)
	}
	return &ThreeTierValidator{
		errors: &ErrorValidator{
			policy:      policy,
			references:  refs,
			consistency: NewCrossPlatformConsistencyValidator(converter),
			semantics:   semantics,
		},
		warnings: &WarningValidator{policy: policy, composition: comp},
		passes:   &PassValidator{policy: policy},
	}
}

func (v *ThreeTierValidator) Validate(c Context) ThreeTierResult {
	var out ThreeTierResult

	if r, ok := v.errors.Validate(c); ok {
		out.ResultsByLevel.Error = &r
		out.Primary = r
	} else if r, ok := v.warnings.Validate(c); ok {
		out.ResultsByLevel.Warning = &r
		out.Primary = r
	} else {
		r := v.passes.Validate(c)
		out.ResultsByLevel.Pass = &r
		out.Primary = r
	}

	seen := map[string]bool{}
	var reasoning []string
	for _, r := range []*tokens.ValidationResult{out.ResultsByLevel.Error, out.ResultsByLevel.Warning, out.ResultsByLevel.Pass} {
		if r == nil {
			continue
		}
		if r.Level != tokens.LevelPass {
			out.AllIssues = append(out.AllIssues, r.Message)
		}
		for _, s := range r.Suggestions {
			if !seen[s] {
				seen[s] = true
				out.AllSuggestions = append(out.AllSuggestions, s)
			}
		}
		reasoning = append(reasoning, fmt.Sprintf("%s: %s", strings.ToUpper(r.Level.String()), r.MathematicalReasoning))
	}
	out.ComprehensiveReasoning = strings.Join(reasoning, "; ")
	return out
}

// ValidateBatch validates each context in order.
func (v *ThreeTierValidator) ValidateBatch(cs []Context) []ThreeTierResult {
	out := make([]ThreeTierResult, 0, len(cs))
	for _, c := range cs {
		out = append(out, v.Validate(c))
	}
	return out
}
