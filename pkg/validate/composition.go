package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

// UsageContext describes where a component consumes a token.
type UsageContext struct {
	UsageContext string `json:"usageContext"`
	PropertyType string `json:"propertyType"`
	Level        string `json:"level,omitempty"`
}

func (u UsageContext) String() string {
	return fmt.Sprintf("%s %s", u.UsageContext, u.PropertyType)
}

type CompositionOptions struct {
	EnforceSemanticFirst   bool
	AllowPrimitiveFallback bool
	ProvideSuggestions     bool
}

func DefaultCompositionOptions() CompositionOptions {
	return CompositionOptions{EnforceSemanticFirst: true, AllowPrimitiveFallback: true, ProvideSuggestions: true}
}

var propertyCategories = map[string]tokens.Category{
	"padding": tokens.CategorySpacing, "margin": tokens.CategorySpacing, "gap": tokens.CategorySpacing,
	"spacing": tokens.CategorySpacing, "inset": tokens.CategorySpacing, "space": tokens.CategorySpacing,

	"color": tokens.CategoryColor, "background": tokens.CategoryColor, "backgroundcolor": tokens.CategoryColor,
	"foreground": tokens.CategoryColor, "fill": tokens.CategoryColor, "stroke": tokens.CategoryColor,
	"bordercolor": tokens.CategoryColor,

	"typography": tokens.CategoryTypography, "font": tokens.CategoryTypography, "fontsize": tokens.CategoryTypography,
	"lineheight": tokens.CategoryTypography, "text": tokens.CategoryTypography,

	"border": tokens.CategoryBorder, "borderwidth": tokens.CategoryBorder,
	"radius": tokens.CategoryRadius, "borderradius": tokens.CategoryRadius,
	"opacity":   tokens.CategoryOpacity,
	"elevation": tokens.CategoryElevation, "shadow": tokens.CategoryElevation,
}

// CategoryForProperty maps a consuming property (padding, backgroundColor, ...) to
// the semantic category that serves it.
func CategoryForProperty(property string) (tokens.Category, bool) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(property))
	c, ok := propertyCategories[key]
	return c, ok
}

// CompositionPatternValidator enforces semantic-first consumption.
type CompositionPatternValidator struct {
	semantics registry.SemanticStore
}

func NewCompositionPatternValidator(semantics registry.SemanticStore) *CompositionPatternValidator {
	return &CompositionPatternValidator{semantics: semantics}
}

func (v *CompositionPatternValidator) ValidateTokenUsage(token tokens.Token, usage UsageContext, opts CompositionOptions) tokens.ValidationResult {
	switch t := token.(type) {
	case *tokens.SemanticToken:
		return tokens.Pass(t.Name,
			fmt.Sprintf("Semantic token %s follows best practices for %s", t.Name, usage),
			fmt.Sprintf("Semantic token used for usage context %q and property type %q", usage.UsageContext, usage.PropertyType),
			"Semantic tokens preserve mathematical consistency through their primitive references")
	case *tokens.PrimitiveToken:
		return v.validatePrimitiveUsage(t, usage, opts)
	case *tokens.ComponentToken:
		return tokens.Pass(t.Name,
			fmt.Sprintf("Component token %s used for %s", t.Name, usage),
			fmt.Sprintf("Component token minted for %s: %s", t.Component, t.Reasoning),
			"Component tokens are derived from documented insufficiency of semantic and primitive tokens")
	}
	return tokens.Error("", "Unknown token kind", "Token is neither primitive, semantic nor component", "No composition rule applies")
}

func (v *CompositionPatternValidator) validatePrimitiveUsage(t *tokens.PrimitiveToken, usage UsageContext, opts CompositionOptions) tokens.ValidationResult {
	alternatives := v.alternatives(t, usage)

	if len(alternatives) > 0 {
		if !opts.EnforceSemanticFirst {
			return tokens.Pass(t.Name,
				fmt.Sprintf("Primitive token %s accepted for %s", t.Name, usage),
				fmt.Sprintf("Semantic-first enforcement is disabled; %d semantic alternative(s) exist", len(alternatives)),
				"Primitive usage is acceptable when semantic-first enforcement is off")
		}
		var suggestions []string
		if opts.ProvideSuggestions {
			suggestions = append(suggestions, "Use semantic token(s): "+strings.Join(alternatives, ", "))
		}
		return tokens.Warning(t.Name,
			fmt.Sprintf("Consider using semantic token instead of primitive %s for %s", t.Name, usage),
			fmt.Sprintf("Semantic alternative(s) referencing %s exist: %s", t.Name, strings.Join(alternatives, ", ")),
			"Semantic tokens carry the same value with contextual meaning; primitive usage is acceptable but not preferred",
			suggestions...)
	}

	if !opts.AllowPrimitiveFallback {
		return tokens.Error(t.Name,
			fmt.Sprintf("Primitive token %s usage not allowed for %s", t.Name, usage),
			"Primitive fallback is disabled and no semantic alternative exists",
			"A semantic token must be defined before this value can be consumed",
			fmt.Sprintf("Create a semantic token referencing %s for %s", t.Name, usage.UsageContext))
	}

	return tokens.Pass(t.Name,
		fmt.Sprintf("Primitive token %s is acceptable for %s: no semantic alternative exists", t.Name, usage),
		fmt.Sprintf("No semantic token references %s for property type %q", t.Name, usage.PropertyType),
		"Primitive fallback is acceptable and keeps the value on its mathematical foundation")
}

// alternatives ranks the semantic tokens that reference primitive p in the category
// serving the usage.
func (v *CompositionPatternValidator) alternatives(p *tokens.PrimitiveToken, usage UsageContext) []string {
	cat, ok := CategoryForProperty(usage.PropertyType)
	if !ok {
		cat = p.Category
	}

	type candidate struct {
		name  string
		score int
	}
	var cands []candidate
	for _, s := range v.semantics.Query(registry.SemanticQuery{Category: cat, References: p.Name}) {
		cands = append(cands, candidate{name: s.Name, score: relevance(s, usage, p.Name)})
	}
	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].name < cands[j].name
	})

	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.name
	}
	return out
}

func relevance(s *tokens.SemanticToken, usage UsageContext, primitive string) int {
	name := strings.ToLower(s.Name)
	score := 0
	if usage.UsageContext != "" && strings.Contains(name, strings.ToLower(usage.UsageContext)) {
		score += 2
	}
	if usage.PropertyType != "" && strings.Contains(name, strings.ToLower(usage.PropertyType)) {
		score++
	}
	if s.PrimitiveReferences[tokens.RoleDefault] == primitive {
		score++
	}
	return score
}

// SuggestSemanticToken lists semantic tokens in the category serving the usage.
func (v *CompositionPatternValidator) SuggestSemanticToken(usage UsageContext) []string {
	cat, ok := CategoryForProperty(usage.PropertyType)
	if !ok {
		return nil
	}
	var out []string
	for _, s := range v.semantics.Query(registry.SemanticQuery{Category: cat}) {
		out = append(out, s.Name)
	}
	return out
}

// Usage pairs a token with the place it is consumed.
type Usage struct {
	Token   tokens.Token
	Context UsageContext
}

// CompositionResult is a verdict tagged with the kind of token it judged.
type CompositionResult struct {
	tokens.ValidationResult
	Kind tokens.Kind `json:"kind"`
}

func (v *CompositionPatternValidator) ValidateComposition(usages []Usage, opts CompositionOptions) []CompositionResult {
	out := make([]CompositionResult, 0, len(usages))
	for _, u := range usages {
		out = append(out, CompositionResult{
			ValidationResult: v.ValidateTokenUsage(u.Token, u.Context, opts),
			Kind:             u.Token.Kind(),
		})
	}
	return out
}

type CompositionStats struct {
	Total                   int     `json:"total"`
	SemanticUsage           int     `json:"semanticUsage"`
	PrimitiveUsage          int     `json:"primitiveUsage"`
	ComponentUsage          int     `json:"componentUsage"`
	Pass                    int     `json:"pass"`
	Warning                 int     `json:"warning"`
	Error                   int     `json:"error"`
	SemanticFirstPercentage float64 `json:"semanticFirstPercentage"`
}

func GetCompositionStats(results []CompositionResult) CompositionStats {
	s := CompositionStats{Total: len(results)}
	for _, r := range results {
		switch r.Kind {
		case tokens.KindSemantic:
			s.SemanticUsage++
		case tokens.KindPrimitive:
			s.PrimitiveUsage++
		case tokens.KindComponent:
			s.ComponentUsage++
		}
		switch r.Level {
		case tokens.LevelPass:
			s.Pass++
		case tokens.LevelWarning:
			s.Warning++
		case tokens.LevelError:
			s.Error++
		}
	}
	if s.Total > 0 {
		s.SemanticFirstPercentage = float64(s.SemanticUsage) / float64(s.Total) * 100
	}
	return s
}
