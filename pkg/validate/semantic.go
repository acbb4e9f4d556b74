package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

type SemanticOptions struct {
	ValidatePrimitiveReferences bool
	ValidateCompositionPatterns bool
	AllowEmptyReferences        bool
	StrictValidation            bool
}

func DefaultSemanticOptions() SemanticOptions {
	return SemanticOptions{
		ValidatePrimitiveReferences: true,
		ValidateCompositionPatterns: true,
		StrictValidation:            true,
	}
}

type SemanticDetails struct {
	HasValidReferences bool      `json:"hasValidReferences"`
	ReferenceCount     int       `json:"referenceCount"`
	ValidatedAt        time.Time `json:"validatedAt"`
}

// SemanticValidation is the combined verdict for one semantic token.
type SemanticValidation struct {
	Overall             tokens.ValidationResult  `json:"overall"`
	Structure           tokens.ValidationResult  `json:"structure"`
	PrimitiveReferences *tokens.ValidationResult `json:"primitiveReferences,omitempty"`
	CompositionPattern  *tokens.ValidationResult `json:"compositionPattern,omitempty"`
	Details             SemanticDetails          `json:"details"`
}

// SemanticTokenValidator combines structure, reference and composition checks.
type SemanticTokenValidator struct {
	references  *PrimitiveReferenceValidator
	composition *CompositionPatternValidator
	now         func() time.Time
}

func NewSemanticTokenValidator(references *PrimitiveReferenceValidator, composition *CompositionPatternValidator) *SemanticTokenValidator {
	return &SemanticTokenValidator{references: references, composition: composition, now: time.Now}
}

func (v *SemanticTokenValidator) Validate(token *tokens.SemanticToken, opts SemanticOptions) SemanticValidation {
	out := SemanticValidation{
		Structure: ValidateSemanticStructure(token),
		Details: SemanticDetails{
			ReferenceCount: len(token.PrimitiveReferences),
			ValidatedAt:    v.now(),
		},
	}
	results := []tokens.ValidationResult{out.Structure}

	if opts.ValidatePrimitiveReferences && v.references != nil {
		r := v.references.Validate(token, ReferenceOptions{
			AllowEmptyReferences: opts.AllowEmptyReferences,
			StrictValidation:     opts.StrictValidation,
		})
		out.PrimitiveReferences = &r
		out.Details.HasValidReferences = r.Level == tokens.LevelPass
		results = append(results, r)
	}

	if opts.ValidateCompositionPatterns && v.composition != nil {
		r := v.composition.ValidateTokenUsage(token, UsageContext{
			UsageContext: token.Context,
			PropertyType: string(token.Category),
		}, DefaultCompositionOptions())
		out.CompositionPattern = &r
		results = append(results, r)
	}

	out.Overall = tokens.Aggregate(token.Name, results...)
	return out
}

// ValidateSemanticStructure checks that the documentation fields are present.
func ValidateSemanticStructure(token *tokens.SemanticToken) tokens.ValidationResult {
	if token.Name == "" {
		return tokens.Error("", "Semantic token missing required name", "Every token must be addressable by name", "No relationship can be recorded for an unnamed token", "Set a dot-path name such as space.inset.comfortable")
	}

	var missing []string
	if token.Description == "" {
		missing = append(missing, "description")
	}
	if token.Context == "" {
		missing = append(missing, "context")
	}
	if len(missing) > 0 {
		suggestions := make([]string, len(missing))
		for i, m := range missing {
			suggestions[i] = "Add a " + m + " explaining the token's intended use"
		}
		return tokens.Warning(token.Name,
			fmt.Sprintf("Semantic token %s missing %s", token.Name, strings.Join(missing, " and ")),
			"Description and context are the audit trail for semantic intent",
			"Documentation does not affect mathematical consistency",
			suggestions...)
	}

	return tokens.Pass(token.Name,
		fmt.Sprintf("Semantic token %s structure is valid", token.Name),
		"Name, description and context are present",
		"Structure carries no mathematical constraints")
}

func (v *SemanticTokenValidator) ValidateMultiple(ts []*tokens.SemanticToken, opts SemanticOptions) []SemanticValidation {
	out := make([]SemanticValidation, 0, len(ts))
	for _, t := range ts {
		out = append(out, v.Validate(t, opts))
	}
	return out
}

type SemanticStats struct {
	Total               int     `json:"total"`
	Passed              int     `json:"passed"`
	Warnings            int     `json:"warnings"`
	Errors              int     `json:"errors"`
	PassRate            float64 `json:"passRate"`
	WithValidReferences int     `json:"withValidReferences"`
}

func (v *SemanticTokenValidator) Stats(results []SemanticValidation) SemanticStats {
	s := SemanticStats{Total: len(results)}
	for _, r := range results {
		switch r.Overall.Level {
		case tokens.LevelPass:
			s.Passed++
		case tokens.LevelWarning:
			s.Warnings++
		case tokens.LevelError:
			s.Errors++
		}
		if r.Details.HasValidReferences {
			s.WithValidReferences++
		}
	}
	if s.Total > 0 {
		s.PassRate = float64(s.Passed) / float64(s.Total) * 100
	}
	return s
}

// ValidateSemanticReferences checks a batch of semantic tokens against a list of
// primitive names. Typography tokens must carry every typography role.
func ValidateSemanticReferences(semantics []*tokens.SemanticToken, primitiveNames []string) tokens.ValidationResult {
	known := make(map[string]bool, len(primitiveNames))
	for _, n := range primitiveNames {
		known[n] = true
	}

	var issues []string
	for _, s := range semantics {
		if s.Category == tokens.CategoryTypography {
			for _, role := range tokens.TypographyRoles {
				ref, ok := s.PrimitiveReferences[role]
				switch {
				case !ok:
					issues = append(issues, fmt.Sprintf("%s missing required reference: %s", s.Name, role))
				case !known[ref]:
					issues = append(issues, fmt.Sprintf("%s has invalid %s reference '%s'", s.Name, role, ref))
				}
			}
			continue
		}
		for _, role := range tokens.SortedRoles(s.PrimitiveReferences) {
			if ref := s.PrimitiveReferences[role]; !known[ref] {
				issues = append(issues, fmt.Sprintf("%s references non-existent primitive '%s'", s.Name, ref))
			}
		}
	}

	if len(issues) > 0 {
		return tokens.Error("semantic-references",
			fmt.Sprintf("%d semantic token reference issue(s) found", len(issues)),
			strings.Join(issues, "; "),
			"Semantic tokens must resolve to primitives to inherit their values",
			"Register the missing primitives or correct the reference names")
	}
	return tokens.Pass("semantic-references",
		fmt.Sprintf("All semantic token references are valid (%d tokens validated)", len(semantics)),
		"Every reference resolves to a known primitive",
		"Reference integrity holds for the whole semantic set")
}
