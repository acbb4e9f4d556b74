package validate

import (
	"fmt"
	"strings"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

type ReferenceOptions struct {
	AllowEmptyReferences bool
	// StrictValidation adds the identifier-shape rule to raw value detection.
	StrictValidation bool
}

func DefaultReferenceOptions() ReferenceOptions {
	return ReferenceOptions{StrictValidation: true}
}

// PrimitiveReferenceValidator checks that every reference of a semantic token names
// a registered primitive and is not a literal value.
type PrimitiveReferenceValidator struct {
	primitives  registry.PrimitiveStore
	classifiers *ClassifierSet
}

func NewPrimitiveReferenceValidator(primitives registry.PrimitiveStore, classifiers *ClassifierSet) *PrimitiveReferenceValidator {
	if classifiers == nil {
		classifiers = DefaultClassifierSet()
	}
	return &PrimitiveReferenceValidator{primitives: primitives, classifiers: classifiers}
}

// Classifiers exposes the raw value rules so callers can register more.
func (v *PrimitiveReferenceValidator) Classifiers() *ClassifierSet {
	return v.classifiers
}

func (v *PrimitiveReferenceValidator) Validate(token *tokens.SemanticToken, opts ReferenceOptions) tokens.ValidationResult {
	if len(token.PrimitiveReferences) == 0 {
		if opts.AllowEmptyReferences {
			return tokens.Warning(token.Name,
				"Semantic token has no primitive references",
				"Empty references are allowed for this validation but the token carries no value",
				"No mathematical relationship can be inherited without a primitive reference",
				"Add a default primitive reference before using the token")
		}
		return tokens.Error(token.Name,
			"Semantic token has no primitive references",
			"Semantic tokens must reference at least one primitive token",
			"Semantic tokens inherit mathematical consistency only through primitive references",
			"Add a default primitive reference")
	}

	var raw, missing []string
	var resolved []string
	for _, role := range tokens.SortedRoles(token.PrimitiveReferences) {
		ref := token.PrimitiveReferences[role]
		if isRaw, reason := v.classifiers.IsRaw(roleCategory(token, role), ref, opts.StrictValidation); isRaw {
			raw = append(raw, fmt.Sprintf("%s '%s' (%s)", role, ref, reason))
			continue
		}
		if !v.primitives.Has(ref) {
			missing = append(missing, ref)
			continue
		}
		resolved = append(resolved, fmt.Sprintf("%s → %s", role, ref))
	}

	if len(raw) > 0 {
		return tokens.Error(token.Name,
			fmt.Sprintf("Semantic token %s uses raw values instead of primitive references: %s", token.Name, strings.Join(raw, ", ")),
			"Semantic tokens must reference primitive tokens by name; literal values bypass the mathematical foundation",
			"Raw values carry no family base or grid relationship",
			"Replace each literal with the primitive token that defines it",
			"Register a primitive token if no existing one matches the value")
	}
	if len(missing) > 0 {
		quoted := make([]string, len(missing))
		for i, m := range missing {
			quoted[i] = "'" + m + "'"
		}
		return tokens.Error(token.Name,
			fmt.Sprintf("Semantic token %s references non-existent primitive token(s): %s", token.Name, strings.Join(quoted, ", ")),
			"Every primitive reference must resolve in the primitive registry",
			"Unresolved references have no value to convert across platforms",
			"Register the missing primitive token(s) first",
			"Check the reference spelling against registered primitive names")
	}

	return tokens.Pass(token.Name,
		"Primitive references validated",
		fmt.Sprintf("All %d primitive reference(s) resolve: %s", len(resolved), strings.Join(resolved, ", ")),
		"Semantic token inherits mathematical consistency from its referenced primitives")
}

// roleCategory picks the classifier category: typography sub-roles carry their own
// category, everything else uses the token's.
func roleCategory(token *tokens.SemanticToken, role string) tokens.Category {
	if c, ok := tokens.ParseCategory(role); ok {
		return c
	}
	return token.Category
}
