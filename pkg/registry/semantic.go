package registry

import (
	"fmt"
	"sort"
	"strings"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"gitlab.com/tozd/go/errors"
)

// SemanticQuery filters SemanticRegistry.Query.
type SemanticQuery struct {
	Category tokens.Category
	// References keeps only tokens that reference this primitive name.
	References string
	SortBy     SortBy
}

// SemanticStore is the storage contract consumed by validators and the selector.
type SemanticStore interface {
	Get(name string) (*tokens.SemanticToken, bool)
	Has(name string) bool
	Query(q SemanticQuery) []*tokens.SemanticToken
}

// SemanticRegistry stores semantic tokens. It holds a read-only view of the
// primitive store only to resolve color values.
type SemanticRegistry struct {
	primitives PrimitiveStore
	tokens     map[string]*tokens.SemanticToken
	byCategory map[tokens.Category]map[string]struct{}
}

var _ SemanticStore = (*SemanticRegistry)(nil)

func NewSemanticRegistry(primitives PrimitiveStore) *SemanticRegistry {
	return &SemanticRegistry{
		primitives: primitives,
		tokens:     map[string]*tokens.SemanticToken{},
		byCategory: map[tokens.Category]map[string]struct{}{},
	}
}

// Register stores a copy of token. Unless SkipValidation is set, structurally
// incomplete tokens (no name, no references) are rejected. Whether the references
// resolve is deliberately not checked here.
func (r *SemanticRegistry) Register(token *tokens.SemanticToken, opts RegisterOptions) error {
	if token == nil || token.Name == "" {
		return errors.Errorf("semantic token must have a name")
	}

	if !opts.SkipValidation {
		if res := r.ValidateToken(token); res.Level == tokens.LevelError {
			return errors.Errorf("registering semantic token %s: %s", token.Name, res.Message)
		}
	}

	prev, exists := r.tokens[token.Name]
	if exists && !opts.AllowOverwrite {
		return &tokens.DuplicateTokenError{Kind: tokens.KindSemantic, Name: token.Name}
	}
	if exists {
		r.unindex(prev)
	}

	stored := token.Clone()
	r.tokens[stored.Name] = stored
	idx, ok := r.byCategory[stored.Category]
	if !ok {
		idx = map[string]struct{}{}
		r.byCategory[stored.Category] = idx
	}
	idx[stored.Name] = struct{}{}
	return nil
}

func (r *SemanticRegistry) unindex(t *tokens.SemanticToken) {
	idx := r.byCategory[t.Category]
	delete(idx, t.Name)
	if len(idx) == 0 {
		delete(r.byCategory, t.Category)
	}
}

func (r *SemanticRegistry) Get(name string) (*tokens.SemanticToken, bool) {
	t, ok := r.tokens[name]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (r *SemanticRegistry) Has(name string) bool {
	_, ok := r.tokens[name]
	return ok
}

func (r *SemanticRegistry) Len() int {
	return len(r.tokens)
}

func (r *SemanticRegistry) Query(q SemanticQuery) []*tokens.SemanticToken {
	var names []string
	if q.Category != "" {
		for n := range r.byCategory[q.Category] {
			names = append(names, n)
		}
	} else {
		for n := range r.tokens {
			names = append(names, n)
		}
	}

	out := make([]*tokens.SemanticToken, 0, len(names))
	for _, n := range names {
		t := r.tokens[n]
		if q.References != "" && !referencesPrimitive(t, q.References) {
			continue
		}
		out = append(out, t.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		if q.SortBy == SortByCategory && out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func referencesPrimitive(t *tokens.SemanticToken, primitive string) bool {
	for _, ref := range t.PrimitiveReferences {
		if ref == primitive {
			return true
		}
	}
	return false
}

// GetByCategory is Query restricted to one category.
func (r *SemanticRegistry) GetByCategory(c tokens.Category) []*tokens.SemanticToken {
	return r.Query(SemanticQuery{Category: c})
}

// ResolveColorValue looks up the primitive behind the default reference and indexes
// its web mode/theme map. Non-color tokens and missing entries yield false.
func (r *SemanticRegistry) ResolveColorValue(token *tokens.SemanticToken, mode, theme string) (string, bool) {
	if token == nil || token.Category != tokens.CategoryColor {
		return "", false
	}
	ref, ok := token.PrimitiveReferences[tokens.RoleDefault]
	if !ok {
		return "", false
	}
	prim, ok := r.primitives.Get(ref)
	if !ok {
		return "", false
	}
	if v, ok := prim.Platforms.Web.Modes.Lookup(mode, theme); ok {
		return v, true
	}
	return "", false
}

// ValidateToken checks structural completeness only.
func (r *SemanticRegistry) ValidateToken(token *tokens.SemanticToken) tokens.ValidationResult {
	if len(token.PrimitiveReferences) == 0 {
		return tokens.Error(token.Name,
			"Semantic token has no primitive references",
			"Semantic tokens must reference primitive tokens rather than carry values",
			"Semantic tokens inherit mathematical consistency only through primitive references",
			"Add at least one primitive reference (e.g. default)")
	}

	roles := tokens.SortedRoles(token.PrimitiveReferences)
	return tokens.Pass(token.Name,
		"Semantic token structure is complete",
		fmt.Sprintf("References %d primitive role(s): %s", len(roles), strings.Join(roles, ", ")),
		"Reference resolution is validated separately against the primitive registry")
}

func (r *SemanticRegistry) Remove(name string) bool {
	t, ok := r.tokens[name]
	if !ok {
		return false
	}
	r.unindex(t)
	delete(r.tokens, name)
	return true
}

func (r *SemanticRegistry) Clear() {
	r.tokens = map[string]*tokens.SemanticToken{}
	r.byCategory = map[tokens.Category]map[string]struct{}{}
}

// SemanticStats summarises the registry.
type SemanticStats struct {
	TotalTokens    int                     `json:"totalTokens"`
	CategoryStats  map[tokens.Category]int `json:"categoryStats"`
	ReferenceCount int                     `json:"referenceCount"`
}

func (r *SemanticRegistry) Stats() SemanticStats {
	s := SemanticStats{TotalTokens: len(r.tokens), CategoryStats: map[tokens.Category]int{}}
	for c, idx := range r.byCategory {
		s.CategoryStats[c] = len(idx)
	}
	for _, t := range r.tokens {
		s.ReferenceCount += len(t.PrimitiveReferences)
	}
	return s
}
