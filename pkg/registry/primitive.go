package registry

import (
	"fmt"
	"sort"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"gitlab.com/tozd/go/errors"
)

// RegisterOptions controls storage behaviour. Storage never checks that references
// resolve; that is the job of the validators in pkg/validate.
type RegisterOptions struct {
	AllowOverwrite bool
	// SkipValidation bypasses the semantic registry's structural check. Primitive
	// registration never validates.
	SkipValidation bool
}

// SortBy selects the query ordering.
type SortBy string

const (
	SortByName     SortBy = "name"
	SortByValue    SortBy = "value"
	SortByCategory SortBy = "category"
)

// PrimitiveQuery filters PrimitiveRegistry.Query.
type PrimitiveQuery struct {
	Category                    tokens.Category
	ExcludeStrategicFlexibility bool
	SortBy                      SortBy
}

// PrimitiveStore is the storage contract consumed by validators and the selector.
type PrimitiveStore interface {
	Get(name string) (*tokens.PrimitiveToken, bool)
	Has(name string) bool
	Query(q PrimitiveQuery) []*tokens.PrimitiveToken
}

// PrimitiveRegistry is an in-memory store of primitive tokens keyed by name with a
// derived category index. It performs no locking; callers serialize writers.
type PrimitiveRegistry struct {
	tokens     map[string]*tokens.PrimitiveToken
	byCategory map[tokens.Category]map[string]struct{}
}

var _ PrimitiveStore = (*PrimitiveRegistry)(nil)

func NewPrimitiveRegistry() *PrimitiveRegistry {
	return &PrimitiveRegistry{
		tokens:     map[string]*tokens.PrimitiveToken{},
		byCategory: map[tokens.Category]map[string]struct{}{},
	}
}

// Register stores a copy of token. The name store and the category index are
// updated together or not at all.
func (r *PrimitiveRegistry) Register(token *tokens.PrimitiveToken, opts RegisterOptions) error {
	if token == nil || token.Name == "" {
		return errors.Errorf("primitive token must have a name")
	}

	prev, exists := r.tokens[token.Name]
	if exists && !opts.AllowOverwrite {
		return &tokens.DuplicateTokenError{Kind: tokens.KindPrimitive, Name: token.Name}
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

func (r *PrimitiveRegistry) unindex(t *tokens.PrimitiveToken) {
	idx := r.byCategory[t.Category]
	delete(idx, t.Name)
	if len(idx) == 0 {
		delete(r.byCategory, t.Category)
	}
}

// Get returns a copy of the named token.
func (r *PrimitiveRegistry) Get(name string) (*tokens.PrimitiveToken, bool) {
	t, ok := r.tokens[name]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (r *PrimitiveRegistry) Has(name string) bool {
	_, ok := r.tokens[name]
	return ok
}

// Names returns every registered name, sorted.
func (r *PrimitiveRegistry) Names() []string {
	names := make([]string, 0, len(r.tokens))
	for n := range r.tokens {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *PrimitiveRegistry) Len() int {
	return len(r.tokens)
}

// Query filters and sorts. Name is the default order and the tie-breaker.
func (r *PrimitiveRegistry) Query(q PrimitiveQuery) []*tokens.PrimitiveToken {
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

	out := make([]*tokens.PrimitiveToken, 0, len(names))
	for _, n := range names {
		t := r.tokens[n]
		if q.ExcludeStrategicFlexibility && t.IsStrategicFlexibility {
			continue
		}
		out = append(out, t.Clone())
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch q.SortBy {
		case SortByValue:
			if a.BaseValue != b.BaseValue {
				return a.BaseValue < b.BaseValue
			}
		case SortByCategory:
			if a.Category != b.Category {
				return a.Category < b.Category
			}
		}
		return a.Name < b.Name
	})
	return out
}

// ValidateToken checks baseline grid standing from the token's own flags:
// aligned or strategic flexibility passes, precision-targeted misalignment warns,
// anything else is an error.
func (r *PrimitiveRegistry) ValidateToken(token *tokens.PrimitiveToken) tokens.ValidationResult {
	reasoning := tokens.Relationship(token.BaseValue, token.FamilyBaseValue)

	switch {
	case token.BaselineGridAlignment:
		return tokens.Pass(token.Name,
			"Baseline grid alignment validated",
			fmt.Sprintf("%s aligns with its family grid", tokens.FormatNumber(token.BaseValue)),
			reasoning)
	case token.IsStrategicFlexibility:
		return tokens.Pass(token.Name,
			"Strategic flexibility token validated",
			fmt.Sprintf("%s is a sanctioned exception to baseline grid alignment", tokens.FormatNumber(token.BaseValue)),
			reasoning)
	case token.IsPrecisionTargeted:
		return tokens.Warning(token.Name,
			"Precision-targeted token is not grid aligned",
			fmt.Sprintf("%s intentionally targets sub-grid precision", tokens.FormatNumber(token.BaseValue)),
			reasoning,
			"Confirm the precision target is documented",
			"Prefer a grid-aligned value where optical correction is not required")
	}

	return tokens.Error(token.Name,
		"Baseline grid alignment violation",
		fmt.Sprintf("%s is neither aligned to the baseline grid nor a strategic flexibility value", tokens.FormatNumber(token.BaseValue)),
		reasoning,
		"Use a value that is a multiple of the family grid unit",
		"Mark the token as strategic flexibility if the exception is deliberate")
}

// Remove deletes the named token and its index entry.
func (r *PrimitiveRegistry) Remove(name string) bool {
	t, ok := r.tokens[name]
	if !ok {
		return false
	}
	r.unindex(t)
	delete(r.tokens, name)
	return true
}

// Clear empties the store and resets the category index.
func (r *PrimitiveRegistry) Clear() {
	r.tokens = map[string]*tokens.PrimitiveToken{}
	r.byCategory = map[tokens.Category]map[string]struct{}{}
}

// PrimitiveStats summarises the registry for health reporting.
type PrimitiveStats struct {
	TotalTokens                    int                     `json:"totalTokens"`
	CategoryStats                  map[tokens.Category]int `json:"categoryStats"`
	StrategicFlexibilityCount      int                     `json:"strategicFlexibilityCount"`
	StrategicFlexibilityPercentage float64                 `json:"strategicFlexibilityPercentage"`
}

func (r *PrimitiveRegistry) Stats() PrimitiveStats {
	s := PrimitiveStats{
		TotalTokens:   len(r.tokens),
		CategoryStats: map[tokens.Category]int{},
	}
	for c, idx := range r.byCategory {
		s.CategoryStats[c] = len(idx)
	}
	for _, t := range r.tokens {
		if t.IsStrategicFlexibility {
			s.StrategicFlexibilityCount++
		}
	}
	if s.TotalTokens > 0 {
		s.StrategicFlexibilityPercentage = float64(s.StrategicFlexibilityCount) / float64(s.TotalTokens) * 100
	}
	return s
}
