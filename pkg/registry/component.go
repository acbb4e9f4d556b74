package registry

import (
	"sort"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"gitlab.com/tozd/go/errors"
)

// ComponentRegistry holds component tokens minted by the selector.
type ComponentRegistry struct {
	tokens      map[string]*tokens.ComponentToken
	byComponent map[string]map[string]struct{}
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		tokens:      map[string]*tokens.ComponentToken{},
		byComponent: map[string]map[string]struct{}{},
	}
}

func (r *ComponentRegistry) Register(token *tokens.ComponentToken, opts RegisterOptions) error {
	if token == nil || token.Name == "" {
		return errors.Errorf("component token must have a name")
	}
	prev, exists := r.tokens[token.Name]
	if exists && !opts.AllowOverwrite {
		return &tokens.DuplicateTokenError{Kind: tokens.KindComponent, Name: token.Name}
	}
	if exists {
		idx := r.byComponent[prev.Component]
		delete(idx, prev.Name)
		if len(idx) == 0 {
			delete(r.byComponent, prev.Component)
		}
	}

	stored := token.Clone()
	r.tokens[stored.Name] = stored
	idx, ok := r.byComponent[stored.Component]
	if !ok {
		idx = map[string]struct{}{}
		r.byComponent[stored.Component] = idx
	}
	idx[stored.Name] = struct{}{}
	return nil
}

func (r *ComponentRegistry) Get(name string) (*tokens.ComponentToken, bool) {
	t, ok := r.tokens[name]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// ByComponent lists the tokens minted for one component, sorted by name.
func (r *ComponentRegistry) ByComponent(component string) []*tokens.ComponentToken {
	out := []*tokens.ComponentToken{}
	for n := range r.byComponent[component] {
		out = append(out, r.tokens[n].Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// All lists every component token, sorted by name.
func (r *ComponentRegistry) All() []*tokens.ComponentToken {
	out := make([]*tokens.ComponentToken, 0, len(r.tokens))
	for _, t := range r.tokens {
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *ComponentRegistry) Len() int {
	return len(r.tokens)
}

func (r *ComponentRegistry) Clear() {
	r.tokens = map[string]*tokens.ComponentToken{}
	r.byComponent = map[string]map[string]struct{}{}
}
