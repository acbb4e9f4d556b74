package loader

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/engine"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/validate"
)

// Apply registers primitives, then semantics, then components with e and
// records every usage. It returns one registration verdict per token in that
// order. Rejected tokens are verdicts, not errors; the error collects usages
// naming tokens that are not registered.
func (s *Set) Apply(ctx context.Context, e *engine.Engine) ([]tokens.ValidationResult, error) {
	results := e.RegisterPrimitives(ctx, s.Primitives)
	results = append(results, e.RegisterSemantics(ctx, s.Semantics)...)
	for _, c := range s.Components {
		results = append(results, e.RegisterComponent(ctx, c))
	}

	var result *multierror.Error
	for _, u := range s.Usages {
		usage := validate.UsageContext{UsageContext: u.Context, PropertyType: u.Property}
		if _, err := e.RecordUsage(ctx, u.Token, usage); err != nil {
			result = multierror.Append(result, errors.Errorf("%s: %w", u.Source, err))
		}
	}
	return results, result.ErrorOrNil()
}
