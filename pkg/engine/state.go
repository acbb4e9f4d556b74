package engine

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"go.uber.org/multierr"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/config"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

// State is a serialisable snapshot of the token system.
type State struct {
	Primitives []*tokens.PrimitiveToken `json:"primitiveTokens" yaml:"primitiveTokens"`
	Semantics  []*tokens.SemanticToken  `json:"semanticTokens" yaml:"semanticTokens"`
	Components []*tokens.ComponentToken `json:"componentTokens,omitempty" yaml:"componentTokens,omitempty"`
	Config     *config.Config           `json:"config,omitempty" yaml:"config,omitempty"`
	Stats      *Stats                   `json:"stats,omitempty" yaml:"-"`
}

// Reset clears every registry, recorded usage and rejection. Configuration is
// kept.
func (e *Engine) Reset() {
	e.primitives.Clear()
	e.semantics.Clear()
	e.components.Clear()
	e.usages = nil
	e.rejected = nil
}

func (e *Engine) ExportState(ctx context.Context) State {
	stats := e.Stats(ctx)
	return State{
		Primitives: e.Primitives(),
		Semantics:  e.Semantics(),
		Components: e.Components(),
		Config:     e.Config(),
		Stats:      &stats,
	}
}

// ImportState resets the engine, applies the snapshot's configuration and
// registers every token through the normal path. Each rejected token is
// reported in the returned error; accepted tokens stay registered.
func (e *Engine) ImportState(ctx context.Context, state State) error {
	e.Reset()

	if state.Config != nil {
		if err := e.UpdateConfig(state.Config); err != nil {
			return errors.Errorf("importing config: %w", err)
		}
	}

	var errs error
	for _, t := range state.Primitives {
		if res := e.RegisterPrimitive(ctx, t); res.Level == tokens.LevelError {
			errs = multierr.Append(errs, errors.Errorf("primitive token %s: %s", t.Name, res.Message))
		}
	}
	for _, t := range state.Semantics {
		if res := e.RegisterSemantic(ctx, t); res.Level == tokens.LevelError {
			errs = multierr.Append(errs, errors.Errorf("semantic token %s: %s", t.Name, res.Message))
		}
	}
	for _, t := range state.Components {
		if res := e.RegisterComponent(ctx, t); res.Level == tokens.LevelError {
			errs = multierr.Append(errs, errors.Errorf("component token %s: %s", t.Name, res.Message))
		}
	}

	zerolog.Ctx(ctx).Debug().
		Int("primitives", e.primitives.Len()).
		Int("semantics", e.semantics.Len()).
		Int("rejected", len(multierr.Errors(errs))).
		Msg("state imported")
	return errs
}
