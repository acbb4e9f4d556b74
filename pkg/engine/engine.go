// Package engine wires configuration into the registries, validators and
// selector and aggregates their verdicts into reports. It holds no decision
// logic of its own.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/config"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/selection"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/validate"
)

// Observer receives every verdict the engine produces. *metrics.Recorder
// implements it.
type Observer interface {
	ObserveValidation(kind tokens.Kind, level tokens.Level)
	ObserveSystem(primitives, semantics, components int, consistency, health float64)
}

type Option func(*Engine)

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithClock replaces time.Now for report timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type recordedUsage struct {
	token  tokens.Token
	result validate.CompositionResult
}

// Engine owns one token system. It performs no locking; a single caller drives
// registration and validation.
type Engine struct {
	cfg *config.Config

	primitives *registry.PrimitiveRegistry
	semantics  *registry.SemanticRegistry
	components *registry.ComponentRegistry

	converter   *convert.Converter
	validator   *validate.ThreeTierValidator
	consistency *validate.CrossPlatformConsistencyValidator
	composition *validate.CompositionPatternValidator
	integrator  *selection.Integrator

	usages   []recordedUsage
	rejected []tokens.ValidationResult
	observer Observer
	now      func() time.Time
}

// New validates cfg and builds an empty engine. A nil cfg means config.Default().
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	e := &Engine{
		primitives: registry.NewPrimitiveRegistry(),
		components: registry.NewComponentRegistry(),
		now:        time.Now,
	}
	e.semantics = registry.NewSemanticRegistry(e.primitives)
	for _, opt := range opts {
		opt(e)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := e.UpdateConfig(cfg); err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateConfig replaces the configuration and rebuilds the converter and every
// validator. Registered tokens are kept.
func (e *Engine) UpdateConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.cfg = cfg.Clone()
	e.converter = convert.New(e.cfg.ConverterOptions()...)
	e.validator = validate.NewThreeTierValidator(e.primitives, e.semantics, e.converter, e.cfg.Policy())
	e.consistency = validate.NewCrossPlatformConsistencyValidator(e.converter)
	e.composition = validate.NewCompositionPatternValidator(e.semantics)
	e.integrator = selection.NewIntegrator(e.primitives, e.semantics, e.components, e.converter)
	return nil
}

// Config returns a copy of the active configuration.
func (e *Engine) Config() *config.Config { return e.cfg.Clone() }

func (e *Engine) Converter() *convert.Converter     { return e.converter }
func (e *Engine) Integrator() *selection.Integrator { return e.integrator }

func (e *Engine) Primitive(name string) (*tokens.PrimitiveToken, bool) { return e.primitives.Get(name) }
func (e *Engine) Semantic(name string) (*tokens.SemanticToken, bool)   { return e.semantics.Get(name) }

func (e *Engine) Primitives() []*tokens.PrimitiveToken {
	return e.primitives.Query(registry.PrimitiveQuery{})
}

func (e *Engine) Semantics() []*tokens.SemanticToken {
	return e.semantics.Query(registry.SemanticQuery{})
}

func (e *Engine) Components() []*tokens.ComponentToken {
	return e.components.All()
}

var (
	duplicateSuggestions         = []string{"Check for duplicate token names", "Use allowOverwrite option if intentional"}
	semanticRegisterSuggestions  = []string{"Check for duplicate token names", "Ensure all primitive references exist", "Use allowOverwrite option if intentional"}
	registeredWithoutValidation  = "Token registered successfully without validation"
	autoValidationDisabledReason = "Auto-validation is disabled"
)

// RegisterPrimitive validates token (when auto_validate is on) and stores it
// unless the verdict is Error. Rejections are kept for the next report.
func (e *Engine) RegisterPrimitive(ctx context.Context, token *tokens.PrimitiveToken) tokens.ValidationResult {
	return e.register(ctx, token, duplicateSuggestions, func() error {
		return e.primitives.Register(token, registry.RegisterOptions{SkipValidation: true})
	})
}

func (e *Engine) RegisterSemantic(ctx context.Context, token *tokens.SemanticToken) tokens.ValidationResult {
	return e.register(ctx, token, semanticRegisterSuggestions, func() error {
		return e.semantics.Register(token, registry.RegisterOptions{SkipValidation: true})
	})
}

func (e *Engine) RegisterComponent(ctx context.Context, token *tokens.ComponentToken) tokens.ValidationResult {
	return e.register(ctx, token, duplicateSuggestions, func() error {
		return e.components.Register(token, registry.RegisterOptions{})
	})
}

func (e *Engine) register(ctx context.Context, token tokens.Token, suggestions []string, store func() error) tokens.ValidationResult {
	logger := zerolog.Ctx(ctx).With().Str("token", token.TokenName()).Str("kind", string(token.Kind())).Logger()

	var verdict *tokens.ValidationResult
	if e.cfg.AutoValidate {
		res := e.ValidateToken(ctx, token)
		if res.Level == tokens.LevelError {
			logger.Warn().Str("reason", res.Message).Msg("registration rejected by validation")
			e.rejected = append(e.rejected, res)
			return res
		}
		verdict = &res
	}

	if err := store(); err != nil {
		rationale := "Token registration failed"
		if verdict != nil {
			rationale = "Token registration failed after successful validation"
		}
		logger.Warn().Err(err).Msg("registration failed")
		res := tokens.Error(token.TokenName(), err.Error(), rationale, "N/A", suggestions...)
		e.rejected = append(e.rejected, res)
		return res
	}

	e.clearRejected(token.TokenName())
	logger.Debug().Msg("token registered")
	if verdict != nil {
		return *verdict
	}
	return tokens.Pass(token.TokenName(), registeredWithoutValidation, autoValidationDisabledReason, "N/A")
}

// clearRejected drops earlier failed attempts for a name that is now stored.
func (e *Engine) clearRejected(name string) {
	kept := e.rejected[:0]
	for _, r := range e.rejected {
		if r.Token != name {
			kept = append(kept, r)
		}
	}
	e.rejected = kept
}

func (e *Engine) RegisterPrimitives(ctx context.Context, ts []*tokens.PrimitiveToken) []tokens.ValidationResult {
	out := make([]tokens.ValidationResult, 0, len(ts))
	for _, t := range ts {
		out = append(out, e.RegisterPrimitive(ctx, t))
	}
	return out
}

func (e *Engine) RegisterSemantics(ctx context.Context, ts []*tokens.SemanticToken) []tokens.ValidationResult {
	out := make([]tokens.ValidationResult, 0, len(ts))
	for _, t := range ts {
		out = append(out, e.RegisterSemantic(ctx, t))
	}
	return out
}

// ValidateToken runs the three-tier validator with whatever usage data has been
// recorded for the token.
func (e *Engine) ValidateToken(ctx context.Context, token tokens.Token) tokens.ValidationResult {
	res := e.validator.Validate(e.validationContext(token))
	zerolog.Ctx(ctx).Trace().Str("token", token.TokenName()).Stringer("level", res.Primary.Level).Msg("token validated")
	if e.observer != nil {
		e.observer.ObserveValidation(token.Kind(), res.Primary.Level)
	}
	return res.Primary
}

// ValidateAll validates primitives by name, then semantics, then component tokens.
func (e *Engine) ValidateAll(ctx context.Context) []tokens.ValidationResult {
	var out []tokens.ValidationResult
	for _, t := range e.Primitives() {
		out = append(out, e.ValidateToken(ctx, t))
	}
	for _, t := range e.Semantics() {
		out = append(out, e.ValidateToken(ctx, t))
	}
	for _, t := range e.Components() {
		out = append(out, e.ValidateToken(ctx, t))
	}
	return out
}

// RecordUsage registers that the named token is consumed in usage and returns
// the composition verdict for it.
func (e *Engine) RecordUsage(ctx context.Context, name string, usage validate.UsageContext) (tokens.ValidationResult, error) {
	tok, ok := e.lookup(name)
	if !ok {
		return tokens.ValidationResult{}, errors.Errorf("recording usage %s: token %q is not registered", usage, name)
	}
	res := e.composition.ValidateTokenUsage(tok, usage, validate.DefaultCompositionOptions())
	e.usages = append(e.usages, recordedUsage{
		token:  tok,
		result: validate.CompositionResult{ValidationResult: res, Kind: tok.Kind()},
	})
	zerolog.Ctx(ctx).Trace().Str("token", name).Stringer("usage", usage).Stringer("level", res.Level).Msg("usage recorded")
	return res, nil
}

func (e *Engine) lookup(name string) (tokens.Token, bool) {
	if t, ok := e.semantics.Get(name); ok {
		return t, true
	}
	if t, ok := e.primitives.Get(name); ok {
		return t, true
	}
	if t, ok := e.components.Get(name); ok {
		return t, true
	}
	return nil, false
}

// Rejected returns the Error verdicts of every failed registration since the
// last Reset.
func (e *Engine) Rejected() []tokens.ValidationResult {
	return append([]tokens.ValidationResult(nil), e.rejected...)
}

// CompositionStats summarises every recorded usage.
func (e *Engine) CompositionStats() validate.CompositionStats {
	results := make([]validate.CompositionResult, 0, len(e.usages))
	for _, u := range e.usages {
		results = append(results, u.result)
	}
	return validate.GetCompositionStats(results)
}

func (e *Engine) validationContext(token tokens.Token) validate.Context {
	c := validate.Context{Token: token}
	p, ok := token.(*tokens.PrimitiveToken)
	if !ok || len(e.usages) == 0 {
		return c
	}

	var family validate.FamilyUsage
	var flex validate.FlexibilityUsage
	for _, u := range e.usages {
		switch t := u.token.(type) {
		case *tokens.PrimitiveToken:
			if t.Category == p.Category {
				family.PrimitiveUsage++
				family.TotalUsage++
			}
			if t.IsStrategicFlexibility {
				flex.TotalUsage++
			}
		case *tokens.SemanticToken:
			if t.Category == p.Category {
				family.TotalUsage++
			}
			if e.referencesStrategicFlexibility(t) {
				flex.TotalUsage++
				flex.AppropriateUsage++
			}
		}
	}
	if family.TotalUsage > 0 {
		c.FamilyUsage = &family
		for _, s := range e.semantics.Query(registry.SemanticQuery{References: p.Name}) {
			c.AvailableSemanticTokens = append(c.AvailableSemanticTokens, s.Name)
		}
	}
	if flex.TotalUsage > 0 {
		c.FlexibilityUsage = &flex
	}
	return c
}

func (e *Engine) referencesStrategicFlexibility(t *tokens.SemanticToken) bool {
	for _, ref := range t.PrimitiveReferences {
		if p, ok := e.primitives.Get(ref); ok && p.IsStrategicFlexibility {
			return true
		}
	}
	return false
}

// ValidateCrossPlatformConsistency checks the declared platform values of every
// primitive that has them.
func (e *Engine) ValidateCrossPlatformConsistency(ctx context.Context) []tokens.ValidationResult {
	var out []tokens.ValidationResult
	for _, p := range e.Primitives() {
		if p.Platforms.IsZero() {
			continue
		}
		r := e.consistency.Validate(p, validate.ConsistencyOptions{})
		out = append(out, consistencyVerdict(r))
	}
	zerolog.Ctx(ctx).Debug().Int("tokens", len(out)).Msg("cross-platform consistency validated")
	return out
}
