package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/config"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/convert"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/engine"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/metrics"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/validate"
)

var conv = convert.New()

func testContext(t *testing.T) context.Context {
	return zerolog.New(zerolog.TestWriter{T: t}).With().Str("test", t.Name()).Logger().WithContext(context.Background())
}

func primitive(name string, cat tokens.Category, v float64) *tokens.PrimitiveToken {
	grid := cat == tokens.CategorySpacing || cat == tokens.CategoryRadius
	t := &tokens.PrimitiveToken{
		Name:                   name,
		Category:               cat,
		BaseValue:              v,
		FamilyBaseValue:        8,
		BaselineGridAlignment:  grid && tokens.IsGridAligned(v, 8),
		IsStrategicFlexibility: grid && tokens.IsStrategicFlexibilityValue(v),
	}
	if cat == tokens.CategoryFontSize {
		t.FamilyBaseValue = 16
	}
	t.Platforms = conv.Project(t)
	return t
}

func semantic(name string, refs map[string]string) *tokens.SemanticToken {
	return &tokens.SemanticToken{
		Name:                name,
		Category:            tokens.CategorySpacing,
		PrimitiveReferences: refs,
		Description:         "documented " + name,
		Context:             "used for " + name,
	}
}

func newEngine(t *testing.T, cfg *config.Config, opts ...engine.Option) *engine.Engine {
	t.Helper()
	e, err := engine.New(cfg, opts...)
	require.NoError(t, err)
	return e
}

// healthySystem registers one strategic flexibility token out of six primitives.
func healthySystem(t *testing.T, e *engine.Engine) {
	t.Helper()
	ctx := testContext(t)
	for _, p := range []*tokens.PrimitiveToken{
		primitive("space075", tokens.CategorySpacing, 6),
		primitive("space100", tokens.CategorySpacing, 8),
		primitive("space200", tokens.CategorySpacing, 16),
		primitive("space300", tokens.CategorySpacing, 24),
		primitive("space400", tokens.CategorySpacing, 32),
		primitive("fontSize100", tokens.CategoryFontSize, 16),
	} {
		require.Equal(t, tokens.LevelPass, e.RegisterPrimitive(ctx, p).Level, p.Name)
	}
	res := e.RegisterSemantic(ctx, semantic("space.grouped.normal", map[string]string{"default": "space100"}))
	require.Equal(t, tokens.LevelPass, res.Level, res.Message)
}

func TestEngine_RegisterPrimitive(t *testing.T) {
	ctx := testContext(t)
	e := newEngine(t, nil)

	res := e.RegisterPrimitive(ctx, primitive("space100", tokens.CategorySpacing, 8))
	assert.Equal(t, tokens.LevelPass, res.Level)
	_, ok := e.Primitive("space100")
	assert.True(t, ok)

	res = e.RegisterPrimitive(ctx, primitive("space090", tokens.CategorySpacing, 7))
	assert.Equal(t, tokens.LevelError, res.Level)
	assert.Contains(t, res.Message, "Baseline grid alignment violation")
	_, ok = e.Primitive("space090")
	assert.False(t, ok, "an Error verdict blocks storage")

	res = e.RegisterPrimitive(ctx, primitive("space100", tokens.CategorySpacing, 8))
	assert.Equal(t, tokens.LevelError, res.Level)
	assert.Contains(t, res.Message, "already registered")
	assert.Equal(t, "Token registration failed after successful validation", res.Rationale)
	assert.Equal(t, []string{"Check for duplicate token names", "Use allowOverwrite option if intentional"}, res.Suggestions)

	rejected := e.Rejected()
	require.Len(t, rejected, 2)
	assert.Equal(t, "space090", rejected[0].Token)

	report := e.GenerateValidationReport(ctx)
	assert.Equal(t, 3, report.Summary.Total)
	assert.Equal(t, 2, report.Summary.Error)

	e.Reset()
	assert.Empty(t, e.Rejected())
}

func TestEngine_RejectedClearedOnLaterSuccess(t *testing.T) {
	ctx := testContext(t)
	e := newEngine(t, nil)

	res := e.RegisterPrimitive(ctx, primitive("space090", tokens.CategorySpacing, 7))
	require.Equal(t, tokens.LevelError, res.Level)
	res = e.RegisterPrimitive(ctx, primitive("space110", tokens.CategorySpacing, 9))
	require.Equal(t, tokens.LevelError, res.Level)
	require.Len(t, e.Rejected(), 2)

	res = e.RegisterPrimitive(ctx, primitive("space090", tokens.CategorySpacing, 8))
	require.Equal(t, tokens.LevelPass, res.Level, res.Message)

	rejected := e.Rejected()
	require.Len(t, rejected, 1)
	assert.Equal(t, "space110", rejected[0].Token)

	report := e.GenerateValidationReport(ctx)
	assert.Equal(t, 2, report.Summary.Total)
	assert.Equal(t, 1, report.Summary.Error)
	assert.Equal(t, 1, report.Summary.Pass)
}

func TestEngine_RegisterWithoutAutoValidation(t *testing.T) {
	ctx := testContext(t)
	cfg := config.Default()
	cfg.AutoValidate = false
	e := newEngine(t, cfg)

	res := e.RegisterPrimitive(ctx, primitive("space090", tokens.CategorySpacing, 7))
	assert.Equal(t, tokens.LevelPass, res.Level)
	assert.Equal(t, "Auto-validation is disabled", res.Rationale)
	_, ok := e.Primitive("space090")
	assert.True(t, ok)

	res = e.RegisterPrimitive(ctx, primitive("space090", tokens.CategorySpacing, 7))
	assert.Equal(t, tokens.LevelError, res.Level)
	assert.Equal(t, "Token registration failed", res.Rationale)
}

func TestEngine_RegisterSemantic(t *testing.T) {
	ctx := testContext(t)
	e := newEngine(t, nil)
	require.Equal(t, tokens.LevelPass, e.RegisterPrimitive(ctx, primitive("space100", tokens.CategorySpacing, 8)).Level)

	results := e.RegisterSemantics(ctx, []*tokens.SemanticToken{
		semantic("space.grouped.normal", map[string]string{"default": "space100"}),
		semantic("space.broken", map[string]string{"default": "doesNotExist"}),
	})
	require.Len(t, results, 2)
	assert.Equal(t, tokens.LevelPass, results[0].Level)
	assert.Equal(t, tokens.LevelError, results[1].Level)
	assert.Contains(t, results[1].Message, "doesNotExist")

	_, ok := e.Semantic("space.broken")
	assert.False(t, ok)
	assert.Len(t, e.Semantics(), 1)
}

func TestEngine_GenerateValidationReport(t *testing.T) {
	ctx := testContext(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := metrics.NewRecorder()
	e := newEngine(t, nil, engine.WithClock(func() time.Time { return at }), engine.WithObserver(rec))
	healthySystem(t, e)

	report := e.GenerateValidationReport(ctx)

	_, err := uuid.Parse(report.ID)
	require.NoError(t, err)
	assert.Equal(t, at, report.GeneratedAt)
	assert.Equal(t, engine.Summary{Total: 7, Pass: 7, OverallHealthScore: 1}, report.Summary)
	assert.Len(t, report.Results, 7)
	assert.Equal(t, 1.0, report.SystemAnalysis.MathematicalConsistencyScore)
	assert.InDelta(t, 100.0/6.0, report.SystemAnalysis.StrategicFlexibilityPercentage, 1e-9)
	assert.Zero(t, report.SystemAnalysis.CompositionSemanticFirstPercentage)
	assert.Empty(t, report.SystemAnalysis.CriticalErrors)

	assert.Equal(t, 1.0, testutil.ToFloat64(rec.Health))
	assert.Equal(t, 6.0, testutil.ToFloat64(rec.Tokens.WithLabelValues("primitive")))
	assert.Positive(t, testutil.ToFloat64(rec.Validations.WithLabelValues("primitive", "pass")))

	second := e.GenerateValidationReport(ctx)
	assert.NotEqual(t, report.ID, second.ID)
}

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 1.0, engine.HealthScore(tokens.Counts{}))
	assert.Equal(t, 0.75, engine.HealthScore(tokens.Counts{Total: 4, Pass: 2, Warning: 2}))
	assert.Equal(t, 0.0, engine.HealthScore(tokens.Counts{Total: 2, Error: 2}))
}

func TestEngine_HealthStatus(t *testing.T) {
	noAuto := config.Default()
	noAuto.AutoValidate = false

	tests := []struct {
		name       string
		cfg        *config.Config
		primitives []*tokens.PrimitiveToken
		want       engine.HealthState
		wantIssue  string
	}{
		{
			name:       "empty system",
			primitives: nil,
			want:       engine.Healthy,
		},
		{
			name: "errors are critical",
			cfg:  noAuto,
			primitives: []*tokens.PrimitiveToken{
				primitive("space100", tokens.CategorySpacing, 8),
				primitive("space090", tokens.CategorySpacing, 7),
			},
			want:      engine.Critical,
			wantIssue: "1 critical validation errors detected",
		},
		{
			name: "strategic flexibility heavy",
			primitives: []*tokens.PrimitiveToken{
				primitive("space025", tokens.CategorySpacing, 2),
				primitive("space075", tokens.CategorySpacing, 6),
				primitive("space100", tokens.CategorySpacing, 8),
			},
			want:      engine.Degraded,
			wantIssue: "High strategic flexibility usage: 66.7%",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := testContext(t)
			e := newEngine(t, tt.cfg)
			e.RegisterPrimitives(ctx, tt.primitives)

			h := e.HealthStatus(ctx)
			assert.Equal(t, tt.want, h.Status, h.Issues)
			if tt.wantIssue == "" {
				assert.Empty(t, h.Issues)
				return
			}
			assert.Contains(t, h.Issues, tt.wantIssue)
			assert.Len(t, h.Recommendations, len(h.Issues))
		})
	}
}

func TestEngine_HealthyFixture(t *testing.T) {
	ctx := testContext(t)
	e := newEngine(t, nil)
	healthySystem(t, e)

	h := e.HealthStatus(ctx)
	assert.Equal(t, engine.Healthy, h.Status, h.Issues)

	stats := e.Stats(ctx)
	assert.Equal(t, 6, stats.Primitives.TotalTokens)
	assert.Equal(t, 1, stats.Semantics.TotalTokens)
	assert.Equal(t, []tokens.Platform{tokens.PlatformWeb, tokens.PlatformIOS, tokens.PlatformAndroid}, stats.EnabledPlatforms)
}

func TestEngine_RecordUsage(t *testing.T) {
	ctx := testContext(t)
	e := newEngine(t, nil)
	healthySystem(t, e)

	res, err := e.RecordUsage(ctx, "space100", validate.UsageContext{UsageContext: "button", PropertyType: "padding"})
	require.NoError(t, err)
	assert.Equal(t, tokens.LevelWarning, res.Level)
	assert.Contains(t, res.Suggestions[0], "space.grouped.normal")

	res, err = e.RecordUsage(ctx, "space.grouped.normal", validate.UsageContext{UsageContext: "list", PropertyType: "gap"})
	require.NoError(t, err)
	assert.Equal(t, tokens.LevelPass, res.Level)

	_, err = e.RecordUsage(ctx, "nope", validate.UsageContext{UsageContext: "list", PropertyType: "gap"})
	require.Error(t, err)

	stats := e.CompositionStats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 50.0, stats.SemanticFirstPercentage)
	assert.Equal(t, 50.0, e.GenerateValidationReport(ctx).SystemAnalysis.CompositionSemanticFirstPercentage)
}

func TestEngine_UsageFeedsWarningTier(t *testing.T) {
	ctx := testContext(t)
	e := newEngine(t, nil)
	healthySystem(t, e)

	for range 2 {
		_, err := e.RecordUsage(ctx, "space075", validate.UsageContext{UsageContext: "toolbar", PropertyType: "gap"})
		require.NoError(t, err)
	}

	tok, ok := e.Primitive("space075")
	require.True(t, ok)
	res := e.ValidateToken(ctx, tok)
	assert.Equal(t, tokens.LevelWarning, res.Level)
	assert.Equal(t, "Strategic flexibility overuse detected", res.Message)

	e.Reset()
	assert.Empty(t, e.Primitives())
	assert.Zero(t, e.CompositionStats().Total)
}

func TestEngine_ValidateCrossPlatformConsistency(t *testing.T) {
	ctx := testContext(t)
	cfg := config.Default()
	cfg.EnableCrossPlatformValidation = false
	e := newEngine(t, cfg)

	drifted := primitive("space200", tokens.CategorySpacing, 16)
	drifted.Platforms.Web.Value = 17
	require.Equal(t, tokens.LevelPass, e.RegisterPrimitive(ctx, drifted).Level)
	require.Equal(t, tokens.LevelPass, e.RegisterPrimitive(ctx, primitive("space100", tokens.CategorySpacing, 8)).Level)
	require.Equal(t, tokens.LevelPass, e.RegisterPrimitive(ctx, &tokens.PrimitiveToken{Name: "space300", Category: tokens.CategorySpacing, BaseValue: 24, BaselineGridAlignment: true}).Level)

	results := e.ValidateCrossPlatformConsistency(ctx)
	require.Len(t, results, 2, "tokens without platform values are skipped")
	assert.Equal(t, "space100", results[0].Token)
	assert.Equal(t, tokens.LevelPass, results[0].Level)
	assert.Equal(t, tokens.LevelError, results[1].Level)
	assert.Contains(t, results[1].Rationale, "ios-web")

	report := e.GenerateValidationReport(ctx)
	assert.InDelta(t, (1+1.0/3.0)/2, report.SystemAnalysis.MathematicalConsistencyScore, 1e-9)
}

func TestEngine_ExportImportState(t *testing.T) {
	ctx := testContext(t)
	src := newEngine(t, nil)
	healthySystem(t, src)

	state := src.ExportState(ctx)
	require.NotNil(t, state.Stats)
	assert.Len(t, state.Primitives, 6)

	dst := newEngine(t, nil)
	require.NoError(t, dst.ImportState(ctx, state))
	assert.Equal(t, src.Primitives(), dst.Primitives())
	assert.Equal(t, src.Semantics(), dst.Semantics())

	bad := engine.State{
		Primitives: []*tokens.PrimitiveToken{
			primitive("space100", tokens.CategorySpacing, 8),
			primitive("space090", tokens.CategorySpacing, 7),
		},
		Semantics: []*tokens.SemanticToken{semantic("space.broken", map[string]string{"default": "doesNotExist"})},
	}
	err := dst.ImportState(ctx, bad)
	require.Error(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "primitive token space090")
	assert.Contains(t, errs[1].Error(), "semantic token space.broken")
	assert.Len(t, dst.Primitives(), 1, "import replaces the previous state")
}

func TestEngine_UpdateConfig(t *testing.T) {
	e := newEngine(t, nil)

	bad := config.Default()
	bad.Precision = -1
	require.Error(t, e.UpdateConfig(bad))

	cfg := config.Default()
	cfg.Precision = 1
	require.NoError(t, e.UpdateConfig(cfg))
	assert.Equal(t, 1, e.Converter().Precision())
	assert.Equal(t, 1, e.Config().Precision)

	_, err := engine.New(bad)
	require.Error(t, err)
}
