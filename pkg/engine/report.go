package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/registry"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
	"github.com/3fn/DesignerPunkv2-sub017/pkg/validate"
)

type Summary struct {
	Total              int     `json:"total"`
	Pass               int     `json:"pass"`
	Warning            int     `json:"warning"`
	Error              int     `json:"error"`
	OverallHealthScore float64 `json:"overallHealthScore"`
}

type SystemAnalysis struct {
	MathematicalConsistencyScore       float64                   `json:"mathematicalConsistencyScore"`
	StrategicFlexibilityPercentage     float64                   `json:"strategicFlexibilityPercentage"`
	CompositionSemanticFirstPercentage float64                   `json:"compositionSemanticFirstPercentage"`
	CommonIssues                       []string                  `json:"commonIssues,omitempty"`
	CriticalErrors                     []tokens.ValidationResult `json:"criticalErrors,omitempty"`
	ImprovementRecommendations         []string                  `json:"improvementRecommendations,omitempty"`
}

// Report is the full validation snapshot of the system.
type Report struct {
	ID             string                    `json:"id"`
	GeneratedAt    time.Time                 `json:"generatedAt"`
	Summary        Summary                   `json:"summary"`
	Results        []tokens.ValidationResult `json:"results"`
	SystemAnalysis SystemAnalysis            `json:"systemAnalysis"`
}

// HealthScore weighs a warning as half a pass. An empty system is healthy.
func HealthScore(c tokens.Counts) float64 {
	if c.Total == 0 {
		return 1
	}
	return (float64(c.Pass) + 0.5*float64(c.Warning)) / float64(c.Total)
}

// GenerateValidationReport validates every registered token. Results end with
// the verdicts of rejected registrations so a rejected token still counts.
func (e *Engine) GenerateValidationReport(ctx context.Context) *Report {
	results := append(e.ValidateAll(ctx), e.rejected...)
	counts := tokens.CountLevels(results)

	r := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: e.now(),
		Summary: Summary{
			Total:              counts.Total,
			Pass:               counts.Pass,
			Warning:            counts.Warning,
			Error:              counts.Error,
			OverallHealthScore: HealthScore(counts),
		},
		Results: results,
		SystemAnalysis: SystemAnalysis{
			MathematicalConsistencyScore:       e.consistencyScore(),
			StrategicFlexibilityPercentage:     e.primitives.Stats().StrategicFlexibilityPercentage,
			CompositionSemanticFirstPercentage: e.CompositionStats().SemanticFirstPercentage,
			CommonIssues:                       commonIssues(results),
		},
	}
	for _, res := range results {
		if res.Level == tokens.LevelError {
			r.SystemAnalysis.CriticalErrors = append(r.SystemAnalysis.CriticalErrors, res)
		}
	}
	r.SystemAnalysis.ImprovementRecommendations = e.recommendations(r)

	if e.observer != nil {
		e.observer.ObserveSystem(e.primitives.Len(), e.semantics.Len(), e.components.Len(),
			r.SystemAnalysis.MathematicalConsistencyScore, r.Summary.OverallHealthScore)
	}
	zerolog.Ctx(ctx).Debug().
		Str("report", r.ID).
		Int("total", counts.Total).
		Int("errors", counts.Error).
		Float64("health", r.Summary.OverallHealthScore).
		Msg("validation report generated")
	return r
}

// commonIssues lists the non-pass messages raised by more than one token, most
// frequent first.
func commonIssues(results []tokens.ValidationResult) []string {
	counts := map[string]int{}
	for _, r := range results {
		if r.Level != tokens.LevelPass {
			counts[r.Message]++
		}
	}
	var out []string
	for msg, n := range counts {
		if n > 1 {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if counts[out[i]] != counts[out[j]] {
			return counts[out[i]] > counts[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}

func (e *Engine) recommendations(r *Report) []string {
	var out []string
	if r.Summary.Error > 0 {
		out = append(out, fmt.Sprintf("Resolve %d validation error(s) before generating platform output", r.Summary.Error))
	}
	if r.SystemAnalysis.StrategicFlexibilityPercentage > e.flexibilityLimit() {
		out = append(out, "Consider creating semantic tokens for common use cases")
	}
	if r.SystemAnalysis.MathematicalConsistencyScore < 1 {
		out = append(out, "Regenerate platform values from base values for inconsistent tokens")
	}
	if stats := e.CompositionStats(); stats.Total > 0 && stats.PrimitiveUsage > 0 {
		out = append(out, "Prefer semantic tokens over direct primitive usage")
	}
	return out
}

func (e *Engine) flexibilityLimit() float64 {
	return (1 - e.cfg.StrategicFlexibilityThreshold) * 100
}

// consistencyScore averages the pair agreement of every numeric primitive with
// declared platform values. No such primitives scores 1.
func (e *Engine) consistencyScore() float64 {
	var sum float64
	var n int
	for _, p := range e.primitives.Query(registry.PrimitiveQuery{}) {
		if p.Platforms.IsZero() || !p.Platforms.Web.IsNumeric() {
			continue
		}
		sum += e.consistency.Validate(p, validate.ConsistencyOptions{}).Score
		n++
	}
	if n == 0 {
		return 1
	}
	return sum / float64(n)
}

func consistencyVerdict(r validate.ConsistencyResult) tokens.ValidationResult {
	if r.Consistent {
		return tokens.Pass(r.Token,
			"Cross-platform consistency validated",
			fmt.Sprintf("All platform values agree (score %.2f)", r.Score),
			r.ToleranceReasoning)
	}
	var details []string
	details = append(details, r.FailedPairs...)
	details = append(details, r.Issues...)
	return tokens.Error(r.Token,
		"Cross-platform consistency violation",
		strings.Join(details, "; "),
		r.ToleranceReasoning,
		"Regenerate platform values from the base value")
}

type ValidationStats struct {
	Pass                         int     `json:"pass"`
	Warning                      int     `json:"warning"`
	Error                        int     `json:"error"`
	OverallHealthScore           float64 `json:"overallHealthScore"`
	MathematicalConsistencyScore float64 `json:"mathematicalConsistencyScore"`
}

// Stats is a point-in-time summary of registries and validation.
type Stats struct {
	Primitives       registry.PrimitiveStats   `json:"primitives"`
	Semantics        registry.SemanticStats    `json:"semantics"`
	Components       int                       `json:"components"`
	Composition      validate.CompositionStats `json:"composition"`
	Validation       ValidationStats           `json:"validation"`
	EnabledPlatforms []tokens.Platform         `json:"enabledPlatforms"`
}

func (e *Engine) Stats(ctx context.Context) Stats {
	report := e.GenerateValidationReport(ctx)
	return Stats{
		Primitives:  e.primitives.Stats(),
		Semantics:   e.semantics.Stats(),
		Components:  e.components.Len(),
		Composition: e.CompositionStats(),
		Validation: ValidationStats{
			Pass:                         report.Summary.Pass,
			Warning:                      report.Summary.Warning,
			Error:                        report.Summary.Error,
			OverallHealthScore:           report.Summary.OverallHealthScore,
			MathematicalConsistencyScore: report.SystemAnalysis.MathematicalConsistencyScore,
		},
		EnabledPlatforms: e.cfg.Platforms(),
	}
}

type HealthState string

const (
	Healthy  HealthState = "healthy"
	Degraded HealthState = "warning"
	Critical HealthState = "critical"
)

type Health struct {
	Status          HealthState `json:"status"`
	Issues          []string    `json:"issues"`
	Recommendations []string    `json:"recommendations"`
}

// HealthStatus grades the system: any validation error or a consistency score
// below 0.5 is critical, any other issue is a warning.
func (e *Engine) HealthStatus(ctx context.Context) Health {
	stats := e.Stats(ctx)
	h := Health{Status: Healthy, Issues: []string{}, Recommendations: []string{}}

	if stats.Validation.Error > 0 {
		h.Issues = append(h.Issues, fmt.Sprintf("%d critical validation errors detected", stats.Validation.Error))
		h.Recommendations = append(h.Recommendations, "Address critical validation errors immediately")
	}
	if stats.Validation.OverallHealthScore < 0.7 {
		h.Issues = append(h.Issues, fmt.Sprintf("Low overall health score: %.1f%%", stats.Validation.OverallHealthScore*100))
		h.Recommendations = append(h.Recommendations, "Review and improve token usage patterns")
	}
	if stats.Primitives.StrategicFlexibilityPercentage > e.flexibilityLimit() {
		h.Issues = append(h.Issues, fmt.Sprintf("High strategic flexibility usage: %.1f%%", stats.Primitives.StrategicFlexibilityPercentage))
		h.Recommendations = append(h.Recommendations, "Consider creating semantic tokens for common use cases")
	}
	if stats.Validation.MathematicalConsistencyScore < 0.8 {
		h.Issues = append(h.Issues, fmt.Sprintf("Low mathematical consistency: %.1f%%", stats.Validation.MathematicalConsistencyScore*100))
		h.Recommendations = append(h.Recommendations, "Audit tokens for mathematical relationship violations")
	}

	switch {
	case stats.Validation.Error > 0 || stats.Validation.MathematicalConsistencyScore < 0.5:
		h.Status = Critical
	case len(h.Issues) > 0:
		h.Status = Degraded
	}
	return h
}
