// Package metrics exposes validation outcomes as Prometheus collectors.
//
// The CLI is a one-shot process, so collectors live in a private registry that
// is written to a node-exporter textfile rather than served over HTTP.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"gitlab.com/tozd/go/errors"

	"github.com/3fn/DesignerPunkv2-sub017/pkg/tokens"
)

const namespace = "designtokens"

// Recorder holds all collectors.
type Recorder struct {
	registry *prometheus.Registry

	Validations *prometheus.CounterVec
	Selections  *prometheus.CounterVec
	Tokens      *prometheus.GaugeVec
	Consistency prometheus.Gauge
	Health      prometheus.Gauge
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		Validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "Token validations by token kind and verdict level.",
		}, []string{"kind", "level"}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "selections_total",
			Help:      "Token selections by the tier that satisfied the request.",
		}, []string{"tier"}),
		Tokens: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "registered_tokens",
			Help:      "Registered tokens by kind.",
		}, []string{"kind"}),
		Consistency: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mathematical_consistency_score",
			Help:      "Mean cross-platform consistency score of numeric primitives (0-1).",
		}),
		Health: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "health_score",
			Help:      "Overall validation health score (0-1).",
		}),
	}
	r.registry.MustRegister(r.Validations, r.Selections, r.Tokens, r.Consistency, r.Health)
	return r
}

// Registry returns the gatherer backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveValidation(kind tokens.Kind, level tokens.Level) {
	r.Validations.WithLabelValues(string(kind), strings.ToLower(level.String())).Inc()
}

func (r *Recorder) ObserveSelection(tier string) {
	r.Selections.WithLabelValues(tier).Inc()
}

// ObserveSystem records the registry sizes and the report scores.
func (r *Recorder) ObserveSystem(primitives, semantics, components int, consistency, health float64) {
	r.Tokens.WithLabelValues(string(tokens.KindPrimitive)).Set(float64(primitives))
	r.Tokens.WithLabelValues(string(tokens.KindSemantic)).Set(float64(semantics))
	r.Tokens.WithLabelValues(string(tokens.KindComponent)).Set(float64(components))
	r.Consistency.Set(consistency)
	r.Health.Set(health)
}

// WriteTextfile writes every collector in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
