// Package metrics exports Prometheus metrics about the transitions of machines.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stateforward/go-asm"
	"github.com/stateforward/go-asm/kinds"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type Collector struct {
	Transitions *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Emissions   *prometheus.CounterVec
}

// New registers the collector's metrics with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	collector := newCollector(promauto.With(nil))
	for _, c := range []prometheus.Collector{collector.Transitions, collector.Duration, collector.Emissions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return collector, nil
}

// MustNew registers the collector with the default registerer and panics on failure.
func MustNew() *Collector {
	return newCollector(promauto.With(prometheus.DefaultRegisterer))
}

func newCollector(factory promauto.Factory) *Collector {
	return &Collector{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asm_transitions_total",
			Help: "Total number of executed transitions by source, target and status",
		}, []string{"from", "to", "status"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "asm_transition_duration_seconds",
			Help:    "Time from the first to the last lifecycle event of a transition",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"from", "to"}),
		Emissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "asm_emissions_total",
			Help: "Total number of lifecycle events emitted by kind and status",
		}, []string{"kind", "status"}),
	}
}

// Trace returns an asm.Trace feeding the collector. Pass it to asm.WithTrace.
func (collector *Collector) Trace() asm.Trace {
	return func(_ context.Context, step string, elements ...asm.Element) func(...any) {
		switch step {
		case "transition":
			transition := find[*asm.Transition](elements)
			if transition == nil {
				return nil
			}
			start := time.Now()
			return func(outcome ...any) {
				from, to := transition.Source(), transition.Target()
				collector.Transitions.WithLabelValues(from, to, status(outcome)).Inc()
				collector.Duration.WithLabelValues(from, to).Observe(time.Since(start).Seconds())
			}
		case "emit":
			var kind string
			for _, element := range elements {
				if kinds.IsKind(element.Kind(), kinds.Event) {
					kind = kinds.Name(element.Kind())
				}
			}
			return func(outcome ...any) {
				collector.Emissions.WithLabelValues(kind, status(outcome)).Inc()
			}
		}
		return nil
	}
}

func find[T asm.Element](elements []asm.Element) T {
	for _, element := range elements {
		if found, ok := element.(T); ok {
			return found
		}
	}
	var zero T
	return zero
}

func status(outcome []any) string {
	for _, value := range outcome {
		if err, ok := value.(error); ok && err != nil {
			return StatusFailed
		}
	}
	return StatusOK
}
