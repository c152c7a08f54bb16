package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/pangea/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	registry *prometheus.Registry

	Renders       *prometheus.CounterVec
	RenderSeconds *prometheus.HistogramVec
	Pushes        prometheus.Counter
	Skips         prometheus.Counter
	PushBytes     prometheus.Histogram
	AckSeconds    prometheus.Histogram
	Registrations prometheus.Counter
	Errors        prometheus.Counter
}

// NewMetrics creates the collectors and registers them on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Renders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pangea_renders_total",
				Help: "Total number of render passes",
			},
			[]string{"component"},
		),
		RenderSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pangea_render_duration_seconds",
				Help:    "Duration of render passes, serialization included",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"component"},
		),
		Pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pangea_pushes_total",
			Help: "Total number of trees pushed to the host",
		}),
		Skips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pangea_push_skips_total",
			Help: "Total number of updates whose tree matched the last delivered one",
		}),
		PushBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pangea_push_size_bytes",
			Help:    "Size of pushed trees",
			Buckets: prometheus.ExponentialBuckets(64, 4, 8),
		}),
		AckSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: "pangea_ack_latency_seconds",
			Help: "Time between a push and its acknowledgment",
		}),
		Registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pangea_function_registrations_total",
			Help: "Total number of function props registered with the host",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pangea_update_errors_total",
			Help: "Total number of failed modal updates",
		}),
	}
	m.registry.MustRegister(
		m.Renders, m.RenderSeconds,
		m.Pushes, m.Skips, m.PushBytes, m.AckSeconds,
		m.Registrations, m.Errors,
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks recording into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			m.Renders.WithLabelValues(e.Component).Inc()
			m.RenderSeconds.WithLabelValues(e.Component).Observe(e.Duration.Seconds())
		},
		OnPush: func(ctx context.Context, e *domain.PushEvent) {
			m.Pushes.Inc()
			m.PushBytes.Observe(float64(e.Size))
		},
		OnSkip: func(ctx context.Context, e *domain.PushEvent) {
			m.Skips.Inc()
		},
		OnAck: func(ctx context.Context, e *domain.AckEvent) {
			m.AckSeconds.Observe(e.Latency.Seconds())
		},
		OnRegister: func(ctx context.Context, e *domain.RegisterEvent) {
			m.Registrations.Inc()
		},
		OnError: func(ctx context.Context, e *domain.ErrorEvent) {
			m.Errors.Inc()
		},
	}
}
