// Package metrics exposes prometheus counters for the generation and learning pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	generations     prometheus.Counter
	quotaDenials    prometheus.Counter
	engagement      *prometheus.CounterVec
	learningCommits prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the counters on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghostwriter",
			Name:      "generations_total",
			Help:      "Posts generated and charged against a plan.",
		}),
		quotaDenials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghostwriter",
			Name:      "quota_denials_total",
			Help:      "Generation requests refused because the plan had no posts left.",
		}),
		engagement: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ghostwriter",
			Name:      "engagement_events_total",
			Help:      "Engagement events recorded, by type.",
		}, []string{"type"}),
		learningCommits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghostwriter",
			Name:      "learning_commits_total",
			Help:      "Learning snapshots stored for posts above the success threshold.",
		}),
		gatherer: reg,
	}

	reg.MustRegister(m.generations, m.quotaDenials, m.engagement, m.learningCommits)
	return m
}

func (m *Metrics) GenerationSucceeded() {
	if m == nil {
		return
	}
	m.generations.Inc()
}

func (m *Metrics) QuotaDenied() {
	if m == nil {
		return
	}
	m.quotaDenials.Inc()
}

// EngagementRecorded counts one event; views use the type "view"
func (m *Metrics) EngagementRecorded(eventType string) {
	if m == nil {
		return
	}
	m.engagement.WithLabelValues(eventType).Inc()
}

func (m *Metrics) LearningCommitted() {
	if m == nil {
		return
	}
	m.learningCommits.Inc()
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
