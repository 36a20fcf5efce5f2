package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the collectors exported by the service
type Metrics struct {
	Registry *prometheus.Registry

	submissions      *prometheus.CounterVec
	providerLatency  prometheus.Histogram
	documentsSent    *prometheus.CounterVec
	articlesReturned prometheus.Histogram
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legaltriad",
			Name:      "submissions_total",
			Help:      "Analysis submissions by outcome.",
		}, []string{"outcome"}),
		providerLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "legaltriad",
			Name:      "provider_request_seconds",
			Help:      "Latency of reasoning service calls.",
			Buckets:   []float64{5, 15, 30, 45, 60, 90, 120, 180, 300},
		}),
		documentsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legaltriad",
			Name:      "documents_sent_total",
			Help:      "Documents attached to reasoning service requests.",
		}, []string{"category"}),
		articlesReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "legaltriad",
			Name:      "articles_returned",
			Help:      "Articles per accepted study sheet.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 9),
		}),
	}
	reg.MustRegister(
		m.submissions,
		m.providerLatency,
		m.documentsSent,
		m.articlesReturned,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveSubmission counts one submission outcome. Nil-safe.
func (m *Metrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// ObserveProviderCall records the duration of one reasoning service call
func (m *Metrics) ObserveProviderCall(d time.Duration) {
	if m == nil {
		return
	}
	m.providerLatency.Observe(d.Seconds())
}

// ObserveDocuments counts documents sent for a category
func (m *Metrics) ObserveDocuments(category string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.documentsSent.WithLabelValues(category).Add(float64(n))
}

// ObserveArticles records the size of an accepted result
func (m *Metrics) ObserveArticles(n int) {
	if m == nil {
		return
	}
	m.articlesReturned.Observe(float64(n))
}
