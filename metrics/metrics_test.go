package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveSubmission(t *testing.T) {
	m := New()
	m.ObserveSubmission("success")
	m.ObserveSubmission("success")
	m.ObserveSubmission("validation_error")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.submissions.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.submissions.WithLabelValues("validation_error")))
}

func TestObserveDocumentsSkipsZero(t *testing.T) {
	m := New()
	m.ObserveDocuments("law", 1)
	m.ObserveDocuments("doctrine", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.documentsSent.WithLabelValues("law")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.documentsSent))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSubmission("success")
		m.ObserveProviderCall(time.Second)
		m.ObserveDocuments("law", 1)
		m.ObserveArticles(3)
	})
}
