package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.GenerationSucceeded()
	m.GenerationSucceeded()
	m.QuotaDenied()
	m.EngagementRecorded("like")
	m.EngagementRecorded("like")
	m.EngagementRecorded("view")
	m.LearningCommitted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.generations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotaDenials))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.engagement.WithLabelValues("like")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.engagement.WithLabelValues("view")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.learningCommits))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.GenerationSucceeded()
		m.QuotaDenied()
		m.EngagementRecorded("click")
		m.LearningCommitted()
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.GenerationSucceeded()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ghostwriter_generations_total 1")
}
