package prometheus

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigiajus/vigiajus/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "vigiajus"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func TestNamespaceRequired(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestCounterRoundTrip(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterCounter("queries_total", "test", "tribunal", "status")
	vec.WithLabelValues("TJSP", "success").Inc()
	vec.WithLabelValues("TJSP", "success").Add(2)

	body := scrape(t, c)
	assert.Contains(t, body, `vigiajus_queries_total{status="success",tribunal="TJSP"} 3`)
}

func TestDuplicateRegistrationReturnsExisting(t *testing.T) {
	c := newTestCollector(t)
	first := c.RegisterCounter("dup_total", "test", "l")
	second := c.RegisterCounter("dup_total", "test", "l")

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	body := scrape(t, c)
	assert.Contains(t, body, `vigiajus_dup_total{l="a"} 2`)
}

func TestHistogramObserve(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterHistogram("query_duration_seconds", "test", []float64{1, 5}, "tribunal")
	vec.WithLabelValues("TRF3").Observe(0.5)
	vec.WithLabelValues("TRF3").Observe(3)

	body := scrape(t, c)
	assert.Contains(t, body, `vigiajus_query_duration_seconds_count{tribunal="TRF3"} 2`)
}

func TestGaugeSet(t *testing.T) {
	c := newTestCollector(t)
	vec := c.RegisterGauge("schedule_active", "test", "priority")
	vec.WithLabelValues("urgent").Set(4)
	vec.WithLabelValues("urgent").Dec()

	body := scrape(t, c)
	assert.Contains(t, body, `vigiajus_schedule_active{priority="urgent"} 3`)
}

func TestNewAppMetricsRegistersAll(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)
	require.NotNil(t, m)

	m.QueriesTotal.WithLabelValues("TJSP", "success").Inc()
	m.CacheHitsTotal.WithLabelValues("memory").Inc()
	m.RateLimitDenials.WithLabelValues("TJSP", "minute").Inc()
	m.NoveltiesCreated.WithLabelValues("urgent").Inc()

	body := scrape(t, c)
	for _, metric := range []string{
		"vigiajus_queries_total", "vigiajus_cache_hits_total",
		"vigiajus_rate_limit_denials_total", "vigiajus_novelties_created_total",
	} {
		assert.True(t, strings.Contains(body, metric), "missing %s", metric)
	}
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	return rec.Body.String()
}
