package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collectMetric extracts a label-matched metric from a Collector.
func collectMetric(t *testing.T, c prometheus.Collector, labels map[string]string) *dto.Metric {
	t.Helper()
	ch := make(chan prometheus.Metric, 100)
	c.Collect(ch)
	close(ch)

	for m := range ch {
		d := &dto.Metric{}
		if err := m.Write(d); err != nil {
			continue
		}

		match := true
		for k, v := range labels {
			found := false
			for _, lp := range d.GetLabel() {
				if lp.GetName() == k && lp.GetValue() == v {
					found = true
					break
				}
			}
			if !found {
				match = false
				break
			}
		}
		if match {
			return d
		}
	}
	return nil
}

// serveWithChi wraps a handler in a chi router so RouteContext is available.
func serveWithChi(mw func(http.Handler) http.Handler, pattern string, handler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get(pattern, handler)
	return r
}

func TestPrometheusMetrics_CountsRequests(t *testing.T) {
	svc := "metrics-count-test"
	router := serveWithChi(PrometheusMetrics(svc), "/contacts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/contacts/abc", nil)
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	m := collectMetric(t, httpRequestsTotal, map[string]string{
		"service": svc,
		"method":  http.MethodGet,
		"path":    "/contacts/{id}",
		"status":  "200",
	})
	require.NotNil(t, m, "expected counter for labeled request")
	assert.Equal(t, float64(3), m.GetCounter().GetValue())
}

func TestPrometheusMetrics_LabelsByStatus(t *testing.T) {
	svc := "metrics-status-test"
	router := serveWithChi(PrometheusMetrics(svc), "/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	m := collectMetric(t, httpRequestsTotal, map[string]string{
		"service": svc,
		"status":  "404",
	})
	require.NotNil(t, m)
	assert.Equal(t, float64(1), m.GetCounter().GetValue())
}

func TestPrometheusMetrics_ObservesDuration(t *testing.T) {
	svc := "metrics-duration-test"
	router := serveWithChi(PrometheusMetrics(svc), "/slow", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/slow", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	m := collectMetric(t, httpRequestDuration, map[string]string{
		"service": svc,
		"path":    "/slow",
	})
	require.NotNil(t, m)
	assert.Equal(t, uint64(1), m.GetHistogram().GetSampleCount())
}

func TestPrometheusMetrics_InFlightReturnsToZero(t *testing.T) {
	svc := "metrics-inflight-test"
	router := serveWithChi(PrometheusMetrics(svc), "/work", func(w http.ResponseWriter, r *http.Request) {
		m := collectMetric(t, httpRequestsInFlight, map[string]string{"service": svc})
		require.NotNil(t, m)
		assert.Equal(t, float64(1), m.GetGauge().GetValue())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/work", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	m := collectMetric(t, httpRequestsInFlight, map[string]string{"service": svc})
	require.NotNil(t, m)
	assert.Equal(t, float64(0), m.GetGauge().GetValue())
}
