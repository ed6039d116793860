package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	handler := RequestLogging(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.NotEmpty(t, rr.Header().Get("X-Correlation-ID"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "http request", entry["msg"])
	assert.Equal(t, rr.Header().Get("X-Correlation-ID"), entry["correlation_id"])
}

func TestRequestLogging_PropagatesClientCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	handler := RequestLogging(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("X-Correlation-ID", "client-supplied-id")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, "client-supplied-id", rr.Header().Get("X-Correlation-ID"))
}

func TestRequestLogging_RecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	handler := RequestLogging(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("0123456789"))
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/test", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, float64(http.StatusCreated), entry["status"])
	assert.Equal(t, float64(10), entry["bytes"])
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	handler := Recovery(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "INTERNAL_ERROR")
	// Panic detail stays in the log, not the response.
	assert.NotContains(t, rr.Body.String(), "boom")
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRecovery_PassesThroughNormalRequests(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf)

	handler := Recovery(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Empty(t, buf.String())
}
