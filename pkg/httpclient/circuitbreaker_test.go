package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBreakerTestClient(t *testing.T, name string) *CircuitBreakerClient {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	inner := New(Config{
		Timeout:         time.Second,
		MaxRetries:      0,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    time.Millisecond,
		MaxConnsPerHost: 10,
	})
	cfg := CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
	return NewCircuitBreakerClient(inner, cfg, logger)
}

func TestCircuitBreakerClient_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newBreakerTestClient(t, "cb-success")
	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, client.State())
}

func TestCircuitBreakerClient_ServerErrorCountsAsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newBreakerTestClient(t, "cb-5xx")
	_, err := client.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error 500")
}

func TestCircuitBreakerClient_OpensAfterRepeatedFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newBreakerTestClient(t, "cb-opens")
	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), srv.URL)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.State())

	_, err := client.Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCircuitOpen))
}

func TestCircuitBreakerClient_FallbackOnOpenCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newBreakerTestClient(t, "cb-fallback").WithFallback(
		func(ctx context.Context, err error) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
		},
	)

	for i := 0; i < 3; i++ {
		_, err := client.Get(context.Background(), srv.URL)
		require.Error(t, err)
	}

	resp, err := client.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCircuitBreakerClient_HeadGoesThroughBreaker(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newBreakerTestClient(t, "cb-head")
	resp, err := client.Head(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.MethodHead, gotMethod)
}
