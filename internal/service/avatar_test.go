package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovasylenko/contacthub/pkg/httpclient"
)

func newGravatarTestService(t *testing.T, handler http.HandlerFunc) (*GravatarService, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	inner := httpclient.New(httpclient.Config{
		Timeout:         time.Second,
		MaxRetries:      0,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    time.Millisecond,
		MaxConnsPerHost: 10,
	})
	client := httpclient.NewCircuitBreakerClient(inner, httpclient.DefaultCircuitBreakerConfig("gravatar-test-"+t.Name()), newTestLogger())

	svc := NewGravatarService(client, newTestLogger())
	svc.baseURL = srv.URL + "/avatar/"
	return svc, srv
}

func TestEmailHash_NormalizesInput(t *testing.T) {
	// Gravatar hashes the lowercased, trimmed address.
	assert.Equal(t, emailHash("alice@example.com"), emailHash("  Alice@Example.COM  "))
	assert.Len(t, emailHash("alice@example.com"), 32)
}

func TestGravatarResolve_ExistingAvatar(t *testing.T) {
	svc, srv := newGravatarTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		assert.Equal(t, "404", r.URL.Query().Get("d"))
		w.WriteHeader(http.StatusOK)
	})

	url, err := svc.Resolve(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, url, srv.URL+"/avatar/")
	assert.Contains(t, url, "s=250")
	assert.NotContains(t, url, "d=identicon")
}

func TestGravatarResolve_MissingAvatarFallsBackToIdenticon(t *testing.T) {
	svc, _ := newGravatarTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	url, err := svc.Resolve(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, url, "d=identicon")
}

func TestGravatarResolve_ProbeFailure(t *testing.T) {
	svc, srv := newGravatarTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := svc.Resolve(context.Background(), "alice@example.com")
	assert.Error(t, err)
}
