package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"crypto-indices/src/helpers"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(rps float64) *AsyncNetworkManager {
	cfg := &models.MConfig{Network: models.MNetworkConfig{
		RequestTimeout:    5,
		RequestsPerSecond: rps,
		Burst:             2,
		UserAgent:         "indices-test",
	}}
	return NewAsyncNetworkManager(cfg, logger.NewLogger(nil, "test"))
}

func TestGetSendsParamsAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "secret", r.Header.Get("x-cg-demo-api-key"))
		assert.Equal(t, "indices-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	body, err := newManager(0).Get(context.Background(), srv.URL+"/coins/markets?page=1",
		map[string]string{"vs_currency": "usd"},
		map[string]string{"x-cg-demo-api-key": "secret"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestGetBadStatusIsSingleAttempt(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newManager(0).Get(context.Background(), srv.URL, nil, nil)
	require.Error(t, err)
	assert.Equal(t, "network", helpers.ErrorKind(err))
	assert.Contains(t, err.Error(), "429")
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetHonoursCancelledContext(t *testing.T) {
	nm := newManager(0.001)
	// Drain the burst so the next Wait must block
	require.True(t, nm.Limiter.Allow())
	require.True(t, nm.Limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := nm.Get(ctx, "http://127.0.0.1:1", nil, nil)
	assert.Error(t, err)
}

func TestGetInvalidURL(t *testing.T) {
	_, err := newManager(0).Get(context.Background(), "://bad", nil, nil)
	assert.Error(t, err)
}

func TestConnectionFailureRotatesProxy(t *testing.T) {
	cfg := &models.MConfig{Network: models.MNetworkConfig{
		RequestTimeout: 2,
		Proxies:        []string{"127.0.0.1:1", "127.0.0.1:2"},
	}}
	nm := NewAsyncNetworkManager(cfg, logger.NewLogger(nil, "test"))

	before, _ := nm.ProxyManager.GetCurrentProxy()
	_, err := nm.Get(context.Background(), "http://example.invalid/markets", nil, nil)
	require.Error(t, err)

	after, _ := nm.ProxyManager.GetCurrentProxy()
	assert.NotEqual(t, before, after)
}
