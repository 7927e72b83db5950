package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"crypto-indices/src/helpers"
	"crypto-indices/src/interfaces"
	"crypto-indices/src/logger"
	"crypto-indices/src/models"

	"golang.org/x/time/rate"
)

// maxBodyBytes caps a single upstream response (the 250-asset snapshot is ~200KB).
const maxBodyBytes = 16 << 20

type AsyncNetworkManager struct {
	Config       *models.MConfig
	ProxyManager interfaces.IProxyManager
	Client       *http.Client
	Limiter      *rate.Limiter
	Logger       *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) *AsyncNetworkManager {
	nm := &AsyncNetworkManager{
		Config:       cfg,
		ProxyManager: helpers.NewProxyManager(cfg.Network.Proxies, cfg.Network.UserAgent),
		Limiter:      newLimiter(cfg.Network),
		Logger:       log,
	}
	nm.Client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

// newLimiter returns an unlimited limiter when no rate is configured.
func newLimiter(cfg models.MNetworkConfig) *rate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.ProxyManager.HasProxies() {
		// Resolved per request so a rotation takes effect on the next call
		transport.Proxy = func(*http.Request) (*url.URL, error) {
			proxyStr, err := nm.ProxyManager.GetCurrentProxy()
			if err != nil || proxyStr == "" {
				return nil, err
			}
			return url.Parse(proxyStr)
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Network.RequestTimeout) * time.Second,
	}
}

// -----------------------------------------------------------------------------

// Get performs exactly one GET request. Callers decide whether a failure is
// fatal (snapshot) or degraded (per-asset history).
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string, headers map[string]string) ([]byte, error) {
	reqUrl, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewNetworkError("invalid url", err)
	}

	q := reqUrl.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqUrl.RawQuery = q.Encode()

	if err := nm.Limiter.Wait(ctx); err != nil {
		return nil, helpers.NewNetworkError("rate limiter wait", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl.String(), nil)
	if err != nil {
		return nil, helpers.NewNetworkError("build request", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := nm.Client.Do(req)
	if err != nil {
		if nm.ProxyManager.HasProxies() {
			nm.ProxyManager.RotateProxy()
		}
		return nil, helpers.NewNetworkError(fmt.Sprintf("GET %s", reqUrl.Path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little of the body for the log line
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		nm.Logger.Debug("Bad status %d for %s: %s", resp.StatusCode, reqUrl.Path, string(snippet))
		return nil, helpers.NewNetworkError(fmt.Sprintf("bad status: %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, helpers.NewNetworkError("read body", err)
	}

	return body, nil
}
