// Package fetcher performs single synchronous HTTP GETs and classifies the
// outcome as a body, a non-2xx status, or a transport failure.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/use-agent/scrapekit/config"
	"github.com/use-agent/scrapekit/models"
)

const (
	// DefaultTimeout applies when no timeout is configured.
	DefaultTimeout = config.MaxFetchTimeout

	maxBody      = 10 << 20 // 10 MB
	maxRedirects = 10
)

// ErrTooManyRedirects is the transport cause when the redirect chain exceeds
// the limit.
var ErrTooManyRedirects = errors.New("too many redirects")

// ErrBodyTooLarge is the transport cause when a response body exceeds the
// size cap. Oversized bodies are never returned truncated.
var ErrBodyTooLarge = errors.New("response body too large")

// Fetcher performs plain HTTP GETs. It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// New creates a Fetcher from configuration. Timeouts outside (0, 10s] are
// replaced by DefaultTimeout.
func New(cfg config.FetcherConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > config.MaxFetchTimeout {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client: &http.Client{
			Transport: newTransport(cfg.Proxy, cfg.Fingerprint),
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}
				return nil
			},
		},
		timeout:   timeout,
		userAgent: cfg.UserAgent,
	}
}

// Timeout returns the effective per-request deadline.
func (f *Fetcher) Timeout() time.Duration { return f.timeout }

// Fetch GETs targetURL and returns the response body. A status outside
// [200,299] yields an UPSTREAM_NON_SUCCESS error carrying the status; any
// failure to obtain a response yields TRANSPORT_ERROR. Nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return "", models.TransportFailure(fmt.Sprintf("build request for %s", targetURL), err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", models.TransportFailure(fmt.Sprintf("request %s", targetURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return "", models.UpstreamNonSuccess(resp.StatusCode, targetURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return "", models.TransportFailure(fmt.Sprintf("read body of %s", targetURL), err)
	}
	if len(body) > maxBody {
		return "", models.TransportFailure(fmt.Sprintf("body of %s exceeds %d bytes", targetURL, maxBody), ErrBodyTooLarge)
	}
	return string(body), nil
}

// Close releases idle connections.
func (f *Fetcher) Close() {
	f.client.CloseIdleConnections()
}
