package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"bankcap/internal/apperrors"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "Mozilla/5.0 (compatible; bankcap/1.0)"
)

// HTTPFetcher implements Fetcher over HTTP(S) with optional proxy support.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

// NewHTTPFetcher creates a new HTTP fetcher. Zero timeout and empty user agent use defaults.
func NewHTTPFetcher(proxyURL string, timeout time.Duration, userAgent string) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &HTTPFetcher{
		Client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		UserAgent: userAgent,
	}
}

// Name returns "http".
func (f *HTTPFetcher) Name() string { return "http" }

// Fetch issues a GET and returns the body. Any status other than 200 is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", apperrors.ErrIO, err)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fetch %s: %v", apperrors.ErrIO, u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", apperrors.ErrIO, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s: status %d", apperrors.ErrIO, u, resp.StatusCode)
	}
	return string(body), nil
}
