// Package collector retrieves the bank listing page and hands it to the extractor.
package collector

import (
	"context"
	"strings"
	"time"
)

// Fetcher defines the interface for retrieving the listing markup.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
	Name() string
}

// NewFetcher picks a FileFetcher for file:// URLs and plain paths, an HTTPFetcher otherwise.
func NewFetcher(url, proxyURL string, timeout time.Duration, userAgent string) Fetcher {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return NewHTTPFetcher(proxyURL, timeout, userAgent)
	}
	return &FileFetcher{}
}
