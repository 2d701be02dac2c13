package collector

import (
	"context"
	"fmt"

	"bankcap/internal/extractor"
)

// MockFetcher returns fixed markup for development and testing.
type MockFetcher struct {
	Markup string
	Err    error
	Calls  int
}

// Name returns "mock".
func (m *MockFetcher) Name() string { return "mock" }

// Fetch counts the call and returns Markup, or Err when set.
func (m *MockFetcher) Fetch(_ context.Context, _ string) (string, error) {
	m.Calls++
	if m.Err != nil {
		return "", m.Err
	}
	return m.Markup, nil
}

// Collector fetches the listing page and extracts its records.
type Collector struct {
	Fetcher Fetcher
	URL     string
	Columns [2]string
	Policy  extractor.ParsePolicy
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, url string, columns [2]string, policy extractor.ParsePolicy) *Collector {
	return &Collector{Fetcher: fetcher, URL: url, Columns: columns, Policy: policy}
}

// Collect fetches the page and extracts the first table body.
func (c *Collector) Collect(ctx context.Context) (*extractor.Result, error) {
	markup, err := c.Fetcher.Fetch(ctx, c.URL)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", c.Fetcher.Name(), err)
	}
	return extractor.Extract(markup, c.Columns, c.Policy)
}
