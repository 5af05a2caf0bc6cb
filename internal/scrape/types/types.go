package types

import (
	"context"

	"jobwatch-engine/internal/domain"
)

// ScrapeResult is one source's complete scrape. Postings carry source-scoped
// ids; duplicates are left for the reconciler to resolve.
type ScrapeResult struct {
	Source   string
	Postings []domain.RawPosting
}

type ScrapeStatus struct {
	LastRunAt     string         `json:"last_run_at"`
	LastOkAt      string         `json:"last_ok_at"`
	LastError     string         `json:"last_error"`
	LastAdded     int            `json:"last_added"`
	LastRecovered int            `json:"last_recovered"`
	LastMissing   int            `json:"last_missing"`
	LastEvicted   int            `json:"last_evicted"`
	FailedSources []string       `json:"failed_sources,omitempty"`
	Jobs          int            `json:"jobs"`
	PerSource     map[string]int `json:"per_source,omitempty"`
	Running       bool           `json:"running"`
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) (ScrapeResult, error)
}
