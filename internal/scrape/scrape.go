// Package scrape turns configured sources into fetchers.
package scrape

import (
	"fmt"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/scrape/board"
	"jobwatch-engine/internal/scrape/greenhouse"
	"jobwatch-engine/internal/scrape/lever"
	"jobwatch-engine/internal/scrape/types"
	"jobwatch-engine/internal/scrape/util"
)

// ErrStatus marks a board that answered with an error status.
var ErrStatus = util.ErrStatus

// BuildFetchers creates one fetcher per configured source, in config order.
// All fetchers share limiter.
func BuildFetchers(cfg config.Config, limiter *util.HostLimiter) ([]types.Fetcher, error) {
	client := util.NewClient(limiter, cfg.Scrape.UserAgent)

	out := make([]types.Fetcher, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		f, err := NewFetcher(src, client, cfg.Scrape.MaxPages)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func NewFetcher(src config.Source, client *util.Client, maxPages int) (types.Fetcher, error) {
	switch src.Kind {
	case config.KindHTML, "":
		return board.New(src, client, maxPages)
	case config.KindGreenhouse:
		return greenhouse.New(src, client), nil
	case config.KindLever:
		return lever.New(src, client), nil
	}
	return nil, fmt.Errorf("source %q: unknown kind %q", src.Name, src.Kind)
}

// NewLimiter builds the shared per-host limiter from scrape settings.
func NewLimiter(cfg config.Config) *util.HostLimiter {
	rps, burst := cfg.Scrape.RequestsPerSecond, cfg.Scrape.Burst
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return util.NewHostLimiter(rps, burst)
}
