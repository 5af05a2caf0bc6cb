package util

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter hands out one token bucket per hostname. A single limiter is
// shared by every source, so boards served from the same host share a
// budget no matter how many sources point at it.
type HostLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	return &HostLimiter{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(reqPerSec),
		burst:   burst,
	}
}

// hostKey ignores case and port. Unparseable urls share one bucket.
func hostKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "_"
	}
	return strings.ToLower(u.Hostname())
}

func (hl *HostLimiter) bucket(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.buckets[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.rps, hl.burst)
	hl.buckets[host] = lim
	return lim
}

// WaitURL blocks until the url's host may be hit again.
func (hl *HostLimiter) WaitURL(ctx context.Context, raw string) error {
	host := hostKey(raw)
	if err := hl.bucket(host).Wait(ctx); err != nil {
		return fmt.Errorf("rate limit %s: %w", host, err)
	}
	return nil
}
