package util

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DomainLimiter enforces a minimum interval between requests to the same
// domain (colognewatch.de, chrono24.de, etc). The first request to a domain
// never blocks; concurrent callers for one domain share the limiter so the
// effective cadence holds regardless of fan-out.
type DomainLimiter struct {
	mu  sync.Mutex
	m   map[string]*domainEntry
	def time.Duration
}

type domainEntry struct {
	lim      *rate.Limiter
	interval time.Duration
}

func NewDomainLimiter(defaultInterval time.Duration) *DomainLimiter {
	if defaultInterval <= 0 {
		defaultInterval = 2 * time.Second
	}
	return &DomainLimiter{
		m:   make(map[string]*domainEntry),
		def: defaultInterval,
	}
}

// Wait blocks until the domain's interval has elapsed since the previous
// request, then claims "now". interval <= 0 means the limiter default; a
// changed interval reconfigures the domain in place.
func (dl *DomainLimiter) Wait(ctx context.Context, domain string, interval time.Duration) error {
	if domain == "" {
		domain = "_"
	}
	if interval <= 0 {
		interval = dl.def
	}

	dl.mu.Lock()
	e, ok := dl.m[domain]
	if !ok {
		e = &domainEntry{lim: rate.NewLimiter(rate.Every(interval), 1), interval: interval}
		dl.m[domain] = e
	} else if e.interval != interval {
		e.lim.SetLimit(rate.Every(interval))
		e.interval = interval
	}
	lim := e.lim
	dl.mu.Unlock()

	return lim.Wait(ctx)
}

// Reset forgets tracked state for one domain, or all domains when domain is
// empty. Only tests use this.
func (dl *DomainLimiter) Reset(domain string) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	if domain == "" {
		dl.m = make(map[string]*domainEntry)
		return
	}
	delete(dl.m, domain)
}
