// Package fetch provides the two page-fetch strategies behind one capability
// interface: plain HTTP for static sources and a headless browser for sources
// that render listings client-side. Which one a source gets is data, not code.
package fetch

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"context"

	"github.com/PuerkitoBio/goquery"

	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/scrape/util"
)

// ErrFetch marks network failures, timeouts and non-2xx responses. Callers
// check it with errors.Is to count the attempt and move on.
var ErrFetch = errors.New("fetch failed")

// Backend fetches documents for one source. Close must be called on every
// exit path; the dynamic backend owns a browser process.
type Backend interface {
	// Fetch retrieves url and returns the parsed document.
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
	// CheckReachable probes url. (false, nil) is a definitive "gone"
	// (404/410 or redirected off-site); a non-nil error is inconclusive.
	CheckReachable(ctx context.Context, url string) (bool, error)
	Close() error
}

// Factory builds a custom backend for a source. Registered factories are
// looked up by the source's CustomBackend name.
type Factory func(src domain.SourceConfig, limiter *util.DomainLimiter) Backend

var (
	regMu    sync.Mutex
	registry = map[string]Factory{}
)

// Register installs a named custom backend. Call from an init func.
func Register(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

// For selects the backend for a source: a registered custom backend when the
// source names one, otherwise the generic static/dynamic backend for its
// fetch strategy. Unknown custom names fall back to generic with a warning,
// so a typo in the sources table degrades instead of killing the source.
func For(src domain.SourceConfig, limiter *util.DomainLimiter) Backend {
	if src.CustomBackend != "" {
		regMu.Lock()
		f, ok := registry[src.CustomBackend]
		regMu.Unlock()
		if ok {
			return f(src, limiter)
		}
		log.Printf("[fetch] unknown custom backend %q for source %s, using generic", src.CustomBackend, src.Name)
	}
	if src.FetchStrategy == "dynamic" {
		return NewDynamic(src, limiter)
	}
	return NewStatic(src, limiter)
}

func statusErr(url string, code int) error {
	return fmt.Errorf("%w: %s: status %d", ErrFetch, url, code)
}
