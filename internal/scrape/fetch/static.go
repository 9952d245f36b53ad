package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/scrape/util"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Static fetches plain HTML over HTTP. Redirects are followed by the default
// client policy.
type Static struct {
	src     domain.SourceConfig
	hc      *http.Client
	limiter *util.DomainLimiter
}

func NewStatic(src domain.SourceConfig, limiter *util.DomainLimiter) *Static {
	return &Static{
		src:     src,
		hc:      &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
	}
}

func (s *Static) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx, s.src.Domain, s.src.RateLimit); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, statusErr(url, res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrFetch, url, err)
	}
	return doc, nil
}

func (s *Static) CheckReachable(ctx context.Context, url string) (bool, error) {
	if err := s.limiter.Wait(ctx, s.src.Domain, s.src.RateLimit); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := s.hc.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode >= 200 && res.StatusCode <= 299:
		return true, nil
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		// definitively gone
		return false, nil
	default:
		return false, statusErr(url, res.StatusCode)
	}
}

func (s *Static) Close() error {
	s.hc.CloseIdleConnections()
	return nil
}
