package scrape

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"watchscout-engine/internal/config"
	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/notify"
	"watchscout-engine/internal/oracle"
	"watchscout-engine/internal/scrape/extract"
	"watchscout-engine/internal/scrape/fetch"
	"watchscout-engine/internal/scrape/util"
	"watchscout-engine/internal/store"
)

// Orchestrator drives one discovery run: sources x criteria, fetch, extract,
// dedup, oracle, match, filter, persist, notify. Sources run concurrently;
// the limiter and dedup index are the only shared state.
type Orchestrator struct {
	DB       *sql.DB
	Cfg      config.Config
	Oracle   oracle.Extractor
	Notifier notify.Notifier
	Limiter  *util.DomainLimiter

	// OnNewListing is called after each successful persist (SSE fan-out).
	OnNewListing func(l domain.Listing)

	// NewBackend is swappable in tests; nil means fetch.For.
	NewBackend fetch.Factory
}

type candidate struct {
	raw  domain.RawCandidate
	crit domain.SearchCriterion
}

// Run executes one full discovery pass and records its stats. The returned
// error is non-nil only for run-level failures; per-source and per-candidate
// problems are counters.
func (o *Orchestrator) Run(ctx context.Context) (domain.RunStats, error) {
	stats := domain.RunStats{StartedAt: time.Now().UTC(), Status: domain.RunStatusSuccess}

	sources, criteria, index, err := o.loadRunConfig(ctx)
	if err != nil {
		return o.failRun(ctx, stats, err)
	}
	if len(sources) == 0 {
		log.Printf("[discovery] no active sources configured")
		stats.Duration = time.Since(stats.StartedAt)
		o.recordRun(ctx, &stats)
		return stats, nil
	}
	if len(criteria) == 0 {
		log.Printf("[discovery] no active search criteria configured")
		stats.Duration = time.Since(stats.StartedAt)
		o.recordRun(ctx, &stats)
		return stats, nil
	}

	log.Printf("[discovery] starting: %d sources, %d criteria, %d known fingerprints",
		len(sources), len(criteria), index.Len())

	var (
		mu          sync.Mutex
		newListings []domain.Listing
		seen        = map[string]bool{} // in-run syntactic dedup, pre-oracle
	)

	g, gctx := errgroup.WithContext(ctx)
	if n := o.Cfg.Discovery.MaxConcurrentSources; n > 0 {
		g.SetLimit(n)
	}

	for _, src := range sources {
		src := src
		g.Go(func() error {
			o.searchSource(gctx, src, criteria, index, seen, &mu, &stats, &newListings)
			return nil // best-effort: one source never cancels siblings
		})
	}
	_ = g.Wait()

	// Notify once per run; zero new listings is a no-op.
	if len(newListings) > 0 {
		log.Printf("[discovery] notifying %d new listings", len(newListings))
		if err := o.Notifier.NewListings(ctx, newListings); err != nil {
			log.Printf("[discovery] notification failed: %v", err)
		}
	}

	stats.Duration = time.Since(stats.StartedAt)
	o.recordRun(ctx, &stats)
	o.logSummary(stats)
	return stats, nil
}

func (o *Orchestrator) loadRunConfig(ctx context.Context) ([]domain.SourceConfig, []domain.SearchCriterion, *Index, error) {
	sources, err := store.ListSources(ctx, o.DB, true)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading sources: %w", err)
	}
	criteria, err := store.ListCriteria(ctx, o.DB, true)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading criteria: %w", err)
	}
	fps, err := store.ListFingerprints(ctx, o.DB)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading fingerprints: %w", err)
	}
	return sources, criteria, NewIndex(fps), nil
}

// searchSource runs every criterion against one source. A fetch/extract
// failure marks the source failed and abandons its remaining criteria; the
// run carries on with the next source.
func (o *Orchestrator) searchSource(
	ctx context.Context,
	src domain.SourceConfig,
	criteria []domain.SearchCriterion,
	index *Index,
	seen map[string]bool,
	mu *sync.Mutex,
	stats *domain.RunStats,
	newListings *[]domain.Listing,
) (saved int) {
	mu.Lock()
	stats.SourcesChecked++
	mu.Unlock()

	newBackend := o.NewBackend
	if newBackend == nil {
		newBackend = fetch.For
	}
	backend := newBackend(src, o.Limiter)
	defer func() {
		if err := backend.Close(); err != nil {
			log.Printf("[discovery:%s] backend close: %v", src.Name, err)
		}
	}()

	var cands []candidate
	failed := false
	for _, crit := range criteria {
		searchURL := extract.BuildSearchURL(src, crit)
		if searchURL == "" {
			log.Printf("[discovery:%s] no search URL template configured, skipping source", src.Name)
			return 0
		}

		log.Printf("[discovery:%s] searching %s %s", src.Name, crit.Manufacturer, crit.Model)

		doc, err := backend.Fetch(ctx, searchURL)
		if err != nil {
			// Abandon the remaining criteria but keep what earlier
			// criteria already yielded.
			log.Printf("[discovery:%s] fetch failed: %v", src.Name, err)
			o.markSourceFailed(ctx, src, err, mu, stats)
			failed = true
			break
		}

		raws := extract.Extract(src, doc, o.Cfg.Discovery.MaxMarkupBytes)
		log.Printf("[discovery:%s] found %d raw candidates", src.Name, len(raws))

		mu.Lock()
		stats.CandidatesFound += len(raws)
		mu.Unlock()

		for _, raw := range raws {
			cands = append(cands, candidate{raw: raw, crit: crit})
		}
	}

	for _, c := range cands {
		if o.processCandidate(ctx, c, index, seen, mu, stats, newListings) {
			saved++
		}
	}

	if !failed {
		if err := store.UpdateSourceStats(ctx, o.DB, src.ID, true, ""); err != nil {
			log.Printf("[discovery:%s] update source stats: %v", src.Name, err)
		}
	}
	log.Printf("[discovery:%s] saved %d new listings", src.Name, saved)
	return saved
}

func (o *Orchestrator) markSourceFailed(ctx context.Context, src domain.SourceConfig, cause error, mu *sync.Mutex, stats *domain.RunStats) {
	mu.Lock()
	stats.SourcesFailed++
	mu.Unlock()
	if err := store.UpdateSourceStats(ctx, o.DB, src.ID, false, cause.Error()); err != nil {
		log.Printf("[discovery:%s] update source stats: %v", src.Name, err)
	}
}

// processCandidate takes one raw candidate through dedup, oracle, matching,
// country filter and persistence. Duplicates are caught before the oracle
// call; the index is only updated after a successful persist.
func (o *Orchestrator) processCandidate(
	ctx context.Context,
	c candidate,
	index *Index,
	seen map[string]bool,
	mu *sync.Mutex,
	stats *domain.RunStats,
	newListings *[]domain.Listing,
) bool {
	fp := c.raw.Fingerprint
	if fp == "" {
		return false
	}

	// Dedup before the oracle: once against the in-run seen set (two
	// criteria matching the same page), once against the snapshot index.
	mu.Lock()
	dup := seen[fp]
	if !dup {
		seen[fp] = true
	}
	mu.Unlock()
	if !dup {
		dup = index.Contains(fp)
	}
	if dup {
		mu.Lock()
		stats.DuplicatesSkipped++
		mu.Unlock()
		return false
	}

	ext, err := o.Oracle.Extract(ctx, c.raw.RawMarkup, c.raw.SourceName)
	if err != nil {
		if !errors.Is(err, oracle.ErrLowConfidence) && !errors.Is(err, oracle.ErrIncomplete) {
			log.Printf("[discovery:%s] extraction failed: %v", c.raw.SourceName, err)
		}
		mu.Lock()
		stats.OracleErrors++
		mu.Unlock()
		return false
	}

	// The page's own price text beats an oracle that saw none.
	if ext.Price == 0 && c.raw.PriceText != "" {
		if p, ok := util.ExtractPrice(c.raw.PriceText); ok {
			ext.Price = p
			ext.Currency = util.ExtractCurrency(c.raw.PriceText)
		}
	}

	if !Matches(*ext, c.crit) {
		return false
	}
	if !AllowedCountry(ext.Country, c.crit.AllowedCountries) {
		log.Printf("[discovery:%s] filtered out listing from %q", c.raw.SourceName, ext.Country)
		return false
	}

	listing := domain.Listing{
		Name:             strings.TrimSpace(ext.Manufacturer + " " + ext.Model),
		ExtractedListing: *ext,
		Link:             c.raw.Link,
		ImageURL:         c.raw.ImageURL,
		Fingerprint:      fp,
		SourceName:       c.raw.SourceName,
		SourceType:       c.raw.SourceType,
		CriterionID:      c.crit.ID,
		Availability:     domain.AvailabilityAvailable,
	}

	id, err := store.CreateListing(ctx, o.DB, listing)
	if err != nil {
		// Not saved: keep the fingerprint out of the index so a later
		// run can retry this listing.
		log.Printf("[discovery:%s] persist failed: %v", c.raw.SourceName, err)
		return false
	}
	listing.ID = id
	index.Add(fp)

	mu.Lock()
	stats.ListingsSaved++
	*newListings = append(*newListings, listing)
	mu.Unlock()

	if o.OnNewListing != nil {
		o.OnNewListing(listing)
	}
	return true
}

// failRun handles a run-level failure: mark Failed, best-effort run log and
// error notification. Neither side effect may panic the caller.
func (o *Orchestrator) failRun(ctx context.Context, stats domain.RunStats, cause error) (domain.RunStats, error) {
	log.Printf("[discovery] fatal: %v", cause)
	stats.Status = domain.RunStatusFailed
	stats.ErrorMessage = cause.Error()
	stats.Duration = time.Since(stats.StartedAt)
	o.recordRun(ctx, &stats)
	if err := o.Notifier.RunFailed(ctx, cause.Error()); err != nil {
		log.Printf("[discovery] error notification failed: %v", err)
	}
	return stats, cause
}

func (o *Orchestrator) recordRun(ctx context.Context, stats *domain.RunStats) {
	if err := store.RecordRun(ctx, o.DB, *stats); err != nil {
		log.Printf("[discovery] record run: %v", err)
	}
}

func (o *Orchestrator) logSummary(s domain.RunStats) {
	log.Printf("[discovery] done in %s: checked=%d failed=%d candidates=%d saved=%d duplicates=%d oracle_errors=%d status=%s",
		s.Duration.Round(time.Second), s.SourcesChecked, s.SourcesFailed,
		s.CandidatesFound, s.ListingsSaved, s.DuplicatesSkipped, s.OracleErrors, s.Status)
}
