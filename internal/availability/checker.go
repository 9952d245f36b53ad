// Package availability re-visits persisted listings that are still marked
// Available and advances their lifecycle. It is the only code path allowed
// to write the Sold state.
package availability

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"time"

	"watchscout-engine/internal/config"
	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/scrape/fetch"
	"watchscout-engine/internal/scrape/util"
	"watchscout-engine/internal/store"
)

type Checker struct {
	DB      *sql.DB
	Cfg     config.Config
	Limiter *util.DomainLimiter

	// OnSold is called after a listing transitions to Sold (SSE fan-out).
	OnSold func(l domain.Listing)

	// NewBackend is swappable in tests; nil means fetch.For.
	NewBackend fetch.Factory
}

// Run executes one availability pass over all Available listings. The policy
// is deliberately conservative: any inconclusive check leaves the listing
// Available and bumps the error counter, never the sold counter.
func (c *Checker) Run(ctx context.Context) (domain.AvailabilityStats, error) {
	stats := domain.AvailabilityStats{RunAt: time.Now().UTC()}

	listings, err := store.ListAvailableListings(ctx, c.DB)
	if err != nil {
		return stats, err
	}
	if len(listings) == 0 {
		log.Printf("[availability] no available listings to check")
		c.record(ctx, stats)
		return stats, nil
	}

	sources, err := store.ListSources(ctx, c.DB, true)
	if err != nil {
		return stats, err
	}
	sourceMap := make(map[string]domain.SourceConfig, len(sources))
	for _, s := range sources {
		sourceMap[s.Name] = s
	}

	log.Printf("[availability] checking %d listings", len(listings))

	newBackend := c.NewBackend
	if newBackend == nil {
		newBackend = fetch.For
	}

	// One backend per source for the whole pass; a dynamic source's browser
	// process is expensive to spin up per listing.
	backends := map[string]fetch.Backend{}
	defer func() {
		for name, b := range backends {
			if err := b.Close(); err != nil {
				log.Printf("[availability:%s] backend close: %v", name, err)
			}
		}
	}()

	for _, l := range listings {
		if ctx.Err() != nil {
			break
		}
		if l.Link == "" {
			log.Printf("[availability] listing %d has no link, skipping", l.ID)
			continue
		}
		// A listing with an unknown source still counts as checked even
		// though no live page can be fetched for it.
		stats.Checked++

		src, ok := sourceMap[l.SourceName]
		if !ok {
			log.Printf("[availability] source %q not found for listing %d, skipping", l.SourceName, l.ID)
			continue
		}

		backend, ok := backends[src.Name]
		if !ok {
			backend = newBackend(src, c.Limiter)
			backends[src.Name] = backend
		}

		c.checkListing(ctx, backend, l, &stats)
	}

	c.record(ctx, stats)
	log.Printf("[availability] done: checked=%d still_available=%d marked_sold=%d errors=%d",
		stats.Checked, stats.StillAvailable, stats.MarkedSold, stats.Errors)
	return stats, nil
}

func (c *Checker) checkListing(ctx context.Context, backend fetch.Backend, l domain.Listing, stats *domain.AvailabilityStats) {
	reachable, err := backend.CheckReachable(ctx, l.Link)
	if err != nil {
		// Inconclusive: assume still available.
		log.Printf("[availability] check failed for %s: %v", l.Link, err)
		stats.Errors++
		return
	}

	available := reachable
	if reachable {
		available, err = c.pageLooksAvailable(ctx, backend, l.Link)
		if err != nil {
			log.Printf("[availability] inspect failed for %s: %v", l.Link, err)
			stats.Errors++
			return
		}
	}

	if !available {
		log.Printf("[availability] marking sold: %s", l.Link)
		now := time.Now().UTC()
		if err := store.UpdateAvailability(ctx, c.DB, l.ID, domain.AvailabilitySold, &now); err != nil {
			log.Printf("[availability] update failed for listing %d: %v", l.ID, err)
			stats.Errors++
			return
		}
		stats.MarkedSold++
		if c.OnSold != nil {
			l.Availability = domain.AvailabilitySold
			l.SoldAt = &now
			c.OnSold(l)
		}
		return
	}

	if err := store.UpdateAvailability(ctx, c.DB, l.ID, domain.AvailabilityAvailable, nil); err != nil {
		log.Printf("[availability] update failed for listing %d: %v", l.ID, err)
		stats.Errors++
		return
	}
	stats.StillAvailable++
}

// pageLooksAvailable fetches the listing page and scans its text for the
// configured sold markers ("verkauft", "sold", "nicht mehr verfügbar", ...).
func (c *Checker) pageLooksAvailable(ctx context.Context, backend fetch.Backend, url string) (bool, error) {
	markers := c.Cfg.Availability.SoldMarkers
	if len(markers) == 0 {
		return true, nil
	}

	doc, err := backend.Fetch(ctx, url)
	if err != nil {
		return false, err
	}

	text := strings.ToLower(doc.Text())
	for _, m := range markers {
		m = strings.ToLower(strings.TrimSpace(m))
		if m != "" && strings.Contains(text, m) {
			return false, nil
		}
	}
	return true, nil
}

func (c *Checker) record(ctx context.Context, stats domain.AvailabilityStats) {
	if err := store.RecordAvailabilityRun(ctx, c.DB, stats); err != nil {
		log.Printf("[availability] record run: %v", err)
	}
}
