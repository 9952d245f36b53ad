package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"watchscout-engine/internal/config"
	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/notify"
	"watchscout-engine/internal/scrape/util"
	"watchscout-engine/internal/store"
)

const shopPage = `
<html><body>
  <div class="listing">
    <h3 class="title">Rolex Submariner 116610LN</h3>
    <span class="price">9.999,00 €</span>
    <a class="more" href="/item/1">details</a>
  </div>
</body></html>`

// fakeOracle implements oracle.Extractor without a network.
type fakeOracle struct {
	mu    sync.Mutex
	calls int
	ext   domain.ExtractedListing
	err   error
}

func (f *fakeOracle) Extract(ctx context.Context, rawMarkup, sourceName string) (*domain.ExtractedListing, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	ext := f.ext
	return &ext, nil
}

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func goodExtraction() domain.ExtractedListing {
	return domain.ExtractedListing{
		Manufacturer:    "Rolex",
		Model:           "Submariner",
		ReferenceNumber: "116610LN",
		Price:           9999,
		Currency:        domain.CurrencyEUR,
		Country:         "Germany",
		Condition:       domain.ConditionVeryGood,
		Confidence:      0.9,
	}
}

func discoveryDB(t *testing.T, srvURL string, countries string) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := store.Migrate(db.Pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	u, _ := url.Parse(srvURL)
	_, err = db.Pool.Exec(`
INSERT INTO sources(name, url, domain, fetch_strategy, search_url_template,
                    listing_selector, title_selector, price_selector, link_selector,
                    rate_limit_seconds, active)
VALUES ('test-shop', ?, ?, 'static', ?, 'div.listing', 'h3.title', 'span.price', 'a.more', 0.001, 1);`,
		srvURL+"/", u.Host, srvURL+"/s?q={manufacturer}+{model}")
	if err != nil {
		t.Fatalf("seed source: %v", err)
	}

	_, err = db.Pool.Exec(`
INSERT INTO search_criteria(manufacturer, model, allowed_countries, active)
VALUES ('Rolex', 'Submariner', ?, 1);`, countries)
	if err != nil {
		t.Fatalf("seed criterion: %v", err)
	}
	return db
}

func testOrchestrator(db *store.DB, o *fakeOracle) *Orchestrator {
	cfg := config.Config{}
	cfg.Discovery.MaxMarkupBytes = 4000
	cfg.Discovery.MaxConcurrentSources = 2
	return &Orchestrator{
		DB:       db.Pool,
		Cfg:      cfg,
		Oracle:   o,
		Notifier: notify.Nop{},
		Limiter:  util.NewDomainLimiter(time.Millisecond),
	}
}

func TestRun_SavesNewListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/s" {
			http.NotFound(w, r)
			return
		}
		if q := r.URL.Query().Get("q"); q != "Rolex Submariner" {
			t.Errorf("search query: got %q, want %q", q, "Rolex Submariner")
		}
		fmt.Fprint(w, shopPage)
	}))
	defer srv.Close()

	db := discoveryDB(t, srv.URL, `["Germany"]`)
	o := &fakeOracle{ext: goodExtraction()}

	var published []domain.Listing
	orch := testOrchestrator(db, o)
	orch.OnNewListing = func(l domain.Listing) { published = append(published, l) }

	stats, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if stats.SourcesChecked != 1 || stats.SourcesFailed != 0 {
		t.Errorf("sources: checked=%d failed=%d", stats.SourcesChecked, stats.SourcesFailed)
	}
	if stats.CandidatesFound != 1 || stats.ListingsSaved != 1 {
		t.Errorf("candidates=%d saved=%d, want 1/1", stats.CandidatesFound, stats.ListingsSaved)
	}
	if stats.Status != domain.RunStatusSuccess {
		t.Errorf("status: got %q", stats.Status)
	}

	listings, err := store.ListAvailableListings(context.Background(), db.Pool)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(listings))
	}
	l := listings[0]
	if l.Manufacturer != "Rolex" || l.Model != "Submariner" {
		t.Errorf("listing: %s %s", l.Manufacturer, l.Model)
	}
	if l.Link != srv.URL+"/item/1" {
		t.Errorf("link: got %q", l.Link)
	}
	if l.Price != 9999 || l.Currency != domain.CurrencyEUR {
		t.Errorf("price: %v %s", l.Price, l.Currency)
	}
	if l.SourceName != "test-shop" {
		t.Errorf("source: got %q", l.SourceName)
	}

	if len(published) != 1 {
		t.Errorf("OnNewListing fired %d times, want 1", len(published))
	}

	// source write-back
	srcs, _ := store.ListSources(context.Background(), db.Pool, true)
	if srcs[0].LastSuccessAt == nil {
		t.Error("source LastSuccessAt not set")
	}

	var runs int
	if err := db.Pool.QueryRow(`SELECT COUNT(*) FROM run_logs;`).Scan(&runs); err != nil || runs != 1 {
		t.Errorf("run_logs: got %d, err=%v", runs, err)
	}
}

func TestRun_SecondRunDeduplicates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, shopPage)
	}))
	defer srv.Close()

	db := discoveryDB(t, srv.URL, `[]`)
	o := &fakeOracle{ext: goodExtraction()}
	orch := testOrchestrator(db, o)

	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if o.callCount() != 1 {
		t.Fatalf("oracle calls after first run: got %d, want 1", o.callCount())
	}

	stats, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.ListingsSaved != 0 {
		t.Errorf("second run saved %d listings, want 0", stats.ListingsSaved)
	}
	if stats.DuplicatesSkipped != 1 {
		t.Errorf("duplicates skipped: got %d, want 1", stats.DuplicatesSkipped)
	}
	// the duplicate never reached the oracle
	if o.callCount() != 1 {
		t.Errorf("oracle calls after second run: got %d, want 1", o.callCount())
	}
}

func TestRun_OracleErrorSkipsSoftly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, shopPage)
	}))
	defer srv.Close()

	db := discoveryDB(t, srv.URL, `[]`)
	o := &fakeOracle{err: errors.New("model overloaded")}
	orch := testOrchestrator(db, o)

	stats, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.OracleErrors != 1 {
		t.Errorf("oracle errors: got %d, want 1", stats.OracleErrors)
	}
	if stats.ListingsSaved != 0 {
		t.Errorf("saved %d listings despite oracle failure", stats.ListingsSaved)
	}
	if stats.Status != domain.RunStatusSuccess {
		t.Errorf("per-candidate failure escalated to run status %q", stats.Status)
	}
}

func TestRun_CountryFiltered(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, shopPage)
	}))
	defer srv.Close()

	db := discoveryDB(t, srv.URL, `["Austria"]`)
	ext := goodExtraction()
	ext.Country = "Germany"
	orch := testOrchestrator(db, &fakeOracle{ext: ext})

	stats, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.ListingsSaved != 0 {
		t.Errorf("saved %d listings outside the allow-list", stats.ListingsSaved)
	}
}

func TestRun_PriceFilledFromPageText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, shopPage)
	}))
	defer srv.Close()

	db := discoveryDB(t, srv.URL, `[]`)
	ext := goodExtraction()
	ext.Price = 0
	ext.Currency = ""
	orch := testOrchestrator(db, &fakeOracle{ext: ext})

	if _, err := orch.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	listings, err := store.ListAvailableListings(context.Background(), db.Pool)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 1 {
		t.Fatalf("got %d listings, want 1", len(listings))
	}
	if listings[0].Price != 9999 || listings[0].Currency != domain.CurrencyEUR {
		t.Errorf("price not filled from page text: %v %s", listings[0].Price, listings[0].Currency)
	}
}

func TestRun_SourceFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	db := discoveryDB(t, srv.URL, `[]`)
	orch := testOrchestrator(db, &fakeOracle{ext: goodExtraction()})

	stats, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.SourcesFailed != 1 {
		t.Errorf("sources failed: got %d, want 1", stats.SourcesFailed)
	}
	if stats.Status != domain.RunStatusSuccess {
		t.Errorf("one bad source escalated to run status %q", stats.Status)
	}

	srcs, _ := store.ListSources(context.Background(), db.Pool, true)
	if srcs[0].ErrorCount != 1 {
		t.Errorf("source error count: got %d, want 1", srcs[0].ErrorCount)
	}
	if srcs[0].LastError == "" {
		t.Error("source last error not recorded")
	}
}

func TestRun_LaterCriterionFailureKeepsEarlierCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") == "Rolex Submariner" {
			fmt.Fprint(w, shopPage)
			return
		}
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	db := discoveryDB(t, srv.URL, `[]`)
	if _, err := db.Pool.Exec(`
INSERT INTO search_criteria(manufacturer, model, allowed_countries, active)
VALUES ('Omega', 'Speedmaster', '[]', 1);`); err != nil {
		t.Fatalf("seed second criterion: %v", err)
	}

	orch := testOrchestrator(db, &fakeOracle{ext: goodExtraction()})

	stats, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.SourcesFailed != 1 {
		t.Errorf("sources failed: got %d, want 1", stats.SourcesFailed)
	}
	if stats.ListingsSaved != 1 {
		t.Errorf("saved %d listings, want the candidate found before the failure", stats.ListingsSaved)
	}

	listings, err := store.ListAvailableListings(context.Background(), db.Pool)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listings) != 1 || listings[0].Manufacturer != "Rolex" {
		t.Fatalf("listings after partial failure: %+v", listings)
	}

	srcs, _ := store.ListSources(context.Background(), db.Pool, true)
	if srcs[0].ErrorCount != 1 {
		t.Errorf("source error count: got %d, want 1", srcs[0].ErrorCount)
	}
}

func TestRun_NoActiveSources(t *testing.T) {
	db := discoveryDB(t, "http://unused.invalid", `[]`)
	if _, err := db.Pool.Exec(`UPDATE sources SET active = 0;`); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	o := &fakeOracle{ext: goodExtraction()}
	orch := testOrchestrator(db, o)

	stats, err := orch.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if stats.SourcesChecked != 0 || o.callCount() != 0 {
		t.Errorf("empty run did work: checked=%d oracle=%d", stats.SourcesChecked, o.callCount())
	}
}
