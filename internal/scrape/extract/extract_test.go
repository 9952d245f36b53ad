package extract

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"watchscout-engine/internal/domain"
)

func testSource() domain.SourceConfig {
	return domain.SourceConfig{
		Name:              "cologne-watch",
		URL:               "https://example.com/shop/",
		SourceType:        "dealer",
		SearchURLTemplate: "https://example.com/s?q={manufacturer}+{model}",
		ListingSelector:   "div.listing",
		TitleSelector:     "h3.title",
		PriceSelector:     "span.price",
		LinkSelector:      "a.more",
		ImageSelector:     "img.photo",
	}
}

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestBuildSearchURL(t *testing.T) {
	src := testSource()
	crit := domain.SearchCriterion{Manufacturer: "Rolex", Model: "Submariner Date"}

	got := BuildSearchURL(src, crit)
	want := "https://example.com/s?q=Rolex+Submariner+Date"
	if got != want {
		t.Errorf("BuildSearchURL: got %q, want %q", got, want)
	}
}

func TestBuildSearchURL_CaseInsensitivePlaceholders(t *testing.T) {
	src := testSource()
	src.SearchURLTemplate = "https://example.com/s?m={Manufacturer}&mo={MODEL}"
	crit := domain.SearchCriterion{Manufacturer: "Omega", Model: "Speedmaster"}

	got := BuildSearchURL(src, crit)
	want := "https://example.com/s?m=Omega&mo=Speedmaster"
	if got != want {
		t.Errorf("BuildSearchURL: got %q, want %q", got, want)
	}
}

func TestBuildSearchURL_EmptyTemplate(t *testing.T) {
	src := testSource()
	src.SearchURLTemplate = "  "
	if got := BuildSearchURL(src, domain.SearchCriterion{Manufacturer: "Rolex"}); got != "" {
		t.Errorf("empty template: got %q, want empty", got)
	}
}

const sampleHTML = `
<html><body>
  <div class="listing">
    <h3 class="title"> Rolex  Submariner 116610LN </h3>
    <span class="price">9.999,00 €</span>
    <a class="more" href="/item/1">details</a>
    <img class="photo" src="/img/1.jpg">
  </div>
  <div class="listing">
    <h3 class="title"></h3>
    <span class="price">1.234,00 €</span>
  </div>
  <div class="listing">
    <a class="more" href="https://other.com/item/2">details</a>
  </div>
</body></html>`

func TestExtract(t *testing.T) {
	src := testSource()
	doc := parseDoc(t, sampleHTML)

	got := Extract(src, doc, 4000)
	if len(got) != 2 {
		t.Fatalf("Extract: got %d candidates, want 2 (title-and-link-less element skipped)", len(got))
	}

	first := got[0]
	if first.Title != "Rolex Submariner 116610LN" {
		t.Errorf("Title: got %q", first.Title)
	}
	if first.PriceText != "9.999,00 €" {
		t.Errorf("PriceText: got %q", first.PriceText)
	}
	if first.Link != "https://example.com/item/1" {
		t.Errorf("Link not resolved against source URL: got %q", first.Link)
	}
	if first.ImageURL != "https://example.com/img/1.jpg" {
		t.Errorf("ImageURL: got %q", first.ImageURL)
	}
	if first.SourceName != "cologne-watch" {
		t.Errorf("SourceName: got %q", first.SourceName)
	}
	if first.Fingerprint == "" || len(first.Fingerprint) != 16 {
		t.Errorf("Fingerprint: got %q", first.Fingerprint)
	}
	if !strings.Contains(first.RawMarkup, "116610LN") {
		t.Errorf("RawMarkup should carry the element markup, got %q", first.RawMarkup)
	}

	// link-only element survives, absolute link passes through
	if got[1].Link != "https://other.com/item/2" {
		t.Errorf("absolute link: got %q", got[1].Link)
	}
	if got[1].Title != "" {
		t.Errorf("link-only element title: got %q", got[1].Title)
	}
}

func TestExtract_MarkupTruncated(t *testing.T) {
	src := testSource()
	doc := parseDoc(t, sampleHTML)

	got := Extract(src, doc, 20)
	if len(got) == 0 {
		t.Fatal("no candidates")
	}
	if len(got[0].RawMarkup) > 23 { // 20 + "..."
		t.Errorf("RawMarkup not truncated: %d bytes", len(got[0].RawMarkup))
	}
}

func TestExtract_NoListingSelector(t *testing.T) {
	src := testSource()
	src.ListingSelector = ""
	doc := parseDoc(t, sampleHTML)

	if got := Extract(src, doc, 4000); got != nil {
		t.Errorf("missing listing selector: got %d candidates, want none", len(got))
	}
}

func TestExtract_OptionalSelectorsOmitted(t *testing.T) {
	src := testSource()
	src.PriceSelector = ""
	src.ImageSelector = ""
	doc := parseDoc(t, sampleHTML)

	got := Extract(src, doc, 4000)
	if len(got) != 2 {
		t.Fatalf("Extract: got %d candidates, want 2", len(got))
	}
	if got[0].PriceText != "" || got[0].ImageURL != "" {
		t.Errorf("omitted selectors should yield empty fields: price=%q image=%q",
			got[0].PriceText, got[0].ImageURL)
	}
}
