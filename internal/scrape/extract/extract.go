// Package extract turns a source's declarative selector recipe into raw
// listing candidates. Selectors are opaque strings from the sources table;
// adding a source is a data change, never a code change.
package extract

import (
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/scrape/util"
)

// BuildSearchURL substitutes the criterion into the source's URL template.
// Placeholder names are matched case-insensitively ({manufacturer} and
// {Manufacturer} both work) and spaces become plus signs. An empty template
// yields an empty URL, which callers treat as "source not searchable".
func BuildSearchURL(src domain.SourceConfig, crit domain.SearchCriterion) string {
	tpl := strings.TrimSpace(src.SearchURLTemplate)
	if tpl == "" {
		return ""
	}

	manufacturer := strings.TrimSpace(crit.Manufacturer)
	model := strings.TrimSpace(crit.Model)

	u := replacePlaceholder(tpl, "manufacturer", manufacturer)
	u = replacePlaceholder(u, "model", model)
	return strings.ReplaceAll(u, " ", "+")
}

func replacePlaceholder(tpl, name, value string) string {
	needle := "{" + name + "}"
	var b strings.Builder
	for {
		i := indexFold(tpl, needle)
		if i < 0 {
			b.WriteString(tpl)
			return b.String()
		}
		b.WriteString(tpl[:i])
		b.WriteString(value)
		tpl = tpl[i+len(needle):]
	}
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}

// Extract applies the source's selector recipe to a fetched document. Each
// matched listing element is processed independently; a malformed element is
// logged and skipped, never aborting its siblings. A source without a listing
// selector yields nothing, not an error.
func Extract(src domain.SourceConfig, doc *goquery.Document, maxMarkup int) []domain.RawCandidate {
	if strings.TrimSpace(src.ListingSelector) == "" {
		log.Printf("[extract:%s] no listing selector configured", src.Name)
		return nil
	}

	var out []domain.RawCandidate
	doc.Find(src.ListingSelector).Each(func(i int, el *goquery.Selection) {
		cand, ok := extractOne(src, el, maxMarkup)
		if !ok {
			return
		}
		out = append(out, cand)
	})
	return out
}

func extractOne(src domain.SourceConfig, el *goquery.Selection, maxMarkup int) (domain.RawCandidate, bool) {
	var cand domain.RawCandidate

	// Every per-field selector is optional: missing selector or no match
	// yields an empty field.
	if src.TitleSelector != "" {
		cand.Title = util.CleanText(el.Find(src.TitleSelector).First().Text())
	}
	if src.PriceSelector != "" {
		cand.PriceText = util.CleanText(el.Find(src.PriceSelector).First().Text())
	}
	if src.LinkSelector != "" {
		if href, ok := el.Find(src.LinkSelector).First().Attr("href"); ok {
			cand.Link = util.ResolveURL(src.URL, href)
		}
	}
	if src.ImageSelector != "" {
		if srcAttr, ok := el.Find(src.ImageSelector).First().Attr("src"); ok {
			cand.ImageURL = util.ResolveURL(src.URL, srcAttr)
		}
	}

	// A candidate with neither a title nor a link is noise.
	if cand.Title == "" && cand.Link == "" {
		return cand, false
	}

	markup, err := goquery.OuterHtml(el)
	if err != nil {
		log.Printf("[extract:%s] element markup: %v", src.Name, err)
		markup = ""
	}
	cand.RawMarkup = util.TruncateMarkup(markup, maxMarkup)
	cand.SourceName = src.Name
	cand.SourceType = src.SourceType
	cand.Fingerprint = util.Fingerprint(cand.Link)
	return cand, true
}
