package scrape

import (
	"strings"

	"watchscout-engine/internal/domain"
)

// Matches decides whether an oracle extraction satisfies a criterion.
// Manufacturer and model match fuzzily: case-insensitive substring
// containment in either direction. Reference numbers match exactly after
// stripping hyphens, spaces and case; years tolerate a 1-year drift.
// An omitted criterion field constrains nothing.
func Matches(ext domain.ExtractedListing, crit domain.SearchCriterion) bool {
	if !containsEither(ext.Manufacturer, crit.Manufacturer) {
		return false
	}
	if !containsEither(ext.Model, crit.Model) {
		return false
	}

	if crit.ReferenceNumber != "" && ext.ReferenceNumber != "" {
		if squashRef(crit.ReferenceNumber) != squashRef(ext.ReferenceNumber) {
			return false
		}
	}

	if crit.Year != 0 && ext.Year != 0 {
		diff := crit.Year - ext.Year
		if diff < -1 || diff > 1 {
			return false
		}
	}

	return true
}

func containsEither(extracted, criterion string) bool {
	criterion = strings.ToLower(strings.TrimSpace(criterion))
	if criterion == "" {
		return true
	}
	extracted = strings.ToLower(strings.TrimSpace(extracted))
	return strings.Contains(extracted, criterion) || strings.Contains(criterion, extracted)
}

func squashRef(ref string) string {
	ref = strings.ReplaceAll(ref, "-", "")
	ref = strings.ReplaceAll(ref, " ", "")
	return strings.ToLower(ref)
}

// AllowedCountry applies the criterion's country allow-list. An empty list
// passes everything. An empty extracted country also passes: when the oracle
// could not determine the country the listing is surfaced for manual review
// rather than silently dropped. Only a known country outside the list is
// rejected.
func AllowedCountry(country string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	country = strings.ToLower(strings.TrimSpace(country))
	if country == "" {
		return true
	}
	for _, a := range allowed {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if strings.Contains(country, a) || strings.Contains(a, country) {
			return true
		}
	}
	return false
}
