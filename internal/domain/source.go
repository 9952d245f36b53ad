package domain

import "time"

// SourceConfig is one configured origin site. The selector recipe comes from
// the sources table; the engine never mutates it, only reports stats back.
type SourceConfig struct {
	ID            int64
	Name          string // unique key
	URL           string // base URL, relative links resolve against it
	Domain        string // rate-limit bucket key
	FetchStrategy string // static/dynamic
	CustomBackend string // optional registered backend name, empty = generic
	SourceType    string // Dealer/Forum/Marketplace

	SearchURLTemplate string // {manufacturer}/{model} placeholders
	ListingSelector   string
	TitleSelector     string
	PriceSelector     string
	LinkSelector      string
	ImageSelector     string
	WaitSelector      string // dynamic only: selector to wait for after navigation

	RateLimit     time.Duration
	Active        bool
	ErrorCount    int
	LastError     string
	LastSuccessAt *time.Time
}

type SearchCriterion struct {
	ID               int64
	Manufacturer     string
	Model            string
	ReferenceNumber  string
	Year             int // 0 = unspecified
	AllowedCountries []string
	Active           bool
}
