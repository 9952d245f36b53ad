package domain

import "time"

type Availability string

const (
	AvailabilityAvailable Availability = "Available"
	AvailabilitySold      Availability = "Sold"
	AvailabilityUnknown   Availability = "Unknown"
)

type Condition string

const (
	ConditionNew      Condition = "New"
	ConditionLikeNew  Condition = "Like-New"
	ConditionVeryGood Condition = "Very-Good"
	ConditionGood     Condition = "Good"
	ConditionUsed     Condition = "Used"
	ConditionUnknown  Condition = "Unknown"
)

type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyCHF Currency = "CHF"
	CurrencyGBP Currency = "GBP"
)

// RawCandidate is one element scraped off a search-results page, before the
// oracle has seen it. RawMarkup is bounded upstream so the oracle call stays
// within its input limit.
type RawCandidate struct {
	Title       string
	PriceText   string
	Link        string
	ImageURL    string
	RawMarkup   string
	SourceName  string
	SourceType  string
	Fingerprint string
}

// ExtractedListing is what the oracle produced from a candidate's markup.
type ExtractedListing struct {
	Manufacturer    string    `json:"manufacturer"`
	Model           string    `json:"model"`
	ReferenceNumber string    `json:"reference_number"`
	Year            int       `json:"year"`
	Condition       Condition `json:"condition"`
	Price           float64   `json:"price"`
	Currency        Currency  `json:"currency"`
	Location        string    `json:"location"`
	Country         string    `json:"country"`
	SellerName      string    `json:"seller_name"`
	SellerURL       string    `json:"seller_url"`
	Confidence      float64   `json:"confidence"`
}

// Listing is the persisted record. Created once by discovery; afterwards only
// the availability checker touches it, and only it may write Sold.
type Listing struct {
	ID   int64  `json:"id"`
	Name string `json:"name"` // "Manufacturer Model"
	ExtractedListing

	Link        string `json:"link"`
	ImageURL    string `json:"image_url"`
	Fingerprint string `json:"fingerprint"` // unique key
	SourceName  string `json:"source"`
	SourceType  string `json:"source_type"`
	CriterionID int64  `json:"criterion_id"`

	Availability  Availability `json:"availability"`
	DiscoveredAt  time.Time    `json:"discovered_at"`
	LastCheckedAt time.Time    `json:"last_checked_at"`
	SoldAt        *time.Time   `json:"sold_at,omitempty"`
}
