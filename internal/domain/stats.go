package domain

import "time"

const (
	RunStatusSuccess = "Success"
	RunStatusFailed  = "Failed"
)

// RunStats aggregates one discovery run. Written to run_logs exactly once,
// at run end.
type RunStats struct {
	StartedAt         time.Time     `json:"started_at"`
	Duration          time.Duration `json:"-"`
	SourcesChecked    int           `json:"sources_checked"`
	SourcesFailed     int           `json:"sources_failed"`
	CandidatesFound   int           `json:"candidates_found"`
	ListingsSaved     int           `json:"listings_saved"`
	DuplicatesSkipped int           `json:"duplicates_skipped"`
	OracleErrors      int           `json:"oracle_errors"`
	Status            string        `json:"status"`
	ErrorMessage      string        `json:"error_message,omitempty"`
}

// AvailabilityStats aggregates one availability pass.
type AvailabilityStats struct {
	RunAt          time.Time `json:"run_at"`
	Checked        int       `json:"checked"`
	StillAvailable int       `json:"still_available"`
	MarkedSold     int       `json:"marked_sold"`
	Errors         int       `json:"errors"`
}
