// Package oracle wraps the external text-understanding service that turns a
// listing's raw markup into structured watch fields. The service is treated
// as unreliable: callers bound input size before calling and absorb failures
// as per-candidate skips.
package oracle

import (
	"context"
	"errors"

	"watchscout-engine/internal/domain"
)

// ErrLowConfidence means the oracle answered but below the configured
// confidence threshold. Callers treat it like any extraction failure.
var ErrLowConfidence = errors.New("extraction below confidence threshold")

// ErrIncomplete means the oracle's answer is missing manufacturer or model,
// without which a listing cannot be matched or persisted.
var ErrIncomplete = errors.New("extraction missing manufacturer or model")

type Extractor interface {
	// Extract turns one candidate's raw markup into structured fields.
	// sourceName gives the model context about the site's layout/locale.
	Extract(ctx context.Context, rawMarkup, sourceName string) (*domain.ExtractedListing, error)
}
