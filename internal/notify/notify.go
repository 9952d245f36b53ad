// Package notify delivers run outcomes by email. All sends are best-effort:
// a failed notification is logged by the caller and never fails a run.
package notify

import (
	"context"

	"watchscout-engine/internal/domain"
)

type Notifier interface {
	// NewListings sends the digest for one run. An empty list is a no-op.
	NewListings(ctx context.Context, listings []domain.Listing) error
	// RunFailed sends an out-of-band error notification for a fatal run.
	RunFailed(ctx context.Context, errMsg string) error
}

// Nop is used when email is disabled.
type Nop struct{}

func (Nop) NewListings(ctx context.Context, listings []domain.Listing) error { return nil }
func (Nop) RunFailed(ctx context.Context, errMsg string) error               { return nil }
