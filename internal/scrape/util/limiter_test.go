package util

import (
	"context"
	"testing"
	"time"
)

func TestDomainLimiter_EnforcesInterval(t *testing.T) {
	dl := NewDomainLimiter(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := dl.Wait(ctx, "example.com", 0); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}
	elapsed := time.Since(start)

	// first call is free, the next two each wait ~50ms
	if elapsed < 90*time.Millisecond {
		t.Errorf("3 waits took %v, want >= ~100ms", elapsed)
	}
}

func TestDomainLimiter_DomainsIndependent(t *testing.T) {
	dl := NewDomainLimiter(200 * time.Millisecond)
	ctx := context.Background()

	if err := dl.Wait(ctx, "a.com", 0); err != nil {
		t.Fatalf("Wait a.com: %v", err)
	}
	start := time.Now()
	if err := dl.Wait(ctx, "b.com", 0); err != nil {
		t.Fatalf("Wait b.com: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first request to b.com blocked for %v", elapsed)
	}
}

func TestDomainLimiter_ContextCancel(t *testing.T) {
	dl := NewDomainLimiter(time.Hour)
	ctx := context.Background()

	if err := dl.Wait(ctx, "slow.com", 0); err != nil {
		t.Fatalf("first Wait: %v", err)
	}

	cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := dl.Wait(cctx, "slow.com", 0); err == nil {
		t.Error("Wait returned nil despite expired context")
	}
}

func TestDomainLimiter_Reset(t *testing.T) {
	dl := NewDomainLimiter(time.Hour)
	ctx := context.Background()

	if err := dl.Wait(ctx, "x.com", 0); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	dl.Reset("x.com")

	start := time.Now()
	if err := dl.Wait(ctx, "x.com", 0); err != nil {
		t.Fatalf("Wait after reset: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("reset domain still blocked for %v", elapsed)
	}
}
