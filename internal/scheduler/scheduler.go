package scheduler

import (
	"context"
	"log"
	"time"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then on every interval tick until ctx is
// cancelled.
func Every(ctx context.Context, interval time.Duration, name string, task Task) {
	EveryAt(ctx, interval, 0, name, task)
}

// EveryAt is Every with an initial offset, so two cycles sharing the same
// interval can run staggered (discovery at :00, availability at :30).
func EveryAt(ctx context.Context, interval, offset time.Duration, name string, task Task) {
	run := func() {
		if err := task(ctx); err != nil {
			log.Printf("[%s] error: %v", name, err)
		}
	}

	if offset > 0 {
		select {
		case <-ctx.Done():
			return
		case <-time.After(offset):
		}
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	run()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
