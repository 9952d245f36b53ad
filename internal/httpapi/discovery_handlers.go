package httpapi

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"watchscout-engine/internal/config"
	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/events"
)

type DiscoveryHandler struct {
	CfgVal          *atomic.Value // config.Config
	DiscoveryStatus *atomic.Value // DiscoveryStatus
	Hub             *events.Hub
	RunDiscovery    func(ctx context.Context, cfg config.Config) (domain.RunStats, error)
}

func (h DiscoveryHandler) Status(w http.ResponseWriter, r *http.Request) {
	st := h.DiscoveryStatus.Load().(DiscoveryStatus)
	writeJSON(w, st)
}

// Run triggers a discovery run out-of-band of the schedule.
func (h DiscoveryHandler) Run(w http.ResponseWriter, r *http.Request) {
	st := h.DiscoveryStatus.Load().(DiscoveryStatus)
	if st.Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	h.DiscoveryStatus.Store(DiscoveryStatus{
		LastRunAt: time.Now().Format(time.RFC3339),
		Running:   true,
		LastOkAt:  st.LastOkAt,
	})

	go func() {
		cfg := h.CfgVal.Load().(config.Config)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.DiscoveryRunTimeout())
		defer cancel()

		stats, err := h.RunDiscovery(ctx, cfg)

		now := time.Now().Format(time.RFC3339)
		next := h.DiscoveryStatus.Load().(DiscoveryStatus)
		next.Running = false
		next.LastRunAt = now
		next.LastSaved = stats.ListingsSaved
		if err != nil {
			next.LastError = err.Error()
		} else {
			next.LastError = ""
			next.LastOkAt = now
		}
		h.DiscoveryStatus.Store(next)

		h.Hub.Publish(events.MakeEvent("", events.TypeRunFinished, 1, stats))
	}()

	writeJSON(w, map[string]any{"ok": true})
}
