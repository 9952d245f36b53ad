package httpapi

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	StartedAt time.Time
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":             true,
		"uptime_seconds": int(time.Since(h.StartedAt).Seconds()),
	})
}
