package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"watchscout-engine/internal/events"
)

// keepAliveInterval is how often an idle SSE stream emits a ping so proxies
// and clients don't tear the connection down.
const keepAliveInterval = 30 * time.Second

type EventsHandler struct {
	Hub *events.Hub
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	reqID := RequestIDFrom(r.Context())
	send := func(msg string) {
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
		flusher.Flush()
	}

	// Initial ping confirms the stream is live before any engine event.
	send(events.MakeEvent(reqID, events.TypePing, 1, nil))

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			send(events.MakeEvent(reqID, events.TypePing, 1, nil))
		case msg := <-ch:
			send(msg)
		}
	}
}
