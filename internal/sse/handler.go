package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gala-ticketing/internal/logger"
)

const keepAliveInterval = 25 * time.Second

type Handler struct {
	Feed   *OrderFeed
	Logger *logger.Logger
}

func NewHandler(feed *OrderFeed, log *logger.Logger) *Handler {
	return &Handler{Feed: feed, Logger: log}
}

// Stream writes each paid order as an "order.paid" server-sent event until the
// client disconnects.
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	events := h.Feed.Subscribe(r.Context())
	h.Logger.Debug("SSE", fmt.Sprintf("Order feed client connected (%d total)", h.Feed.ClientCount()))

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case event, open := <-events:
			if !open {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to encode event for %s: %v", event.OrderID, err))
				continue
			}
			fmt.Fprintf(w, "event: order.paid\ndata: %s\n\n", data)
			flusher.Flush()
		case <-ticker.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}
