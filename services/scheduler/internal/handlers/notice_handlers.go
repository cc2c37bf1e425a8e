package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/diagnosis/demo-scheduler/pkg/logger"
)

const noticeKeepAlive = 25 * time.Second

// StreamNotices relays operator notices as server-sent events until the
// client goes away.
func (h *Handlers) StreamNotices(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming unsupported", CodeInternalError)
		return
	}
	// the stream outlives the server write timeout
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	ch, cancel := h.notices.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(noticeKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case n, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(n)
			if err != nil {
				logger.ErrorContext(r.Context(), "Failed to encode notice", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", n.Level, data)
			flusher.Flush()
		}
	}
}
