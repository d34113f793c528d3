package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

var heartbeatInterval = 15 * time.Second

// GetEvents streams a "snapshot" event carrying the store version every time a
// snapshot is applied. The current version is sent on connect once data has
// loaded.
func (h *Handler) GetEvents(c *gin.Context) {
	updates, cancel := h.store.Subscribe()
	defer cancel()

	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "retry: 5000\n")
	if v := h.store.Version(); v > 0 {
		if err := writeSnapshotEvent(w, v); err != nil {
			return
		}
	}
	w.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	done := c.Request.Context().Done()
	for {
		select {
		case <-done:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := writeSnapshotEvent(w, u.Version); err != nil {
				log.Printf("Error sending SSE snapshot event: %v", err)
				return
			}
			w.Flush()
		case <-heartbeat.C:
			if _, err := fmt.Fprintf(w, ": heartbeat %s\n\n", time.Now().Format(time.RFC3339)); err != nil {
				return
			}
			w.Flush()
		}
	}
}

func writeSnapshotEvent(w gin.ResponseWriter, version uint64) error {
	return sse.Encode(w, sse.Event{
		Id:    fmt.Sprintf("%d", version),
		Event: "snapshot",
		Data:  gin.H{"version": version},
	})
}
