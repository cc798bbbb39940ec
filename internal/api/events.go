package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/estatedesk/internal/model"
	"github.com/erazemk/estatedesk/internal/notify"
)

// KeepAlive is the interval between comment lines on an idle event stream.
const KeepAlive = 25 * time.Second

// EventsHandler streams property change events.
type EventsHandler struct {
	Hub *notify.Hub
}

// Stream handles GET /api/events as a Server-Sent Events stream. Slow
// clients miss events rather than delaying others. Anonymous clients never
// receive draft documents.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	anonymous := GetClaims(r.Context()) == nil

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && err != http.ErrNotSupported {
		slog.Warn("clearing write deadline", "error", err)
	}

	sub := h.Hub.Subscribe()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	if err := rc.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if anonymous {
				if e, ok = publicEvent(e); !ok {
					continue
				}
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, e.Data); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// publicEvent redacts a property event for anonymous clients. A new draft is
// dropped; an update that leaves the property in draft carries only its id
// and status so listeners can remove a previously public listing.
func publicEvent(e notify.Event) (notify.Event, bool) {
	if e.Type != notify.PropertyCreated && e.Type != notify.PropertyUpdated {
		return e, true
	}

	var head struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(e.Data, &head); err != nil {
		return notify.Event{}, false
	}
	if head.Status != model.StatusDraft {
		return e, true
	}
	if e.Type == notify.PropertyCreated {
		return notify.Event{}, false
	}

	redacted, err := notify.NewEvent(e.Type, head)
	if err != nil {
		return notify.Event{}, false
	}
	return redacted, true
}
