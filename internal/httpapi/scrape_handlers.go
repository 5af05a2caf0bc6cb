package httpapi

import (
	"context"
	"errors"
	"log"
	"net/http"

	"jobwatch-engine/internal/poll"
)

type ScrapeHandler struct {
	Engine  Engine
	RunCtx  context.Context
	OnFatal func(error)
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Engine.Status())
}

// Run starts a scrape in the background. The response doesn't wait for it;
// progress arrives on /events and /scrape/status.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Engine.Status().Running {
		writeJSON(w, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	ctx := h.RunCtx
	if ctx == nil {
		ctx = context.Background()
	}
	reqID := RequestIDFrom(r.Context())

	go func() {
		_, err := h.Engine.PollOnce(ctx, reqID)
		switch {
		case err == nil:
		case errors.Is(err, poll.ErrBusy):
			log.Printf("[scrape] request_id=%s skipped: %v", reqID, err)
		case errors.Is(err, poll.ErrPersist) && h.OnFatal != nil:
			h.OnFatal(err)
		default:
			log.Printf("[scrape] request_id=%s error: %v", reqID, err)
		}
	}()

	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true, "request_id": reqID})
}
