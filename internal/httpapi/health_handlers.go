package httpapi

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	Engine Engine
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"ok":   true,
		"time": time.Now().Format(time.RFC3339),
		"jobs": len(h.Engine.Snapshot()),
	})
}
