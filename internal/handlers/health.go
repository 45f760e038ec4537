package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger is a dependency the health check pings
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Health reports the service and dependency status. Any failing dependency
// turns the response into a 503.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, p := range h.checks {
		if err := p.PingContext(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "up"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":       overall,
		"time":         time.Now().Format(time.RFC3339),
		"dependencies": deps,
	})
}
