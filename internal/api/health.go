package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// Health is the body of /healthz.
type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	// Uptime is the process uptime in seconds.
	Uptime float64 `json:"uptime"`
}

func newHealthHandler(startedAt time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Health{
			Status:    "ok",
			Timestamp: now.UTC(),
			Uptime:    now.Sub(startedAt).Seconds(),
		})
	})
}
