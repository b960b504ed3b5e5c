package handler

import (
	"net/http"
	"time"

	"github.com/sells-group/equity-research/internal/api/response"
)

// NewHealthHandler handles GET /api/v1/health.
func NewHealthHandler(version string) http.HandlerFunc {
	start := time.Now()
	return func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, map[string]any{
			"status":         "ok",
			"version":        version,
			"uptime_seconds": int64(time.Since(start).Seconds()),
		})
	}
}
