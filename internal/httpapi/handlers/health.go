package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/VivekAsole/video-processing-backend/internal/httpkit"
)

const healthCheckTimeout = 5 * time.Second

// Health reports liveness; with ?deep=true it also pings Postgres, Redis and
// the storage provider.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := h.log.FromContext(ctx)

	health := map[string]any{
		"status":  "ok",
		"service": "vidproc-api",
	}

	if r.URL.Query().Get("deep") == "true" {
		checks := h.deepHealthCheck(ctx)
		health["checks"] = checks

		for _, check := range checks {
			if check["status"] != "ok" {
				health["status"] = "degraded"
				log.Warn("health check degraded", "checks", checks)
				break
			}
		}
	}

	httpkit.WriteJSON(w, http.StatusOK, health)
}

func (h *Handler) deepHealthCheck(ctx context.Context) map[string]map[string]any {
	checks := make(map[string]map[string]any)

	if h.pool != nil {
		checks["postgres"] = h.checkPostgres(ctx)
	}
	if h.queue != nil {
		checks["redis"] = check(ctx, h.queue.Ping)
	}
	if h.sp != nil {
		storage := check(ctx, h.sp.Ping)
		storage["provider"] = h.sp.Provider()
		checks["storage"] = storage
	}
	return checks
}

func (h *Handler) checkPostgres(ctx context.Context) map[string]any {
	result := check(ctx, h.pool.Ping)
	if result["status"] == "ok" {
		stats := h.pool.Stat()
		result["total_conns"] = stats.TotalConns()
		result["idle_conns"] = stats.IdleConns()
		result["acquired_conns"] = stats.AcquiredConns()
	}
	return result
}

func check(ctx context.Context, ping func(context.Context) error) map[string]any {
	start := time.Now()
	result := map[string]any{"status": "ok"}

	checkCtx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	if err := ping(checkCtx); err != nil {
		result["status"] = "error"
		result["error"] = err.Error()
	}
	result["latency_ms"] = time.Since(start).Milliseconds()
	return result
}
