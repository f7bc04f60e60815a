package http

import (
	"context"
	"net/http"
	"time"

	"github.com/AlibekovAA/social-stream/backend/internal/common/logger"
)

// Pinger reports whether a backing store is reachable.
type Pinger func(ctx context.Context) error

func HealthHandler(log *logger.Logger, ping Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			WriteErrorEnvelope(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed", nil, "")
			return
		}

		if ping != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"action": "health_check_failed",
				}).Errorf("health check failed: %v", err)
				WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}

		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
