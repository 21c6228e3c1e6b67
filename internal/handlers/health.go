package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/pliu/estate/internal/httputil"
	"github.com/pliu/estate/internal/logging"
	"github.com/pliu/estate/internal/store"
)

type HealthHandler struct {
	Store   store.Store
	Timeout time.Duration
}

// Healthz reports 503 when the database does not answer a ping in time.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Health check failed")
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
