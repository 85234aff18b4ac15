package stats

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"elearning-backend/internal/middleware"
	"elearning-backend/internal/transport"
)

type Handler struct {
	dashboard *Dashboard
	log       *slog.Logger
}

func NewHandler(dashboard *Dashboard, log *slog.Logger) *Handler {
	return &Handler{
		dashboard: dashboard,
		log:       log,
	}
}

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	log := h.log
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		log = log.With(slog.String("request_id", id))
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	summary, err := h.dashboard.Summary(ctx)
	if err != nil {
		log.Error("admin dashboard: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("admin dashboard: ok")
	transport.WriteJSON(w, http.StatusOK, summary)
}
