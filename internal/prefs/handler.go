package prefs

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"elearning-backend/internal/auth"
	"elearning-backend/internal/cache"
	"elearning-backend/internal/httpx"
	"elearning-backend/internal/middleware"
	"elearning-backend/internal/transport"
	"elearning-backend/internal/validation"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type Handler struct {
	kv  cache.Cache
	ttl time.Duration
	val *validation.Validator
	log *slog.Logger
}

func NewHandler(kv cache.Cache, ttl time.Duration, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		kv:  kv,
		ttl: ttl,
		val: val,
		log: log,
	}
}

func (h *Handler) List(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.logWithRequest(r)
		list, _, cancel, ok := h.load(w, r, kind)
		if !ok {
			return
		}
		defer cancel()

		items := list.Items()
		log.Info(kind+" list: ok", slog.Int("count", len(items)))
		transport.WriteItems(w, items, map[string]interface{}{"total": Total(items).StringFixed(2)})
	}
}

func (h *Handler) Add(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.logWithRequest(r)
		var item Item
		if err := httpx.DecodeJSON(r.Body, &item); err != nil {
			log.Warn(kind + " add: invalid json")
			transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
			return
		}
		item.ID = strings.TrimSpace(item.ID)
		item.Title = strings.TrimSpace(item.Title)
		if err := h.val.Check(item); err != nil {
			ve, _ := validation.IsValidation(err)
			log.Warn(kind + " add: validation error")
			transport.WriteError(w, http.StatusBadRequest, "validation error", fieldsOf(ve))
			return
		}

		list, ctx, cancel, ok := h.load(w, r, kind)
		if !ok {
			return
		}
		defer cancel()

		added, err := list.Add(ctx, item)
		if err != nil {
			log.Error(kind+" add: store error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "store error", nil)
			return
		}

		status := http.StatusOK
		if added {
			status = http.StatusCreated
		}
		log.Info(kind+" add: ok", slog.String("course_id", item.ID), slog.Bool("added", added))
		transport.WriteJSON(w, status, map[string]interface{}{"added": added, "items": list.Items()})
	}
}

func (h *Handler) Remove(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.logWithRequest(r)
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		list, ctx, cancel, ok := h.load(w, r, kind)
		if !ok {
			return
		}
		defer cancel()

		if err := list.Remove(ctx, id); err != nil {
			log.Error(kind+" remove: store error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "store error", nil)
			return
		}

		log.Info(kind+" remove: ok", slog.String("course_id", id))
		transport.WriteItems(w, list.Items(), nil)
	}
}

func (h *Handler) Clear(kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := h.logWithRequest(r)
		list, ctx, cancel, ok := h.load(w, r, kind)
		if !ok {
			return
		}
		defer cancel()

		if err := list.Clear(ctx); err != nil {
			log.Error(kind+" clear: store error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "store error", nil)
			return
		}

		log.Info(kind + " clear: ok")
		transport.WriteItems(w, list.Items(), nil)
	}
}

// load hydrates the signed-in user's list. It writes the error response
// itself and reports ok=false when the caller should stop.
func (h *Handler) load(w http.ResponseWriter, r *http.Request, kind string) (*List, context.Context, context.CancelFunc, bool) {
	log := h.logWithRequest(r)
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		transport.WriteError(w, http.StatusUnauthorized, "unauthorized", nil)
		return nil, nil, nil, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	list, err := Load(ctx, h.kv, Key(kind, user.ID), h.ttl, log)
	if err != nil {
		cancel()
		log.Error(kind+" load: store error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "store error", nil)
		return nil, nil, nil, false
	}
	return list, ctx, cancel, true
}

// Total is the summed price of the items.
func Total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Price)
	}
	return sum
}

func fieldsOf(ve *validation.Error) map[string]string {
	if ve == nil {
		return nil
	}
	return ve.Fields
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
