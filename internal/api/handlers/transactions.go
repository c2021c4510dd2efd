package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/tokenpay/backend/internal/api/httpx"
	"github.com/tokenpay/backend/internal/models"
	repo "github.com/tokenpay/backend/internal/repository"
	"github.com/tokenpay/backend/internal/services"
)

type TransactionsHandler struct {
	svc *services.QueryService
	log *slog.Logger
}

func NewTransactionsHandler(svc *services.QueryService, log *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, log: log}
}

func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repo.Filter{
		Status:  models.TransactionStatus(q.Get("status")),
		UserID:  q.Get("user_id"),
		Country: q.Get("country"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpx.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		f.Limit = n
	}

	txns, err := h.svc.List(r.Context(), f)
	if err != nil {
		h.log.Error("list transactions", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"count":        len(txns),
		"transactions": txns,
	})
}

func (h *TransactionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		httpx.WriteError(w, http.StatusBadRequest, "transaction id is required")
		return
	}
	txn, err := h.svc.Get(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		httpx.WriteError(w, http.StatusNotFound, "transaction not found")
		return
	}
	if err != nil {
		h.log.Error("get transaction", "id", id, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"transaction": txn,
	})
}

func (h *TransactionsHandler) UserSummary(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")
	if userID == "" {
		httpx.WriteError(w, http.StatusBadRequest, "user id is required")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	sum, err := h.svc.UserSummary(r.Context(), userID, limit)
	if err != nil {
		h.log.Error("user summary", "user", userID, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"summary": sum,
	})
}

func (h *TransactionsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.Stats(r.Context())
	if err != nil {
		h.log.Error("stats", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"stats":   st,
	})
}
