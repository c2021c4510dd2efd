package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tokenpay/backend/internal/api/httpx"
	"github.com/tokenpay/backend/internal/api/validate"
	repo "github.com/tokenpay/backend/internal/repository"
	"github.com/tokenpay/backend/internal/services"
)

type CheckoutHandler struct {
	svc *services.CheckoutService
	log *slog.Logger
}

func NewCheckoutHandler(svc *services.CheckoutService, log *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{svc: svc, log: log}
}

func (h *CheckoutHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req services.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := h.svc.Create(r.Context(), req)
	if err != nil {
		var verrs validate.Errs
		switch {
		case errors.As(err, &verrs):
			httpx.WriteError(w, http.StatusBadRequest, verrs.Error())
		case errors.Is(err, repo.ErrConflict):
			httpx.WriteError(w, http.StatusConflict, "transaction already exists")
		default:
			h.log.Error("create checkout session", "err", err)
			httpx.WriteError(w, http.StatusInternalServerError, "could not create checkout session")
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, resp)
}
