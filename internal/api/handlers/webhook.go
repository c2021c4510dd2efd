package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tokenpay/backend/internal/api/httpx"
	"github.com/tokenpay/backend/internal/payment"
	"github.com/tokenpay/backend/internal/services"
)

// maxWebhookBody caps the raw payload read before signature verification.
const maxWebhookBody = int64(64 << 10)

type WebhookHandler struct {
	verifier   payment.Verifier
	reconciler *services.ReconcileService
	log        *slog.Logger
}

func NewWebhookHandler(verifier payment.Verifier, reconciler *services.ReconcileService, log *slog.Logger) *WebhookHandler {
	return &WebhookHandler{verifier: verifier, reconciler: reconciler, log: log}
}

// Handle processes one provider delivery. Verification comes before any state
// access; an unverifiable payload gets a 400 and nothing else happens. A 200
// acknowledges the event, including graceful no-ops; non-2xx makes the
// provider redeliver.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	ev, err := h.verifier.Verify(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrVerification) {
			h.log.Warn("webhook rejected", "err", err)
			httpx.WriteError(w, http.StatusBadRequest, "signature verification failed")
			return
		}
		h.log.Warn("webhook payload rejected", "err", err)
		httpx.WriteError(w, http.StatusBadRequest, "malformed event")
		return
	}

	if err := h.reconciler.Apply(r.Context(), ev); err != nil {
		h.log.Error("event handling failed", "event", ev.ID, "kind", ev.Kind, "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "event handling failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
