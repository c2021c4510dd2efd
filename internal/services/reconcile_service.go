package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/tokenpay/backend/internal/keylock"
	"github.com/tokenpay/backend/internal/ledger"
	"github.com/tokenpay/backend/internal/metrics"
	"github.com/tokenpay/backend/internal/models"
	repo "github.com/tokenpay/backend/internal/repository"
	"github.com/tokenpay/backend/internal/worker"
)

// ReconcileService applies verified payment events to transaction records and
// the token ledger exactly once. Events for the same purchase may arrive
// duplicated and out of order; every path checks current status before acting
// and only persists a new status after the dependent ledger call succeeds.
//
// Transitions: pending -> completed, pending -> failed, completed -> refunded.
// needs_review is a side branch taken when a ledger call fails after the
// provider confirmed payment; the event is still acknowledged and an
// out-of-band job owns the retry.
type ReconcileService struct {
	store  repo.Transactions
	events repo.WebhookEvents
	ldg    ledger.Ledger
	locks  *keylock.KeyLock
	wp     *worker.Pool
	log    *slog.Logger
}

func NewReconcileService(store repo.Transactions, events repo.WebhookEvents, ldg ledger.Ledger, locks *keylock.KeyLock, wp *worker.Pool, log *slog.Logger) *ReconcileService {
	return &ReconcileService{store: store, events: events, ldg: ldg, locks: locks, wp: wp, log: log}
}

// Apply routes one verified event through the state machine. A nil return
// acknowledges the event to the provider; a non-nil return signals an
// infrastructure failure and the provider will redeliver.
func (s *ReconcileService) Apply(ctx context.Context, ev models.PaymentEvent) error {
	s.archive(ev)

	switch ev.Kind {
	case models.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, ev)
	case models.EventPaymentSucceeded:
		return s.applyPaymentSucceeded(ctx, ev)
	case models.EventPaymentFailed:
		return s.applyPaymentFailed(ctx, ev)
	case models.EventChargeRefunded:
		return s.applyChargeRefunded(ctx, ev)
	default:
		s.log.Info("unhandled event kind", "kind", ev.Kind, "event", ev.ID)
		metrics.EventsTotal.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return nil
	}
}

// archive keeps a copy of every verified event, deduplicated by provider
// event id. Writes go through the worker pool so they never delay the ack.
func (s *ReconcileService) archive(ev models.PaymentEvent) {
	if s.events == nil || ev.ID == "" {
		return
	}
	rec := models.WebhookEvent{ID: ev.ID, Kind: string(ev.Kind), Payload: ev.Raw}
	record := func() {
		if err := s.events.Record(context.Background(), rec); err != nil {
			s.log.Error("archive event", "event", rec.ID, "err", err)
		}
	}
	if s.wp == nil {
		record()
		return
	}
	s.wp.Submit(record)
}

func (s *ReconcileService) applyCheckoutCompleted(ctx context.Context, ev models.PaymentEvent) error {
	// Lock order: payment key before session key, everywhere. The
	// payment-succeeded path locks only the payment key.
	if ev.PaymentRef != "" {
		unlockPayment := s.locks.Lock("payment:" + ev.PaymentRef)
		defer unlockPayment()
	}
	unlockSession := s.locks.Lock("session:" + ev.SessionRef)
	defer unlockSession()

	// payment_intent.succeeded for the same purchase may have won already
	if ev.PaymentRef != "" {
		prior, err := s.store.FindByPaymentRef(ctx, ev.PaymentRef)
		if err == nil && prior.Status == models.TxnCompleted {
			s.duplicate(ev, prior.ID)
			return nil
		}
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}

	txn, err := s.store.FindBySessionRef(ctx, ev.SessionRef)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		// The pending record never made it to the store. Rebuild it from the
		// event metadata so the purchase is not lost, then complete it.
		txn, err = s.store.Create(ctx, models.Transaction{
			SessionRef:    ev.SessionRef,
			UserID:        ev.UserID,
			Email:         ev.Email,
			WalletAddress: ev.WalletAddress,
			TokenAmount:   ev.TokenAmount,
			AmountCents:   ev.AmountCents,
			Currency:      ev.Currency,
			Status:        models.TxnPending,
		})
		if err != nil {
			return err
		}
	case err != nil:
		return err
	}

	if txn.Status != models.TxnPending {
		s.duplicate(ev, txn.ID)
		return nil
	}

	return s.credit(ctx, txn, ev)
}

func (s *ReconcileService) applyPaymentSucceeded(ctx context.Context, ev models.PaymentEvent) error {
	if ev.PaymentRef == "" {
		s.log.Warn("payment event without payment ref", "event", ev.ID)
		metrics.EventsTotal.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return nil
	}
	unlock := s.locks.Lock("payment:" + ev.PaymentRef)
	defer unlock()

	// Already handled, either by checkout.session.completed or by an earlier
	// delivery of this event. Crediting again would double-pay.
	if prior, err := s.store.FindByPaymentRef(ctx, ev.PaymentRef); err == nil {
		s.duplicate(ev, prior.ID)
		return nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		return err
	}

	// Fallback path: no record carries this payment ref, so the checkout
	// event has not handled the purchase.
	if err := s.ldg.Credit(ctx, ev.UserID, ev.WalletAddress, ev.TokenAmount); err != nil {
		// Payment is captured but tokens were not delivered. Record it for
		// review; never drop it.
		metrics.LedgerOps.WithLabelValues("credit", "error").Inc()
		if _, cerr := s.store.Create(ctx, models.Transaction{
			PaymentRef:    ev.PaymentRef,
			ChargeRef:     ev.ChargeRef,
			UserID:        ev.UserID,
			Email:         ev.Email,
			WalletAddress: ev.WalletAddress,
			TokenAmount:   ev.TokenAmount,
			AmountCents:   ev.AmountCents,
			Currency:      ev.Currency,
			Status:        models.TxnNeedsReview,
			FailureReason: err.Error(),
		}); cerr != nil {
			return cerr
		}
		metrics.EventsTotal.WithLabelValues(string(ev.Kind), "needs_review").Inc()
		s.log.Error("ledger credit failed, transaction parked for review", "payment_ref", ev.PaymentRef, "err", err)
		return nil
	}
	metrics.LedgerOps.WithLabelValues("credit", "ok").Inc()

	txn, err := s.store.Create(ctx, models.Transaction{
		PaymentRef:    ev.PaymentRef,
		ChargeRef:     ev.ChargeRef,
		UserID:        ev.UserID,
		Email:         ev.Email,
		WalletAddress: ev.WalletAddress,
		TokenAmount:   ev.TokenAmount,
		AmountCents:   ev.AmountCents,
		Currency:      ev.Currency,
		Status:        models.TxnCompleted,
	})
	if err != nil {
		return err
	}
	metrics.EventsTotal.WithLabelValues(string(ev.Kind), "applied").Inc()
	s.log.Info("payment reconciled", "txn", txn.ID, "user", ev.UserID, "tokens", ev.TokenAmount)
	return nil
}

func (s *ReconcileService) applyPaymentFailed(ctx context.Context, ev models.PaymentEvent) error {
	reason := ev.FailureReason
	if reason == "" {
		reason = "payment failed"
	}

	if ev.PaymentRef != "" {
		unlock := s.locks.Lock("payment:" + ev.PaymentRef)
		defer unlock()

		if txn, err := s.store.FindByPaymentRef(ctx, ev.PaymentRef); err == nil {
			if txn.Status != models.TxnPending {
				s.duplicate(ev, txn.ID)
				return nil
			}
			if _, err := s.store.UpdateStatus(ctx, txn.ID, models.TxnPending, models.TxnFailed, repo.UpdateFields{FailureReason: &reason}); err != nil {
				return err
			}
			metrics.EventsTotal.WithLabelValues(string(ev.Kind), "applied").Inc()
			s.log.Info("payment failed", "txn", txn.ID, "reason", reason)
			return nil
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
	}

	// no matching record; keep the failure visible anyway
	txn, err := s.store.Create(ctx, models.Transaction{
		PaymentRef:    ev.PaymentRef,
		UserID:        ev.UserID,
		Email:         ev.Email,
		WalletAddress: ev.WalletAddress,
		TokenAmount:   ev.TokenAmount,
		AmountCents:   ev.AmountCents,
		Currency:      ev.Currency,
		Status:        models.TxnFailed,
		FailureReason: reason,
	})
	if err != nil {
		return err
	}
	metrics.EventsTotal.WithLabelValues(string(ev.Kind), "applied").Inc()
	s.log.Info("payment failed", "txn", txn.ID, "reason", reason)
	return nil
}

func (s *ReconcileService) applyChargeRefunded(ctx context.Context, ev models.PaymentEvent) error {
	if ev.PaymentRef == "" {
		s.log.Warn("refund without payment ref ignored", "charge", ev.ChargeRef)
		metrics.EventsTotal.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return nil
	}
	unlock := s.locks.Lock("payment:" + ev.PaymentRef)
	defer unlock()

	txn, err := s.store.FindByPaymentRef(ctx, ev.PaymentRef)
	if errors.Is(err, repo.ErrNotFound) {
		s.log.Warn("refund for unknown transaction ignored", "payment_ref", ev.PaymentRef)
		metrics.EventsTotal.WithLabelValues(string(ev.Kind), "ignored").Inc()
		return nil
	}
	if err != nil {
		return err
	}
	if txn.Status != models.TxnCompleted {
		// duplicate refund, or refund racing a transaction that never
		// completed; either way there is nothing to take back
		s.duplicate(ev, txn.ID)
		return nil
	}

	fields := repo.UpdateFields{}
	if ev.ChargeRef != "" {
		fields.ChargeRef = &ev.ChargeRef
	}

	// debit exactly what was credited, not what the event reports
	if err := s.ldg.Debit(ctx, txn.UserID, txn.WalletAddress, txn.TokenAmount); err != nil {
		metrics.LedgerOps.WithLabelValues("debit", "error").Inc()
		return s.parkForReview(ctx, txn, ev, fields, err)
	}
	metrics.LedgerOps.WithLabelValues("debit", "ok").Inc()

	if _, err := s.store.UpdateStatus(ctx, txn.ID, models.TxnCompleted, models.TxnRefunded, fields); err != nil {
		return err
	}
	metrics.EventsTotal.WithLabelValues(string(ev.Kind), "applied").Inc()
	s.log.Info("refund reconciled", "txn", txn.ID, "tokens", txn.TokenAmount)
	return nil
}

// credit performs the pending -> completed transition: ledger first, status
// after. A ledger failure parks the record instead of completing it.
func (s *ReconcileService) credit(ctx context.Context, txn models.Transaction, ev models.PaymentEvent) error {
	tokens := txn.TokenAmount
	if tokens == 0 {
		tokens = ev.TokenAmount
	}
	wallet := txn.WalletAddress
	if wallet == "" {
		wallet = ev.WalletAddress
	}

	fields := repo.UpdateFields{}
	if ev.PaymentRef != "" {
		fields.PaymentRef = &ev.PaymentRef
	}
	if ev.ChargeRef != "" {
		fields.ChargeRef = &ev.ChargeRef
	}
	if ev.AmountCents > 0 {
		fields.AmountCents = &ev.AmountCents
	}
	if ev.Currency != "" {
		fields.Currency = &ev.Currency
	}

	if err := s.ldg.Credit(ctx, txn.UserID, wallet, tokens); err != nil {
		metrics.LedgerOps.WithLabelValues("credit", "error").Inc()
		return s.parkForReview(ctx, txn, ev, fields, err)
	}
	metrics.LedgerOps.WithLabelValues("credit", "ok").Inc()

	ok, err := s.store.UpdateStatus(ctx, txn.ID, models.TxnPending, models.TxnCompleted, fields)
	if err != nil {
		return err
	}
	if !ok {
		// the keyed lock makes this unreachable in-process; if another
		// instance won the race the ledger was credited twice
		s.log.Warn("completed update lost a cross-instance race", "txn", txn.ID)
	}
	metrics.EventsTotal.WithLabelValues(string(ev.Kind), "applied").Inc()
	s.log.Info("tokens credited", "txn", txn.ID, "user", txn.UserID, "tokens", tokens)
	return nil
}

// parkForReview records a failed ledger call and acknowledges the event. The
// record deliberately does not reach completed, so a later retry can
// reprocess it.
func (s *ReconcileService) parkForReview(ctx context.Context, txn models.Transaction, ev models.PaymentEvent, fields repo.UpdateFields, cause error) error {
	reason := cause.Error()
	fields.FailureReason = &reason
	if _, err := s.store.UpdateStatus(ctx, txn.ID, "", models.TxnNeedsReview, fields); err != nil {
		return err
	}
	metrics.EventsTotal.WithLabelValues(string(ev.Kind), "needs_review").Inc()
	s.log.Error("ledger call failed, transaction parked for review", "txn", txn.ID, "err", cause)
	return nil
}

func (s *ReconcileService) duplicate(ev models.PaymentEvent, txnID string) {
	metrics.EventsTotal.WithLabelValues(string(ev.Kind), "duplicate").Inc()
	s.log.Info("duplicate delivery ignored", "kind", ev.Kind, "txn", txnID)
}
