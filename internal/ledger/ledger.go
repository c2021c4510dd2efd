// Package ledger talks to the external token ledger service. The ledger keeps
// no dedup state of its own; callers are responsible for at-most-once
// invocation per transaction.
package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Error is a failed credit or debit. The reason is recorded verbatim on the
// transaction so an out-of-band job can retry the operation later.
type Error struct {
	Op     string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger %s failed: %s", e.Op, e.Reason)
}

type Ledger interface {
	Credit(ctx context.Context, userID, walletAddress string, tokens int64) error
	Debit(ctx context.Context, userID, walletAddress string, tokens int64) error
}

// HTTPLedger posts credit/debit operations to the token service.
type HTTPLedger struct {
	baseURL string
	client  *http.Client
}

func NewHTTPLedger(baseURL string) *HTTPLedger {
	return &HTTPLedger{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (l *HTTPLedger) Credit(ctx context.Context, userID, walletAddress string, tokens int64) error {
	return l.post(ctx, "credit", userID, walletAddress, tokens)
}

func (l *HTTPLedger) Debit(ctx context.Context, userID, walletAddress string, tokens int64) error {
	return l.post(ctx, "debit", userID, walletAddress, tokens)
}

func (l *HTTPLedger) post(ctx context.Context, op, userID, walletAddress string, tokens int64) error {
	body, err := json.Marshal(map[string]any{
		"userId":        userID,
		"walletAddress": walletAddress,
		"tokens":        tokens,
	})
	if err != nil {
		return &Error{Op: op, Reason: err.Error()}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/"+op, bytes.NewReader(body))
	if err != nil {
		return &Error{Op: op, Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return &Error{Op: op, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &Error{Op: op, Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))}
	}
	return nil
}
