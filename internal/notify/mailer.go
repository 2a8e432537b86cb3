package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindReceipt       Kind = "receipt"
	KindPaymentFailed Kind = "payment_failed"
	KindRefund        Kind = "refund"
)

type Notification struct {
	Kind    Kind
	PayerID uuid.UUID
	Data    map[string]string
}

// Notifier accepts post-commit notifications. Implementations must never
// block or fail the caller: a settlement that committed stays committed no
// matter what happens to its receipt email.
type Notifier interface {
	Enqueue(n Notification)
}

// Mailer delivers notifications to an external mail API from a buffered
// queue drained by a single worker goroutine.
type Mailer struct {
	apiURL     string
	apiKey     string
	from       string
	queue      chan Notification
	httpClient *http.Client
}

func NewMailer(apiURL, apiKey, from string, queueSize int) *Mailer {
	return &Mailer{
		apiURL:     apiURL,
		apiKey:     apiKey,
		from:       from,
		queue:      make(chan Notification, queueSize),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Enqueue hands off a notification without blocking. When the queue is full
// the notification is dropped and logged; ledger outcomes never wait on mail.
func (m *Mailer) Enqueue(n Notification) {
	select {
	case m.queue <- n:
	default:
		slog.Warn("notification queue full, dropping",
			"kind", n.Kind, "payer_id", n.PayerID)
	}
}

// Run drains the queue until ctx is cancelled. Blocking call.
func (m *Mailer) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-m.queue:
			if err := m.send(n); err != nil {
				slog.Error("failed to send notification",
					"kind", n.Kind, "payer_id", n.PayerID, "error", err)
			}
		}
	}
}

func (m *Mailer) send(n Notification) error {
	if m.apiURL == "" {
		slog.Debug("mail API not configured, skipping notification",
			"kind", n.Kind, "payer_id", n.PayerID)
		return nil
	}

	payload := map[string]any{
		"from":      m.from,
		"payer_id":  n.PayerID.String(),
		"template":  string(n.Kind),
		"variables": n.Data,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("mail API returned %d", resp.StatusCode)
	}
	return nil
}
