// Package worker consumes settlement events and appends them to the audit
// trail, so the history of toggles survives reversals.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carteira/internal/amqp"
)

// AuditStore is the slice of the repository the worker needs.
type AuditStore interface {
	InsertAuditEvent(ctx context.Context, kind string, entityID int64, month, year int, amountCents int64, occurredAt time.Time) error
}

type AuditWorker struct {
	store AuditStore
}

func NewAuditWorker(store AuditStore) *AuditWorker {
	return &AuditWorker{store: store}
}

// HandleSettlement records one settlement event. Returning an error requeues
// the delivery.
func (w *AuditWorker) HandleSettlement(msg *amqp.SettlementMessage) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	occurredAt := msg.Timestamp
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	if err := w.store.InsertAuditEvent(ctx, msg.Kind, msg.EntityID, msg.Month, msg.Year, msg.AmountCents, occurredAt); err != nil {
		return fmt.Errorf("record settlement event: %w", err)
	}

	slog.InfoContext(ctx, "Settlement event recorded",
		"kind", msg.Kind,
		"entity_id", msg.EntityID,
		"month", msg.Month,
		"year", msg.Year,
		"amount_cents", msg.AmountCents)
	return nil
}
