package amqp

import (
	"encoding/json"
	"time"
)

// Settlement event kinds published by the reconciliation engine.
const (
	KindFixedExpenseSettled  = "fixed_expense_settled"
	KindFixedExpenseReversed = "fixed_expense_reversed"
	KindFixedIncomeSettled   = "fixed_income_settled"
	KindFixedIncomeReversed  = "fixed_income_reversed"
	KindCardBillPaid         = "card_bill_paid"
	KindCardBillReversed     = "card_bill_reversed"
)

// SettlementMessage notifies listeners that an obligation toggled state for
// a month. GeneratedExpenseID is set only for card-billed fixed expenses.
type SettlementMessage struct {
	Kind               string    `json:"kind"`
	EntityID           int64     `json:"entity_id"`
	Month              int       `json:"month"`
	Year               int       `json:"year"`
	AmountCents        int64     `json:"amount_cents"`
	GeneratedExpenseID int64     `json:"generated_expense_id,omitempty"`
	Timestamp          time.Time `json:"timestamp"`
}

// NewSettlementMessage creates a settlement event stamped with now.
func NewSettlementMessage(kind string, entityID int64, month time.Month, year int, amountCents int64) *SettlementMessage {
	return &SettlementMessage{
		Kind:        kind,
		EntityID:    entityID,
		Month:       int(month),
		Year:        year,
		AmountCents: amountCents,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *SettlementMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SettlementMessageFromJSON decodes a message from JSON bytes.
func SettlementMessageFromJSON(data []byte) (*SettlementMessage, error) {
	var msg SettlementMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
