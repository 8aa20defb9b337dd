package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
)

// ToggleOutcome describes which transition a toggle performed.
type ToggleOutcome string

const (
	OutcomeSettled        ToggleOutcome = "settled"
	OutcomeSettledViaCard ToggleOutcome = "settled_via_card"
	OutcomeReversed       ToggleOutcome = "reversed"
	// OutcomeSkipped means the target no longer exists; nothing changed.
	OutcomeSkipped ToggleOutcome = "skipped"
)

// ToggleFixedExpensePayment flips the settled state of a fixed expense for
// one month. Settling a card-linked expense materializes a generated
// Expense on the card's bill inside the same store transaction as the
// payment row; reversing deletes both. Local state mutates only after the
// store confirms, so a failed write leaves the aggregate untouched.
func (e *Engine) ToggleFixedExpensePayment(ctx context.Context, userID, fixedExpenseID int64, month time.Month, year int, amount core.Money) (ToggleOutcome, error) {
	if err := amount.Validate(); err != nil {
		return "", err
	}
	snap := e.state.Snapshot()

	if p := findFixedPayment(snap.FixedPayments, fixedExpenseID, month, year); p != nil {
		if err := e.store.ReverseFixedExpense(ctx, p.ID, p.GeneratedExpenseID); err != nil {
			return "", fmt.Errorf("reverse fixed expense payment: %w", err)
		}
		if p.GeneratedExpenseID != 0 {
			e.state.RemoveExpense(p.GeneratedExpenseID)
		}
		e.state.RemoveFixedPayment(p.ID)

		msg := amqp.NewSettlementMessage(amqp.KindFixedExpenseReversed, fixedExpenseID, month, year, p.Amount.Cents)
		msg.GeneratedExpenseID = p.GeneratedExpenseID
		e.publish(ctx, msg)

		slog.InfoContext(ctx, "Fixed expense payment reversed",
			"fixed_expense_id", fixedExpenseID, "month", int(month), "year", year)
		return OutcomeReversed, nil
	}

	fe := findFixedExpense(snap.FixedExpenses, fixedExpenseID)
	if fe == nil {
		slog.WarnContext(ctx, "Toggle ignored, fixed expense not found",
			"fixed_expense_id", fixedExpenseID)
		return OutcomeSkipped, nil
	}

	var generated *core.Expense
	if fe.CreditCardID != 0 {
		if card := findCreditCard(snap.CreditCards, fe.CreditCardID); card != nil {
			generated = &core.Expense{
				Description:  fe.Name + " (Fixo)",
				Amount:       amount,
				Date:         core.NewDate(year, month, core.ClampDay(fe.DueDay, year, month)),
				Type:         core.ExpenseCreditCard,
				Category:     fe.Category,
				Method:       core.MethodCredit,
				CreditCardID: card.ID,
				UserID:       userID,
				Installments: core.Installments{Current: 1, Total: 1},
			}
		} else {
			// Dangling card reference: record a direct cash settlement
			// instead of failing the whole operation.
			slog.WarnContext(ctx, "Linked credit card not found, settling from cash",
				"fixed_expense_id", fixedExpenseID, "credit_card_id", fe.CreditCardID)
		}
	}

	payment := core.FixedPayment{
		FixedExpenseID: fixedExpenseID,
		Month:          month,
		Year:           year,
		Amount:         amount,
		PaidAt:         e.now().UTC(),
	}

	saved, savedGenerated, err := e.store.SettleFixedExpense(ctx, payment, generated)
	if err != nil {
		if errors.Is(err, core.ErrAlreadySettled) {
			return "", core.ErrAlreadySettled
		}
		return "", fmt.Errorf("settle fixed expense: %w", err)
	}

	if savedGenerated != nil {
		e.state.AddExpense(*savedGenerated)
	}
	e.state.AddFixedPayment(saved)

	msg := amqp.NewSettlementMessage(amqp.KindFixedExpenseSettled, fixedExpenseID, month, year, amount.Cents)
	msg.GeneratedExpenseID = saved.GeneratedExpenseID
	e.publish(ctx, msg)

	if savedGenerated != nil {
		slog.InfoContext(ctx, "Fixed expense settled on card bill",
			"fixed_expense_id", fixedExpenseID, "month", int(month), "year", year,
			"generated_expense_id", savedGenerated.ID)
		return OutcomeSettledViaCard, nil
	}
	slog.InfoContext(ctx, "Fixed expense settled from cash",
		"fixed_expense_id", fixedExpenseID, "month", int(month), "year", year)
	return OutcomeSettled, nil
}

// ToggleFixedIncomeReceipt is the income analog of the payment toggle,
// without the card-materialization branch.
func (e *Engine) ToggleFixedIncomeReceipt(ctx context.Context, fixedIncomeID int64, month time.Month, year int, amount core.Money) (ToggleOutcome, error) {
	if err := amount.Validate(); err != nil {
		return "", err
	}
	snap := e.state.Snapshot()

	if r := findFixedReceipt(snap.FixedReceipts, fixedIncomeID, month, year); r != nil {
		if err := e.store.ReverseFixedIncome(ctx, r.ID); err != nil {
			return "", fmt.Errorf("reverse fixed income receipt: %w", err)
		}
		e.state.RemoveFixedReceipt(r.ID)
		e.publish(ctx, amqp.NewSettlementMessage(amqp.KindFixedIncomeReversed, fixedIncomeID, month, year, r.Amount.Cents))

		slog.InfoContext(ctx, "Fixed income receipt reversed",
			"fixed_income_id", fixedIncomeID, "month", int(month), "year", year)
		return OutcomeReversed, nil
	}

	if findFixedIncome(snap.FixedIncomes, fixedIncomeID) == nil {
		slog.WarnContext(ctx, "Toggle ignored, fixed income not found",
			"fixed_income_id", fixedIncomeID)
		return OutcomeSkipped, nil
	}

	receipt := core.FixedReceipt{
		FixedIncomeID: fixedIncomeID,
		Month:         month,
		Year:          year,
		Amount:        amount,
		ReceivedAt:    e.now().UTC(),
	}
	saved, err := e.store.SettleFixedIncome(ctx, receipt)
	if err != nil {
		if errors.Is(err, core.ErrAlreadySettled) {
			return "", core.ErrAlreadySettled
		}
		return "", fmt.Errorf("settle fixed income: %w", err)
	}
	e.state.AddFixedReceipt(saved)
	e.publish(ctx, amqp.NewSettlementMessage(amqp.KindFixedIncomeSettled, fixedIncomeID, month, year, amount.Cents))

	slog.InfoContext(ctx, "Fixed income received",
		"fixed_income_id", fixedIncomeID, "month", int(month), "year", year)
	return OutcomeSettled, nil
}

// ToggleCreditCardPayment flips the paid state of a card's bill for one
// billing cycle. Bills are tracked per (cardId, month, year), mirroring the
// fixed-expense ledger.
func (e *Engine) ToggleCreditCardPayment(ctx context.Context, cardID int64, month time.Month, year int, amount core.Money) (ToggleOutcome, error) {
	if err := amount.Validate(); err != nil {
		return "", err
	}
	snap := e.state.Snapshot()

	if p := findCardPayment(snap.CreditCardPayments, cardID, month, year); p != nil {
		if err := e.store.ReverseCreditCard(ctx, p.ID); err != nil {
			return "", fmt.Errorf("reverse card payment: %w", err)
		}
		e.state.RemoveCreditCardPayment(p.ID)
		e.publish(ctx, amqp.NewSettlementMessage(amqp.KindCardBillReversed, cardID, month, year, p.Amount.Cents))

		slog.InfoContext(ctx, "Card bill payment reversed",
			"credit_card_id", cardID, "month", int(month), "year", year)
		return OutcomeReversed, nil
	}

	if findCreditCard(snap.CreditCards, cardID) == nil {
		slog.WarnContext(ctx, "Toggle ignored, credit card not found", "credit_card_id", cardID)
		return OutcomeSkipped, nil
	}

	payment := core.CreditCardPayment{
		CreditCardID: cardID,
		Month:        month,
		Year:         year,
		Amount:       amount,
		PaidAt:       e.now().UTC(),
	}
	saved, err := e.store.SettleCreditCard(ctx, payment)
	if err != nil {
		if errors.Is(err, core.ErrAlreadySettled) {
			return "", core.ErrAlreadySettled
		}
		return "", fmt.Errorf("settle card bill: %w", err)
	}
	e.state.AddCreditCardPayment(saved)
	e.publish(ctx, amqp.NewSettlementMessage(amqp.KindCardBillPaid, cardID, month, year, amount.Cents))

	slog.InfoContext(ctx, "Card bill marked paid",
		"credit_card_id", cardID, "month", int(month), "year", year)
	return OutcomeSettled, nil
}
