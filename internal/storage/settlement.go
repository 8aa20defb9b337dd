package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"carteira/internal/core"
)

func (r *SQLiteRepository) listFixedPayments(ctx context.Context) ([]core.FixedPayment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, fixed_expense_id, month, year, amount_cents, paid_at, generated_expense_id
		FROM fixed_expense_payments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fixed expense payments: %w", err)
	}
	defer rows.Close()

	var out []core.FixedPayment
	for rows.Next() {
		var (
			p      core.FixedPayment
			month  int
			paidAt string
			genID  sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.FixedExpenseID, &month, &p.Year, &p.Amount.Cents, &paidAt, &genID); err != nil {
			return nil, fmt.Errorf("scan fixed expense payment: %w", err)
		}
		p.Month = time.Month(month)
		if p.PaidAt, err = parseTime(paidAt); err != nil {
			return nil, err
		}
		p.GeneratedExpenseID = genID.Int64
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listFixedReceipts(ctx context.Context) ([]core.FixedReceipt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, fixed_income_id, month, year, amount_cents, received_at
		FROM fixed_income_receipts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fixed income receipts: %w", err)
	}
	defer rows.Close()

	var out []core.FixedReceipt
	for rows.Next() {
		var (
			rec        core.FixedReceipt
			month      int
			receivedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.FixedIncomeID, &month, &rec.Year, &rec.Amount.Cents, &receivedAt); err != nil {
			return nil, fmt.Errorf("scan fixed income receipt: %w", err)
		}
		rec.Month = time.Month(month)
		if rec.ReceivedAt, err = parseTime(receivedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) listCreditCardPayments(ctx context.Context) ([]core.CreditCardPayment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, credit_card_id, month, year, amount_cents, paid_at
		FROM credit_card_payments ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list credit card payments: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCardPayment
	for rows.Next() {
		var (
			p      core.CreditCardPayment
			month  int
			paidAt string
		)
		if err := rows.Scan(&p.ID, &p.CreditCardID, &month, &p.Year, &p.Amount.Cents, &paidAt); err != nil {
			return nil, fmt.Errorf("scan credit card payment: %w", err)
		}
		p.Month = time.Month(month)
		if p.PaidAt, err = parseTime(paidAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SettleFixedExpense inserts the settlement row and, for card-linked
// obligations, the generated bill expense in the same transaction. Racing
// settles hit the unique index and surface as ErrAlreadySettled.
func (r *SQLiteRepository) SettleFixedExpense(ctx context.Context, p core.FixedPayment, generated *core.Expense) (core.FixedPayment, *core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.FixedPayment{}, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var savedExpense *core.Expense
	if generated != nil {
		saved, err := insertExpenseTx(ctx, tx, *generated)
		if err != nil {
			return core.FixedPayment{}, nil, err
		}
		savedExpense = &saved
		p.GeneratedExpenseID = saved.ID
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO fixed_expense_payments (fixed_expense_id, month, year, amount_cents, paid_at, generated_expense_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.FixedExpenseID, int(p.Month), p.Year, p.Amount.Cents,
		p.PaidAt.UTC().Format(timeLayout), nullID(p.GeneratedExpenseID))
	if err != nil {
		if isUniqueViolation(err) {
			return core.FixedPayment{}, nil, core.ErrAlreadySettled
		}
		return core.FixedPayment{}, nil, fmt.Errorf("insert fixed expense payment: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return core.FixedPayment{}, nil, fmt.Errorf("payment id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return core.FixedPayment{}, nil, fmt.Errorf("commit settlement: %w", err)
	}
	return p, savedExpense, nil
}

// ReverseFixedExpense removes the settlement and its generated expense in
// one transaction so the ledger and the bill stay in step.
func (r *SQLiteRepository) ReverseFixedExpense(ctx context.Context, paymentID, generatedExpenseID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM fixed_expense_payments WHERE id = ?`, paymentID)
	if err != nil {
		return fmt.Errorf("delete fixed expense payment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}

	if generatedExpenseID != 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, generatedExpenseID); err != nil {
			return fmt.Errorf("delete generated expense: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reversal: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) SettleFixedIncome(ctx context.Context, rec core.FixedReceipt) (core.FixedReceipt, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO fixed_income_receipts (fixed_income_id, month, year, amount_cents, received_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.FixedIncomeID, int(rec.Month), rec.Year, rec.Amount.Cents,
		rec.ReceivedAt.UTC().Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return core.FixedReceipt{}, core.ErrAlreadySettled
		}
		return core.FixedReceipt{}, fmt.Errorf("insert fixed income receipt: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return core.FixedReceipt{}, fmt.Errorf("receipt id: %w", err)
	}
	return rec, nil
}

func (r *SQLiteRepository) ReverseFixedIncome(ctx context.Context, receiptID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM fixed_income_receipts WHERE id = ?`, receiptID)
	if err != nil {
		return fmt.Errorf("delete fixed income receipt: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SettleCreditCard(ctx context.Context, p core.CreditCardPayment) (core.CreditCardPayment, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO credit_card_payments (credit_card_id, month, year, amount_cents, paid_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.CreditCardID, int(p.Month), p.Year, p.Amount.Cents,
		p.PaidAt.UTC().Format(timeLayout))
	if err != nil {
		if isUniqueViolation(err) {
			return core.CreditCardPayment{}, core.ErrAlreadySettled
		}
		return core.CreditCardPayment{}, fmt.Errorf("insert credit card payment: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return core.CreditCardPayment{}, fmt.Errorf("card payment id: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ReverseCreditCard(ctx context.Context, paymentID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM credit_card_payments WHERE id = ?`, paymentID)
	if err != nil {
		return fmt.Errorf("delete credit card payment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}
