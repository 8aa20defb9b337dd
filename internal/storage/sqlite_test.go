package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"carteira/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "carteira.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestLoadAll_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	user, err := repo.InsertUser(ctx, core.User{Name: "Ana", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("InsertUser: %v", err)
	}
	card, err := repo.InsertCreditCard(ctx, core.CreditCard{
		Name: "Nubank", Limit: core.Money{Cents: 500000}, ClosingDay: 28, DueDay: 5,
	})
	if err != nil {
		t.Fatalf("InsertCreditCard: %v", err)
	}

	exp, err := repo.InsertExpense(ctx, core.Expense{
		Description: "Mercado", Amount: core.Money{Cents: 12345},
		Date: core.NewDate(2025, time.March, 10), Type: core.ExpenseVariable,
		Category: "Alimentação", Method: core.MethodPix, UserID: user.ID,
		Installments: core.Installments{Current: 1, Total: 1},
	})
	if err != nil {
		t.Fatalf("InsertExpense: %v", err)
	}

	fe, err := repo.InsertFixedExpense(ctx, core.FixedExpense{
		Name: "Streaming", Category: "Lazer", Amount: core.Money{Cents: 3990}, DueDay: 15,
		EffectiveFrom:  core.NewDate(2024, time.January, 1),
		EffectiveUntil: core.NewDate(2025, time.December, 31),
		CreditCardID:   card.ID,
	})
	if err != nil {
		t.Fatalf("InsertFixedExpense: %v", err)
	}
	fi, err := repo.InsertFixedIncome(ctx, core.FixedIncome{
		Description: "Salário", Amount: core.Money{Cents: 500000}, ReceiveDay: 1,
		EffectiveFrom: core.NewDate(2024, time.January, 1),
	})
	if err != nil {
		t.Fatalf("InsertFixedIncome: %v", err)
	}

	if _, err := repo.InsertCashMovement(ctx, core.CashMovement{
		Type: core.MovementIncome, Description: "Venda", Amount: core.Money{Cents: 10000},
		Date: core.NewDate(2025, time.March, 2),
	}); err != nil {
		t.Fatalf("InsertCashMovement: %v", err)
	}
	if _, err := repo.InsertInvestment(ctx, core.Investment{
		Description: "CDB", Amount: core.Money{Cents: 100000},
		YieldRate: core.Rate{Bps: 95}, Date: core.NewDate(2025, time.January, 2), UserID: user.ID,
	}); err != nil {
		t.Fatalf("InsertInvestment: %v", err)
	}

	snap, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}

	if len(snap.Users) != 1 || snap.Users[0].Email != "ana@example.com" {
		t.Errorf("users = %+v", snap.Users)
	}
	if len(snap.Expenses) != 1 {
		t.Fatalf("expenses = %+v", snap.Expenses)
	}
	got := snap.Expenses[0]
	if got.ID != exp.ID || got.Amount.Cents != 12345 || got.Method != core.MethodPix ||
		got.Category != "Alimentação" || got.UserID != user.ID {
		t.Errorf("expense round trip mismatch: %+v", got)
	}
	if !got.Date.InMonth(time.March, 2025) || got.Date.Day() != 10 {
		t.Errorf("expense date = %v", got.Date)
	}
	if got.CreditCardID != 0 {
		t.Errorf("expense card id = %d, want 0 for NULL", got.CreditCardID)
	}

	if len(snap.FixedExpenses) != 1 {
		t.Fatalf("fixed expenses = %+v", snap.FixedExpenses)
	}
	gotFE := snap.FixedExpenses[0]
	if gotFE.ID != fe.ID || gotFE.CreditCardID != card.ID || gotFE.Category != "Lazer" {
		t.Errorf("fixed expense mismatch: %+v", gotFE)
	}
	if gotFE.EffectiveUntil.IsZero() || gotFE.EffectiveUntil.Day() != 31 {
		t.Errorf("effective_until lost: %v", gotFE.EffectiveUntil)
	}

	if len(snap.FixedIncomes) != 1 || snap.FixedIncomes[0].ID != fi.ID {
		t.Errorf("fixed incomes = %+v", snap.FixedIncomes)
	}
	if !snap.FixedIncomes[0].EffectiveUntil.IsZero() {
		t.Errorf("NULL effective_until must load as zero: %v", snap.FixedIncomes[0].EffectiveUntil)
	}

	if len(snap.CreditCards) != 1 || snap.CreditCards[0].Limit.Cents != 500000 {
		t.Errorf("credit cards = %+v", snap.CreditCards)
	}
	if len(snap.CashMovements) != 1 || len(snap.Investments) != 1 {
		t.Errorf("movements = %+v investments = %+v", snap.CashMovements, snap.Investments)
	}
	if snap.Investments[0].YieldRate.Bps != 95 {
		t.Errorf("yield rate = %d, want 95", snap.Investments[0].YieldRate.Bps)
	}
}

func TestSettleFixedExpense_WithGeneratedExpense(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	card, err := repo.InsertCreditCard(ctx, core.CreditCard{Name: "Nubank", ClosingDay: 28, DueDay: 5})
	if err != nil {
		t.Fatalf("InsertCreditCard: %v", err)
	}
	fe, err := repo.InsertFixedExpense(ctx, core.FixedExpense{
		Name: "Streaming", Amount: core.Money{Cents: 3990}, DueDay: 15,
		EffectiveFrom: core.NewDate(2024, time.January, 1), CreditCardID: card.ID,
	})
	if err != nil {
		t.Fatalf("InsertFixedExpense: %v", err)
	}

	paidAt := time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)
	payment, generated, err := repo.SettleFixedExpense(ctx,
		core.FixedPayment{FixedExpenseID: fe.ID, Month: time.March, Year: 2025,
			Amount: core.Money{Cents: 3990}, PaidAt: paidAt},
		&core.Expense{Description: "Streaming (Fixo)", Amount: core.Money{Cents: 3990},
			Date: core.NewDate(2025, time.March, 15), Type: core.ExpenseCreditCard,
			Method: core.MethodCredit, CreditCardID: card.ID,
			Installments: core.Installments{Current: 1, Total: 1}})
	if err != nil {
		t.Fatalf("SettleFixedExpense: %v", err)
	}
	if generated == nil || generated.ID == 0 {
		t.Fatal("generated expense not persisted")
	}
	if payment.GeneratedExpenseID != generated.ID {
		t.Errorf("payment links expense %d, want %d", payment.GeneratedExpenseID, generated.ID)
	}

	snap, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(snap.Expenses) != 1 || len(snap.FixedPayments) != 1 {
		t.Fatalf("expected both rows, got %d expenses %d payments", len(snap.Expenses), len(snap.FixedPayments))
	}
	loaded := snap.FixedPayments[0]
	if loaded.Month != time.March || loaded.Year != 2025 {
		t.Errorf("payment month = %v %d", loaded.Month, loaded.Year)
	}
	if !loaded.PaidAt.Equal(paidAt) {
		t.Errorf("paid_at = %v, want %v", loaded.PaidAt, paidAt)
	}

	// Second settle of the same obligation and month hits the unique index.
	_, _, err = repo.SettleFixedExpense(ctx,
		core.FixedPayment{FixedExpenseID: fe.ID, Month: time.March, Year: 2025,
			Amount: core.Money{Cents: 3990}, PaidAt: paidAt}, nil)
	if !errors.Is(err, core.ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}
	// The aborted settle must not leave an orphan expense behind.
	snap, _ = repo.LoadAll(ctx)
	if len(snap.Expenses) != 1 {
		t.Errorf("expected 1 expense after failed settle, got %d", len(snap.Expenses))
	}

	// A different month settles fine.
	if _, _, err := repo.SettleFixedExpense(ctx,
		core.FixedPayment{FixedExpenseID: fe.ID, Month: time.April, Year: 2025,
			Amount: core.Money{Cents: 3990}, PaidAt: paidAt}, nil); err != nil {
		t.Fatalf("settle for April: %v", err)
	}

	// Reversal removes the payment and the generated expense together.
	if err := repo.ReverseFixedExpense(ctx, payment.ID, payment.GeneratedExpenseID); err != nil {
		t.Fatalf("ReverseFixedExpense: %v", err)
	}
	snap, _ = repo.LoadAll(ctx)
	if len(snap.Expenses) != 0 {
		t.Errorf("generated expense survived reversal: %+v", snap.Expenses)
	}
	if len(snap.FixedPayments) != 1 || snap.FixedPayments[0].Month != time.April {
		t.Errorf("expected only April's payment, got %+v", snap.FixedPayments)
	}

	if err := repo.ReverseFixedExpense(ctx, payment.ID, 0); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("double reversal: got %v, want ErrNotFound", err)
	}
}

func TestSettleFixedIncome(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	fi, err := repo.InsertFixedIncome(ctx, core.FixedIncome{
		Description: "Salário", Amount: core.Money{Cents: 500000}, ReceiveDay: 1,
		EffectiveFrom: core.NewDate(2024, time.January, 1),
	})
	if err != nil {
		t.Fatalf("InsertFixedIncome: %v", err)
	}

	rec, err := repo.SettleFixedIncome(ctx, core.FixedReceipt{
		FixedIncomeID: fi.ID, Month: time.March, Year: 2025,
		Amount: core.Money{Cents: 500000}, ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("SettleFixedIncome: %v", err)
	}

	_, err = repo.SettleFixedIncome(ctx, core.FixedReceipt{
		FixedIncomeID: fi.ID, Month: time.March, Year: 2025,
		Amount: core.Money{Cents: 500000}, ReceivedAt: time.Now().UTC(),
	})
	if !errors.Is(err, core.ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}

	if err := repo.ReverseFixedIncome(ctx, rec.ID); err != nil {
		t.Fatalf("ReverseFixedIncome: %v", err)
	}
	if err := repo.ReverseFixedIncome(ctx, rec.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("double reversal: got %v, want ErrNotFound", err)
	}
}

func TestSettleCreditCard(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	card, err := repo.InsertCreditCard(ctx, core.CreditCard{Name: "Inter", ClosingDay: 10, DueDay: 17})
	if err != nil {
		t.Fatalf("InsertCreditCard: %v", err)
	}

	p, err := repo.SettleCreditCard(ctx, core.CreditCardPayment{
		CreditCardID: card.ID, Month: time.March, Year: 2025,
		Amount: core.Money{Cents: 45990}, PaidAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("SettleCreditCard: %v", err)
	}

	_, err = repo.SettleCreditCard(ctx, core.CreditCardPayment{
		CreditCardID: card.ID, Month: time.March, Year: 2025,
		Amount: core.Money{Cents: 45990}, PaidAt: time.Now().UTC(),
	})
	if !errors.Is(err, core.ErrAlreadySettled) {
		t.Fatalf("expected ErrAlreadySettled, got %v", err)
	}

	if err := repo.ReverseCreditCard(ctx, p.ID); err != nil {
		t.Fatalf("ReverseCreditCard: %v", err)
	}

	snap, err := repo.LoadAll(ctx)
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(snap.CreditCardPayments) != 0 {
		t.Errorf("payments survived reversal: %+v", snap.CreditCardPayments)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	fe, err := repo.InsertFixedExpense(ctx, core.FixedExpense{
		Name: "Internet", Amount: core.Money{Cents: 9900}, DueDay: 10,
		EffectiveFrom: core.NewDate(2024, time.January, 1),
	})
	if err != nil {
		t.Fatalf("InsertFixedExpense: %v", err)
	}

	fe.Name = "Fibra"
	fe.Amount.Cents = 11900
	if err := repo.UpdateFixedExpense(ctx, fe); err != nil {
		t.Fatalf("UpdateFixedExpense: %v", err)
	}
	snap, _ := repo.LoadAll(ctx)
	if snap.FixedExpenses[0].Name != "Fibra" || snap.FixedExpenses[0].Amount.Cents != 11900 {
		t.Errorf("update not applied: %+v", snap.FixedExpenses[0])
	}

	if err := repo.UpdateFixedExpense(ctx, core.FixedExpense{ID: 404, Name: "x",
		Amount: core.Money{Cents: 1}, DueDay: 1,
		EffectiveFrom: core.NewDate(2024, time.January, 1)}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update missing: got %v, want ErrNotFound", err)
	}

	if err := repo.DeleteFixedExpense(ctx, fe.ID); err != nil {
		t.Fatalf("DeleteFixedExpense: %v", err)
	}
	if err := repo.DeleteFixedExpense(ctx, fe.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("delete missing: got %v, want ErrNotFound", err)
	}
}

func TestSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if s.MonthlyYield.Bps != 0 || s.InitialBalance.Cents != 0 {
		t.Errorf("fresh settings not zero: %+v", s)
	}

	want := core.Settings{
		MonthlyYield:      core.Rate{Bps: 95},
		InitialBalance:    core.Money{Cents: 250000},
		InitialInvestment: core.Money{Cents: 1000000},
	}
	if err := repo.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err := repo.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestInsertAuditEvent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.InsertAuditEvent(ctx, "fixed_expense_settled", 7, 3, 2025, 120000, time.Now()); err != nil {
		t.Fatalf("InsertAuditEvent: %v", err)
	}

	var count int
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM settlement_audit`).Scan(&count); err != nil {
		t.Fatalf("count audit rows: %v", err)
	}
	if count != 1 {
		t.Errorf("audit rows = %d, want 1", count)
	}
}
