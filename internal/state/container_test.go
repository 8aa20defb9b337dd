package state

import (
	"testing"
	"time"

	"carteira/internal/core"
)

func TestContainer_SnapshotIsolation(t *testing.T) {
	c := NewContainer()
	c.AddExpense(core.Expense{ID: 1, Description: "Mercado", Amount: core.Money{Cents: 100}})

	snap := c.Snapshot()
	snap.Expenses[0].Description = "mutated"

	if got := c.Snapshot().Expenses[0].Description; got != "Mercado" {
		t.Errorf("snapshot mutation leaked into container: %q", got)
	}
}

func TestContainer_Replace(t *testing.T) {
	c := NewContainer()
	c.SetFilter(core.MonthFilter{Month: time.March, Year: 2025})

	c.Replace(Snapshot{
		Expenses: []core.Expense{{ID: 1}},
		Settings: core.Settings{InitialBalance: core.Money{Cents: 5000}},
	})

	snap := c.Snapshot()
	if len(snap.Expenses) != 1 {
		t.Fatalf("expected 1 expense after replace, got %d", len(snap.Expenses))
	}
	if snap.Settings.InitialBalance.Cents != 5000 {
		t.Errorf("settings not replaced: %d", snap.Settings.InitialBalance.Cents)
	}
	// Replace without a filter keeps the selected month
	if f := c.Filter(); f.Month != time.March || f.Year != 2025 {
		t.Errorf("filter lost on replace: %v %d", f.Month, f.Year)
	}
}

func TestContainer_AddRemoveUpdate(t *testing.T) {
	c := NewContainer()

	c.AddFixedExpense(core.FixedExpense{ID: 1, Name: "Aluguel"})
	c.AddFixedExpense(core.FixedExpense{ID: 2, Name: "Internet"})

	c.UpdateFixedExpense(core.FixedExpense{ID: 2, Name: "Fibra"})
	snap := c.Snapshot()
	if len(snap.FixedExpenses) != 2 {
		t.Fatalf("expected 2 fixed expenses, got %d", len(snap.FixedExpenses))
	}
	var found bool
	for _, fe := range snap.FixedExpenses {
		if fe.ID == 2 && fe.Name == "Fibra" {
			found = true
		}
	}
	if !found {
		t.Error("update did not apply")
	}

	c.RemoveFixedExpense(1)
	snap = c.Snapshot()
	if len(snap.FixedExpenses) != 1 || snap.FixedExpenses[0].ID != 2 {
		t.Errorf("remove did not apply: %+v", snap.FixedExpenses)
	}
}

func TestContainer_PaymentLedgers(t *testing.T) {
	c := NewContainer()

	c.AddFixedPayment(core.FixedPayment{ID: 10, FixedExpenseID: 1, Month: time.March, Year: 2025})
	c.AddCreditCardPayment(core.CreditCardPayment{ID: 20, CreditCardID: 3, Month: time.March, Year: 2025})
	c.AddFixedReceipt(core.FixedReceipt{ID: 30, FixedIncomeID: 2, Month: time.March, Year: 2025})

	snap := c.Snapshot()
	if len(snap.FixedPayments) != 1 || len(snap.CreditCardPayments) != 1 || len(snap.FixedReceipts) != 1 {
		t.Fatalf("ledgers not populated: %+v", snap)
	}

	c.RemoveFixedPayment(10)
	c.RemoveCreditCardPayment(20)
	c.RemoveFixedReceipt(30)

	snap = c.Snapshot()
	if len(snap.FixedPayments) != 0 || len(snap.CreditCardPayments) != 0 || len(snap.FixedReceipts) != 0 {
		t.Errorf("ledgers not emptied: %+v", snap)
	}
}

func TestContainer_Loading(t *testing.T) {
	c := NewContainer()
	if c.Loading() {
		t.Error("new container must not be loading")
	}
	c.SetLoading(true)
	if !c.Loading() {
		t.Error("expected loading true")
	}
	c.SetLoading(false)
	if c.Loading() {
		t.Error("expected loading false")
	}
}

func TestContainer_DefaultFilterIsCurrentMonth(t *testing.T) {
	c := NewContainer()
	now := time.Now().UTC()
	f := c.Filter()
	if f.Month != now.Month() || f.Year != now.Year() {
		t.Errorf("default filter = %v %d, want %v %d", f.Month, f.Year, now.Month(), now.Year())
	}
}
