package services

import (
	"errors"
	"testing"
	"time"

	"carteira/internal/core"
	"carteira/internal/state"
)

func TestBillCycle(t *testing.T) {
	tests := []struct {
		name       string
		date       time.Time
		closingDay int
		wantMonth  time.Month
		wantYear   int
	}{
		{"before closing stays", time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC), 28, time.March, 2025},
		{"on closing rolls", time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC), 28, time.April, 2025},
		{"after closing rolls", time.Date(2025, time.March, 30, 0, 0, 0, 0, time.UTC), 28, time.April, 2025},
		{"december rolls to next year", time.Date(2025, time.December, 28, 0, 0, 0, 0, time.UTC), 28, time.January, 2026},
		{"closing day one rolls everything", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), 1, time.April, 2025},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, y := billCycle(tt.date, tt.closingDay)
			if m != tt.wantMonth || y != tt.wantYear {
				t.Errorf("billCycle(%v, %d) = %v %d, want %v %d",
					tt.date.Format("2006-01-02"), tt.closingDay, m, y, tt.wantMonth, tt.wantYear)
			}
		})
	}
}

func cardFixture() state.Snapshot {
	return state.Snapshot{
		CreditCards: []core.CreditCard{
			{ID: 10, Name: "Nubank", Limit: core.Money{Cents: 100000}, ClosingDay: 28, DueDay: 5},
		},
		Expenses: []core.Expense{
			{ID: 1, Description: "Mercado", Type: core.ExpenseCreditCard, Method: core.MethodCredit,
				CreditCardID: 10, Amount: core.Money{Cents: 10000}, Date: core.NewDate(2025, time.March, 10)},
			// Dated on the closing day, so it rolls into the March bill.
			{ID: 2, Description: "Jantar", Type: core.ExpenseCreditCard, Method: core.MethodCredit,
				CreditCardID: 10, Amount: core.Money{Cents: 5000}, Date: core.NewDate(2025, time.February, 28)},
			// Dated on March's closing day, so it belongs to April.
			{ID: 3, Description: "Celular", Type: core.ExpenseCreditCard, Method: core.MethodCredit,
				CreditCardID: 10, Amount: core.Money{Cents: 7000}, Date: core.NewDate(2025, time.March, 28)},
			// Materialized by the Streaming settlement below.
			{ID: 4, Description: "Streaming (Fixo)", Type: core.ExpenseCreditCard, Method: core.MethodCredit,
				CreditCardID: 10, Amount: core.Money{Cents: 3990}, Date: core.NewDate(2025, time.March, 15)},
		},
		FixedExpenses: []core.FixedExpense{
			{ID: 1, Name: "Streaming", Amount: core.Money{Cents: 3990}, DueDay: 15,
				EffectiveFrom: core.NewDate(2024, time.January, 1), CreditCardID: 10},
			{ID: 2, Name: "Seguro", Amount: core.Money{Cents: 2000}, DueDay: 28,
				EffectiveFrom: core.NewDate(2024, time.January, 1), CreditCardID: 10},
		},
		FixedPayments: []core.FixedPayment{
			{ID: 1, FixedExpenseID: 1, Month: time.March, Year: 2025, Amount: core.Money{Cents: 3990},
				PaidAt: time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC), GeneratedExpenseID: 4},
		},
	}
}

func TestStatement(t *testing.T) {
	e, _ := newTestEngine(cardFixture())

	st, err := e.Statement(10, time.March, 2025)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}

	// Mercado + Jantar (rolled from Feb 28) + generated Streaming row.
	if st.CurrentTotal.Cents != 18990 {
		t.Errorf("CurrentTotal = %d, want 18990", st.CurrentTotal.Cents)
	}
	// Unsettled Seguro dues on Feb 28, which rolls into the March cycle.
	if st.PendingTotal.Cents != 2000 {
		t.Errorf("PendingTotal = %d, want 2000", st.PendingTotal.Cents)
	}
	if st.ProjectedTotal.Cents != 20990 {
		t.Errorf("ProjectedTotal = %d, want 20990", st.ProjectedTotal.Cents)
	}
	// Committed = every purchase regardless of cycle plus every linked fixed
	// obligation; the generated row must not double the settled Streaming.
	if st.CommittedTotal.Cents != 27990 {
		t.Errorf("CommittedTotal = %d, want 27990", st.CommittedTotal.Cents)
	}
	if st.AvailableLimit.Cents != 72010 {
		t.Errorf("AvailableLimit = %d, want 72010", st.AvailableLimit.Cents)
	}
	if st.Paid {
		t.Error("statement must not be marked paid without a bill payment")
	}

	if len(st.Lines) != 4 {
		t.Fatalf("expected 4 lines, got %d: %+v", len(st.Lines), st.Lines)
	}
	wantLines := []struct {
		desc     string
		lineType core.StatementLineType
	}{
		{"Jantar", core.LineVariable},
		{"Seguro", core.LineFixedExpected},
		{"Mercado", core.LineVariable},
		{"Streaming (Fixo)", core.LineFixedPaid},
	}
	for i, want := range wantLines {
		if st.Lines[i].Description != want.desc || st.Lines[i].Type != want.lineType {
			t.Errorf("line %d = %q (%s), want %q (%s)",
				i, st.Lines[i].Description, st.Lines[i].Type, want.desc, want.lineType)
		}
	}
}

func TestStatement_GeneratedRowFollowsPaymentDate(t *testing.T) {
	// The expense row is dated March 15, but the settlement happened on
	// March 30, after the closing day: the charge belongs to April's bill.
	snap := cardFixture()
	snap.FixedPayments[0].PaidAt = time.Date(2025, time.March, 30, 9, 0, 0, 0, time.UTC)
	e, _ := newTestEngine(snap)

	march, err := e.Statement(10, time.March, 2025)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	for _, line := range march.Lines {
		if line.Type == core.LineFixedPaid {
			t.Errorf("generated row leaked into March: %+v", line)
		}
	}
	if march.CurrentTotal.Cents != 15000 {
		t.Errorf("March CurrentTotal = %d, want 15000", march.CurrentTotal.Cents)
	}

	april, err := e.Statement(10, time.April, 2025)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	var found bool
	for _, line := range april.Lines {
		if line.Type == core.LineFixedPaid && line.Description == "Streaming (Fixo)" {
			found = true
		}
	}
	if !found {
		t.Errorf("generated row missing from April: %+v", april.Lines)
	}
}

func TestStatement_SettledFixedIsNotPending(t *testing.T) {
	// Settle Seguro for February, the bucket whose due date feeds March.
	snap := cardFixture()
	snap.FixedPayments = append(snap.FixedPayments, core.FixedPayment{
		ID: 2, FixedExpenseID: 2, Month: time.February, Year: 2025,
		Amount: core.Money{Cents: 2000},
		PaidAt: time.Date(2025, time.February, 28, 9, 0, 0, 0, time.UTC),
	})
	e, _ := newTestEngine(snap)

	st, err := e.Statement(10, time.March, 2025)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if st.PendingTotal.Cents != 0 {
		t.Errorf("PendingTotal = %d, want 0 after settlement", st.PendingTotal.Cents)
	}
}

func TestStatement_PaidFlag(t *testing.T) {
	snap := cardFixture()
	paidAt := time.Date(2025, time.April, 5, 14, 0, 0, 0, time.UTC)
	snap.CreditCardPayments = []core.CreditCardPayment{
		{ID: 1, CreditCardID: 10, Month: time.March, Year: 2025,
			Amount: core.Money{Cents: 20990}, PaidAt: paidAt},
	}
	e, _ := newTestEngine(snap)

	st, err := e.Statement(10, time.March, 2025)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if !st.Paid || !st.PaidAt.Equal(paidAt) {
		t.Errorf("Paid = %v PaidAt = %v, want paid at %v", st.Paid, st.PaidAt, paidAt)
	}

	// The payment is scoped to its cycle.
	st, err = e.Statement(10, time.April, 2025)
	if err != nil {
		t.Fatalf("Statement: %v", err)
	}
	if st.Paid {
		t.Error("April must not inherit March's payment")
	}
}

func TestStatement_UnknownCard(t *testing.T) {
	e, _ := newTestEngine(state.Snapshot{})
	if _, err := e.Statement(404, time.March, 2025); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCardsSummary(t *testing.T) {
	snap := cardFixture()
	snap.CreditCards = append(snap.CreditCards, core.CreditCard{
		ID: 11, Name: "Inter", Limit: core.Money{Cents: 50000}, ClosingDay: 10, DueDay: 17,
	})
	snap.Expenses = append(snap.Expenses, core.Expense{
		ID: 5, Description: "Farmácia", Type: core.ExpenseCreditCard, Method: core.MethodCredit,
		CreditCardID: 11, Amount: core.Money{Cents: 4000}, Date: core.NewDate(2025, time.March, 2),
	})

	e, _ := newTestEngine(snap)
	sum := e.CardsSummary(time.March, 2025)

	if len(sum.Cards) != 2 {
		t.Fatalf("expected 2 card statements, got %d", len(sum.Cards))
	}
	if sum.TotalLimit.Cents != 150000 {
		t.Errorf("TotalLimit = %d, want 150000", sum.TotalLimit.Cents)
	}
	if sum.TotalCurrent.Cents != 18990+4000 {
		t.Errorf("TotalCurrent = %d, want 22990", sum.TotalCurrent.Cents)
	}
	if sum.TotalCommitted.Cents != 27990+4000 {
		t.Errorf("TotalCommitted = %d, want 31990", sum.TotalCommitted.Cents)
	}
	if sum.TotalProjected.Cents != 20990+4000 {
		t.Errorf("TotalProjected = %d, want 24990", sum.TotalProjected.Cents)
	}
}
