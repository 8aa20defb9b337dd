// Package services implements the financial state engine: recurrence
// resolution, payment reconciliation, balance and dashboard calculators and
// the credit-card bill projector. Everything here derives from a state
// snapshot; no getter caches results between calls.
package services

import (
	"time"

	"carteira/internal/core"
	"carteira/internal/state"
)

// ActiveInMonth reports whether a recurring item with the given effective
// window applies to the month. Active iff effectiveFrom is on or before the
// end of the month and effectiveUntil, when set, is on or after its start.
func ActiveInMonth(from, until core.Date, month time.Month, year int) bool {
	if from.IsZero() {
		return false
	}
	if from.After(core.MonthEnd(year, month)) {
		return false
	}
	if !until.IsZero() && until.Before(core.MonthStart(year, month)) {
		return false
	}
	return true
}

// ActiveFixedExpenses filters fixed expenses active in the month and
// resolves each one's settled state from the payment ledger.
func ActiveFixedExpenses(s state.Snapshot, month time.Month, year int) []core.FixedExpenseStatus {
	var out []core.FixedExpenseStatus
	for _, fe := range s.FixedExpenses {
		if !ActiveInMonth(fe.EffectiveFrom, fe.EffectiveUntil, month, year) {
			continue
		}
		st := core.FixedExpenseStatus{FixedExpense: fe}
		if p := findFixedPayment(s.FixedPayments, fe.ID, month, year); p != nil {
			st.Paid = true
			st.PaidAt = p.PaidAt
			st.Payment = p
		}
		out = append(out, st)
	}
	return out
}

// ActiveFixedIncomes mirrors ActiveFixedExpenses for incomes and receipts.
func ActiveFixedIncomes(s state.Snapshot, month time.Month, year int) []core.FixedIncomeStatus {
	var out []core.FixedIncomeStatus
	for _, fi := range s.FixedIncomes {
		if !ActiveInMonth(fi.EffectiveFrom, fi.EffectiveUntil, month, year) {
			continue
		}
		st := core.FixedIncomeStatus{FixedIncome: fi}
		if r := findFixedReceipt(s.FixedReceipts, fi.ID, month, year); r != nil {
			st.Received = true
			st.ReceivedAt = r.ReceivedAt
			st.Receipt = r
		}
		out = append(out, st)
	}
	return out
}

// FixedExpensesFor resolves the fixed expenses active in a month against
// the current snapshot.
func (e *Engine) FixedExpensesFor(month time.Month, year int) []core.FixedExpenseStatus {
	return ActiveFixedExpenses(e.state.Snapshot(), month, year)
}

// FixedIncomesFor resolves the fixed incomes active in a month against the
// current snapshot.
func (e *Engine) FixedIncomesFor(month time.Month, year int) []core.FixedIncomeStatus {
	return ActiveFixedIncomes(e.state.Snapshot(), month, year)
}

func findFixedPayment(payments []core.FixedPayment, fixedExpenseID int64, month time.Month, year int) *core.FixedPayment {
	for i := range payments {
		p := &payments[i]
		if p.FixedExpenseID == fixedExpenseID && p.Month == month && p.Year == year {
			return p
		}
	}
	return nil
}

func findFixedReceipt(receipts []core.FixedReceipt, fixedIncomeID int64, month time.Month, year int) *core.FixedReceipt {
	for i := range receipts {
		r := &receipts[i]
		if r.FixedIncomeID == fixedIncomeID && r.Month == month && r.Year == year {
			return r
		}
	}
	return nil
}

func findCardPayment(payments []core.CreditCardPayment, cardID int64, month time.Month, year int) *core.CreditCardPayment {
	for i := range payments {
		p := &payments[i]
		if p.CreditCardID == cardID && p.Month == month && p.Year == year {
			return p
		}
	}
	return nil
}

func findFixedExpense(items []core.FixedExpense, id int64) *core.FixedExpense {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func findFixedIncome(items []core.FixedIncome, id int64) *core.FixedIncome {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}

func findCreditCard(items []core.CreditCard, id int64) *core.CreditCard {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}
