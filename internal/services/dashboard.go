package services

import (
	"sort"
	"time"

	"carteira/internal/core"
	"carteira/internal/state"
)

// CurrentBalance derives the cash position from the full entity set. Only
// cash-settling instruments move it: card-billed expenses wait for the
// card's bill, so settling a card-linked fixed expense leaves it unchanged.
func (e *Engine) CurrentBalance() core.Money {
	return currentBalance(e.state.Snapshot())
}

func currentBalance(s state.Snapshot) core.Money {
	bal := s.Settings.InitialBalance.Cents

	for _, m := range s.CashMovements {
		switch m.Type {
		case core.MovementIncome:
			bal += m.Amount.Cents
		case core.MovementOutcome:
			bal -= m.Amount.Cents
		}
	}

	// Receipts are all-time, not month-scoped.
	for _, r := range s.FixedReceipts {
		bal += r.Amount.Cents
	}

	for _, exp := range s.Expenses {
		switch exp.Method {
		case core.MethodDebit, core.MethodPix, core.MethodCash:
			bal -= exp.Amount.Cents
		}
	}

	for _, p := range s.FixedPayments {
		fe := findFixedExpense(s.FixedExpenses, p.FixedExpenseID)
		if fe == nil || fe.CreditCardID == 0 {
			bal -= p.Amount.Cents
		}
	}

	return core.Money{Cents: bal}
}

// generatedExpenseIDs collects the ids of expenses materialized by fixed
// payments, so dashboard aggregates never count a fixed obligation twice.
func generatedExpenseIDs(payments []core.FixedPayment) map[int64]bool {
	out := make(map[int64]bool)
	for _, p := range payments {
		if p.GeneratedExpenseID != 0 {
			out[p.GeneratedExpenseID] = true
		}
	}
	return out
}

// Dashboard computes the aggregate view for the given month/year.
func (e *Engine) Dashboard(month time.Month, year int) core.DashboardData {
	s := e.state.Snapshot()

	data := core.DashboardData{Month: month, Year: year}
	data.CurrentBalance = currentBalance(s)

	generated := generatedExpenseIDs(s.FixedPayments)

	var monthExpenses []core.Expense
	for _, exp := range s.Expenses {
		if exp.Date.InMonth(month, year) {
			monthExpenses = append(monthExpenses, exp)
		}
	}

	for _, exp := range monthExpenses {
		if !generated[exp.ID] {
			data.VariableExpenses.Cents += exp.Amount.Cents
		}
	}

	data.FixedExpenses = ActiveFixedExpenses(s, month, year)
	data.FixedIncomes = ActiveFixedIncomes(s, month, year)
	for _, fe := range data.FixedExpenses {
		data.TotalFixedExpenses.Cents += fe.Amount.Cents
		// Card-linked unsettled items appear in the card's bill instead.
		if !fe.Paid && fe.CreditCardID == 0 {
			data.PendingFixedToPay.Cents += fe.Amount.Cents
		}
	}
	for _, fi := range data.FixedIncomes {
		data.TotalFixedIncomes.Cents += fi.Amount.Cents
		if !fi.Received {
			data.PendingFixedToReceive.Cents += fi.Amount.Cents
		}
	}

	// A card is pending when no bill payment exists for the selected cycle.
	// The bill shown includes generated fixed-expense rows.
	for _, card := range s.CreditCards {
		if findCardPayment(s.CreditCardPayments, card.ID, month, year) != nil {
			continue
		}
		var bill core.Money
		for _, exp := range monthExpenses {
			if exp.CreditCardID == card.ID {
				bill.Cents += exp.Amount.Cents
			}
		}
		data.PendingCards = append(data.PendingCards, core.PendingCardBill{Card: card, Total: bill})
		data.PendingCardsTotal.Cents += bill.Cents
	}

	data.TotalInvestments = s.Settings.InitialInvestment
	var weighted int64
	for _, inv := range s.Investments {
		data.TotalInvestments.Cents += inv.Amount.Cents
		weighted += inv.Amount.Cents * inv.YieldRate.Bps
	}
	data.InvestmentYield = data.TotalInvestments.ApplyRate(s.Settings.MonthlyYield)
	if invested := data.TotalInvestments.Cents - s.Settings.InitialInvestment.Cents; invested > 0 {
		data.AverageYieldPct = float64(weighted) / float64(invested) / 100.0
	}

	data.ProjectedBalance = core.Money{Cents: data.CurrentBalance.Cents +
		data.PendingFixedToReceive.Cents -
		data.PendingFixedToPay.Cents -
		data.PendingCardsTotal.Cents +
		data.InvestmentYield.Cents}

	data.TopUsers = rankUsers(s.Users, monthExpenses, generated)
	return data
}

// DashboardSelected computes the dashboard for the global month filter.
func (e *Engine) DashboardSelected() core.DashboardData {
	f := e.state.Filter()
	return e.Dashboard(f.Month, f.Year)
}

func rankUsers(users []core.User, monthExpenses []core.Expense, generated map[int64]bool) []core.UserSpending {
	totals := make(map[int64]int64)
	for _, exp := range monthExpenses {
		if generated[exp.ID] || exp.UserID == 0 {
			continue
		}
		totals[exp.UserID] += exp.Amount.Cents
	}

	var out []core.UserSpending
	for _, u := range users {
		if cents, ok := totals[u.ID]; ok {
			out = append(out, core.UserSpending{User: u, Total: core.Money{Cents: cents}})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Total.Cents > out[j].Total.Cents })
	return out
}

// Monthly returns the raw per-month partition of the entity set, a
// read-only view with no settlement logic.
func (e *Engine) Monthly(month time.Month, year int) core.MonthlyData {
	s := e.state.Snapshot()

	data := core.MonthlyData{Month: month, Year: year}
	data.FixedExpenses = ActiveFixedExpenses(s, month, year)

	for _, exp := range s.Expenses {
		if !exp.Date.InMonth(month, year) {
			continue
		}
		switch exp.Type {
		case core.ExpenseVariable:
			data.VariableExpenses = append(data.VariableExpenses, exp)
		case core.ExpenseCreditCard:
			data.CreditCardExpenses = append(data.CreditCardExpenses, exp)
		}
	}
	for _, m := range s.CashMovements {
		if m.Date.InMonth(month, year) {
			data.CashMovements = append(data.CashMovements, m)
		}
	}
	for _, inv := range s.Investments {
		if inv.Date.InMonth(month, year) {
			data.Investments = append(data.Investments, inv)
		}
	}
	return data
}
