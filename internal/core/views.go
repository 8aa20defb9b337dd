package core

import "time"

// Line-item tags on a card statement.
const (
	LineVariable      StatementLineType = "Variável"
	LineFixedPaid     StatementLineType = "Fixo (Pago)"
	LineFixedExpected StatementLineType = "Fixo (Previsto)"
)

type StatementLineType string

// FixedExpenseStatus is a fixed expense projected onto one month, with its
// per-month settled state resolved from the payment ledger.
type FixedExpenseStatus struct {
	FixedExpense
	Paid   bool
	PaidAt time.Time
	// Payment is the settlement row when Paid; nil otherwise.
	Payment *FixedPayment
}

// FixedIncomeStatus mirrors FixedExpenseStatus for incomes.
type FixedIncomeStatus struct {
	FixedIncome
	Received   bool
	ReceivedAt time.Time
	Receipt    *FixedReceipt
}

// PendingCardBill is one unpaid card bill for the selected month.
type PendingCardBill struct {
	Card  CreditCard
	Total Money
}

// UserSpending ranks a member by spend in the selected month.
type UserSpending struct {
	User  User
	Total Money
}

// DashboardData is the aggregate view for the selected month/year.
type DashboardData struct {
	Month time.Month
	Year  int

	CurrentBalance   Money
	ProjectedBalance Money

	VariableExpenses   Money
	FixedExpenses      []FixedExpenseStatus
	FixedIncomes       []FixedIncomeStatus
	TotalFixedExpenses Money
	TotalFixedIncomes  Money

	PendingFixedToPay     Money
	PendingFixedToReceive Money
	PendingCards          []PendingCardBill
	PendingCardsTotal     Money

	TotalInvestments Money
	InvestmentYield  Money
	// AverageYieldPct is the value-weighted average monthly yield as a
	// display percentage; money math never uses it.
	AverageYieldPct float64

	TopUsers []UserSpending
}

// MonthlyData is the raw per-month partition of the entity set, with no
// settlement logic applied beyond the active-window filter.
type MonthlyData struct {
	Month time.Month
	Year  int

	FixedExpenses      []FixedExpenseStatus
	VariableExpenses   []Expense
	CreditCardExpenses []Expense
	CashMovements      []CashMovement
	Investments        []Investment
}

// StatementLine is one literal line on a card's bill for the selected cycle.
type StatementLine struct {
	Type        StatementLineType
	Description string
	Amount      Money
	Date        Date
}

// CardStatement is a card's bill for the selected month/year cycle.
type CardStatement struct {
	Card  CreditCard
	Month time.Month
	Year  int

	CurrentTotal   Money
	PendingTotal   Money
	ProjectedTotal Money

	CommittedTotal Money
	AvailableLimit Money

	Paid   bool
	PaidAt time.Time

	Lines []StatementLine
}

// CardsSummary aggregates every card for the combined utilization view.
type CardsSummary struct {
	Month time.Month
	Year  int

	TotalLimit     Money
	TotalCommitted Money
	TotalCurrent   Money
	TotalProjected Money

	Cards []CardStatement
}
