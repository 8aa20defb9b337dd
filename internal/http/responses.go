package http

import (
	"strconv"
	"time"

	"carteira/internal/core"
)

// Response payloads. Amounts go out as integer cents plus a display float;
// dates as YYYY-MM-DD.

type moneyJSON struct {
	Cents   int64   `json:"cents"`
	Display float64 `json:"display"`
}

func money(m core.Money) moneyJSON {
	return moneyJSON{Cents: m.Cents, Display: m.Reais()}
}

func dateStr(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func timeStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

type expenseResponse struct {
	ID           int64     `json:"id"`
	Description  string    `json:"description"`
	Amount       moneyJSON `json:"amount"`
	Date         string    `json:"date"`
	Type         string    `json:"type"`
	Category     string    `json:"category,omitempty"`
	Method       string    `json:"method"`
	CreditCardID int64     `json:"credit_card_id,omitempty"`
	UserID       int64     `json:"user_id,omitempty"`
	Installment  string    `json:"installment,omitempty"`
}

func expenseJSON(e core.Expense) expenseResponse {
	resp := expenseResponse{
		ID:           e.ID,
		Description:  e.Description,
		Amount:       money(e.Amount),
		Date:         dateStr(e.Date),
		Type:         string(e.Type),
		Category:     e.Category,
		Method:       string(e.Method),
		CreditCardID: e.CreditCardID,
		UserID:       e.UserID,
	}
	if e.Installments.Total > 1 {
		resp.Installment = strconv.Itoa(e.Installments.Current) + "/" + strconv.Itoa(e.Installments.Total)
	}
	return resp
}

func expensesJSON(in []core.Expense) []expenseResponse {
	out := make([]expenseResponse, 0, len(in))
	for _, e := range in {
		out = append(out, expenseJSON(e))
	}
	return out
}

type fixedExpenseResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Category       string    `json:"category,omitempty"`
	Amount         moneyJSON `json:"amount"`
	DueDay         int       `json:"due_day"`
	EffectiveFrom  string    `json:"effective_from"`
	EffectiveUntil string    `json:"effective_until,omitempty"`
	CreditCardID   int64     `json:"credit_card_id,omitempty"`
	Paid           bool      `json:"paid"`
	PaidAt         string    `json:"paid_at,omitempty"`
}

func fixedExpenseJSON(st core.FixedExpenseStatus) fixedExpenseResponse {
	return fixedExpenseResponse{
		ID:             st.ID,
		Name:           st.Name,
		Category:       st.Category,
		Amount:         money(st.Amount),
		DueDay:         st.DueDay,
		EffectiveFrom:  dateStr(st.EffectiveFrom),
		EffectiveUntil: dateStr(st.EffectiveUntil),
		CreditCardID:   st.CreditCardID,
		Paid:           st.Paid,
		PaidAt:         timeStr(st.PaidAt),
	}
}

func fixedExpensesJSON(in []core.FixedExpenseStatus) []fixedExpenseResponse {
	out := make([]fixedExpenseResponse, 0, len(in))
	for _, st := range in {
		out = append(out, fixedExpenseJSON(st))
	}
	return out
}

type fixedIncomeResponse struct {
	ID             int64     `json:"id"`
	Description    string    `json:"description"`
	Amount         moneyJSON `json:"amount"`
	ReceiveDay     int       `json:"receive_day"`
	EffectiveFrom  string    `json:"effective_from"`
	EffectiveUntil string    `json:"effective_until,omitempty"`
	Received       bool      `json:"received"`
	ReceivedAt     string    `json:"received_at,omitempty"`
}

func fixedIncomeJSON(st core.FixedIncomeStatus) fixedIncomeResponse {
	return fixedIncomeResponse{
		ID:             st.ID,
		Description:    st.Description,
		Amount:         money(st.Amount),
		ReceiveDay:     st.ReceiveDay,
		EffectiveFrom:  dateStr(st.EffectiveFrom),
		EffectiveUntil: dateStr(st.EffectiveUntil),
		Received:       st.Received,
		ReceivedAt:     timeStr(st.ReceivedAt),
	}
}

func fixedIncomesJSON(in []core.FixedIncomeStatus) []fixedIncomeResponse {
	out := make([]fixedIncomeResponse, 0, len(in))
	for _, st := range in {
		out = append(out, fixedIncomeJSON(st))
	}
	return out
}

type creditCardResponse struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Limit      moneyJSON `json:"limit"`
	ClosingDay int       `json:"closing_day"`
	DueDay     int       `json:"due_day"`
}

func creditCardJSON(cc core.CreditCard) creditCardResponse {
	return creditCardResponse{
		ID:         cc.ID,
		Name:       cc.Name,
		Limit:      money(cc.Limit),
		ClosingDay: cc.ClosingDay,
		DueDay:     cc.DueDay,
	}
}

type cashMovementResponse struct {
	ID          int64     `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Amount      moneyJSON `json:"amount"`
	Date        string    `json:"date"`
	UserID      int64     `json:"user_id,omitempty"`
}

func cashMovementJSON(m core.CashMovement) cashMovementResponse {
	return cashMovementResponse{
		ID:          m.ID,
		Type:        string(m.Type),
		Description: m.Description,
		Amount:      money(m.Amount),
		Date:        dateStr(m.Date),
		UserID:      m.UserID,
	}
}

type investmentResponse struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Amount      moneyJSON `json:"amount"`
	YieldPct    float64   `json:"yield_pct"`
	Date        string    `json:"date"`
	UserID      int64     `json:"user_id,omitempty"`
}

func investmentJSON(inv core.Investment) investmentResponse {
	return investmentResponse{
		ID:          inv.ID,
		Description: inv.Description,
		Amount:      money(inv.Amount),
		YieldPct:    inv.YieldRate.Percent(),
		Date:        dateStr(inv.Date),
		UserID:      inv.UserID,
	}
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type settingsResponse struct {
	MonthlyYieldPct   float64   `json:"monthly_yield_pct"`
	InitialBalance    moneyJSON `json:"initial_balance"`
	InitialInvestment moneyJSON `json:"initial_investment"`
}

func settingsJSON(s core.Settings) settingsResponse {
	return settingsResponse{
		MonthlyYieldPct:   s.MonthlyYield.Percent(),
		InitialBalance:    money(s.InitialBalance),
		InitialInvestment: money(s.InitialInvestment),
	}
}

type pendingCardResponse struct {
	CardID int64     `json:"card_id"`
	Name   string    `json:"name"`
	Total  moneyJSON `json:"total"`
}

type userSpendingResponse struct {
	UserID int64     `json:"user_id"`
	Name   string    `json:"name"`
	Total  moneyJSON `json:"total"`
}

type dashboardResponse struct {
	Month int `json:"month"`
	Year  int `json:"year"`

	CurrentBalance   moneyJSON `json:"current_balance"`
	ProjectedBalance moneyJSON `json:"projected_balance"`

	VariableExpenses   moneyJSON              `json:"variable_expenses"`
	FixedExpenses      []fixedExpenseResponse `json:"fixed_expenses"`
	FixedIncomes       []fixedIncomeResponse  `json:"fixed_incomes"`
	TotalFixedExpenses moneyJSON              `json:"total_fixed_expenses"`
	TotalFixedIncomes  moneyJSON              `json:"total_fixed_incomes"`

	PendingFixedToPay     moneyJSON             `json:"pending_fixed_to_pay"`
	PendingFixedToReceive moneyJSON             `json:"pending_fixed_to_receive"`
	PendingCards          []pendingCardResponse `json:"pending_cards"`
	PendingCardsTotal     moneyJSON             `json:"pending_cards_total"`

	TotalInvestments moneyJSON `json:"total_investments"`
	InvestmentYield  moneyJSON `json:"investment_yield"`
	AverageYieldPct  float64   `json:"average_yield_pct"`

	TopUsers []userSpendingResponse `json:"top_users"`
}

func dashboardJSON(d core.DashboardData) dashboardResponse {
	resp := dashboardResponse{
		Month:                 int(d.Month),
		Year:                  d.Year,
		CurrentBalance:        money(d.CurrentBalance),
		ProjectedBalance:      money(d.ProjectedBalance),
		VariableExpenses:      money(d.VariableExpenses),
		FixedExpenses:         fixedExpensesJSON(d.FixedExpenses),
		FixedIncomes:          fixedIncomesJSON(d.FixedIncomes),
		TotalFixedExpenses:    money(d.TotalFixedExpenses),
		TotalFixedIncomes:     money(d.TotalFixedIncomes),
		PendingFixedToPay:     money(d.PendingFixedToPay),
		PendingFixedToReceive: money(d.PendingFixedToReceive),
		PendingCards:          make([]pendingCardResponse, 0, len(d.PendingCards)),
		PendingCardsTotal:     money(d.PendingCardsTotal),
		TotalInvestments:      money(d.TotalInvestments),
		InvestmentYield:       money(d.InvestmentYield),
		AverageYieldPct:       d.AverageYieldPct,
		TopUsers:              make([]userSpendingResponse, 0, len(d.TopUsers)),
	}
	for _, pc := range d.PendingCards {
		resp.PendingCards = append(resp.PendingCards, pendingCardResponse{
			CardID: pc.Card.ID,
			Name:   pc.Card.Name,
			Total:  money(pc.Total),
		})
	}
	for _, u := range d.TopUsers {
		resp.TopUsers = append(resp.TopUsers, userSpendingResponse{
			UserID: u.User.ID,
			Name:   u.User.Name,
			Total:  money(u.Total),
		})
	}
	return resp
}

type monthlyResponse struct {
	Month int `json:"month"`
	Year  int `json:"year"`

	FixedExpenses      []fixedExpenseResponse `json:"fixed_expenses"`
	VariableExpenses   []expenseResponse      `json:"variable_expenses"`
	CreditCardExpenses []expenseResponse      `json:"credit_card_expenses"`
	CashMovements      []cashMovementResponse `json:"cash_movements"`
	Investments        []investmentResponse   `json:"investments"`
}

func monthlyJSON(m core.MonthlyData) monthlyResponse {
	resp := monthlyResponse{
		Month:              int(m.Month),
		Year:               m.Year,
		FixedExpenses:      fixedExpensesJSON(m.FixedExpenses),
		VariableExpenses:   expensesJSON(m.VariableExpenses),
		CreditCardExpenses: expensesJSON(m.CreditCardExpenses),
		CashMovements:      make([]cashMovementResponse, 0, len(m.CashMovements)),
		Investments:        make([]investmentResponse, 0, len(m.Investments)),
	}
	for _, cm := range m.CashMovements {
		resp.CashMovements = append(resp.CashMovements, cashMovementJSON(cm))
	}
	for _, inv := range m.Investments {
		resp.Investments = append(resp.Investments, investmentJSON(inv))
	}
	return resp
}

type statementLineResponse struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Amount      moneyJSON `json:"amount"`
	Date        string    `json:"date"`
}

type statementResponse struct {
	Card  creditCardResponse `json:"card"`
	Month int                `json:"month"`
	Year  int                `json:"year"`

	CurrentTotal   moneyJSON `json:"current_total"`
	PendingTotal   moneyJSON `json:"pending_total"`
	ProjectedTotal moneyJSON `json:"projected_total"`
	CommittedTotal moneyJSON `json:"committed_total"`
	AvailableLimit moneyJSON `json:"available_limit"`

	Paid   bool   `json:"paid"`
	PaidAt string `json:"paid_at,omitempty"`

	Lines []statementLineResponse `json:"lines"`
}

func statementJSON(st core.CardStatement) statementResponse {
	resp := statementResponse{
		Card:           creditCardJSON(st.Card),
		Month:          int(st.Month),
		Year:           st.Year,
		CurrentTotal:   money(st.CurrentTotal),
		PendingTotal:   money(st.PendingTotal),
		ProjectedTotal: money(st.ProjectedTotal),
		CommittedTotal: money(st.CommittedTotal),
		AvailableLimit: money(st.AvailableLimit),
		Paid:           st.Paid,
		PaidAt:         timeStr(st.PaidAt),
		Lines:          make([]statementLineResponse, 0, len(st.Lines)),
	}
	for _, line := range st.Lines {
		resp.Lines = append(resp.Lines, statementLineResponse{
			Type:        string(line.Type),
			Description: line.Description,
			Amount:      money(line.Amount),
			Date:        dateStr(line.Date),
		})
	}
	return resp
}

type summaryResponse struct {
	Month int `json:"month"`
	Year  int `json:"year"`

	TotalLimit     moneyJSON `json:"total_limit"`
	TotalCommitted moneyJSON `json:"total_committed"`
	TotalCurrent   moneyJSON `json:"total_current"`
	TotalProjected moneyJSON `json:"total_projected"`

	Cards []statementResponse `json:"cards"`
}

func summaryJSON(cs core.CardsSummary) summaryResponse {
	resp := summaryResponse{
		Month:          int(cs.Month),
		Year:           cs.Year,
		TotalLimit:     money(cs.TotalLimit),
		TotalCommitted: money(cs.TotalCommitted),
		TotalCurrent:   money(cs.TotalCurrent),
		TotalProjected: money(cs.TotalProjected),
		Cards:          make([]statementResponse, 0, len(cs.Cards)),
	}
	for _, st := range cs.Cards {
		resp.Cards = append(resp.Cards, statementJSON(st))
	}
	return resp
}
