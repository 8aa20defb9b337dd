package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"carteira/internal/core"
)

// Request payloads. Monetary amounts travel as decimal strings ("12,34" or
// "12.34") and are parsed to cents; dates as YYYY-MM-DD.

type sessionRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type expenseRequest struct {
	Description        string `json:"description" validate:"required"`
	Amount             string `json:"amount" validate:"required"`
	Date               string `json:"date" validate:"required"`
	Type               string `json:"type" validate:"required,oneof=variavel cartao_credito"`
	Category           string `json:"category"`
	Method             string `json:"method" validate:"required,oneof=debito pix dinheiro cartao_credito"`
	CreditCardID       int64  `json:"credit_card_id"`
	UserID             int64  `json:"user_id"`
	InstallmentCurrent int    `json:"installment_current"`
	InstallmentTotal   int    `json:"installment_total"`
}

func (req expenseRequest) toDomain() (core.Expense, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid date: %w", err)
	}
	return core.Expense{
		Description:  req.Description,
		Amount:       core.Money{Cents: cents},
		Date:         date,
		Type:         core.ExpenseType(req.Type),
		Category:     req.Category,
		Method:       core.PaymentMethod(req.Method),
		CreditCardID: req.CreditCardID,
		UserID:       req.UserID,
		Installments: core.Installments{Current: req.InstallmentCurrent, Total: req.InstallmentTotal},
	}, nil
}

type fixedExpenseRequest struct {
	Name           string `json:"name" validate:"required"`
	Category       string `json:"category"`
	Amount         string `json:"amount" validate:"required"`
	DueDay         int    `json:"due_day" validate:"required,min=1,max=31"`
	EffectiveFrom  string `json:"effective_from" validate:"required"`
	EffectiveUntil string `json:"effective_until"`
	CreditCardID   int64  `json:"credit_card_id"`
}

func (req fixedExpenseRequest) toDomain() (core.FixedExpense, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.FixedExpense{}, err
	}
	from, err := parseDate(req.EffectiveFrom)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("invalid effective_from: %w", err)
	}
	var until core.Date
	if req.EffectiveUntil != "" {
		if until, err = parseDate(req.EffectiveUntil); err != nil {
			return core.FixedExpense{}, fmt.Errorf("invalid effective_until: %w", err)
		}
	}
	return core.FixedExpense{
		Name:           req.Name,
		Category:       req.Category,
		Amount:         core.Money{Cents: cents},
		DueDay:         req.DueDay,
		EffectiveFrom:  from,
		EffectiveUntil: until,
		CreditCardID:   req.CreditCardID,
	}, nil
}

type fixedIncomeRequest struct {
	Description    string `json:"description" validate:"required"`
	Amount         string `json:"amount" validate:"required"`
	ReceiveDay     int    `json:"receive_day" validate:"required,min=1,max=31"`
	EffectiveFrom  string `json:"effective_from" validate:"required"`
	EffectiveUntil string `json:"effective_until"`
}

func (req fixedIncomeRequest) toDomain() (core.FixedIncome, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.FixedIncome{}, err
	}
	from, err := parseDate(req.EffectiveFrom)
	if err != nil {
		return core.FixedIncome{}, fmt.Errorf("invalid effective_from: %w", err)
	}
	var until core.Date
	if req.EffectiveUntil != "" {
		if until, err = parseDate(req.EffectiveUntil); err != nil {
			return core.FixedIncome{}, fmt.Errorf("invalid effective_until: %w", err)
		}
	}
	return core.FixedIncome{
		Description:    req.Description,
		Amount:         core.Money{Cents: cents},
		ReceiveDay:     req.ReceiveDay,
		EffectiveFrom:  from,
		EffectiveUntil: until,
	}, nil
}

type creditCardRequest struct {
	Name       string `json:"name" validate:"required"`
	Limit      string `json:"limit"`
	ClosingDay int    `json:"closing_day" validate:"required,min=1,max=31"`
	DueDay     int    `json:"due_day" validate:"required,min=1,max=31"`
}

func (req creditCardRequest) toDomain() (core.CreditCard, error) {
	var limit core.Money
	if req.Limit != "" {
		cents, err := core.ParseDecimalToCents(req.Limit)
		if err != nil {
			return core.CreditCard{}, err
		}
		limit = core.Money{Cents: cents}
	}
	return core.CreditCard{
		Name:       req.Name,
		Limit:      limit,
		ClosingDay: req.ClosingDay,
		DueDay:     req.DueDay,
	}, nil
}

type cashMovementRequest struct {
	Type        string `json:"type" validate:"required,oneof=income outcome"`
	Description string `json:"description" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Date        string `json:"date" validate:"required"`
	UserID      int64  `json:"user_id"`
}

func (req cashMovementRequest) toDomain() (core.CashMovement, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.CashMovement{}, err
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.CashMovement{}, fmt.Errorf("invalid date: %w", err)
	}
	return core.CashMovement{
		Type:        core.MovementType(req.Type),
		Description: req.Description,
		Amount:      core.Money{Cents: cents},
		Date:        date,
		UserID:      req.UserID,
	}, nil
}

type investmentRequest struct {
	Description string `json:"description" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	YieldRate   string `json:"yield_rate"`
	Date        string `json:"date" validate:"required"`
	UserID      int64  `json:"user_id"`
}

func (req investmentRequest) toDomain() (core.Investment, error) {
	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.Investment{}, err
	}
	var rate core.Rate
	if req.YieldRate != "" {
		bps, err := core.ParseRateBps(req.YieldRate)
		if err != nil {
			return core.Investment{}, err
		}
		rate = core.Rate{Bps: bps}
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Investment{}, fmt.Errorf("invalid date: %w", err)
	}
	return core.Investment{
		Description: req.Description,
		Amount:      core.Money{Cents: cents},
		YieldRate:   rate,
		Date:        date,
		UserID:      req.UserID,
	}, nil
}

type userRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
}

type settingsRequest struct {
	MonthlyYield      string `json:"monthly_yield"`
	InitialBalance    string `json:"initial_balance"`
	InitialInvestment string `json:"initial_investment"`
}

func (req settingsRequest) toDomain() (core.Settings, error) {
	var s core.Settings
	if req.MonthlyYield != "" {
		bps, err := core.ParseRateBps(req.MonthlyYield)
		if err != nil {
			return core.Settings{}, err
		}
		s.MonthlyYield = core.Rate{Bps: bps}
	}
	if req.InitialBalance != "" {
		cents, err := core.ParseDecimalToCents(req.InitialBalance)
		if err != nil {
			return core.Settings{}, err
		}
		s.InitialBalance = core.Money{Cents: cents}
	}
	if req.InitialInvestment != "" {
		cents, err := core.ParseDecimalToCents(req.InitialInvestment)
		if err != nil {
			return core.Settings{}, err
		}
		s.InitialInvestment = core.Money{Cents: cents}
	}
	return s, nil
}

type toggleRequest struct {
	Month  int    `json:"month" validate:"required,min=1,max=12"`
	Year   int    `json:"year" validate:"required,min=1"`
	Amount string `json:"amount" validate:"required"`
}

type filterRequest struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=1"`
}

func toFilter(req filterRequest) core.MonthFilter {
	return core.MonthFilter{Month: time.Month(req.Month), Year: req.Year}
}

// decode parses the JSON body into dst and runs struct validation.
func (s *Server) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}
	return s.validate.Struct(dst)
}
