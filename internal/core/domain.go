package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// Expense kinds.
	ExpenseVariable   ExpenseType = "variavel"
	ExpenseCreditCard ExpenseType = "cartao_credito"

	// Payment instruments. Debit, pix and cash settle from the cash
	// balance immediately; credit is deferred to the card's bill.
	MethodDebit  PaymentMethod = "debito"
	MethodPix    PaymentMethod = "pix"
	MethodCash   PaymentMethod = "dinheiro"
	MethodCredit PaymentMethod = "cartao_credito"

	MovementIncome  MovementType = "income"
	MovementOutcome MovementType = "outcome"
)

type (
	ExpenseType   string
	PaymentMethod string
	MovementType  string

	// Date is a UTC calendar date. Date-only columns must be parsed in UTC
	// so recurrence boundary checks never shift across a timezone.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Rate is a monthly percentage expressed in basis points
	// (100 bps = 1.00%/month).
	Rate struct {
		Bps int64
	}

	User struct {
		ID    int64
		Name  string
		Email string
	}

	Installments struct {
		Current int
		Total   int
	}

	Expense struct {
		ID           int64
		Description  string
		Amount       Money
		Date         Date
		Type         ExpenseType
		Category     string
		Method       PaymentMethod
		CreditCardID int64 // 0 when not billed to a card
		UserID       int64
		Installments Installments
		CreatedAt    time.Time
	}

	// FixedExpense is a recurring obligation template, not a per-month
	// instance. Per-month settled state lives in FixedPayment.
	FixedExpense struct {
		ID             int64
		Name           string
		Category       string
		Amount         Money
		DueDay         int
		EffectiveFrom  Date
		EffectiveUntil Date // zero = open-ended
		CreditCardID   int64
	}

	FixedIncome struct {
		ID             int64
		Description    string
		Amount         Money
		ReceiveDay     int
		EffectiveFrom  Date
		EffectiveUntil Date
	}

	// FixedPayment records that a fixed expense was settled for a given
	// month/year. GeneratedExpenseID links the Expense row materialized on
	// the card's bill; 0 means the obligation was paid directly from cash.
	// At most one row may exist per (FixedExpenseID, Month, Year).
	FixedPayment struct {
		ID                 int64
		FixedExpenseID     int64
		Month              time.Month
		Year               int
		Amount             Money
		PaidAt             time.Time
		GeneratedExpenseID int64
	}

	FixedReceipt struct {
		ID            int64
		FixedIncomeID int64
		Month         time.Month
		Year          int
		Amount        Money
		ReceivedAt    time.Time
	}

	CreditCard struct {
		ID         int64
		Name       string
		Limit      Money
		ClosingDay int
		DueDay     int
	}

	// CreditCardPayment marks a card's bill as paid for one billing cycle,
	// mirroring FixedPayment. At most one row per (CreditCardID, Month, Year).
	CreditCardPayment struct {
		ID           int64
		CreditCardID int64
		Month        time.Month
		Year         int
		Amount       Money
		PaidAt       time.Time
	}

	CashMovement struct {
		ID          int64
		Type        MovementType
		Description string
		Amount      Money
		UserID      int64
		Date        Date
	}

	Investment struct {
		ID          int64
		Description string
		Amount      Money
		YieldRate   Rate
		Date        Date
		UserID      int64
	}

	// Settings is the singleton with the account's initial conditions.
	Settings struct {
		MonthlyYield      Rate
		InitialBalance    Money
		InitialInvestment Money
	}

	// MonthFilter is the globally selected month/year that drives every
	// "active this month" computation.
	MonthFilter struct {
		Month time.Month
		Year  int
	}
)

var (
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidRate      = errors.New("invalid rate")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrNotFound         = errors.New("not found")
	ErrAlreadySettled   = errors.New("already settled for this month")
)

// NewDate creates a UTC calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// InMonth reports whether the date falls inside the given month/year.
func (d Date) InMonth(month time.Month, year int) bool {
	return d.Time.Year() == year && d.Time.Month() == month
}

// MonthStart returns the first instant of the month.
func MonthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns the last second of the month.
func MonthEnd(year int, month time.Month) time.Time {
	return time.Date(year, month, LastDayOfMonth(year, month), 23, 59, 59, 0, time.UTC)
}

// LastDayOfMonth returns the number of days in the month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ClampDay caps a due day to the last day of the month, so a day-31
// obligation lands on Feb 28 rather than spilling into March.
func ClampDay(day int, year int, month time.Month) int {
	if last := LastDayOfMonth(year, month); day > last {
		return last
	}
	return day
}

// PrevMonth returns the month/year immediately before the given one.
func PrevMonth(month time.Month, year int) (time.Month, int) {
	if month == time.January {
		return time.December, year - 1
	}
	return month - 1, year
}

// NextMonth returns the month/year immediately after the given one.
func NextMonth(month time.Month, year int) (time.Month, int) {
	if month == time.December {
		return time.January, year + 1
	}
	return month + 1, year
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (r Rate) Validate() error {
	if r.Bps < 0 {
		return ErrInvalidRate
	}
	return nil
}

func validDay(day int) bool {
	return day >= 1 && day <= 31
}

func validWindow(from, until Date) error {
	if err := from.Validate(); err != nil {
		return errors.New("invalid effective-from date: " + err.Error())
	}
	if !until.IsZero() && until.Before(from.Time) {
		return errors.New("effective-until must not precede effective-from")
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	switch e.Type {
	case ExpenseVariable, ExpenseCreditCard:
	default:
		return errors.New("invalid expense type")
	}
	switch e.Method {
	case MethodDebit, MethodPix, MethodCash, MethodCredit:
	default:
		return errors.New("invalid payment method")
	}
	if e.Type == ExpenseCreditCard && e.CreditCardID == 0 {
		return errors.New("credit card expense requires a card")
	}
	if e.Installments.Total < 1 || e.Installments.Current < 1 || e.Installments.Current > e.Installments.Total {
		return errors.New("invalid installments")
	}
	return nil
}

func (fe FixedExpense) Validate() error {
	if len(strings.TrimSpace(fe.Name)) == 0 {
		return ErrEmptyName
	}
	if err := fe.Amount.Validate(); err != nil {
		return err
	}
	if !validDay(fe.DueDay) {
		return ErrInvalidDay
	}
	return validWindow(fe.EffectiveFrom, fe.EffectiveUntil)
}

func (fi FixedIncome) Validate() error {
	if len(strings.TrimSpace(fi.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := fi.Amount.Validate(); err != nil {
		return err
	}
	if !validDay(fi.ReceiveDay) {
		return ErrInvalidDay
	}
	return validWindow(fi.EffectiveFrom, fi.EffectiveUntil)
}

func (c CreditCard) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if c.Limit.Cents < 0 {
		return ErrInvalidAmount
	}
	if !validDay(c.ClosingDay) || !validDay(c.DueDay) {
		return ErrInvalidDay
	}
	return nil
}

func (cm CashMovement) Validate() error {
	if cm.Type != MovementIncome && cm.Type != MovementOutcome {
		return errors.New("invalid movement type")
	}
	if len(strings.TrimSpace(cm.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := cm.Amount.Validate(); err != nil {
		return err
	}
	return cm.Date.Validate()
}

func (inv Investment) Validate() error {
	if len(strings.TrimSpace(inv.Description)) == 0 {
		return ErrEmptyDescription
	}
	if err := inv.Amount.Validate(); err != nil {
		return err
	}
	if err := inv.YieldRate.Validate(); err != nil {
		return err
	}
	return inv.Date.Validate()
}

func (u User) Validate() error {
	if len(strings.TrimSpace(u.Name)) == 0 {
		return ErrEmptyName
	}
	return nil
}
