package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/state"
)

// Store is the persistence boundary the engine writes through. The SQLite
// repository implements it; tests substitute an in-memory fake.
type Store interface {
	LoadAll(ctx context.Context) (state.Snapshot, error)

	InsertUser(ctx context.Context, u core.User) (core.User, error)
	DeleteUser(ctx context.Context, id int64) error

	InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error

	InsertFixedExpense(ctx context.Context, fe core.FixedExpense) (core.FixedExpense, error)
	UpdateFixedExpense(ctx context.Context, fe core.FixedExpense) error
	DeleteFixedExpense(ctx context.Context, id int64) error

	InsertFixedIncome(ctx context.Context, fi core.FixedIncome) (core.FixedIncome, error)
	UpdateFixedIncome(ctx context.Context, fi core.FixedIncome) error
	DeleteFixedIncome(ctx context.Context, id int64) error

	InsertCreditCard(ctx context.Context, cc core.CreditCard) (core.CreditCard, error)
	UpdateCreditCard(ctx context.Context, cc core.CreditCard) error
	DeleteCreditCard(ctx context.Context, id int64) error

	InsertCashMovement(ctx context.Context, m core.CashMovement) (core.CashMovement, error)
	DeleteCashMovement(ctx context.Context, id int64) error

	InsertInvestment(ctx context.Context, i core.Investment) (core.Investment, error)
	DeleteInvestment(ctx context.Context, id int64) error

	SaveSettings(ctx context.Context, s core.Settings) error

	// SettleFixedExpense inserts the payment and, when generated is not
	// nil, the materialized card expense in one transaction. A uniqueness
	// violation on (fixedExpenseId, month, year) maps to ErrAlreadySettled.
	SettleFixedExpense(ctx context.Context, p core.FixedPayment, generated *core.Expense) (core.FixedPayment, *core.Expense, error)
	// ReverseFixedExpense deletes the payment and its generated expense, if
	// any, in one transaction.
	ReverseFixedExpense(ctx context.Context, paymentID, generatedExpenseID int64) error

	SettleFixedIncome(ctx context.Context, r core.FixedReceipt) (core.FixedReceipt, error)
	ReverseFixedIncome(ctx context.Context, receiptID int64) error

	SettleCreditCard(ctx context.Context, p core.CreditCardPayment) (core.CreditCardPayment, error)
	ReverseCreditCard(ctx context.Context, paymentID int64) error
}

// Events receives settlement notifications. Publishing is best-effort; a
// failed publish never fails the settlement itself.
type Events interface {
	PublishSettlement(ctx context.Context, msg *amqp.SettlementMessage) error
}

// Engine coordinates the state container and the store. Reads derive from a
// snapshot on every call; writes commit to the store first and mutate local
// state only after the store confirms.
type Engine struct {
	store  Store
	state  *state.Container
	events Events
	now    func() time.Time
}

func NewEngine(store Store, container *state.Container, events Events) *Engine {
	return &Engine{
		store:  store,
		state:  container,
		events: events,
		now:    time.Now,
	}
}

// Refresh replaces the whole in-memory aggregate from the store. On error
// nothing is replaced; there is no partial load.
func (e *Engine) Refresh(ctx context.Context) error {
	e.state.SetLoading(true)
	defer e.state.SetLoading(false)

	snap, err := e.store.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	e.state.Replace(snap)

	slog.InfoContext(ctx, "State refreshed",
		"expenses", len(snap.Expenses),
		"fixed_expenses", len(snap.FixedExpenses),
		"fixed_incomes", len(snap.FixedIncomes),
		"credit_cards", len(snap.CreditCards))
	return nil
}

// Snapshot exposes the current state for read-only derivations.
func (e *Engine) Snapshot() state.Snapshot {
	return e.state.Snapshot()
}

// SetMonthFilter selects the month every dashboard computation derives for.
func (e *Engine) SetMonthFilter(f core.MonthFilter) {
	e.state.SetFilter(f)
}

func (e *Engine) MonthFilter() core.MonthFilter {
	return e.state.Filter()
}

func (e *Engine) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	saved, err := e.store.InsertUser(ctx, u)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	e.state.AddUser(saved)
	return saved, nil
}

func (e *Engine) DeleteUser(ctx context.Context, id int64) error {
	if err := e.store.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	e.state.RemoveUser(id)
	return nil
}

// CreateExpense validates and stores an ad-hoc expense. The acting user is
// the default owner when the payload names none.
func (e *Engine) CreateExpense(ctx context.Context, userID int64, exp core.Expense) (core.Expense, error) {
	if exp.UserID == 0 {
		exp.UserID = userID
	}
	if exp.Installments.Total == 0 {
		exp.Installments = core.Installments{Current: 1, Total: 1}
	}
	if err := exp.Validate(); err != nil {
		return core.Expense{}, err
	}
	saved, err := e.store.InsertExpense(ctx, exp)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.state.AddExpense(saved)
	return saved, nil
}

func (e *Engine) DeleteExpense(ctx context.Context, id int64) error {
	if err := e.store.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	e.state.RemoveExpense(id)
	return nil
}

func (e *Engine) CreateFixedExpense(ctx context.Context, fe core.FixedExpense) (core.FixedExpense, error) {
	if err := fe.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	saved, err := e.store.InsertFixedExpense(ctx, fe)
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("insert fixed expense: %w", err)
	}
	e.state.AddFixedExpense(saved)
	return saved, nil
}

func (e *Engine) UpdateFixedExpense(ctx context.Context, fe core.FixedExpense) error {
	if err := fe.Validate(); err != nil {
		return err
	}
	if err := e.store.UpdateFixedExpense(ctx, fe); err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	e.state.UpdateFixedExpense(fe)
	return nil
}

func (e *Engine) DeleteFixedExpense(ctx context.Context, id int64) error {
	if err := e.store.DeleteFixedExpense(ctx, id); err != nil {
		return fmt.Errorf("delete fixed expense: %w", err)
	}
	e.state.RemoveFixedExpense(id)
	return nil
}

func (e *Engine) CreateFixedIncome(ctx context.Context, fi core.FixedIncome) (core.FixedIncome, error) {
	if err := fi.Validate(); err != nil {
		return core.FixedIncome{}, err
	}
	saved, err := e.store.InsertFixedIncome(ctx, fi)
	if err != nil {
		return core.FixedIncome{}, fmt.Errorf("insert fixed income: %w", err)
	}
	e.state.AddFixedIncome(saved)
	return saved, nil
}

func (e *Engine) UpdateFixedIncome(ctx context.Context, fi core.FixedIncome) error {
	if err := fi.Validate(); err != nil {
		return err
	}
	if err := e.store.UpdateFixedIncome(ctx, fi); err != nil {
		return fmt.Errorf("update fixed income: %w", err)
	}
	e.state.UpdateFixedIncome(fi)
	return nil
}

func (e *Engine) DeleteFixedIncome(ctx context.Context, id int64) error {
	if err := e.store.DeleteFixedIncome(ctx, id); err != nil {
		return fmt.Errorf("delete fixed income: %w", err)
	}
	e.state.RemoveFixedIncome(id)
	return nil
}

func (e *Engine) CreateCreditCard(ctx context.Context, cc core.CreditCard) (core.CreditCard, error) {
	if err := cc.Validate(); err != nil {
		return core.CreditCard{}, err
	}
	saved, err := e.store.InsertCreditCard(ctx, cc)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("insert credit card: %w", err)
	}
	e.state.AddCreditCard(saved)
	return saved, nil
}

func (e *Engine) UpdateCreditCard(ctx context.Context, cc core.CreditCard) error {
	if err := cc.Validate(); err != nil {
		return err
	}
	if err := e.store.UpdateCreditCard(ctx, cc); err != nil {
		return fmt.Errorf("update credit card: %w", err)
	}
	e.state.UpdateCreditCard(cc)
	return nil
}

func (e *Engine) DeleteCreditCard(ctx context.Context, id int64) error {
	if err := e.store.DeleteCreditCard(ctx, id); err != nil {
		return fmt.Errorf("delete credit card: %w", err)
	}
	e.state.RemoveCreditCard(id)
	return nil
}

func (e *Engine) CreateCashMovement(ctx context.Context, userID int64, m core.CashMovement) (core.CashMovement, error) {
	if m.UserID == 0 {
		m.UserID = userID
	}
	if err := m.Validate(); err != nil {
		return core.CashMovement{}, err
	}
	saved, err := e.store.InsertCashMovement(ctx, m)
	if err != nil {
		return core.CashMovement{}, fmt.Errorf("insert cash movement: %w", err)
	}
	e.state.AddCashMovement(saved)
	return saved, nil
}

func (e *Engine) DeleteCashMovement(ctx context.Context, id int64) error {
	if err := e.store.DeleteCashMovement(ctx, id); err != nil {
		return fmt.Errorf("delete cash movement: %w", err)
	}
	e.state.RemoveCashMovement(id)
	return nil
}

func (e *Engine) CreateInvestment(ctx context.Context, userID int64, inv core.Investment) (core.Investment, error) {
	if inv.UserID == 0 {
		inv.UserID = userID
	}
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	saved, err := e.store.InsertInvestment(ctx, inv)
	if err != nil {
		return core.Investment{}, fmt.Errorf("insert investment: %w", err)
	}
	e.state.AddInvestment(saved)
	return saved, nil
}

func (e *Engine) DeleteInvestment(ctx context.Context, id int64) error {
	if err := e.store.DeleteInvestment(ctx, id); err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	e.state.RemoveInvestment(id)
	return nil
}

func (e *Engine) Settings() core.Settings {
	return e.state.Snapshot().Settings
}

func (e *Engine) SaveSettings(ctx context.Context, s core.Settings) error {
	if err := s.MonthlyYield.Validate(); err != nil {
		return err
	}
	if err := e.store.SaveSettings(ctx, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	e.state.SetSettings(s)
	return nil
}

func (e *Engine) publish(ctx context.Context, msg *amqp.SettlementMessage) {
	if e.events == nil {
		return
	}
	if err := e.events.PublishSettlement(ctx, msg); err != nil {
		// Settlement already committed; the event is advisory.
		slog.ErrorContext(ctx, "Failed to publish settlement event",
			"kind", msg.Kind, "entity_id", msg.EntityID, "error", err)
	}
}
