package services

import (
	"context"
	"errors"
	"time"

	"carteira/internal/amqp"
	"carteira/internal/core"
	"carteira/internal/state"
)

// fakeStore is an in-memory Store for engine tests. It enforces the same
// one-settlement-per-month uniqueness the SQLite schema does.
type fakeStore struct {
	nextID int64

	expenses      []core.Expense
	payments      []core.FixedPayment
	receipts      []core.FixedReceipt
	cardPayments  []core.CreditCardPayment
	settings      core.Settings
	failSettles   bool
	loadSnapshot  state.Snapshot
	loadErr       error
	settleCalls   int
	reverseCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) LoadAll(ctx context.Context) (state.Snapshot, error) {
	if f.loadErr != nil {
		return state.Snapshot{}, f.loadErr
	}
	return f.loadSnapshot, nil
}

func (f *fakeStore) InsertUser(ctx context.Context, u core.User) (core.User, error) {
	u.ID = f.id()
	return u, nil
}
func (f *fakeStore) DeleteUser(ctx context.Context, id int64) error { return nil }

func (f *fakeStore) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.ID = f.id()
	f.expenses = append(f.expenses, e)
	return e, nil
}

func (f *fakeStore) DeleteExpense(ctx context.Context, id int64) error {
	for i, e := range f.expenses {
		if e.ID == id {
			f.expenses = append(f.expenses[:i], f.expenses[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeStore) InsertFixedExpense(ctx context.Context, fe core.FixedExpense) (core.FixedExpense, error) {
	fe.ID = f.id()
	return fe, nil
}
func (f *fakeStore) UpdateFixedExpense(ctx context.Context, fe core.FixedExpense) error { return nil }
func (f *fakeStore) DeleteFixedExpense(ctx context.Context, id int64) error             { return nil }

func (f *fakeStore) InsertFixedIncome(ctx context.Context, fi core.FixedIncome) (core.FixedIncome, error) {
	fi.ID = f.id()
	return fi, nil
}
func (f *fakeStore) UpdateFixedIncome(ctx context.Context, fi core.FixedIncome) error { return nil }
func (f *fakeStore) DeleteFixedIncome(ctx context.Context, id int64) error            { return nil }

func (f *fakeStore) InsertCreditCard(ctx context.Context, cc core.CreditCard) (core.CreditCard, error) {
	cc.ID = f.id()
	return cc, nil
}
func (f *fakeStore) UpdateCreditCard(ctx context.Context, cc core.CreditCard) error { return nil }
func (f *fakeStore) DeleteCreditCard(ctx context.Context, id int64) error           { return nil }

func (f *fakeStore) InsertCashMovement(ctx context.Context, m core.CashMovement) (core.CashMovement, error) {
	m.ID = f.id()
	return m, nil
}
func (f *fakeStore) DeleteCashMovement(ctx context.Context, id int64) error { return nil }

func (f *fakeStore) InsertInvestment(ctx context.Context, i core.Investment) (core.Investment, error) {
	i.ID = f.id()
	return i, nil
}
func (f *fakeStore) DeleteInvestment(ctx context.Context, id int64) error { return nil }

func (f *fakeStore) SaveSettings(ctx context.Context, s core.Settings) error {
	f.settings = s
	return nil
}

func (f *fakeStore) SettleFixedExpense(ctx context.Context, p core.FixedPayment, generated *core.Expense) (core.FixedPayment, *core.Expense, error) {
	f.settleCalls++
	if f.failSettles {
		return core.FixedPayment{}, nil, errors.New("store down")
	}
	for _, existing := range f.payments {
		if existing.FixedExpenseID == p.FixedExpenseID && existing.Month == p.Month && existing.Year == p.Year {
			return core.FixedPayment{}, nil, core.ErrAlreadySettled
		}
	}

	var savedExpense *core.Expense
	if generated != nil {
		e := *generated
		e.ID = f.id()
		f.expenses = append(f.expenses, e)
		savedExpense = &e
		p.GeneratedExpenseID = e.ID
	}
	p.ID = f.id()
	f.payments = append(f.payments, p)
	return p, savedExpense, nil
}

func (f *fakeStore) ReverseFixedExpense(ctx context.Context, paymentID, generatedExpenseID int64) error {
	f.reverseCalls++
	for i, p := range f.payments {
		if p.ID == paymentID {
			f.payments = append(f.payments[:i], f.payments[i+1:]...)
			if generatedExpenseID != 0 {
				_ = f.DeleteExpense(ctx, generatedExpenseID)
			}
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeStore) SettleFixedIncome(ctx context.Context, r core.FixedReceipt) (core.FixedReceipt, error) {
	for _, existing := range f.receipts {
		if existing.FixedIncomeID == r.FixedIncomeID && existing.Month == r.Month && existing.Year == r.Year {
			return core.FixedReceipt{}, core.ErrAlreadySettled
		}
	}
	r.ID = f.id()
	f.receipts = append(f.receipts, r)
	return r, nil
}

func (f *fakeStore) ReverseFixedIncome(ctx context.Context, receiptID int64) error {
	for i, r := range f.receipts {
		if r.ID == receiptID {
			f.receipts = append(f.receipts[:i], f.receipts[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (f *fakeStore) SettleCreditCard(ctx context.Context, p core.CreditCardPayment) (core.CreditCardPayment, error) {
	for _, existing := range f.cardPayments {
		if existing.CreditCardID == p.CreditCardID && existing.Month == p.Month && existing.Year == p.Year {
			return core.CreditCardPayment{}, core.ErrAlreadySettled
		}
	}
	p.ID = f.id()
	f.cardPayments = append(f.cardPayments, p)
	return p, nil
}

func (f *fakeStore) ReverseCreditCard(ctx context.Context, paymentID int64) error {
	for i, p := range f.cardPayments {
		if p.ID == paymentID {
			f.cardPayments = append(f.cardPayments[:i], f.cardPayments[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

// recordingEvents captures published settlement messages.
type recordingEvents struct {
	messages []string
}

func (r *recordingEvents) PublishSettlement(ctx context.Context, msg *amqp.SettlementMessage) error {
	r.messages = append(r.messages, msg.Kind)
	return nil
}

// newTestEngine builds an engine over a fake store pre-seeded with the
// given snapshot.
func newTestEngine(snap state.Snapshot) (*Engine, *fakeStore) {
	store := newFakeStore()
	store.nextID = 1000 // keep generated ids clear of fixture ids
	container := state.NewContainer()
	container.Replace(snap)
	e := NewEngine(store, container, nil)
	e.now = func() time.Time { return time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC) }
	return e, store
}
