// Package state owns the single mutable aggregate of loaded entities.
//
// The container is the only writer-visible state in the process: storage
// populates it wholesale on refresh, the reconciliation engine mutates it
// through the closed command set below, and every reader works from a
// defensive snapshot copy.
package state

import (
	"sync"
	"time"

	"carteira/internal/core"
)

// Snapshot is a point-in-time copy of the full entity set plus the
// selected month filter. Slices are owned by the caller.
type Snapshot struct {
	Users              []core.User
	Settings           core.Settings
	Expenses           []core.Expense
	FixedExpenses      []core.FixedExpense
	FixedIncomes       []core.FixedIncome
	FixedPayments      []core.FixedPayment
	FixedReceipts      []core.FixedReceipt
	CreditCards        []core.CreditCard
	CreditCardPayments []core.CreditCardPayment
	CashMovements      []core.CashMovement
	Investments        []core.Investment
	Filter             core.MonthFilter
}

// Container guards the aggregate behind a mutex. All mutation goes through
// the command methods; readers get copies, never shared slices.
type Container struct {
	mu      sync.RWMutex
	snap    Snapshot
	loading bool
}

func NewContainer() *Container {
	now := time.Now().UTC()
	return &Container{
		snap: Snapshot{
			Filter: core.MonthFilter{Month: now.Month(), Year: now.Year()},
		},
	}
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.copy()
}

// Replace swaps the whole entity set, keeping the current filter if the
// incoming snapshot does not carry one.
func (c *Container) Replace(s Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.Filter.Year == 0 {
		s.Filter = c.snap.Filter
	}
	c.snap = s.copy()
}

func (c *Container) SetFilter(f core.MonthFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Filter = f
}

func (c *Container) Filter() core.MonthFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Filter
}

func (c *Container) SetLoading(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = v
}

func (c *Container) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Container) SetSettings(s core.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Settings = s
}

func (c *Container) AddUser(u core.User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Users = append(c.snap.Users, u)
}

func (c *Container) RemoveUser(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Users = removeByID(c.snap.Users, id, func(u core.User) int64 { return u.ID })
}

func (c *Container) AddExpense(e core.Expense) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Expenses = append(c.snap.Expenses, e)
}

func (c *Container) RemoveExpense(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Expenses = removeByID(c.snap.Expenses, id, func(e core.Expense) int64 { return e.ID })
}

func (c *Container) AddFixedExpense(fe core.FixedExpense) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedExpenses = append(c.snap.FixedExpenses, fe)
}

func (c *Container) UpdateFixedExpense(fe core.FixedExpense) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedExpenses = updateByID(c.snap.FixedExpenses, fe, func(v core.FixedExpense) int64 { return v.ID })
}

func (c *Container) RemoveFixedExpense(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedExpenses = removeByID(c.snap.FixedExpenses, id, func(v core.FixedExpense) int64 { return v.ID })
}

func (c *Container) AddFixedIncome(fi core.FixedIncome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedIncomes = append(c.snap.FixedIncomes, fi)
}

func (c *Container) UpdateFixedIncome(fi core.FixedIncome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedIncomes = updateByID(c.snap.FixedIncomes, fi, func(v core.FixedIncome) int64 { return v.ID })
}

func (c *Container) RemoveFixedIncome(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedIncomes = removeByID(c.snap.FixedIncomes, id, func(v core.FixedIncome) int64 { return v.ID })
}

func (c *Container) AddFixedPayment(p core.FixedPayment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedPayments = append(c.snap.FixedPayments, p)
}

func (c *Container) RemoveFixedPayment(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedPayments = removeByID(c.snap.FixedPayments, id, func(p core.FixedPayment) int64 { return p.ID })
}

func (c *Container) AddFixedReceipt(r core.FixedReceipt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedReceipts = append(c.snap.FixedReceipts, r)
}

func (c *Container) RemoveFixedReceipt(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.FixedReceipts = removeByID(c.snap.FixedReceipts, id, func(r core.FixedReceipt) int64 { return r.ID })
}

func (c *Container) AddCreditCard(cc core.CreditCard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.CreditCards = append(c.snap.CreditCards, cc)
}

func (c *Container) UpdateCreditCard(cc core.CreditCard) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.CreditCards = updateByID(c.snap.CreditCards, cc, func(v core.CreditCard) int64 { return v.ID })
}

func (c *Container) RemoveCreditCard(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.CreditCards = removeByID(c.snap.CreditCards, id, func(v core.CreditCard) int64 { return v.ID })
}

func (c *Container) AddCreditCardPayment(p core.CreditCardPayment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.CreditCardPayments = append(c.snap.CreditCardPayments, p)
}

func (c *Container) RemoveCreditCardPayment(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.CreditCardPayments = removeByID(c.snap.CreditCardPayments, id, func(p core.CreditCardPayment) int64 { return p.ID })
}

func (c *Container) AddCashMovement(m core.CashMovement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.CashMovements = append(c.snap.CashMovements, m)
}

func (c *Container) RemoveCashMovement(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.CashMovements = removeByID(c.snap.CashMovements, id, func(m core.CashMovement) int64 { return m.ID })
}

func (c *Container) AddInvestment(i core.Investment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Investments = append(c.snap.Investments, i)
}

func (c *Container) RemoveInvestment(id int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap.Investments = removeByID(c.snap.Investments, id, func(i core.Investment) int64 { return i.ID })
}

func (s Snapshot) copy() Snapshot {
	out := s
	out.Users = copySlice(s.Users)
	out.Expenses = copySlice(s.Expenses)
	out.FixedExpenses = copySlice(s.FixedExpenses)
	out.FixedIncomes = copySlice(s.FixedIncomes)
	out.FixedPayments = copySlice(s.FixedPayments)
	out.FixedReceipts = copySlice(s.FixedReceipts)
	out.CreditCards = copySlice(s.CreditCards)
	out.CreditCardPayments = copySlice(s.CreditCardPayments)
	out.CashMovements = copySlice(s.CashMovements)
	out.Investments = copySlice(s.Investments)
	return out
}

func copySlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func removeByID[T any](in []T, id int64, idOf func(T) int64) []T {
	out := in[:0]
	for _, v := range in {
		if idOf(v) != id {
			out = append(out, v)
		}
	}
	return out
}

func updateByID[T any](in []T, item T, idOf func(T) int64) []T {
	for i, v := range in {
		if idOf(v) == idOf(item) {
			in[i] = item
			return in
		}
	}
	return append(in, item)
}
