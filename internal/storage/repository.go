// Package storage is the persistence boundary: a SQLite repository that
// maps snake_case rows to the core entity model. Date-only columns are
// stored as YYYY-MM-DD text and parsed in UTC.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"carteira/internal/core"
	"carteira/internal/state"

	_ "modernc.org/sqlite"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = time.RFC3339
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadAll bulk-reads every table into a snapshot. Tables load in parallel;
// any failure aborts the whole load with no partial result.
func (r *SQLiteRepository) LoadAll(ctx context.Context) (state.Snapshot, error) {
	var snap state.Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { snap.Users, err = r.listUsers(gctx); return })
	g.Go(func() (err error) { snap.Settings, err = r.GetSettings(gctx); return })
	g.Go(func() (err error) { snap.Expenses, err = r.listExpenses(gctx); return })
	g.Go(func() (err error) { snap.FixedExpenses, err = r.listFixedExpenses(gctx); return })
	g.Go(func() (err error) { snap.FixedIncomes, err = r.listFixedIncomes(gctx); return })
	g.Go(func() (err error) { snap.FixedPayments, err = r.listFixedPayments(gctx); return })
	g.Go(func() (err error) { snap.FixedReceipts, err = r.listFixedReceipts(gctx); return })
	g.Go(func() (err error) { snap.CreditCards, err = r.listCreditCards(gctx); return })
	g.Go(func() (err error) { snap.CreditCardPayments, err = r.listCreditCardPayments(gctx); return })
	g.Go(func() (err error) { snap.CashMovements, err = r.listCashMovements(gctx); return })
	g.Go(func() (err error) { snap.Investments, err = r.listInvestments(gctx); return })

	if err := g.Wait(); err != nil {
		return state.Snapshot{}, err
	}

	slog.InfoContext(ctx, "Entities loaded from SQLite",
		"expenses", len(snap.Expenses),
		"fixed_expenses", len(snap.FixedExpenses),
		"fixed_payments", len(snap.FixedPayments),
		"credit_cards", len(snap.CreditCards))
	return snap, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func formatDate(d core.Date) string {
	return d.Format(dateLayout)
}

func parseDate(s string) (core.Date, error) {
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return core.Date{Time: t}, nil
}

func parseNullDate(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	return parseDate(s.String)
}

func nullDate(d core.Date) any {
	if d.IsZero() {
		return nil
	}
	return formatDate(d)
}

func nullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func (r *SQLiteRepository) listUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, email FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (name, email) VALUES (?, ?)`, u.Name, u.Email)
	if err != nil {
		return core.User{}, fmt.Errorf("insert user: %w", err)
	}
	u.ID, err = res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user id: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "users", id)
}

func (r *SQLiteRepository) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func scanExpense(scan func(...any) error) (core.Expense, error) {
	var (
		e         core.Expense
		date      string
		cardID    sql.NullInt64
		userID    sql.NullInt64
		createdAt string
	)
	if err := scan(&e.ID, &e.Description, &e.Amount.Cents, &date, (*string)(&e.Type),
		&e.Category, (*string)(&e.Method), &cardID, &userID,
		&e.Installments.Current, &e.Installments.Total, &createdAt); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}
	d, err := parseDate(date)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = d
	e.CreditCardID = cardID.Int64
	e.UserID = userID.Int64
	if t, err := parseTime(createdAt); err == nil {
		e.CreatedAt = t
	}
	return e, nil
}

const expenseColumns = `id, description, amount_cents, expense_date, type, category,
	payment_method, credit_card_id, user_id, installment_current, installment_total, created_at`

func (r *SQLiteRepository) listExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY expense_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func insertExpenseTx(ctx context.Context, tx *sql.Tx, e core.Expense) (core.Expense, error) {
	now := time.Now().UTC().Format(timeLayout)
	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (description, amount_cents, expense_date, type, category,
			payment_method, credit_card_id, user_id, installment_current, installment_total, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Description, e.Amount.Cents, formatDate(e.Date), string(e.Type), e.Category,
		string(e.Method), nullID(e.CreditCardID), nullID(e.UserID),
		e.Installments.Current, e.Installments.Total, now)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense id: %w", err)
	}
	e.CreatedAt, _ = parseTime(now)
	return e, nil
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Expense{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	saved, err := insertExpenseTx(ctx, tx, e)
	if err != nil {
		return core.Expense{}, err
	}
	if err := tx.Commit(); err != nil {
		return core.Expense{}, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "expenses", id)
}

func (r *SQLiteRepository) listFixedExpenses(ctx context.Context) ([]core.FixedExpense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, amount_cents, due_day, effective_from, effective_until, credit_card_id
		FROM fixed_expenses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fixed expenses: %w", err)
	}
	defer rows.Close()

	var out []core.FixedExpense
	for rows.Next() {
		var (
			fe     core.FixedExpense
			from   string
			until  sql.NullString
			cardID sql.NullInt64
		)
		if err := rows.Scan(&fe.ID, &fe.Name, &fe.Category, &fe.Amount.Cents,
			&fe.DueDay, &from, &until, &cardID); err != nil {
			return nil, fmt.Errorf("scan fixed expense: %w", err)
		}
		if fe.EffectiveFrom, err = parseDate(from); err != nil {
			return nil, err
		}
		if fe.EffectiveUntil, err = parseNullDate(until); err != nil {
			return nil, err
		}
		fe.CreditCardID = cardID.Int64
		out = append(out, fe)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertFixedExpense(ctx context.Context, fe core.FixedExpense) (core.FixedExpense, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO fixed_expenses (name, category, amount_cents, due_day, effective_from, effective_until, credit_card_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		fe.Name, fe.Category, fe.Amount.Cents, fe.DueDay,
		formatDate(fe.EffectiveFrom), nullDate(fe.EffectiveUntil), nullID(fe.CreditCardID))
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("insert fixed expense: %w", err)
	}
	fe.ID, err = res.LastInsertId()
	if err != nil {
		return core.FixedExpense{}, fmt.Errorf("fixed expense id: %w", err)
	}
	return fe, nil
}

func (r *SQLiteRepository) UpdateFixedExpense(ctx context.Context, fe core.FixedExpense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fixed_expenses
		SET name = ?, category = ?, amount_cents = ?, due_day = ?,
			effective_from = ?, effective_until = ?, credit_card_id = ?
		WHERE id = ?`,
		fe.Name, fe.Category, fe.Amount.Cents, fe.DueDay,
		formatDate(fe.EffectiveFrom), nullDate(fe.EffectiveUntil), nullID(fe.CreditCardID), fe.ID)
	if err != nil {
		return fmt.Errorf("update fixed expense: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteFixedExpense(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "fixed_expenses", id)
}

func (r *SQLiteRepository) listFixedIncomes(ctx context.Context) ([]core.FixedIncome, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, amount_cents, receive_day, effective_from, effective_until
		FROM fixed_incomes ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list fixed incomes: %w", err)
	}
	defer rows.Close()

	var out []core.FixedIncome
	for rows.Next() {
		var (
			fi    core.FixedIncome
			from  string
			until sql.NullString
		)
		if err := rows.Scan(&fi.ID, &fi.Description, &fi.Amount.Cents,
			&fi.ReceiveDay, &from, &until); err != nil {
			return nil, fmt.Errorf("scan fixed income: %w", err)
		}
		if fi.EffectiveFrom, err = parseDate(from); err != nil {
			return nil, err
		}
		if fi.EffectiveUntil, err = parseNullDate(until); err != nil {
			return nil, err
		}
		out = append(out, fi)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertFixedIncome(ctx context.Context, fi core.FixedIncome) (core.FixedIncome, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO fixed_incomes (description, amount_cents, receive_day, effective_from, effective_until)
		VALUES (?, ?, ?, ?, ?)`,
		fi.Description, fi.Amount.Cents, fi.ReceiveDay,
		formatDate(fi.EffectiveFrom), nullDate(fi.EffectiveUntil))
	if err != nil {
		return core.FixedIncome{}, fmt.Errorf("insert fixed income: %w", err)
	}
	fi.ID, err = res.LastInsertId()
	if err != nil {
		return core.FixedIncome{}, fmt.Errorf("fixed income id: %w", err)
	}
	return fi, nil
}

func (r *SQLiteRepository) UpdateFixedIncome(ctx context.Context, fi core.FixedIncome) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE fixed_incomes
		SET description = ?, amount_cents = ?, receive_day = ?, effective_from = ?, effective_until = ?
		WHERE id = ?`,
		fi.Description, fi.Amount.Cents, fi.ReceiveDay,
		formatDate(fi.EffectiveFrom), nullDate(fi.EffectiveUntil), fi.ID)
	if err != nil {
		return fmt.Errorf("update fixed income: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteFixedIncome(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "fixed_incomes", id)
}

func (r *SQLiteRepository) listCreditCards(ctx context.Context) ([]core.CreditCard, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, limit_cents, closing_day, due_day FROM credit_cards ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list credit cards: %w", err)
	}
	defer rows.Close()

	var out []core.CreditCard
	for rows.Next() {
		var cc core.CreditCard
		if err := rows.Scan(&cc.ID, &cc.Name, &cc.Limit.Cents, &cc.ClosingDay, &cc.DueDay); err != nil {
			return nil, fmt.Errorf("scan credit card: %w", err)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertCreditCard(ctx context.Context, cc core.CreditCard) (core.CreditCard, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO credit_cards (name, limit_cents, closing_day, due_day) VALUES (?, ?, ?, ?)`,
		cc.Name, cc.Limit.Cents, cc.ClosingDay, cc.DueDay)
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("insert credit card: %w", err)
	}
	cc.ID, err = res.LastInsertId()
	if err != nil {
		return core.CreditCard{}, fmt.Errorf("credit card id: %w", err)
	}
	return cc, nil
}

func (r *SQLiteRepository) UpdateCreditCard(ctx context.Context, cc core.CreditCard) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE credit_cards SET name = ?, limit_cents = ?, closing_day = ?, due_day = ? WHERE id = ?`,
		cc.Name, cc.Limit.Cents, cc.ClosingDay, cc.DueDay, cc.ID)
	if err != nil {
		return fmt.Errorf("update credit card: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteCreditCard(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "credit_cards", id)
}

func (r *SQLiteRepository) listCashMovements(ctx context.Context) ([]core.CashMovement, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, type, description, amount_cents, user_id, movement_date
		FROM cash_movements ORDER BY movement_date, id`)
	if err != nil {
		return nil, fmt.Errorf("list cash movements: %w", err)
	}
	defer rows.Close()

	var out []core.CashMovement
	for rows.Next() {
		var (
			m      core.CashMovement
			userID sql.NullInt64
			date   string
		)
		if err := rows.Scan(&m.ID, (*string)(&m.Type), &m.Description, &m.Amount.Cents, &userID, &date); err != nil {
			return nil, fmt.Errorf("scan cash movement: %w", err)
		}
		if m.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		m.UserID = userID.Int64
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertCashMovement(ctx context.Context, m core.CashMovement) (core.CashMovement, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO cash_movements (type, description, amount_cents, user_id, movement_date)
		VALUES (?, ?, ?, ?, ?)`,
		string(m.Type), m.Description, m.Amount.Cents, nullID(m.UserID), formatDate(m.Date))
	if err != nil {
		return core.CashMovement{}, fmt.Errorf("insert cash movement: %w", err)
	}
	m.ID, err = res.LastInsertId()
	if err != nil {
		return core.CashMovement{}, fmt.Errorf("cash movement id: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) DeleteCashMovement(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "cash_movements", id)
}

func (r *SQLiteRepository) listInvestments(ctx context.Context) ([]core.Investment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, description, amount_cents, yield_rate_bps, invested_at, user_id
		FROM investments ORDER BY invested_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list investments: %w", err)
	}
	defer rows.Close()

	var out []core.Investment
	for rows.Next() {
		var (
			inv    core.Investment
			date   string
			userID sql.NullInt64
		)
		if err := rows.Scan(&inv.ID, &inv.Description, &inv.Amount.Cents,
			&inv.YieldRate.Bps, &date, &userID); err != nil {
			return nil, fmt.Errorf("scan investment: %w", err)
		}
		if inv.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		inv.UserID = userID.Int64
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO investments (description, amount_cents, yield_rate_bps, invested_at, user_id)
		VALUES (?, ?, ?, ?, ?)`,
		inv.Description, inv.Amount.Cents, inv.YieldRate.Bps, formatDate(inv.Date), nullID(inv.UserID))
	if err != nil {
		return core.Investment{}, fmt.Errorf("insert investment: %w", err)
	}
	inv.ID, err = res.LastInsertId()
	if err != nil {
		return core.Investment{}, fmt.Errorf("investment id: %w", err)
	}
	return inv, nil
}

func (r *SQLiteRepository) DeleteInvestment(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, "investments", id)
}

func (r *SQLiteRepository) GetSettings(ctx context.Context) (core.Settings, error) {
	var s core.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT monthly_yield_bps, initial_balance_cents, initial_investment_cents
		FROM settings WHERE id = 1`).
		Scan(&s.MonthlyYield.Bps, &s.InitialBalance.Cents, &s.InitialInvestment.Cents)
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE settings SET monthly_yield_bps = ?, initial_balance_cents = ?, initial_investment_cents = ?
		WHERE id = 1`,
		s.MonthlyYield.Bps, s.InitialBalance.Cents, s.InitialInvestment.Cents)
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// InsertAuditEvent records a consumed settlement event; used by the worker.
func (r *SQLiteRepository) InsertAuditEvent(ctx context.Context, kind string, entityID int64, month, year int, amountCents int64, occurredAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settlement_audit (kind, entity_id, month, year, amount_cents, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		kind, entityID, month, year, amountCents, occurredAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
