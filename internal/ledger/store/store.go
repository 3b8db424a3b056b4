// Package store provides the PostgreSQL implementation of ledger.Repository.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/ledger"
)

const pgUniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectExpenseColumns = `
	e.id, e.group_id, e.amount, e.category, e.note, e.date, e.paid_by, e.status, e.created_at
`

func scanExpense(s scanner) (*ledger.Expense, error) {
	var e ledger.Expense

	var statusStr string

	if err := s.Scan(
		&e.ID, &e.GroupID, &e.Amount, &e.Category, &e.Note, &e.Date,
		&e.PaidBy, &statusStr, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.Status = ledger.Status(statusStr)

	return &e, nil
}

func (s *Store) CreateExpense(ctx context.Context, e *ledger.Expense) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO expenses (id, group_id, amount, category, note, date, paid_by, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err = tx.QueryRowContext(ctx, query,
		e.ID, e.GroupID, e.Amount, e.Category, e.Note, e.Date, e.PaidBy, e.Status,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting expense: %w", err)
	}

	splitQuery := `
		INSERT INTO expense_splits (expense_id, username, split_amount)
		VALUES ($1, $2, $3)
	`

	for i := range e.Splits {
		e.Splits[i].ExpenseID = e.ID

		if _, err := tx.ExecContext(ctx, splitQuery, e.ID, e.Splits[i].Owner, e.Splits[i].Amount); err != nil {
			return fmt.Errorf("inserting split: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing expense: %w", err)
	}

	return nil
}

func (s *Store) GroupExpenses(ctx context.Context, groupID uuid.UUID) ([]*ledger.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + `
		FROM expenses e
		WHERE e.group_id = $1
		ORDER BY e.date DESC, e.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("listing group expenses: %w", err)
	}
	defer rows.Close()

	expenses, byID, err := collectExpenses(rows)
	if err != nil {
		return nil, err
	}

	if len(expenses) == 0 {
		return nil, nil
	}

	splitQuery := `
		SELECT s.expense_id, s.username, s.split_amount
		FROM expense_splits s
		JOIN expenses e ON e.id = s.expense_id
		WHERE e.group_id = $1
	`

	if err := attachSplits(ctx, s.db, splitQuery, groupID, byID); err != nil {
		return nil, err
	}

	return expenses, nil
}

func (s *Store) RecentExpenses(ctx context.Context, username string, limit int) ([]*ledger.Expense, error) {
	query := `
		SELECT e.id, e.group_id, e.amount, e.category, e.note, e.date, e.paid_by, e.status, e.created_at, g.name
		FROM expenses e
		JOIN groups g ON g.id = e.group_id
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.username = $1
		ORDER BY e.date DESC, e.created_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("listing recent expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*ledger.Expense

	for rows.Next() {
		var e ledger.Expense

		var statusStr string

		if err := rows.Scan(
			&e.ID, &e.GroupID, &e.Amount, &e.Category, &e.Note, &e.Date,
			&e.PaidBy, &statusStr, &e.CreatedAt, &e.GroupName,
		); err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		e.Status = ledger.Status(statusStr)
		expenses = append(expenses, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expenses: %w", err)
	}

	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	// Splits and payments go with it via ON DELETE CASCADE.
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	if affected == 0 {
		return ledger.ErrExpenseNotFound
	}

	return nil
}

func (s *Store) PendingSplits(ctx context.Context, username string) ([]ledger.PendingSplit, error) {
	query := `
		SELECT e.id, e.category, e.date, e.paid_by, e.amount, s.split_amount, g.id, g.name
		FROM expense_splits s
		JOIN expenses e ON e.id = s.expense_id
		JOIN groups g ON g.id = e.group_id
		LEFT JOIN payments p ON p.expense_id = s.expense_id AND p.username = s.username
		WHERE s.username = $1
		  AND e.paid_by <> $1
		  AND p.id IS NULL
		ORDER BY e.date DESC, e.created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("listing pending splits: %w", err)
	}
	defer rows.Close()

	var pending []ledger.PendingSplit

	for rows.Next() {
		var p ledger.PendingSplit

		if err := rows.Scan(
			&p.ExpenseID, &p.Title, &p.Date, &p.PaidBy, &p.TotalAmount,
			&p.AmountOwed, &p.GroupID, &p.GroupName,
		); err != nil {
			return nil, fmt.Errorf("scanning pending split: %w", err)
		}

		pending = append(pending, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pending splits: %w", err)
	}

	return pending, nil
}

func (s *Store) Payments(ctx context.Context, username string, limit int) ([]ledger.PaymentRecord, error) {
	query := `
		SELECT p.id, p.amount, p.paid_at, p.payment_method, e.category, g.name
		FROM payments p
		JOIN expenses e ON e.id = p.expense_id
		JOIN groups g ON g.id = e.group_id
		WHERE p.username = $1
		ORDER BY p.paid_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, username, limit)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var records []ledger.PaymentRecord

	for rows.Next() {
		var r ledger.PaymentRecord

		if err := rows.Scan(&r.ID, &r.Amount, &r.PaidAt, &r.Method, &r.ExpenseTitle, &r.GroupName); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payments: %w", err)
	}

	return records, nil
}

func (s *Store) Overview(ctx context.Context, username string) (*ledger.Overview, error) {
	ov := &ledger.Overview{TotalSpend: decimal.Zero}

	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(e.amount), 0)
		FROM expenses e
		JOIN group_members gm ON gm.group_id = e.group_id
		WHERE gm.username = $1
	`, username).Scan(&ov.TotalSpend)
	if err != nil {
		return nil, fmt.Errorf("summing total spend: %w", err)
	}

	byGroup, err := s.spendPairs(ctx, `
		SELECT g.name, COALESCE(SUM(e.amount), 0) AS total
		FROM expenses e
		JOIN groups g ON g.id = e.group_id
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.username = $1
		GROUP BY g.name
		ORDER BY total DESC
	`, username)
	if err != nil {
		return nil, fmt.Errorf("summing spend by group: %w", err)
	}

	for _, p := range byGroup {
		ov.ByGroup = append(ov.ByGroup, ledger.GroupSpend{Group: p.key, Total: p.total})
	}

	byPayer, err := s.spendPairs(ctx, `
		SELECT e.paid_by, COALESCE(SUM(e.amount), 0) AS total
		FROM expenses e
		JOIN group_members gm ON gm.group_id = e.group_id
		WHERE gm.username = $1
		GROUP BY e.paid_by
		ORDER BY total DESC
	`, username)
	if err != nil {
		return nil, fmt.Errorf("summing spend by payer: %w", err)
	}

	for _, p := range byPayer {
		ov.ByPayer = append(ov.ByPayer, ledger.PayerSpend{Payer: p.key, Total: p.total})
	}

	monthly, err := s.spendPairs(ctx, `
		SELECT to_char(e.date, 'YYYY-MM') AS ym, COALESCE(SUM(e.amount), 0) AS total
		FROM expenses e
		JOIN group_members gm ON gm.group_id = e.group_id
		WHERE gm.username = $1
		GROUP BY ym
		ORDER BY ym DESC
		LIMIT 6
	`, username)
	if err != nil {
		return nil, fmt.Errorf("summing monthly spend: %w", err)
	}

	// Oldest month first for charting.
	for i := len(monthly) - 1; i >= 0; i-- {
		ov.Monthly = append(ov.Monthly, ledger.MonthlySpend{Month: monthly[i].key, Total: monthly[i].total})
	}

	return ov, nil
}

type spendPair struct {
	key   string
	total decimal.Decimal
}

func (s *Store) spendPairs(ctx context.Context, query, username string) ([]spendPair, error) {
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs []spendPair

	for rows.Next() {
		var p spendPair
		if err := rows.Scan(&p.key, &p.total); err != nil {
			return nil, err
		}

		pairs = append(pairs, p)
	}

	return pairs, rows.Err()
}

type paymentTx struct {
	tx *sql.Tx
}

func (s *Store) BeginPayment(ctx context.Context) (ledger.PaymentTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning payment tx: %w", err)
	}

	return &paymentTx{tx: tx}, nil
}

func (ptx *paymentTx) Commit() error   { return ptx.tx.Commit() }
func (ptx *paymentTx) Rollback() error { return ptx.tx.Rollback() }

func (ptx *paymentTx) SplitAmount(ctx context.Context, expenseID uuid.UUID, username string) (decimal.Decimal, error) {
	var amount decimal.Decimal

	err := ptx.tx.QueryRowContext(ctx,
		`SELECT split_amount FROM expense_splits WHERE expense_id = $1 AND username = $2`,
		expenseID, username,
	).Scan(&amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, ledger.ErrSplitNotFound
		}

		return decimal.Zero, fmt.Errorf("getting split amount: %w", err)
	}

	return amount, nil
}

func (ptx *paymentTx) InsertPayment(ctx context.Context, p *ledger.Payment) error {
	query := `
		INSERT INTO payments (expense_id, username, amount, payment_method)
		VALUES ($1, $2, $3, $4)
		RETURNING id, paid_at
	`

	err := ptx.tx.QueryRowContext(ctx, query, p.ExpenseID, p.Owner, p.Amount, p.Method).
		Scan(&p.ID, &p.PaidAt)
	if err != nil {
		// The unique constraint on (expense_id, username) is the authoritative
		// duplicate check; concurrent inserts both passing a prior read still
		// resolve to exactly one payment row.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ledger.ErrAlreadyPaid
		}

		return fmt.Errorf("inserting payment: %w", err)
	}

	return nil
}

func (ptx *paymentTx) CountSplitOwners(ctx context.Context, expenseID uuid.UUID) (int, error) {
	var count int

	err := ptx.tx.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT username) FROM expense_splits WHERE expense_id = $1`,
		expenseID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (ptx *paymentTx) CountPaidOwners(ctx context.Context, expenseID uuid.UUID) (int, error) {
	var count int

	err := ptx.tx.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT username) FROM payments WHERE expense_id = $1`,
		expenseID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (ptx *paymentTx) UpdateStatus(ctx context.Context, expenseID uuid.UUID, next ledger.Status, expected ...ledger.Status) error {
	query := `UPDATE expenses SET status = $1 WHERE id = $2`
	args := []any{next, expenseID}

	if len(expected) > 0 {
		placeholders := make([]string, len(expected))
		for i, st := range expected {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+1)
			args = append(args, st)
		}

		query += " AND status IN (" + strings.Join(placeholders, ", ") + ")"
	}

	if _, err := ptx.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	return nil
}

func collectExpenses(rows *sql.Rows) ([]*ledger.Expense, map[uuid.UUID]*ledger.Expense, error) {
	var expenses []*ledger.Expense

	byID := make(map[uuid.UUID]*ledger.Expense)

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
		byID[e.ID] = e
	}

	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating expenses: %w", err)
	}

	return expenses, byID, nil
}

func attachSplits(ctx context.Context, db *sql.DB, query string, arg any, byID map[uuid.UUID]*ledger.Expense) error {
	rows, err := db.QueryContext(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("listing splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var split ledger.Split
		if err := rows.Scan(&split.ExpenseID, &split.Owner, &split.Amount); err != nil {
			return fmt.Errorf("scanning split: %w", err)
		}

		if e, ok := byID[split.ExpenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating splits: %w", err)
	}

	return nil
}
