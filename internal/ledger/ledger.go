// Package ledger implements the balance and settlement engine: split
// allocation at expense creation, on-demand balance aggregation, greedy
// settlement planning, and the payment ledger with derived expense status.
package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the derived settlement state of an expense. It only ever moves
// forward: pending -> partial -> paid.
type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

// Expense is a shared cost paid by one member of a group. Splits carry the
// amounts the other members owe the payer; the payer never has a split row
// for their own expense.
type Expense struct {
	ID        uuid.UUID
	GroupID   uuid.UUID
	GroupName string // populated on cross-group reads
	Amount    decimal.Decimal
	Category  string
	Note      string
	Date      time.Time
	PaidBy    string
	Status    Status
	Splits    []Split
	CreatedAt time.Time
}

// Split is the amount one member owes the payer for a specific expense.
type Split struct {
	ExpenseID uuid.UUID
	Owner     string
	Amount    decimal.Decimal
}

// Payment records that a split owner settled their split. At most one
// payment exists per (expense, owner) pair.
type Payment struct {
	ID        int64
	ExpenseID uuid.UUID
	Owner     string
	Amount    decimal.Decimal
	Method    string
	PaidAt    time.Time
}

// Balance maps each user to their net position within a scope: positive
// means the user should receive money, negative means the user owes.
// Users with no activity are absent.
type Balance map[string]decimal.Decimal

// Transfer is a suggested settlement action.
type Transfer struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// PendingSplit is an unpaid split owned by a user, enriched for display.
type PendingSplit struct {
	ExpenseID   uuid.UUID
	Title       string
	Date        time.Time
	PaidBy      string
	TotalAmount decimal.Decimal
	AmountOwed  decimal.Decimal
	GroupID     uuid.UUID
	GroupName   string
}

// PaymentRecord is one entry of a user's payment history.
type PaymentRecord struct {
	ID           int64
	Amount       decimal.Decimal
	PaidAt       time.Time
	Method       string
	ExpenseTitle string
	GroupName    string
}

// GroupRef identifies a group a user belongs to.
type GroupRef struct {
	ID   uuid.UUID
	Name string
}

// SettlementPlan is the list of transfers that settles one group.
type SettlementPlan struct {
	GroupID   uuid.UUID
	GroupName string
	Transfers []Transfer
}

// GroupSpend is the total spend attributed to one group.
type GroupSpend struct {
	Group string
	Total decimal.Decimal
}

// PayerSpend is the total spend fronted by one payer.
type PayerSpend struct {
	Payer string
	Total decimal.Decimal
}

// MonthlySpend is the total spend for one calendar month (YYYY-MM).
type MonthlySpend struct {
	Month string
	Total decimal.Decimal
}

// Overview summarizes a user's spending across all their groups.
type Overview struct {
	TotalSpend decimal.Decimal
	ByGroup    []GroupSpend
	ByPayer    []PayerSpend
	Monthly    []MonthlySpend
}
