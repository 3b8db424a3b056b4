package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	// CreateExpense persists an expense together with its splits as a single
	// atomic unit; a reader must never observe the expense without them.
	CreateExpense(ctx context.Context, e *Expense) error
	GroupExpenses(ctx context.Context, groupID uuid.UUID) ([]*Expense, error)
	RecentExpenses(ctx context.Context, username string, limit int) ([]*Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error

	BeginPayment(ctx context.Context) (PaymentTx, error)

	PendingSplits(ctx context.Context, username string) ([]PendingSplit, error)
	Payments(ctx context.Context, username string, limit int) ([]PaymentRecord, error)
	Overview(ctx context.Context, username string) (*Overview, error)
}

// PaymentTx scopes a payment insert and the status recompute that follows it
// to one store transaction, so concurrent payments on sibling splits cannot
// under- or over-count each other.
type PaymentTx interface {
	// SplitAmount returns the split owed by username on the expense, or
	// ErrSplitNotFound if no such split exists.
	SplitAmount(ctx context.Context, expenseID uuid.UUID, username string) (decimal.Decimal, error)
	// InsertPayment fails with ErrAlreadyPaid if a payment already exists
	// for the (expense, owner) pair.
	InsertPayment(ctx context.Context, p *Payment) error
	CountSplitOwners(ctx context.Context, expenseID uuid.UUID) (int, error)
	CountPaidOwners(ctx context.Context, expenseID uuid.UUID) (int, error)
	// UpdateStatus moves the expense to next only if its current status is
	// one of expected. A no-op otherwise, which keeps status transitions
	// monotonic under racing writers.
	UpdateStatus(ctx context.Context, expenseID uuid.UUID, next Status, expected ...Status) error
	Commit() error
	Rollback() error
}

// Directory is the read-only view of groups the engine needs: membership for
// split allocation and group identity for settlement enrichment.
type Directory interface {
	// GroupMembers returns a group's member usernames in insertion order.
	// Unknown groups yield the directory's own not-found error.
	GroupMembers(ctx context.Context, groupID uuid.UUID) ([]string, error)
	GroupName(ctx context.Context, groupID uuid.UUID) (string, error)
	// UserGroups returns every group the user belongs to.
	UserGroups(ctx context.Context, username string) ([]GroupRef, error)
}

type Service struct {
	repo  Repository
	dir   Directory
	alloc Allocator
}

func NewService(repo Repository, dir Directory, alloc Allocator) *Service {
	return &Service{repo: repo, dir: dir, alloc: alloc}
}

type CreateExpenseParams struct {
	GroupID uuid.UUID
	Title   string
	Amount  decimal.Decimal
	Note    string
	Date    time.Time
	PaidBy  string
}

// CreateExpense validates the input, allocates splits over the group's
// members, and persists expense and splits atomically.
func (s *Service) CreateExpense(ctx context.Context, params CreateExpenseParams) (*Expense, error) {
	if params.GroupID == uuid.Nil {
		return nil, validationErr("group id required")
	}

	if params.Title == "" {
		return nil, validationErr("title required")
	}

	if params.PaidBy == "" {
		return nil, validationErr("payer required")
	}

	if !params.Amount.IsPositive() {
		return nil, validationErr("amount must be greater than 0")
	}

	members, err := s.dir.GroupMembers(ctx, params.GroupID)
	if err != nil {
		return nil, err
	}

	if !contains(members, params.PaidBy) {
		return nil, validationErr("payer %q is not a member of the group", params.PaidBy)
	}

	e := &Expense{
		GroupID:  params.GroupID,
		Amount:   params.Amount,
		Category: params.Title,
		Note:     params.Note,
		Date:     params.Date,
		PaidBy:   params.PaidBy,
		Status:   StatusPending,
		Splits:   s.alloc.Allocate(params.Amount, params.PaidBy, members),
	}

	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) GroupExpenses(ctx context.Context, groupID uuid.UUID) ([]*Expense, error) {
	return s.repo.GroupExpenses(ctx, groupID)
}

const recentExpenseLimit = 5

// RecentExpenses returns the user's most recent expenses across all groups.
func (s *Service) RecentExpenses(ctx context.Context, username string) ([]*Expense, error) {
	return s.repo.RecentExpenses(ctx, username, recentExpenseLimit)
}

func (s *Service) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteExpense(ctx, id)
}

// DefaultPaymentMethod tags payments recorded without an explicit method.
const DefaultPaymentMethod = "manual"

// RecordPayment records that username settled their split on the expense and
// recomputes the expense status in the same store transaction. Returns the
// status the expense moved to (or stayed at).
func (s *Service) RecordPayment(ctx context.Context, expenseID uuid.UUID, username string, amount decimal.Decimal, method string) (Status, error) {
	if username == "" {
		return "", validationErr("username required")
	}

	if !amount.IsPositive() {
		return "", validationErr("amount must be greater than 0")
	}

	if method == "" {
		method = DefaultPaymentMethod
	}

	tx, err := s.repo.BeginPayment(ctx)
	if err != nil {
		return "", fmt.Errorf("begin payment: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.SplitAmount(ctx, expenseID, username); err != nil {
		return "", err
	}

	if err := tx.InsertPayment(ctx, &Payment{
		ExpenseID: expenseID,
		Owner:     username,
		Amount:    amount,
		Method:    method,
	}); err != nil {
		return "", err
	}

	splitOwners, err := tx.CountSplitOwners(ctx, expenseID)
	if err != nil {
		return "", fmt.Errorf("counting split owners: %w", err)
	}

	paidOwners, err := tx.CountPaidOwners(ctx, expenseID)
	if err != nil {
		return "", fmt.Errorf("counting paid owners: %w", err)
	}

	next := StatusPartial
	expected := []Status{StatusPending}

	if splitOwners > 0 && paidOwners == splitOwners {
		next = StatusPaid
		expected = []Status{StatusPending, StatusPartial}
	}

	if err := tx.UpdateStatus(ctx, expenseID, next, expected...); err != nil {
		return "", fmt.Errorf("updating expense status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit payment: %w", err)
	}

	return next, nil
}

// PendingResult lists a user's unpaid splits and the total they owe.
type PendingResult struct {
	Pending   []PendingSplit
	TotalOwed decimal.Decimal
}

// PendingPayments returns every split owned by username with no payment
// recorded, excluding expenses the user paid for themselves.
func (s *Service) PendingPayments(ctx context.Context, username string) (*PendingResult, error) {
	pending, err := s.repo.PendingSplits(ctx, username)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, p := range pending {
		total = total.Add(p.AmountOwed)
	}

	return &PendingResult{Pending: pending, TotalOwed: total}, nil
}

const paymentHistoryLimit = 20

func (s *Service) PaymentHistory(ctx context.Context, username string) ([]PaymentRecord, error) {
	return s.repo.Payments(ctx, username, paymentHistoryLimit)
}

// GroupBalances recomputes the group's net balance map from the ledger.
// An unknown or empty group simply yields an empty map.
func (s *Service) GroupBalances(ctx context.Context, groupID uuid.UUID) (Balance, error) {
	expenses, err := s.repo.GroupExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return Aggregate(expenses), nil
}

// SuggestSettlements computes the minimal transfer list for one group. The
// group name is a read-only enrichment; failure to resolve it does not fail
// the plan.
func (s *Service) SuggestSettlements(ctx context.Context, groupID uuid.UUID) (*SettlementPlan, error) {
	balances, err := s.GroupBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	plan := &SettlementPlan{
		GroupID:   groupID,
		Transfers: Plan(balances),
	}

	name, err := s.dir.GroupName(ctx, groupID)
	if err != nil {
		slog.Warn("failed to resolve group name for settlement plan", "group_id", groupID, "error", err)
	} else {
		plan.GroupName = name
	}

	return plan, nil
}

// SuggestSettlementsForUser computes a settlement plan for every group the
// user belongs to. Groups are independent scopes, so the per-group plans are
// computed concurrently; plans come back in the directory's group order.
func (s *Service) SuggestSettlementsForUser(ctx context.Context, username string) ([]*SettlementPlan, error) {
	groups, err := s.dir.UserGroups(ctx, username)
	if err != nil {
		return nil, err
	}

	plans := make([]*SettlementPlan, len(groups))

	g, ctx := errgroup.WithContext(ctx)
	for i, ref := range groups {
		g.Go(func() error {
			expenses, err := s.repo.GroupExpenses(ctx, ref.ID)
			if err != nil {
				return err
			}

			plans[i] = &SettlementPlan{
				GroupID:   ref.ID,
				GroupName: ref.Name,
				Transfers: Plan(Aggregate(expenses)),
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return plans, nil
}

// Overview summarizes the user's spending across their groups.
func (s *Service) Overview(ctx context.Context, username string) (*Overview, error) {
	return s.repo.Overview(ctx, username)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}

	return false
}
