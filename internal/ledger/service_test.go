package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/ledger"
)

func TestService_CreateExpense(t *testing.T) {
	groupID := uuid.New()

	type args struct {
		params ledger.CreateExpenseParams
	}

	type testCase struct {
		name       string
		args       args
		setupMocks func(repo *ledger.MockRepository, dir *ledger.MockDirectory)
		wantSplits int
		wantErr    bool
	}

	tests := []testCase{
		{
			name: "Success",
			args: args{
				params: ledger.CreateExpenseParams{
					GroupID: groupID,
					Title:   "Dinner",
					Amount:  decimal.NewFromFloat(40.00),
					Date:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
					PaidBy:  "mel",
				},
			},
			setupMocks: func(repo *ledger.MockRepository, dir *ledger.MockDirectory) {
				dir.EXPECT().
					GroupMembers(gomock.Any(), groupID).
					Return([]string{"mel", "sam"}, nil)
				repo.EXPECT().
					CreateExpense(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, e *ledger.Expense) error {
						e.ID = uuid.New()
						e.CreatedAt = time.Now()
						return nil
					})
			},
			wantSplits: 1,
		},
		{
			name: "SingleMemberGroup",
			args: args{
				params: ledger.CreateExpenseParams{
					GroupID: groupID,
					Title:   "Solo lunch",
					Amount:  decimal.NewFromFloat(12.50),
					PaidBy:  "a",
				},
			},
			setupMocks: func(repo *ledger.MockRepository, dir *ledger.MockDirectory) {
				dir.EXPECT().
					GroupMembers(gomock.Any(), groupID).
					Return([]string{"a"}, nil)
				repo.EXPECT().
					CreateExpense(gomock.Any(), gomock.Any()).
					Return(nil)
			},
			wantSplits: 0,
		},
		{
			name: "MissingGroup",
			args: args{
				params: ledger.CreateExpenseParams{
					Title:  "Dinner",
					Amount: decimal.NewFromFloat(40.00),
					PaidBy: "mel",
				},
			},
			wantErr: true,
		},
		{
			name: "MissingTitle",
			args: args{
				params: ledger.CreateExpenseParams{
					GroupID: groupID,
					Amount:  decimal.NewFromFloat(40.00),
					PaidBy:  "mel",
				},
			},
			wantErr: true,
		},
		{
			name: "NonPositiveAmount",
			args: args{
				params: ledger.CreateExpenseParams{
					GroupID: groupID,
					Title:   "Dinner",
					Amount:  decimal.Zero,
					PaidBy:  "mel",
				},
			},
			wantErr: true,
		},
		{
			name: "PayerNotAMember",
			args: args{
				params: ledger.CreateExpenseParams{
					GroupID: groupID,
					Title:   "Dinner",
					Amount:  decimal.NewFromFloat(40.00),
					PaidBy:  "intruder",
				},
			},
			setupMocks: func(repo *ledger.MockRepository, dir *ledger.MockDirectory) {
				dir.EXPECT().
					GroupMembers(gomock.Any(), groupID).
					Return([]string{"mel", "sam"}, nil)
			},
			wantErr: true,
		},
		{
			name: "RepoError",
			args: args{
				params: ledger.CreateExpenseParams{
					GroupID: groupID,
					Title:   "Dinner",
					Amount:  decimal.NewFromFloat(40.00),
					PaidBy:  "mel",
				},
			},
			setupMocks: func(repo *ledger.MockRepository, dir *ledger.MockDirectory) {
				dir.EXPECT().
					GroupMembers(gomock.Any(), groupID).
					Return([]string{"mel", "sam"}, nil)
				repo.EXPECT().
					CreateExpense(gomock.Any(), gomock.Any()).
					Return(errors.New("db error"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := ledger.NewMockRepository(ctrl)
			dir := ledger.NewMockDirectory(ctrl)
			if tt.setupMocks != nil {
				tt.setupMocks(repo, dir)
			}

			svc := ledger.NewService(repo, dir, ledger.EqualAllocator{})
			got, err := svc.CreateExpense(context.Background(), tt.args.params)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, ledger.StatusPending, got.Status)
			assert.Len(t, got.Splits, tt.wantSplits)
		})
	}
}

func TestService_CreateExpense_ValidationSkipsStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No expectations: invalid input must be rejected before any store call.
	repo := ledger.NewMockRepository(ctrl)
	dir := ledger.NewMockDirectory(ctrl)

	svc := ledger.NewService(repo, dir, ledger.EqualAllocator{})

	_, err := svc.CreateExpense(context.Background(), ledger.CreateExpenseParams{
		GroupID: uuid.New(),
		Title:   "Dinner",
		Amount:  decimal.NewFromFloat(-5),
		PaidBy:  "mel",
	})

	var validationErr *ledger.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestService_RecordPayment(t *testing.T) {
	expenseID := uuid.New()
	splitAmount := decimal.NewFromInt(20)

	type args struct {
		username string
		amount   decimal.Decimal
	}

	type testCase struct {
		name       string
		args       args
		setupTx    func(tx *ledger.MockPaymentTx)
		wantStatus ledger.Status
		wantErr    error
	}

	tests := []testCase{
		{
			name: "LastOwnerPaysExpenseBecomesPaid",
			args: args{username: "sam", amount: splitAmount},
			setupTx: func(tx *ledger.MockPaymentTx) {
				tx.EXPECT().SplitAmount(gomock.Any(), expenseID, "sam").Return(splitAmount, nil)
				tx.EXPECT().InsertPayment(gomock.Any(), gomock.Any()).Return(nil)
				tx.EXPECT().CountSplitOwners(gomock.Any(), expenseID).Return(1, nil)
				tx.EXPECT().CountPaidOwners(gomock.Any(), expenseID).Return(1, nil)
				tx.EXPECT().
					UpdateStatus(gomock.Any(), expenseID, ledger.StatusPaid, ledger.StatusPending, ledger.StatusPartial).
					Return(nil)
				tx.EXPECT().Commit().Return(nil)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantStatus: ledger.StatusPaid,
		},
		{
			name: "FirstOfManyOwnersExpenseBecomesPartial",
			args: args{username: "sam", amount: splitAmount},
			setupTx: func(tx *ledger.MockPaymentTx) {
				tx.EXPECT().SplitAmount(gomock.Any(), expenseID, "sam").Return(splitAmount, nil)
				tx.EXPECT().InsertPayment(gomock.Any(), gomock.Any()).Return(nil)
				tx.EXPECT().CountSplitOwners(gomock.Any(), expenseID).Return(3, nil)
				tx.EXPECT().CountPaidOwners(gomock.Any(), expenseID).Return(1, nil)
				tx.EXPECT().
					UpdateStatus(gomock.Any(), expenseID, ledger.StatusPartial, ledger.StatusPending).
					Return(nil)
				tx.EXPECT().Commit().Return(nil)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantStatus: ledger.StatusPartial,
		},
		{
			name: "DuplicatePayment",
			args: args{username: "sam", amount: splitAmount},
			setupTx: func(tx *ledger.MockPaymentTx) {
				tx.EXPECT().SplitAmount(gomock.Any(), expenseID, "sam").Return(splitAmount, nil)
				tx.EXPECT().InsertPayment(gomock.Any(), gomock.Any()).Return(ledger.ErrAlreadyPaid)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: ledger.ErrAlreadyPaid,
		},
		{
			name: "NoSplitForUser",
			args: args{username: "mel", amount: splitAmount},
			setupTx: func(tx *ledger.MockPaymentTx) {
				tx.EXPECT().
					SplitAmount(gomock.Any(), expenseID, "mel").
					Return(decimal.Zero, ledger.ErrSplitNotFound)
				tx.EXPECT().Rollback().Return(nil)
			},
			wantErr: ledger.ErrSplitNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			tx := ledger.NewMockPaymentTx(ctrl)
			if tt.setupTx != nil {
				tt.setupTx(tx)
			}

			repo := ledger.NewMockRepository(ctrl)
			repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)

			svc := ledger.NewService(repo, ledger.NewMockDirectory(ctrl), ledger.EqualAllocator{})
			status, err := svc.RecordPayment(context.Background(), expenseID, tt.args.username, tt.args.amount, "")

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status)
		})
	}
}

func TestService_RecordPayment_InvalidInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Validation failures must not open a store transaction.
	repo := ledger.NewMockRepository(ctrl)
	svc := ledger.NewService(repo, ledger.NewMockDirectory(ctrl), ledger.EqualAllocator{})

	_, err := svc.RecordPayment(context.Background(), uuid.New(), "", decimal.NewFromInt(10), "")
	require.Error(t, err)

	_, err = svc.RecordPayment(context.Background(), uuid.New(), "sam", decimal.Zero, "")
	require.Error(t, err)
}

// A payment on an expense that is already paid must not move it backwards.
// The conditional update only fires when the current status is one of the
// expected prior states, so a partial-payment write against a paid expense
// is a no-op at the store.
func TestService_RecordPayment_StatusExpectationsAreForwardOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	expenseID := uuid.New()

	tx := ledger.NewMockPaymentTx(ctrl)
	tx.EXPECT().SplitAmount(gomock.Any(), expenseID, "sam").Return(decimal.NewFromInt(20), nil)
	tx.EXPECT().InsertPayment(gomock.Any(), gomock.Any()).Return(nil)
	tx.EXPECT().CountSplitOwners(gomock.Any(), expenseID).Return(3, nil)
	tx.EXPECT().CountPaidOwners(gomock.Any(), expenseID).Return(1, nil)
	tx.EXPECT().
		UpdateStatus(gomock.Any(), expenseID, ledger.StatusPartial, ledger.StatusPending).
		Return(nil)
	tx.EXPECT().Commit().Return(nil)
	tx.EXPECT().Rollback().Return(nil)

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().BeginPayment(gomock.Any()).Return(tx, nil)

	svc := ledger.NewService(repo, ledger.NewMockDirectory(ctrl), ledger.EqualAllocator{})

	// The partial transition never lists paid as an expected prior status.
	_, err := svc.RecordPayment(context.Background(), expenseID, "sam", decimal.NewFromInt(20), "venmo")
	require.NoError(t, err)
}

func TestService_PendingPayments(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	pending := []ledger.PendingSplit{
		{ExpenseID: uuid.New(), Title: "Dinner", AmountOwed: decimal.NewFromFloat(20.00)},
		{ExpenseID: uuid.New(), Title: "Taxi", AmountOwed: decimal.NewFromFloat(7.35)},
	}

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().PendingSplits(gomock.Any(), "sam").Return(pending, nil)

	svc := ledger.NewService(repo, ledger.NewMockDirectory(ctrl), ledger.EqualAllocator{})
	got, err := svc.PendingPayments(context.Background(), "sam")

	require.NoError(t, err)
	assert.Len(t, got.Pending, 2)
	assert.True(t, decimal.NewFromFloat(27.35).Equal(got.TotalOwed), "total: %s", got.TotalOwed)
}

func TestService_GroupBalances(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	groupID := uuid.New()
	amt := decimal.NewFromInt(40)

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().GroupExpenses(gomock.Any(), groupID).Return([]*ledger.Expense{
		{
			GroupID: groupID,
			Amount:  amt,
			PaidBy:  "mel",
			Splits:  []ledger.Split{{Owner: "sam", Amount: decimal.NewFromInt(20)}},
		},
	}, nil)

	svc := ledger.NewService(repo, ledger.NewMockDirectory(ctrl), ledger.EqualAllocator{})
	balances, err := svc.GroupBalances(context.Background(), groupID)

	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(20).Equal(balances["mel"]))
	assert.True(t, decimal.NewFromInt(-20).Equal(balances["sam"]))
}

func TestService_SuggestSettlements(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	groupID := uuid.New()

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().GroupExpenses(gomock.Any(), groupID).Return([]*ledger.Expense{
		{
			GroupID: groupID,
			Amount:  decimal.NewFromInt(30),
			PaidBy:  "alice",
			Splits: []ledger.Split{
				{Owner: "bob", Amount: decimal.NewFromInt(10)},
				{Owner: "carol", Amount: decimal.NewFromInt(20)},
			},
		},
	}, nil)

	dir := ledger.NewMockDirectory(ctrl)
	dir.EXPECT().GroupName(gomock.Any(), groupID).Return("Trip", nil)

	svc := ledger.NewService(repo, dir, ledger.EqualAllocator{})
	plan, err := svc.SuggestSettlements(context.Background(), groupID)

	require.NoError(t, err)
	assert.Equal(t, "Trip", plan.GroupName)
	require.Len(t, plan.Transfers, 2)
	assert.Equal(t, "carol", plan.Transfers[0].From)
	assert.Equal(t, "alice", plan.Transfers[0].To)
	assert.True(t, decimal.NewFromInt(20).Equal(plan.Transfers[0].Amount))
	assert.Equal(t, "bob", plan.Transfers[1].From)
	assert.True(t, decimal.NewFromInt(10).Equal(plan.Transfers[1].Amount))
}

func TestService_SuggestSettlements_NameLookupFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	groupID := uuid.New()

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().GroupExpenses(gomock.Any(), groupID).Return(nil, nil)

	dir := ledger.NewMockDirectory(ctrl)
	dir.EXPECT().GroupName(gomock.Any(), groupID).Return("", errors.New("db error"))

	svc := ledger.NewService(repo, dir, ledger.EqualAllocator{})
	plan, err := svc.SuggestSettlements(context.Background(), groupID)

	require.NoError(t, err)
	assert.Empty(t, plan.GroupName)
	assert.Empty(t, plan.Transfers)
}

func TestService_SuggestSettlementsForUser(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	groups := []ledger.GroupRef{
		{ID: uuid.New(), Name: "Trip"},
		{ID: uuid.New(), Name: "Flat"},
	}

	dir := ledger.NewMockDirectory(ctrl)
	dir.EXPECT().UserGroups(gomock.Any(), "sam").Return(groups, nil)

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().GroupExpenses(gomock.Any(), groups[0].ID).Return([]*ledger.Expense{
		{
			GroupID: groups[0].ID,
			Amount:  decimal.NewFromInt(40),
			PaidBy:  "mel",
			Splits:  []ledger.Split{{Owner: "sam", Amount: decimal.NewFromInt(20)}},
		},
	}, nil)
	repo.EXPECT().GroupExpenses(gomock.Any(), groups[1].ID).Return(nil, nil)

	svc := ledger.NewService(repo, dir, ledger.EqualAllocator{})
	plans, err := svc.SuggestSettlementsForUser(context.Background(), "sam")

	require.NoError(t, err)
	require.Len(t, plans, 2)

	// Plans come back in the directory's group order.
	assert.Equal(t, "Trip", plans[0].GroupName)
	require.Len(t, plans[0].Transfers, 1)
	assert.Equal(t, "sam", plans[0].Transfers[0].From)
	assert.Equal(t, "mel", plans[0].Transfers[0].To)

	assert.Equal(t, "Flat", plans[1].GroupName)
	assert.Empty(t, plans[1].Transfers)
}

func TestService_RecentExpenses(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := ledger.NewMockRepository(ctrl)
	repo.EXPECT().RecentExpenses(gomock.Any(), "sam", 5).Return(nil, nil)

	svc := ledger.NewService(repo, ledger.NewMockDirectory(ctrl), ledger.EqualAllocator{})
	_, err := svc.RecentExpenses(context.Background(), "sam")

	require.NoError(t, err)
}
