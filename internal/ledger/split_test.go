package ledger_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/ledger"
)

func TestEqualAllocator_Allocate(t *testing.T) {
	type args struct {
		amount  decimal.Decimal
		payer   string
		members []string
	}

	type testCase struct {
		name string
		args args
		want []ledger.Split
	}

	tests := []testCase{
		{
			name: "TwoMembers",
			args: args{
				amount:  decimal.NewFromFloat(40.00),
				payer:   "mel",
				members: []string{"mel", "sam"},
			},
			want: []ledger.Split{
				{Owner: "sam", Amount: decimal.NewFromInt(20)},
			},
		},
		{
			name: "ThreeMembers",
			args: args{
				amount:  decimal.NewFromFloat(90.00),
				payer:   "b",
				members: []string{"a", "b", "c"},
			},
			want: []ledger.Split{
				{Owner: "a", Amount: decimal.NewFromInt(30)},
				{Owner: "c", Amount: decimal.NewFromInt(30)},
			},
		},
		{
			name: "SingleMemberGroup",
			args: args{
				amount:  decimal.NewFromFloat(123.45),
				payer:   "a",
				members: []string{"a"},
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ledger.EqualAllocator{}.Allocate(tt.args.amount, tt.args.payer, tt.args.members)

			require.Len(t, got, len(tt.want))
			for i, want := range tt.want {
				assert.Equal(t, want.Owner, got[i].Owner)
				assert.True(t, want.Amount.Equal(got[i].Amount),
					"split %d: want %s, got %s", i, want.Amount, got[i].Amount)
			}
		})
	}
}

func TestEqualAllocator_PayerNeverOwes(t *testing.T) {
	members := []string{"alice", "bob", "carol", "dave", "erin"}

	for _, payer := range members {
		splits := ledger.EqualAllocator{}.Allocate(decimal.NewFromFloat(77.77), payer, members)

		require.Len(t, splits, len(members)-1)
		for _, s := range splits {
			assert.NotEqual(t, payer, s.Owner)
		}
	}
}

func TestEqualAllocator_FullPrecisionShare(t *testing.T) {
	// 10 / 3 does not divide evenly; the persisted share keeps full precision
	// and rounding only happens at presentation boundaries.
	splits := ledger.EqualAllocator{}.Allocate(decimal.NewFromInt(10), "a", []string{"a", "b", "c"})

	require.Len(t, splits, 2)

	total := decimal.Zero
	for _, s := range splits {
		total = total.Add(s.Amount)
	}

	want := decimal.NewFromInt(10).Div(decimal.NewFromInt(3)).Mul(decimal.NewFromInt(2))
	assert.True(t, want.Equal(total), "want %s, got %s", want, total)
}
