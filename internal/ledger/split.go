package ledger

import "github.com/shopspring/decimal"

// Allocator turns an expense amount into the set of splits owed to the payer.
// Implementations must never emit a split for the payer.
type Allocator interface {
	Allocate(amount decimal.Decimal, payer string, members []string) []Split
}

// EqualAllocator splits an expense equally among all group members. Each
// member's fair share is amount / len(members); the payer covers their own
// share by having paid the full amount, so no split row is created for them.
type EqualAllocator struct{}

func (EqualAllocator) Allocate(amount decimal.Decimal, payer string, members []string) []Split {
	if len(members) < 2 {
		// Single-member group: nobody else owes anything.
		return nil
	}

	share := amount.Div(decimal.NewFromInt(int64(len(members))))

	splits := make([]Split, 0, len(members)-1)

	for _, member := range members {
		if member == payer {
			continue
		}

		splits = append(splits, Split{Owner: member, Amount: share})
	}

	return splits
}
