package ledger

// Aggregate folds expenses and their splits into one net balance per user.
// The payer is credited with what the other members owe them (the sum of the
// expense's splits, which is the amount minus the payer's own share), and
// each split owner is debited their split. Every expense therefore nets to
// zero, so a closed group's balances always sum to zero.
//
// Aggregate is pure and recomputes from scratch on every call; there is no
// cached state to invalidate.
func Aggregate(expenses []*Expense) Balance {
	balances := make(Balance)

	for _, e := range expenses {
		for _, s := range e.Splits {
			balances[e.PaidBy] = balances[e.PaidBy].Add(s.Amount)
			balances[s.Owner] = balances[s.Owner].Sub(s.Amount)
		}
	}

	return balances
}
