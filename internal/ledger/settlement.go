package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// settleTolerance is the band around zero inside which a balance counts as
// settled. It absorbs the residue of dividing amounts that don't split evenly.
var settleTolerance = decimal.NewFromFloat(0.005)

type party struct {
	name   string
	amount decimal.Decimal // always positive
}

// Plan computes the transfers that zero out a balance map using greedy
// largest-first matching: repeatedly pay the largest creditor from the
// largest debtor. The result is not guaranteed globally minimal but is
// bounded by creditors+debtors-1 transfers.
//
// Ties on amount break by ascending username so the output is deterministic
// for a given balance map.
func Plan(balances Balance) []Transfer {
	var creditors, debtors []party

	for name, v := range balances {
		switch {
		case v.GreaterThan(settleTolerance):
			creditors = append(creditors, party{name: name, amount: v.Round(2)})
		case v.Neg().GreaterThan(settleTolerance):
			debtors = append(debtors, party{name: name, amount: v.Neg().Round(2)})
		}
	}

	sortParties(creditors)
	sortParties(debtors)

	var transfers []Transfer

	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		pay := decimal.Min(debtors[i].amount, creditors[j].amount)

		if pay.IsPositive() {
			transfers = append(transfers, Transfer{
				From:   debtors[i].name,
				To:     creditors[j].name,
				Amount: pay.Round(2),
			})

			debtors[i].amount = debtors[i].amount.Sub(pay)
			creditors[j].amount = creditors[j].amount.Sub(pay)
		}

		if debtors[i].amount.LessThanOrEqual(settleTolerance) {
			i++
		}

		if creditors[j].amount.LessThanOrEqual(settleTolerance) {
			j++
		}
	}

	return transfers
}

func sortParties(parties []party) {
	sort.Slice(parties, func(a, b int) bool {
		if !parties[a].amount.Equal(parties[b].amount) {
			return parties[a].amount.GreaterThan(parties[b].amount)
		}

		return parties[a].name < parties[b].name
	})
}
