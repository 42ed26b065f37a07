package ledger

import "sort"

// Settlement is one suggested payment that moves net balances toward
// zero.
type Settlement struct {
	From        string `json:"from"`
	To          string `json:"to"`
	AmountCents int64  `json:"amount_cents"`
}

// Settlements reduces a room's balance vector to a short payment plan:
// the largest remaining debtor pays the largest remaining creditor the
// smaller of the two magnitudes, repeating until one side is exhausted.
// Greedy largest-first is not guaranteed transaction-minimal, but it is
// deterministic (ties break by member name) and emits at most one row
// fewer than there are participants. All-zero balances yield an empty
// plan.
func (e *Engine) Settlements(channel string) []Settlement {
	return settlementsOf(e.Balances(channel))
}

type party struct {
	member    string
	remaining int64
}

func settlementsOf(balances []Balance) []Settlement {
	var creditors, debtors []party
	for _, b := range balances {
		switch {
		case b.Cents > 0:
			creditors = append(creditors, party{b.Member, b.Cents})
		case b.Cents < 0:
			debtors = append(debtors, party{b.Member, -b.Cents})
		}
	}

	// Balances arrive sorted by name, so a stable sort by magnitude
	// keeps ties deterministic.
	byMagnitude := func(parties []party) {
		sort.SliceStable(parties, func(i, j int) bool {
			return parties[i].remaining > parties[j].remaining
		})
	}
	byMagnitude(creditors)
	byMagnitude(debtors)

	var plan []Settlement
	di, ci := 0, 0
	for di < len(debtors) && ci < len(creditors) {
		amount := min(debtors[di].remaining, creditors[ci].remaining)
		if amount > 0 {
			plan = append(plan, Settlement{
				From:        debtors[di].member,
				To:          creditors[ci].member,
				AmountCents: amount,
			})
		}
		debtors[di].remaining -= amount
		creditors[ci].remaining -= amount
		if debtors[di].remaining == 0 {
			di++
		}
		if creditors[ci].remaining == 0 {
			ci++
		}
	}
	return plan
}
