package ledger

import "sort"

// Balance is one member's net position in a room. Positive cents means
// the member is owed money, negative means they owe, zero is settled.
type Balance struct {
	Member string `json:"member"`
	Cents  int64  `json:"cents"`
}

// splitShares divides amountCents evenly over n members using floor
// division, handing the remainder out one cent at a time to the first
// members in split order. The shares always sum to amountCents exactly,
// and the distribution is deterministic for a given split order.
func splitShares(amountCents int64, n int) []int64 {
	count := int64(n)
	base := amountCents / count
	remainder := amountCents % count

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}

// Balances computes each member's net position from the room's events,
// sorted by member name for stable output. The sum over all members is
// always exactly zero.
func (e *Engine) Balances(channel string) []Balance {
	return balancesOf(e.List(channel))
}

func balancesOf(events []Event) []Balance {
	net := make(map[string]int64)
	for _, ev := range events {
		shares := splitShares(ev.AmountCents, len(ev.Split))
		for i, member := range ev.Split {
			net[member] -= shares[i]
		}
		net[ev.Payer] += ev.AmountCents
	}

	out := make([]Balance, 0, len(net))
	for member, cents := range net {
		out = append(out, Balance{Member: member, Cents: cents})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Member < out[j].Member
	})
	return out
}
