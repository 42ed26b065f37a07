package ledger

import (
	"fmt"
	"strings"
)

// Summary bundles everything a caller needs to render a room: the
// event count, the total money moved, per-member balances, and the
// suggested settlement plan.
type Summary struct {
	Channel     string       `json:"channel"`
	EventCount  int          `json:"event_count"`
	TotalCents  int64        `json:"total_cents"`
	Balances    []Balance    `json:"balances"`
	Settlements []Settlement `json:"settlements"`
}

// Summarize computes a room's summary from a single consistent read of
// its event sequence.
func (e *Engine) Summarize(channel string) Summary {
	ch := NormalizeChannel(channel)
	events := e.List(ch)

	var total int64
	for _, ev := range events {
		total += ev.AmountCents
	}

	balances := balancesOf(events)
	return Summary{
		Channel:     ch,
		EventCount:  len(events),
		TotalCents:  total,
		Balances:    balances,
		Settlements: settlementsOf(balances),
	}
}

// FormatText renders a summary for humans, one balance and one
// settlement per line.
func FormatText(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%s: %d expenses, %s total\n", s.Channel, s.EventCount, FormatCents(s.TotalCents))

	if len(s.Balances) == 0 {
		b.WriteString("no balances\n")
		return b.String()
	}

	b.WriteString("balances:\n")
	for _, bal := range s.Balances {
		fmt.Fprintf(&b, "  %-16s %s\n", bal.Member, FormatCents(bal.Cents))
	}

	if len(s.Settlements) == 0 {
		b.WriteString("all settled\n")
		return b.String()
	}

	b.WriteString("to settle:\n")
	for _, st := range s.Settlements {
		fmt.Fprintf(&b, "  %s -> %s %s\n", st.From, st.To, FormatCents(st.AmountCents))
	}
	return b.String()
}

// FormatCSV renders the settlement rows of a summary as CSV. The
// plan is a pure projection of the summary; no extra state.
func FormatCSV(s Summary) string {
	var b strings.Builder
	b.WriteString("from,to,amount_cents,amount\n")
	for _, st := range s.Settlements {
		fmt.Fprintf(&b, "%s,%s,%d,%s\n", st.From, st.To, st.AmountCents, FormatCents(st.AmountCents))
	}
	return b.String()
}
