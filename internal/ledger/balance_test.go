package ledger

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSharesRemainderToFirstMembers(t *testing.T) {
	// 100 cents over 3 members: base 33, one leftover cent to the
	// first member in split order.
	shares := splitShares(100, 3)
	assert.Equal(t, []int64{34, 33, 33}, shares)

	var sum int64
	for _, s := range shares {
		sum += s
	}
	assert.Equal(t, int64(100), sum)
}

func TestSplitSharesExactDivision(t *testing.T) {
	assert.Equal(t, []int64{500, 500}, splitShares(1000, 2))
}

func TestBalancesScenario(t *testing.T) {
	// alice pays $30.00 split alice,bob; bob pays $10.00 split
	// alice,bob. alice ends +$10.00, bob -$10.00.
	e := NewEngine()
	_, err := e.Apply("flat", RawEvent{TxID: "t1", Payer: "alice", AmountCents: 3000, Split: []string{"alice", "bob"}, TS: 1})
	require.NoError(t, err)
	_, err = e.Apply("flat", RawEvent{TxID: "t2", Payer: "bob", AmountCents: 1000, Split: []string{"alice", "bob"}, TS: 2})
	require.NoError(t, err)

	balances := e.Balances("flat")
	require.Equal(t, []Balance{
		{Member: "alice", Cents: 1000},
		{Member: "bob", Cents: -1000},
	}, balances)

	settlements := e.Settlements("flat")
	require.Equal(t, []Settlement{
		{From: "bob", To: "alice", AmountCents: 1000},
	}, settlements)
}

func TestBalancesPayerOutsideSplit(t *testing.T) {
	// The ledger does not force the payer into the split; that is
	// caller policy. Payer still gets the full credit.
	e := NewEngine()
	_, err := e.Apply("room", RawEvent{TxID: "t1", Payer: "carol", AmountCents: 900, Split: []string{"alice", "bob"}, TS: 1})
	require.NoError(t, err)

	assert.Equal(t, []Balance{
		{Member: "alice", Cents: -450},
		{Member: "bob", Cents: -450},
		{Member: "carol", Cents: 900},
	}, e.Balances("room"))
}

func TestBalanceConservation(t *testing.T) {
	members := []string{"alice", "bob", "carol", "dave", "erin"}
	e := NewEngine()
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		payer := members[rng.Intn(len(members))]
		n := 1 + rng.Intn(len(members))
		split := append([]string(nil), members[:n]...)
		_, err := e.Apply("stress", RawEvent{
			TxID:        NewTxID(),
			Payer:       payer,
			AmountCents: 1 + rng.Int63n(99999),
			Split:       split,
			TS:          int64(i),
		})
		require.NoError(t, err)
	}

	var sum int64
	for _, b := range e.Balances("stress") {
		sum += b.Cents
	}
	assert.Zero(t, sum, "money must be neither created nor destroyed")
}

func TestBalancesEmptyRoom(t *testing.T) {
	e := NewEngine()
	assert.Empty(t, e.Balances("nothing"))
}
