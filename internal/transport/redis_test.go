package transport

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
)

func testTransport(origin string) *RedisTransport {
	return NewRedisTransport(nil, "intercom", origin, zerolog.Nop())
}

func marshalEnvelope(t *testing.T, env envelope) string {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	return string(data)
}

func TestHandleMergesPeerEvent(t *testing.T) {
	tr := testTransport("node-a")
	engine := ledger.NewEngine()

	payload := marshalEnvelope(t, envelope{
		Origin:  "node-b",
		Channel: "trip",
		Event:   ledger.RawEvent{TxID: "t1", Payer: "alice", AmountCents: 1000, Split: []string{"alice", "bob"}},
	})

	tr.handle(nil, engine, payload)
	assert.Equal(t, 1, engine.Summarize("trip").EventCount)

	// Re-delivery of the same event is a no-op.
	tr.handle(nil, engine, payload)
	assert.Equal(t, 1, engine.Summarize("trip").EventCount)
}

func TestHandleSkipsOwnEcho(t *testing.T) {
	tr := testTransport("node-a")
	engine := ledger.NewEngine()

	payload := marshalEnvelope(t, envelope{
		Origin:  "node-a",
		Channel: "trip",
		Event:   ledger.RawEvent{TxID: "t1", Payer: "alice", AmountCents: 1000, Split: []string{"alice"}},
	})

	tr.handle(nil, engine, payload)
	assert.Equal(t, 0, engine.Summarize("trip").EventCount)
}

func TestHandleDropsMalformedAndInvalid(t *testing.T) {
	tr := testTransport("node-a")
	engine := ledger.NewEngine()

	tr.handle(nil, engine, "not json")

	// Structurally valid envelope, invalid event.
	payload := marshalEnvelope(t, envelope{
		Origin:  "node-b",
		Channel: "trip",
		Event:   ledger.RawEvent{TxID: "t1", Payer: "alice", AmountCents: -5, Split: []string{"alice"}},
	})
	tr.handle(nil, engine, payload)

	assert.Equal(t, 0, engine.Summarize("trip").EventCount)
}

func TestTopicNamespacing(t *testing.T) {
	tr := testTransport("node-a")
	assert.Equal(t, "intercom:room:trip", tr.topic("  Trip "))
}
