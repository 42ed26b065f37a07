package transport

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/metrics"
)

// envelope is the wire shape published to peers. Origin lets receivers
// skip their own echoes early, though applying them would be a no-op
// anyway.
type envelope struct {
	Origin  string          `json:"origin"`
	Channel string          `json:"channel"`
	Event   ledger.RawEvent `json:"event"`
}

// RedisTransport broadcasts events over Redis pub/sub. Each room maps
// to one topic under the configured namespace.
type RedisTransport struct {
	client    *redis.Client
	namespace string
	origin    string
	logger    zerolog.Logger
}

// NewRedisTransport creates a transport publishing as the given origin
// peer ID.
func NewRedisTransport(client *redis.Client, namespace, origin string, logger zerolog.Logger) *RedisTransport {
	return &RedisTransport{
		client:    client,
		namespace: namespace,
		origin:    origin,
		logger:    logger,
	}
}

func (t *RedisTransport) topic(channel string) string {
	return fmt.Sprintf("%s:room:%s", t.namespace, ledger.NormalizeChannel(channel))
}

// AddChannel records the local peer's room membership. Pub/sub
// delivery itself is pattern-based, so joining is bookkeeping rather
// than a subscription change.
func (t *RedisTransport) AddChannel(ctx context.Context, channel string) error {
	key := t.namespace + ":channels"
	return t.client.SAdd(ctx, key, ledger.NormalizeChannel(channel)).Err()
}

// Broadcast publishes an accepted event to the room's topic. Errors
// surface to the caller but must not undo local state.
func (t *RedisTransport) Broadcast(ctx context.Context, channel string, ev ledger.Event) error {
	env := envelope{
		Origin:  t.origin,
		Channel: ledger.NormalizeChannel(channel),
		Event:   ledger.RawEvent(ev),
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	if err := t.client.Publish(ctx, t.topic(channel), data).Err(); err != nil {
		metrics.BroadcastFailures.Inc()
		return err
	}
	metrics.BroadcastsPublished.Inc()
	return nil
}

// Listen subscribes to all room topics and merges received events into
// the engine until the context is cancelled. Invalid payloads are
// logged and skipped; duplicates are silent no-ops.
func (t *RedisTransport) Listen(ctx context.Context, engine *ledger.Engine) error {
	pubsub := t.client.PSubscribe(ctx, t.namespace+":room:*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			t.handle(ctx, engine, msg.Payload)
		}
	}
}

func (t *RedisTransport) handle(_ context.Context, engine *ledger.Engine, payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		t.logger.Warn().Err(err).Msg("dropping malformed broadcast")
		return
	}
	if env.Origin == t.origin {
		return // self echo
	}

	res, err := engine.Apply(env.Channel, env.Event)
	if err != nil {
		metrics.EventsRejected.Inc()
		t.logger.Warn().Err(err).Str("channel", env.Channel).Msg("rejected broadcast event")
		return
	}
	if res.Duplicate {
		metrics.EventsDuplicate.WithLabelValues("broadcast").Inc()
		return
	}
	metrics.EventsApplied.WithLabelValues("broadcast").Inc()
	t.logger.Debug().
		Str("channel", res.Channel).
		Str("tx_id", res.Event.TxID).
		Str("origin", env.Origin).
		Msg("merged broadcast event")
}
