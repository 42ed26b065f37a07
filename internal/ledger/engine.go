package ledger

import (
	"sort"
	"sync"
)

// Engine owns all per-room ledger state for one peer. Events may reach
// it from a local command, a peer broadcast, or a snapshot import; the
// merge is idempotent per tx_id, so any arrival order and any amount of
// duplication converge to the same room state.
//
// The engine is an explicit instance rather than package state so tests
// and embedders can run independent ledgers in one process. A mutex
// serializes mutation because the HTTP host and the transport listener
// call in from separate goroutines.
type Engine struct {
	mu    sync.Mutex
	rooms map[string]*room
}

type room struct {
	events []Event
	seen   map[string]bool
}

// NewEngine creates an empty ledger engine.
func NewEngine() *Engine {
	return &Engine{rooms: make(map[string]*room)}
}

// getOrCreate returns the room for a normalized channel, creating it
// lazily. Callers must hold e.mu.
func (e *Engine) getOrCreate(channel string) *room {
	r, ok := e.rooms[channel]
	if !ok {
		r = &room{seen: make(map[string]bool)}
		e.rooms[channel] = r
	}
	return r
}

// sortEvents orders a room's events by timestamp, stable so that ties
// keep insertion order.
func (r *room) sortEvents() {
	sort.SliceStable(r.events, func(i, j int) bool {
		return r.events[i].TS < r.events[j].TS
	})
}

// ApplyResult reports the outcome of a successful Apply. Duplicate
// means the event's tx_id was already present and the room was left
// untouched; at-least-once delivery makes that an expected no-op, not
// an error.
type ApplyResult struct {
	Channel   string `json:"channel"`
	Duplicate bool   `json:"duplicate"`
	Event     Event  `json:"event"`
}

// Apply normalizes a raw event and merges it into the room. Invalid
// events are rejected with no state change.
func (e *Engine) Apply(channel string, raw RawEvent) (ApplyResult, error) {
	ch := NormalizeChannel(channel)

	ev, err := Normalize(raw)
	if err != nil {
		return ApplyResult{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r := e.getOrCreate(ch)
	if r.seen[ev.TxID] {
		return ApplyResult{Channel: ch, Duplicate: true, Event: ev}, nil
	}

	r.events = append(r.events, ev)
	r.seen[ev.TxID] = true
	r.sortEvents()

	return ApplyResult{Channel: ch, Event: ev}, nil
}

// List returns a deep copy of the room's current event sequence in
// timestamp order; mutating the result never reaches room state. A
// room that was never written is an empty list.
func (e *Engine) List(channel string) []Event {
	ch := NormalizeChannel(channel)

	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.rooms[ch]
	if !ok {
		return []Event{}
	}
	out := make([]Event, len(r.events))
	copy(out, r.events)
	for i := range out {
		split := make([]string, len(out[i].Split))
		copy(split, out[i].Split)
		out[i].Split = split
	}
	return out
}

// ClearResult reports a completed room reset.
type ClearResult struct {
	Channel string `json:"channel"`
	Removed int    `json:"removed"`
}

// Clear discards all events and dedup state for a room. This is a
// purely local reset; telling other peers about it is the caller's job.
func (e *Engine) Clear(channel string) ClearResult {
	ch := NormalizeChannel(channel)

	e.mu.Lock()
	defer e.mu.Unlock()

	removed := 0
	if r, ok := e.rooms[ch]; ok {
		removed = len(r.events)
	}
	delete(e.rooms, ch)
	return ClearResult{Channel: ch, Removed: removed}
}

// Channels lists the channels that currently hold at least one event,
// sorted by name.
func (e *Engine) Channels() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, len(e.rooms))
	for ch, r := range e.rooms {
		if len(r.events) > 0 {
			out = append(out, ch)
		}
	}
	sort.Strings(out)
	return out
}
