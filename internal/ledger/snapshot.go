package ledger

import "errors"

// SnapshotVersion tags exported snapshots so the format can evolve.
const SnapshotVersion = 1

var ErrBadSnapshot = errors.New("snapshot has no usable event list")

// Snapshot is a full serializable copy of one room's event sequence,
// the shape written to and read back from the durable store.
type Snapshot struct {
	Channel string  `json:"channel"`
	Version int     `json:"version"`
	Events  []Event `json:"events"`
}

// Export copies a room's current state into a snapshot. List already
// detaches the events from room state.
func (e *Engine) Export(channel string) Snapshot {
	ch := NormalizeChannel(channel)
	return Snapshot{Channel: ch, Version: SnapshotVersion, Events: e.List(ch)}
}

// ImportResult reports a completed snapshot import. Added counts the
// events the room had not seen before the import began; Total is the
// room's event count afterwards.
type ImportResult struct {
	Channel string `json:"channel"`
	Added   int    `json:"added"`
	Total   int    `json:"total"`
}

// Import merges a snapshot into a room. Every entry goes through the
// same normalization as live events; invalid entries and duplicates
// within the snapshot (first occurrence wins) are dropped silently.
// With replace set, existing room state is discarded first; otherwise
// the snapshot merges on top of it under the usual per-tx_id rule, so
// re-importing the same snapshot is always a no-op after the first
// time. A snapshot with a nil event list is rejected without mutating
// anything.
func (e *Engine) Import(channel string, snap Snapshot, replace bool) (ImportResult, error) {
	ch := NormalizeChannel(channel)
	if ch == "" {
		ch = NormalizeChannel(snap.Channel)
	}
	if snap.Events == nil {
		return ImportResult{}, ErrBadSnapshot
	}

	// Normalize up front so a bad snapshot never half-applies.
	inSnap := make(map[string]bool, len(snap.Events))
	incoming := make([]Event, 0, len(snap.Events))
	for _, entry := range snap.Events {
		ev, err := Normalize(RawEvent(entry))
		if err != nil || inSnap[ev.TxID] {
			continue
		}
		inSnap[ev.TxID] = true
		incoming = append(incoming, ev)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Added is judged against the room as it stood before the import,
	// so restoring a room's own snapshot with replace still reports 0.
	var prevSeen map[string]bool
	if r, ok := e.rooms[ch]; ok {
		prevSeen = r.seen
	}

	if replace {
		delete(e.rooms, ch)
	}
	r := e.getOrCreate(ch)

	added := 0
	for _, ev := range incoming {
		if r.seen[ev.TxID] {
			continue
		}
		r.events = append(r.events, ev)
		r.seen[ev.TxID] = true
		if !prevSeen[ev.TxID] {
			added++
		}
	}
	r.sortEvents()

	return ImportResult{Channel: ch, Added: added, Total: len(r.events)}, nil
}
