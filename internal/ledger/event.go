package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrMissingTxID   = errors.New("tx_id is required")
	ErrMissingPayer  = errors.New("payer is required")
	ErrInvalidAmount = errors.New("amount must be a positive number of cents")
	ErrEmptySplit    = errors.New("split must name at least one member")
)

// RawEvent is the loosely-typed input shape accepted from any source:
// a local command, a peer broadcast, or a snapshot entry.
type RawEvent struct {
	TxID        string   `json:"tx_id"`
	Payer       string   `json:"payer"`
	AmountCents int64    `json:"amount_cents"`
	Split       []string `json:"split"`
	Note        string   `json:"note,omitempty"`
	TS          int64    `json:"ts,omitempty"` // Unix ms
	By          string   `json:"by,omitempty"` // Attribution, opaque to the ledger
}

// Event is one validated, immutable expense record. TxID is the
// deduplication key across all delivery paths.
type Event struct {
	TxID        string   `json:"tx_id"`
	Payer       string   `json:"payer"`
	AmountCents int64    `json:"amount_cents"`
	Split       []string `json:"split"`
	Note        string   `json:"note,omitempty"`
	TS          int64    `json:"ts"`
	By          string   `json:"by,omitempty"`
}

// NewTxID generates a time-ordered unique transaction ID for locally
// created events. Remote events arrive with their originator's ID.
func NewTxID() string {
	return ulid.Make().String()
}

// NormalizeMember canonicalizes a participant identifier.
func NormalizeMember(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeChannel canonicalizes a room identifier.
func NormalizeChannel(channel string) string {
	return strings.ToLower(strings.TrimSpace(channel))
}

// Normalize validates a raw event and produces its canonical form.
// Payer and split members are trimmed and lower-cased, split duplicates
// are dropped keeping first-seen order, and a missing timestamp defaults
// to now. A validation error means the event must be rejected outright;
// it is never partially applied.
func Normalize(raw RawEvent) (Event, error) {
	txID := strings.TrimSpace(raw.TxID)
	if txID == "" {
		return Event{}, ErrMissingTxID
	}

	payer := NormalizeMember(raw.Payer)
	if payer == "" {
		return Event{}, ErrMissingPayer
	}

	if raw.AmountCents <= 0 {
		return Event{}, fmt.Errorf("%w: got %d", ErrInvalidAmount, raw.AmountCents)
	}

	seen := make(map[string]bool, len(raw.Split))
	split := make([]string, 0, len(raw.Split))
	for _, member := range raw.Split {
		m := NormalizeMember(member)
		if m == "" || seen[m] {
			continue
		}
		seen[m] = true
		split = append(split, m)
	}
	if len(split) == 0 {
		return Event{}, ErrEmptySplit
	}

	ts := raw.TS
	if ts <= 0 {
		ts = time.Now().UnixMilli()
	}

	return Event{
		TxID:        txID,
		Payer:       payer,
		AmountCents: raw.AmountCents,
		Split:       split,
		Note:        strings.TrimSpace(raw.Note),
		TS:          ts,
		By:          strings.TrimSpace(raw.By),
	}, nil
}
