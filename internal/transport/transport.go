// Package transport delivers accepted expense events to the other
// peers in a room, best effort. Delivery failure never rolls back the
// local ledger; replays and echoes are absorbed by the engine's
// idempotent merge.
package transport

import (
	"context"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
)

// Transport is the peer broadcast collaborator consumed by the control
// surface.
type Transport interface {
	// AddChannel ensures the local peer is joined to a room before
	// broadcasting into it.
	AddChannel(ctx context.Context, channel string) error

	// Broadcast publishes an accepted event to the room's peers.
	Broadcast(ctx context.Context, channel string, ev ledger.Event) error
}

// Nop is a Transport that delivers nothing, used when no broker is
// configured. The local ledger stays authoritative either way.
type Nop struct{}

func (Nop) AddChannel(context.Context, string) error               { return nil }
func (Nop) Broadcast(context.Context, string, ledger.Event) error  { return nil }
