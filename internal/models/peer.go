package models

import (
	"time"

	"github.com/google/uuid"
)

// Peer represents a registered ledger participant identity. The public
// key attributes contributions; the ledger core itself treats the `by`
// field of an event as opaque.
type Peer struct {
	ID        uuid.UUID `json:"id"`
	PublicKey string    `json:"public_key"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
