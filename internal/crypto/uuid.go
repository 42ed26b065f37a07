package crypto

import (
	"github.com/google/uuid"
)

// NewUUIDv7 generates a time-ordered UUID v7, used for peer identifiers
// so registry rows sort by creation time.
func NewUUIDv7() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}
