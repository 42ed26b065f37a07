package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/models"
)

// SnapshotKeyPrefix namespaces room snapshots in the durable store.
const SnapshotKeyPrefix = "expense/room/"

// SnapshotKey returns the durable-store key for a room's snapshot.
func SnapshotKey(channel string) string {
	return SnapshotKeyPrefix + ledger.NormalizeChannel(channel)
}

// DataStore is the durable storage collaborator: the peer identity
// registry plus persisted room snapshots. PostgresStore and SQLiteStore
// both implement it; the ledger engine itself never touches storage.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// Peer registry
	CreatePeer(ctx context.Context, publicKey, name string) (*models.Peer, error)
	GetPeerByID(ctx context.Context, id uuid.UUID) (*models.Peer, error)
	GetPeerByPublicKey(ctx context.Context, publicKey string) (*models.Peer, error)
	CountPeers(ctx context.Context) (int64, error)

	// Snapshot persistence, keyed expense/room/<normalized channel>.
	// ReadSnapshot returns nil when no snapshot was ever saved.
	WriteSnapshot(ctx context.Context, snap ledger.Snapshot) error
	ReadSnapshot(ctx context.Context, channel string) (*ledger.Snapshot, error)
	ListSnapshotChannels(ctx context.Context) ([]string, error)
	CountSnapshots(ctx context.Context) (int64, error)
}
