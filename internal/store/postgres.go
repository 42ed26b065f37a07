package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/metrics"
	"github.com/MaivaSoftwares/intercom/internal/models"
)

// PostgresStore implements DataStore on PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool
// and ensures the schema exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// initSchema creates tables if they don't exist.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS peers (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		public_key TEXT UNIQUE NOT NULL,
		name TEXT DEFAULT '',
		created_at TIMESTAMPTZ DEFAULT NOW(),
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS room_snapshots (
		key TEXT PRIMARY KEY,
		channel TEXT NOT NULL,
		data JSONB NOT NULL,
		updated_at TIMESTAMPTZ DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_peers_public_key ON peers(public_key);
	CREATE INDEX IF NOT EXISTS idx_room_snapshots_channel ON room_snapshots(channel);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreatePeer creates a new peer record.
func (s *PostgresStore) CreatePeer(ctx context.Context, publicKey, name string) (*models.Peer, error) {
	peer := &models.Peer{}
	err := s.pool.QueryRow(ctx, `
		INSERT INTO peers (public_key, name)
		VALUES ($1, $2)
		RETURNING id, public_key, name, created_at, updated_at
	`, publicKey, name).Scan(
		&peer.ID,
		&peer.PublicKey,
		&peer.Name,
		&peer.CreatedAt,
		&peer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return peer, nil
}

// GetPeerByID retrieves a peer by ID.
func (s *PostgresStore) GetPeerByID(ctx context.Context, id uuid.UUID) (*models.Peer, error) {
	peer := &models.Peer{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, public_key, name, created_at, updated_at
		FROM peers WHERE id = $1
	`, id).Scan(
		&peer.ID,
		&peer.PublicKey,
		&peer.Name,
		&peer.CreatedAt,
		&peer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return peer, nil
}

// GetPeerByPublicKey retrieves a peer by public key.
func (s *PostgresStore) GetPeerByPublicKey(ctx context.Context, publicKey string) (*models.Peer, error) {
	peer := &models.Peer{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, public_key, name, created_at, updated_at
		FROM peers WHERE public_key = $1
	`, publicKey).Scan(
		&peer.ID,
		&peer.PublicKey,
		&peer.Name,
		&peer.CreatedAt,
		&peer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return peer, nil
}

// CountPeers returns the number of registered peers.
func (s *PostgresStore) CountPeers(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM peers`).Scan(&count)
	return count, err
}

// WriteSnapshot upserts a room snapshot under its expense/room key.
func (s *PostgresStore) WriteSnapshot(ctx context.Context, snap ledger.Snapshot) error {
	start := time.Now()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO room_snapshots (key, channel, data, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, SnapshotKey(snap.Channel), ledger.NormalizeChannel(snap.Channel), data)

	metrics.StoreLatency.WithLabelValues("write_snapshot").Observe(time.Since(start).Seconds())
	return err
}

// ReadSnapshot loads a room snapshot, or nil if none was saved.
func (s *PostgresStore) ReadSnapshot(ctx context.Context, channel string) (*ledger.Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.StoreLatency.WithLabelValues("read_snapshot").Observe(time.Since(start).Seconds())
	}()

	var data []byte
	err := s.pool.QueryRow(ctx, `
		SELECT data FROM room_snapshots WHERE key = $1
	`, SnapshotKey(channel)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshotChannels returns the channels with a saved snapshot.
func (s *PostgresStore) ListSnapshotChannels(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT channel FROM room_snapshots ORDER BY channel
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []string
	for rows.Next() {
		var ch string
		if err := rows.Scan(&ch); err != nil {
			return nil, err
		}
		channels = append(channels, strings.TrimSpace(ch))
	}
	return channels, rows.Err()
}

// CountSnapshots returns the number of saved room snapshots.
func (s *PostgresStore) CountSnapshots(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM room_snapshots`).Scan(&count)
	return count, err
}
