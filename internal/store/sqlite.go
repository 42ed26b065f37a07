package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MaivaSoftwares/intercom/internal/crypto"
	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/metrics"
	"github.com/MaivaSoftwares/intercom/internal/models"
)

// SQLiteStore implements DataStore on an embedded SQLite database. It
// is the default when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/intercom.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/intercom.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS peers (
		id TEXT PRIMARY KEY,
		public_key TEXT UNIQUE NOT NULL,
		name TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS room_snapshots (
		key TEXT PRIMARY KEY,
		channel TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_peers_public_key ON peers(public_key);
	CREATE INDEX IF NOT EXISTS idx_room_snapshots_channel ON room_snapshots(channel);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreatePeer creates a new peer record.
func (s *SQLiteStore) CreatePeer(ctx context.Context, publicKey, name string) (*models.Peer, error) {
	id := crypto.NewUUIDv7()
	now := time.Now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO peers (id, public_key, name, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, id.String(), publicKey, name, now, now)
	if err != nil {
		return nil, err
	}

	return s.GetPeerByID(ctx, id)
}

func (s *SQLiteStore) scanPeer(row *sql.Row) (*models.Peer, error) {
	peer := &models.Peer{}
	var idStr string
	err := row.Scan(&idStr, &peer.PublicKey, &peer.Name, &peer.CreatedAt, &peer.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	peer.ID, err = uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	return peer, nil
}

// GetPeerByID retrieves a peer by ID.
func (s *SQLiteStore) GetPeerByID(ctx context.Context, id uuid.UUID) (*models.Peer, error) {
	return s.scanPeer(s.db.QueryRowContext(ctx, `
		SELECT id, public_key, name, created_at, updated_at
		FROM peers WHERE id = ?
	`, id.String()))
}

// GetPeerByPublicKey retrieves a peer by public key.
func (s *SQLiteStore) GetPeerByPublicKey(ctx context.Context, publicKey string) (*models.Peer, error) {
	return s.scanPeer(s.db.QueryRowContext(ctx, `
		SELECT id, public_key, name, created_at, updated_at
		FROM peers WHERE public_key = ?
	`, publicKey))
}

// CountPeers returns the number of registered peers.
func (s *SQLiteStore) CountPeers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM peers`).Scan(&count)
	return count, err
}

// WriteSnapshot upserts a room snapshot under its expense/room key.
func (s *SQLiteStore) WriteSnapshot(ctx context.Context, snap ledger.Snapshot) error {
	start := time.Now()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO room_snapshots (key, channel, data, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP
	`, SnapshotKey(snap.Channel), ledger.NormalizeChannel(snap.Channel), string(data))

	metrics.StoreLatency.WithLabelValues("write_snapshot").Observe(time.Since(start).Seconds())
	return err
}

// ReadSnapshot loads a room snapshot, or nil if none was saved.
func (s *SQLiteStore) ReadSnapshot(ctx context.Context, channel string) (*ledger.Snapshot, error) {
	start := time.Now()
	defer func() {
		metrics.StoreLatency.WithLabelValues("read_snapshot").Observe(time.Since(start).Seconds())
	}()

	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM room_snapshots WHERE key = ?
	`, SnapshotKey(channel)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ListSnapshotChannels returns the channels with a saved snapshot.
func (s *SQLiteStore) ListSnapshotChannels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		channels = append(channels, ch)
	}
	return channels, rows.Err()
}

// CountSnapshots returns the number of saved room snapshots.
func (s *SQLiteStore) CountSnapshots(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM room_snapshots`).Scan(&count)
	return count, err
}
