package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/MaivaSoftwares/intercom/internal/crypto"
	"github.com/MaivaSoftwares/intercom/internal/models"
	"github.com/MaivaSoftwares/intercom/internal/store"
)

type contextKey string

const PeerContextKey contextKey = "peer"

// AuthMiddleware handles signature verification for authenticated
// endpoints. The ledger core never sees any of this: authorization is
// a control-surface concern, and the `by` attribution it produces is
// opaque to the engine.
type AuthMiddleware struct {
	db     store.DataStore
	redis  *store.RedisStore
	window time.Duration
}

// NewAuthMiddleware creates a new auth middleware.
func NewAuthMiddleware(db store.DataStore, redis *store.RedisStore) *AuthMiddleware {
	return &AuthMiddleware{
		db:     db,
		redis:  redis,
		window: 30 * time.Second, // Tight window to minimize replay attack surface
	}
}

// RequireAuth middleware verifies Ed25519 signatures on requests.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract headers
		peerID := r.Header.Get("X-Intercom-Peer")
		nonce := r.Header.Get("X-Intercom-Nonce")
		timestamp := r.Header.Get("X-Intercom-Timestamp")
		signature := r.Header.Get("X-Intercom-Signature")

		// Validate all headers present
		if peerID == "" || nonce == "" || timestamp == "" || signature == "" {
			jsonError(w, http.StatusUnauthorized, "missing auth headers")
			return
		}

		// Parse and validate timestamp
		ts, err := strconv.ParseInt(timestamp, 10, 64)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid timestamp format")
			return
		}
		if !m.isTimestampValid(ts) {
			jsonError(w, http.StatusUnauthorized, "timestamp expired or too far in future")
			return
		}

		// Validate nonce format (min 24 chars for adequate entropy)
		if len(nonce) < 24 {
			jsonError(w, http.StatusUnauthorized, "nonce must be at least 24 characters")
			return
		}

		// Check nonce not reused
		if m.isNonceUsed(r.Context(), peerID, nonce) {
			jsonError(w, http.StatusUnauthorized, "nonce already used")
			return
		}

		// Parse peer UUID
		peerUUID, err := uuid.Parse(peerID)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid peer ID format")
			return
		}

		// Get peer's public key
		peer, err := m.db.GetPeerByID(r.Context(), peerUUID)
		if err != nil || peer == nil {
			jsonError(w, http.StatusUnauthorized, "peer not found")
			return
		}

		// Read body and compute hash
		body, err := io.ReadAll(r.Body)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "failed to read request body")
			return
		}
		r.Body = io.NopCloser(bytes.NewBuffer(body)) // Reset for handler

		// Verify signature
		signedData := crypto.SignaturePayload(crypto.BodyHash(body), nonce, ts)
		pubkey, err := crypto.ValidatePublicKey(peer.PublicKey)
		if err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid peer public key")
			return
		}

		if err := crypto.VerifySignature(pubkey, signedData, signature); err != nil {
			jsonError(w, http.StatusUnauthorized, "invalid signature")
			return
		}

		// Mark nonce as used
		m.markNonceUsed(r.Context(), peerID, nonce)

		// Add peer to context
		ctx := context.WithValue(r.Context(), PeerContextKey, peer)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *AuthMiddleware) isTimestampValid(ts int64) bool {
	now := time.Now().UnixMilli()
	windowMs := m.window.Milliseconds()
	// Only accept timestamps from the past (within window), reject future timestamps
	return ts > now-windowMs && ts <= now
}

func (m *AuthMiddleware) isNonceUsed(ctx context.Context, peerID, nonce string) bool {
	if m.redis == nil {
		return false
	}
	return m.redis.IsNonceUsed(ctx, peerID, nonce)
}

func (m *AuthMiddleware) markNonceUsed(ctx context.Context, peerID, nonce string) {
	if m.redis == nil {
		return
	}
	m.redis.MarkNonceUsed(ctx, peerID, nonce, 3*time.Minute)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// GetPeerFromContext retrieves the authenticated peer from the request context.
func GetPeerFromContext(ctx context.Context) *models.Peer {
	peer, ok := ctx.Value(PeerContextKey).(*models.Peer)
	if !ok {
		return nil
	}
	return peer
}
