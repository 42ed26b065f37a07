package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/store"
	"github.com/MaivaSoftwares/intercom/internal/transport"
)

// Handler contains shared dependencies for all HTTP handlers: the
// in-process ledger engine plus the external collaborators (durable
// store, hot Redis store, peer transport).
type Handler struct {
	engine *ledger.Engine
	db     store.DataStore
	redis  *store.RedisStore
	peers  transport.Transport

	// bcrypt hash guarding destructive operations; empty disables them.
	adminTokenHash string
}

// NewHandler creates a new Handler with the given collaborators.
func NewHandler(engine *ledger.Engine, db store.DataStore, redis *store.RedisStore, peers transport.Transport, adminTokenHash string) *Handler {
	if peers == nil {
		peers = transport.Nop{}
	}
	return &Handler{
		engine:         engine,
		db:             db,
		redis:          redis,
		peers:          peers,
		adminTokenHash: adminTokenHash,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// requireAdmin verifies the admin token header on destructive
// endpoints. Returns false (response already written) on failure.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if h.adminTokenHash == "" {
		h.Error(w, http.StatusForbidden, "destructive operations are disabled (no admin token configured)")
		return false
	}
	token := r.Header.Get("X-Intercom-Admin-Token")
	if token == "" {
		h.Error(w, http.StatusForbidden, "admin token required")
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.adminTokenHash), []byte(token)); err != nil {
		h.Error(w, http.StatusForbidden, "invalid admin token")
		return false
	}
	return true
}

// sanitizeName trims and limits name to 100 characters, removing control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Remove control characters
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// Limit to 100 characters
	if len(name) > 100 {
		name = name[:100]
	}

	return name
}
