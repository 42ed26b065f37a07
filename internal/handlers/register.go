package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MaivaSoftwares/intercom/internal/crypto"
	"github.com/MaivaSoftwares/intercom/internal/metrics"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	PublicKey string `json:"public_key"`
	Name      string `json:"name"`
}

// RegisterResponse represents the registration response.
type RegisterResponse struct {
	ID         string `json:"id"`
	ProfileURL string `json:"profile_url"`
}

// Register handles peer identity registration.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.PublicKey == "" {
		h.Error(w, http.StatusBadRequest, "public_key is required")
		return
	}

	if _, err := crypto.ValidatePublicKey(req.PublicKey); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid public_key: must be base64-encoded Ed25519 public key (32 bytes)")
		return
	}

	name := sanitizeName(req.Name)

	// Registration is idempotent per public key.
	existing, err := h.db.GetPeerByPublicKey(r.Context(), req.PublicKey)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if existing != nil {
		h.JSON(w, http.StatusOK, RegisterResponse{
			ID:         existing.ID.String(),
			ProfileURL: fmt.Sprintf("/who/%s", existing.ID.String()),
		})
		return
	}

	peer, err := h.db.CreatePeer(r.Context(), req.PublicKey, name)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create peer")
		return
	}

	metrics.PeersRegistered.Inc()
	h.JSON(w, http.StatusCreated, RegisterResponse{
		ID:         peer.ID.String(),
		ProfileURL: fmt.Sprintf("/who/%s", peer.ID.String()),
	})
}
