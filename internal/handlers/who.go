package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// WhoResponse represents the peer profile response.
type WhoResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	PublicKey string `json:"public_key"`
	JoinedAt  string `json:"joined_at"`
}

// Who handles peer profile lookup, resolving the `by` attribution of
// ledger events to a registered identity.
func (h *Handler) Who(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid peer ID format")
		return
	}

	peer, err := h.db.GetPeerByID(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}

	if peer == nil {
		h.Error(w, http.StatusNotFound, "peer not found")
		return
	}

	h.JSON(w, http.StatusOK, WhoResponse{
		ID:        peer.ID.String(),
		Name:      peer.Name,
		PublicKey: peer.PublicKey,
		JoinedAt:  peer.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}
