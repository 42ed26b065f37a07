package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/metrics"
	"github.com/MaivaSoftwares/intercom/internal/store"
)

// ImportResponse represents a completed snapshot import.
type ImportResponse struct {
	Channel string `json:"channel"`
	Added   int    `json:"added"`
	Total   int    `json:"total"`
}

// SaveResponse represents a snapshot persisted to the durable store.
type SaveResponse struct {
	Channel string `json:"channel"`
	Key     string `json:"key"`
	Events  int    `json:"events"`
}

// ExportSnapshot handles exporting a room's full event sequence.
func (h *Handler) ExportSnapshot(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.validChannel(w, r)
	if !ok {
		return
	}
	h.JSON(w, http.StatusOK, h.engine.Export(channel))
}

// ImportSnapshot handles merging a posted snapshot into a room
// (authenticated). With ?replace=true the room is reset first, which
// requires the admin token like any other destructive operation.
func (h *Handler) ImportSnapshot(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.validChannel(w, r)
	if !ok {
		return
	}

	replace := r.URL.Query().Get("replace") == "true"
	if replace && !h.requireAdmin(w, r) {
		return
	}

	var snap ledger.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.engine.Import(channel, snap, replace)
	if err != nil {
		if errors.Is(err, ledger.ErrBadSnapshot) {
			h.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	metrics.EventsApplied.WithLabelValues("snapshot").Add(float64(res.Added))
	h.JSON(w, http.StatusOK, ImportResponse(res))
}

// SaveSnapshot handles persisting a room's snapshot through the
// durable store collaborator (authenticated).
func (h *Handler) SaveSnapshot(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.validChannel(w, r)
	if !ok {
		return
	}
	if h.db == nil {
		h.Error(w, http.StatusServiceUnavailable, "durable store not configured")
		return
	}

	snap := h.engine.Export(channel)
	if err := h.db.WriteSnapshot(r.Context(), snap); err != nil {
		h.Error(w, http.StatusBadGateway, "snapshot write failed; ledger state unaffected")
		return
	}

	metrics.SnapshotsSaved.Inc()
	h.JSON(w, http.StatusOK, SaveResponse{
		Channel: snap.Channel,
		Key:     store.SnapshotKey(snap.Channel),
		Events:  len(snap.Events),
	})
}

// RestoreSnapshot handles recovering a room from the durable store
// (authenticated). Merge semantics match live import: idempotent by
// tx_id, ?replace=true resets the room first.
func (h *Handler) RestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.validChannel(w, r)
	if !ok {
		return
	}
	if h.db == nil {
		h.Error(w, http.StatusServiceUnavailable, "durable store not configured")
		return
	}

	replace := r.URL.Query().Get("replace") == "true"
	if replace && !h.requireAdmin(w, r) {
		return
	}

	snap, err := h.db.ReadSnapshot(r.Context(), channel)
	if err != nil {
		h.Error(w, http.StatusBadGateway, "snapshot read failed")
		return
	}
	if snap == nil {
		h.Error(w, http.StatusNotFound, "no saved snapshot for this room")
		return
	}

	res, err := h.engine.Import(channel, *snap, replace)
	if err != nil {
		h.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	metrics.SnapshotsRestored.Inc()
	metrics.EventsApplied.WithLabelValues("snapshot").Add(float64(res.Added))
	h.JSON(w, http.StatusOK, ImportResponse(res))
}
