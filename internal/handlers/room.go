package handlers

import (
	"net/http"

	"github.com/MaivaSoftwares/intercom/internal/metrics"
)

// RoomInfo represents one live room in the list response.
type RoomInfo struct {
	Channel    string `json:"channel"`
	EventCount int    `json:"event_count"`
	TotalCents int64  `json:"total_cents"`
}

// RoomListResponse represents the rooms list response.
type RoomListResponse struct {
	Rooms []RoomInfo `json:"rooms"`
	Total int        `json:"total"`
}

// ClearResponse represents a completed room reset.
type ClearResponse struct {
	Channel string `json:"channel"`
	Removed int    `json:"removed"`
}

// ListRooms handles listing rooms that currently hold events.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	channels := h.engine.Channels()

	rooms := make([]RoomInfo, len(channels))
	for i, ch := range channels {
		s := h.engine.Summarize(ch)
		rooms[i] = RoomInfo{
			Channel:    s.Channel,
			EventCount: s.EventCount,
			TotalCents: s.TotalCents,
		}
	}

	h.JSON(w, http.StatusOK, RoomListResponse{Rooms: rooms, Total: len(rooms)})
}

// ClearRoom handles the destructive room reset (authenticated + admin
// token). The reset is local only: telling peers to clear their copies
// is a separate concern for the operator driving this endpoint.
func (h *Handler) ClearRoom(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.validChannel(w, r)
	if !ok {
		return
	}
	if !h.requireAdmin(w, r) {
		return
	}

	res := h.engine.Clear(channel)
	metrics.RoomsCleared.Inc()
	h.JSON(w, http.StatusOK, ClearResponse(res))
}
