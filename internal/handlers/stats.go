package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"time"
)

// RoomStats represents stats for a single room.
type RoomStats struct {
	Channel    string `json:"channel"`
	EventCount int    `json:"event_count"`
	TotalCents int64  `json:"total_cents"`
}

// StatsResponse represents the response from the stats endpoint.
type StatsResponse struct {
	TotalPeers     int64       `json:"total_peers"`
	LiveRooms      int         `json:"live_rooms"`
	SavedSnapshots int64       `json:"saved_snapshots"`
	TotalEvents    int         `json:"total_events"`
	TotalCents     int64       `json:"total_cents"`
	LastActivity   string      `json:"last_activity"`
	TopRooms       []RoomStats `json:"top_rooms"`
}

// Stats returns node statistics.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var totalPeers, savedSnapshots int64
	if h.db != nil {
		totalPeers, _ = h.db.CountPeers(ctx)
		savedSnapshots, _ = h.db.CountSnapshots(ctx)
	}

	channels := h.engine.Channels()

	var totalEvents int
	var totalCents int64
	var lastTS int64
	rooms := make([]RoomStats, 0, len(channels))
	for _, ch := range channels {
		s := h.engine.Summarize(ch)
		totalEvents += s.EventCount
		totalCents += s.TotalCents
		rooms = append(rooms, RoomStats{
			Channel:    s.Channel,
			EventCount: s.EventCount,
			TotalCents: s.TotalCents,
		})

		for _, ev := range h.engine.List(ch) {
			if ev.TS > lastTS {
				lastTS = ev.TS
			}
		}
	}

	// Busiest rooms first, at most five.
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].EventCount > rooms[j].EventCount
	})
	if len(rooms) > 5 {
		rooms = rooms[:5]
	}

	lastActivity := "no activity yet"
	if lastTS > 0 {
		lastActivity = formatTimeAgo(time.UnixMilli(lastTS))
	}

	h.JSON(w, http.StatusOK, StatsResponse{
		TotalPeers:     totalPeers,
		LiveRooms:      len(channels),
		SavedSnapshots: savedSnapshots,
		TotalEvents:    totalEvents,
		TotalCents:     totalCents,
		LastActivity:   lastActivity,
		TopRooms:       rooms,
	})
}

// formatTimeAgo formats a time as a human-readable "X ago" string.
func formatTimeAgo(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return strconv.Itoa(mins) + " minutes ago"
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return strconv.Itoa(hours) + " hours ago"
	default:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return strconv.Itoa(days) + " days ago"
	}
}
