package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
)

// FindMatch represents one matching expense event.
type FindMatch struct {
	Channel string       `json:"channel"`
	Event   ledger.Event `json:"event"`
}

// FindResponse represents the note search response.
type FindResponse struct {
	Query   string      `json:"query"`
	Matches []FindMatch `json:"matches"`
	Total   int         `json:"total"`
}

// Find searches expense notes across rooms, case-insensitive substring
// match, newest first. ?channel= restricts the search to one room.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if query == "" {
		h.Error(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if limit > 200 {
		limit = 200
	}

	channels := h.engine.Channels()
	if roomFilter := ledger.NormalizeChannel(r.URL.Query().Get("channel")); roomFilter != "" {
		channels = []string{roomFilter}
	}

	var matches []FindMatch
	for _, ch := range channels {
		for _, ev := range h.engine.List(ch) {
			if strings.Contains(strings.ToLower(ev.Note), query) {
				matches = append(matches, FindMatch{Channel: ch, Event: ev})
			}
		}
	}

	// Newest first across rooms.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Event.TS > matches[j].Event.TS
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	if matches == nil {
		matches = []FindMatch{}
	}

	h.JSON(w, http.StatusOK, FindResponse{
		Query:   query,
		Matches: matches,
		Total:   len(matches),
	})
}
