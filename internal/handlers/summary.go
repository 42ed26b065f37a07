package handlers

import (
	"net/http"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
)

// Summary handles the balances-and-settlements view of a room. The
// format query switches between JSON (default), plain text, and CSV of
// the settlement rows; all three are projections of the same summary.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.validChannel(w, r)
	if !ok {
		return
	}

	summary := h.engine.Summarize(channel)

	switch r.URL.Query().Get("format") {
	case "", "json":
		h.JSON(w, http.StatusOK, summary)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(ledger.FormatText(summary)))
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(ledger.FormatCSV(summary)))
	default:
		h.Error(w, http.StatusBadRequest, "format must be json, text, or csv")
	}
}
