package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/MaivaSoftwares/intercom/internal/api/middleware"
	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/metrics"
)

// Channel name validation: alphanumeric, hyphens, underscores, 1-50 chars
var channelNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,50}$`)

// AddExpenseRequest represents the add-expense request. Amount is the
// human decimal form; AmountCents is the exact form used by relays and
// tooling. One of the two is required.
type AddExpenseRequest struct {
	TxID        string   `json:"tx_id,omitempty"`
	Payer       string   `json:"payer"`
	Amount      string   `json:"amount,omitempty"`
	AmountCents int64    `json:"amount_cents,omitempty"`
	Split       []string `json:"split"`
	Note        string   `json:"note,omitempty"`
	TS          int64    `json:"ts,omitempty"`
}

// AddExpenseResponse represents the add-expense response. Duplicate
// flags an idempotent replay; Broadcast reports best-effort delivery to
// peers and is false when publish failed (local state is kept).
type AddExpenseResponse struct {
	Channel   string       `json:"channel"`
	Duplicate bool         `json:"duplicate"`
	Broadcast bool         `json:"broadcast"`
	Event     ledger.Event `json:"event"`
}

// ExpenseListResponse represents the list-expenses response.
type ExpenseListResponse struct {
	Channel string         `json:"channel"`
	Count   int            `json:"count"`
	Events  []ledger.Event `json:"events"`
}

// validChannel extracts and validates the channel URL parameter.
func (h *Handler) validChannel(w http.ResponseWriter, r *http.Request) (string, bool) {
	channel := ledger.NormalizeChannel(chi.URLParam(r, "channel"))
	if !channelNameRegex.MatchString(channel) {
		h.Error(w, http.StatusBadRequest, "channel must be 1-50 characters, alphanumeric with hyphens and underscores only")
		return "", false
	}
	return channel, true
}

// AddExpense handles recording an expense event (authenticated).
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	peer := middleware.GetPeerFromContext(r.Context())
	if peer == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	channel, ok := h.validChannel(w, r)
	if !ok {
		return
	}

	var req AddExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cents := req.AmountCents
	if cents == 0 && req.Amount != "" {
		parsed, err := ledger.ParseAmount(req.Amount)
		if err != nil {
			h.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		cents = parsed
	}

	// Caller-side policy: the payer always shares their own expense.
	split := req.Split
	payer := ledger.NormalizeMember(req.Payer)
	if payer != "" && !containsMember(split, payer) {
		split = append([]string{payer}, split...)
	}

	txID := req.TxID
	if txID == "" {
		txID = ledger.NewTxID()
	}

	res, err := h.engine.Apply(channel, ledger.RawEvent{
		TxID:        txID,
		Payer:       req.Payer,
		AmountCents: cents,
		Split:       split,
		Note:        req.Note,
		TS:          req.TS,
		By:          peer.ID.String(),
	})
	if err != nil {
		metrics.EventsRejected.Inc()
		h.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if res.Duplicate {
		metrics.EventsDuplicate.WithLabelValues("local").Inc()
		h.JSON(w, http.StatusOK, AddExpenseResponse{
			Channel:   res.Channel,
			Duplicate: true,
			Event:     res.Event,
		})
		return
	}
	metrics.EventsApplied.WithLabelValues("local").Inc()

	// Publish after the local apply. A failed broadcast never rolls
	// back the ledger; the local peer stays authoritative.
	broadcast := h.publish(r.Context(), res.Channel, res.Event)

	h.JSON(w, http.StatusCreated, AddExpenseResponse{
		Channel:   res.Channel,
		Broadcast: broadcast,
		Event:     res.Event,
	})
}

func (h *Handler) publish(ctx context.Context, channel string, ev ledger.Event) bool {
	logger := zerolog.Ctx(ctx)

	bctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := h.peers.AddChannel(bctx, channel); err != nil {
		logger.Warn().Err(err).Str("channel", channel).Msg("join before broadcast failed")
		return false
	}
	if err := h.peers.Broadcast(bctx, channel, ev); err != nil {
		logger.Warn().Err(err).Str("channel", channel).Str("tx_id", ev.TxID).Msg("broadcast failed, local state kept")
		return false
	}
	return true
}

// ListExpenses handles fetching a room's event sequence.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	channel, ok := h.validChannel(w, r)
	if !ok {
		return
	}

	events := h.engine.List(channel)
	h.JSON(w, http.StatusOK, ExpenseListResponse{
		Channel: channel,
		Count:   len(events),
		Events:  events,
	})
}

// IngestExpense applies a relayed raw event without generating local
// defaults, used by tooling that replays another peer's log. Validation
// errors and duplicates report the same way as AddExpense.
func (h *Handler) IngestExpense(w http.ResponseWriter, r *http.Request) {
	peer := middleware.GetPeerFromContext(r.Context())
	if peer == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	channel, ok := h.validChannel(w, r)
	if !ok {
		return
	}

	var raw ledger.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	res, err := h.engine.Apply(channel, raw)
	if err != nil {
		metrics.EventsRejected.Inc()
		if errors.Is(err, ledger.ErrMissingTxID) {
			h.Error(w, http.StatusUnprocessableEntity, "relayed events must carry their originator's tx_id")
			return
		}
		h.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	status := http.StatusCreated
	source := "local"
	if res.Duplicate {
		status = http.StatusOK
		metrics.EventsDuplicate.WithLabelValues(source).Inc()
	} else {
		metrics.EventsApplied.WithLabelValues(source).Inc()
	}

	h.JSON(w, status, AddExpenseResponse{
		Channel:   res.Channel,
		Duplicate: res.Duplicate,
		Event:     res.Event,
	})
}

func containsMember(split []string, member string) bool {
	for _, s := range split {
		if ledger.NormalizeMember(s) == member {
			return true
		}
	}
	return false
}
