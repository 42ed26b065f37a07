package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/MaivaSoftwares/intercom/internal/api/middleware"
	"github.com/MaivaSoftwares/intercom/internal/ledger"
	"github.com/MaivaSoftwares/intercom/internal/models"
	"github.com/MaivaSoftwares/intercom/internal/store"
)

const testAdminToken = "test-admin-token"

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	db, err := store.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminToken), bcrypt.MinCost)
	require.NoError(t, err)

	return NewHandler(ledger.NewEngine(), db, nil, nil, string(hash))
}

// roomRequest builds a request carrying the channel URL param and an
// authenticated peer, the way the router and auth middleware would.
func roomRequest(t *testing.T, method, channel string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, "/room/"+url.PathEscape(channel), &buf)

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("channel", channel)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middleware.PeerContextKey, &models.Peer{ID: uuid.New(), Name: "tester"})

	return req.WithContext(ctx)
}

func TestAddExpensePrependsPayer(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.AddExpense(w, roomRequest(t, "POST", "trip", AddExpenseRequest{
		Payer:  "Alice",
		Amount: "30.00",
		Split:  []string{"bob", "carol"},
	}))

	require.Equal(t, http.StatusCreated, w.Code)

	var resp AddExpenseResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "trip", resp.Channel)
	assert.False(t, resp.Duplicate)
	assert.Equal(t, int64(3000), resp.Event.AmountCents)
	assert.Equal(t, []string{"alice", "bob", "carol"}, resp.Event.Split)
	assert.NotEmpty(t, resp.Event.TxID)
	assert.NotEmpty(t, resp.Event.By)
}

func TestAddExpenseIdempotentReplay(t *testing.T) {
	h := newTestHandler(t)

	req := AddExpenseRequest{
		TxID:        "tx-replay",
		Payer:       "alice",
		AmountCents: 1200,
		Split:       []string{"alice", "bob"},
	}

	w1 := httptest.NewRecorder()
	h.AddExpense(w1, roomRequest(t, "POST", "trip", req))
	require.Equal(t, http.StatusCreated, w1.Code)

	w2 := httptest.NewRecorder()
	h.AddExpense(w2, roomRequest(t, "POST", "trip", req))
	require.Equal(t, http.StatusOK, w2.Code)

	var resp AddExpenseResponse
	require.NoError(t, json.NewDecoder(w2.Body).Decode(&resp))
	assert.True(t, resp.Duplicate)

	summary := h.engine.Summarize("trip")
	assert.Equal(t, 1, summary.EventCount)
}

func TestAddExpenseValidation(t *testing.T) {
	h := newTestHandler(t)

	cases := []struct {
		name string
		req  AddExpenseRequest
		code int
	}{
		{"bad amount", AddExpenseRequest{Payer: "alice", Amount: "abc", Split: []string{"alice"}}, http.StatusUnprocessableEntity},
		{"negative cents", AddExpenseRequest{Payer: "alice", AmountCents: -5, Split: []string{"alice"}}, http.StatusUnprocessableEntity},
		{"missing payer", AddExpenseRequest{AmountCents: 100, Split: []string{"alice"}}, http.StatusUnprocessableEntity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.AddExpense(w, roomRequest(t, "POST", "trip", tc.req))
			assert.Equal(t, tc.code, w.Code)
		})
	}
}

func TestAddExpenseRejectsBadChannel(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.AddExpense(w, roomRequest(t, "POST", "no spaces allowed", AddExpenseRequest{
		Payer: "alice", AmountCents: 100, Split: []string{"alice"},
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestRequiresOriginatorTxID(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.IngestExpense(w, roomRequest(t, "POST", "trip", ledger.RawEvent{
		Payer:       "alice",
		AmountCents: 500,
		Split:       []string{"alice", "bob"},
	}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSummaryFormats(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.AddExpense(w, roomRequest(t, "POST", "trip", AddExpenseRequest{
		TxID: "t1", Payer: "alice", AmountCents: 2000, Split: []string{"alice", "bob"},
	}))
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("json", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.Summary(w, roomRequest(t, "GET", "trip", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var s ledger.Summary
		require.NoError(t, json.NewDecoder(w.Body).Decode(&s))
		assert.Equal(t, 1, s.EventCount)
		assert.Equal(t, int64(2000), s.TotalCents)
		require.Len(t, s.Settlements, 1)
		assert.Equal(t, "bob", s.Settlements[0].From)
		assert.Equal(t, "alice", s.Settlements[0].To)
		assert.Equal(t, int64(1000), s.Settlements[0].AmountCents)
	})

	t.Run("text", func(t *testing.T) {
		req := roomRequest(t, "GET", "trip", nil)
		req.URL.RawQuery = "format=text"
		w := httptest.NewRecorder()
		h.Summary(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "bob -> alice $10.00")
	})

	t.Run("csv", func(t *testing.T) {
		req := roomRequest(t, "GET", "trip", nil)
		req.URL.RawQuery = "format=csv"
		w := httptest.NewRecorder()
		h.Summary(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "from,to,amount_cents,amount")
		assert.Contains(t, w.Body.String(), "bob,alice,1000,$10.00")
	})

	t.Run("unknown format", func(t *testing.T) {
		req := roomRequest(t, "GET", "trip", nil)
		req.URL.RawQuery = "format=xml"
		w := httptest.NewRecorder()
		h.Summary(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestClearRoomRequiresAdminToken(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.AddExpense(w, roomRequest(t, "POST", "trip", AddExpenseRequest{
		TxID: "t1", Payer: "alice", AmountCents: 100, Split: []string{"alice"},
	}))
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.ClearRoom(w, roomRequest(t, "POST", "trip", nil))
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, 1, h.engine.Summarize("trip").EventCount)
	})

	t.Run("valid token", func(t *testing.T) {
		req := roomRequest(t, "POST", "trip", nil)
		req.Header.Set("X-Intercom-Admin-Token", testAdminToken)
		w := httptest.NewRecorder()
		h.ClearRoom(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var resp ClearResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 1, resp.Removed)
		assert.Equal(t, 0, h.engine.Summarize("trip").EventCount)
	})
}
