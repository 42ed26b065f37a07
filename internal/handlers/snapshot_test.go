package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MaivaSoftwares/intercom/internal/ledger"
)

func seedRoom(t *testing.T, h *Handler, channel string, events ...ledger.RawEvent) {
	t.Helper()
	for _, ev := range events {
		_, err := h.engine.Apply(channel, ev)
		require.NoError(t, err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	h := newTestHandler(t)
	seedRoom(t, h, "trip",
		ledger.RawEvent{TxID: "t1", Payer: "alice", AmountCents: 3000, Split: []string{"alice", "bob"}},
		ledger.RawEvent{TxID: "t2", Payer: "bob", AmountCents: 1000, Split: []string{"alice", "bob"}},
	)

	w := httptest.NewRecorder()
	h.ExportSnapshot(w, roomRequest(t, "GET", "trip", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var snap ledger.Snapshot
	require.NoError(t, json.NewDecoder(w.Body).Decode(&snap))
	assert.Equal(t, ledger.SnapshotVersion, snap.Version)
	require.Len(t, snap.Events, 2)

	// Importing the export into a fresh room reproduces the summary.
	w = httptest.NewRecorder()
	h.ImportSnapshot(w, roomRequest(t, "POST", "copy", snap))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ImportResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Added)
	assert.Equal(t, 2, resp.Total)

	assert.Equal(t, h.engine.Summarize("trip").Balances, h.engine.Summarize("copy").Balances)
}

func TestImportIsIdempotent(t *testing.T) {
	h := newTestHandler(t)
	seedRoom(t, h, "trip",
		ledger.RawEvent{TxID: "t1", Payer: "alice", AmountCents: 500, Split: []string{"alice"}},
	)

	snap := h.engine.Export("trip")

	w := httptest.NewRecorder()
	h.ImportSnapshot(w, roomRequest(t, "POST", "trip", snap))
	require.Equal(t, http.StatusOK, w.Code)

	var resp ImportResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 0, resp.Added)
	assert.Equal(t, 1, resp.Total)
}

func TestImportRejectsStructurallyInvalid(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.ImportSnapshot(w, roomRequest(t, "POST", "trip", map[string]interface{}{"version": 1}))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestImportReplaceRequiresAdmin(t *testing.T) {
	h := newTestHandler(t)
	seedRoom(t, h, "trip",
		ledger.RawEvent{TxID: "t1", Payer: "alice", AmountCents: 500, Split: []string{"alice"}},
	)
	snap := h.engine.Export("trip")

	req := roomRequest(t, "POST", "trip", snap)
	req.URL.RawQuery = "replace=true"
	w := httptest.NewRecorder()
	h.ImportSnapshot(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestSaveAndRestore(t *testing.T) {
	h := newTestHandler(t)
	seedRoom(t, h, "trip",
		ledger.RawEvent{TxID: "t1", Payer: "alice", AmountCents: 3000, Split: []string{"alice", "bob"}},
	)

	w := httptest.NewRecorder()
	h.SaveSnapshot(w, roomRequest(t, "POST", "trip", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var saved SaveResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&saved))
	assert.Equal(t, "expense/room/trip", saved.Key)
	assert.Equal(t, 1, saved.Events)

	// Simulate a fresh process: clear local state, then restore.
	h.engine.Clear("trip")
	require.Equal(t, 0, h.engine.Summarize("trip").EventCount)

	w = httptest.NewRecorder()
	h.RestoreSnapshot(w, roomRequest(t, "POST", "trip", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, h.engine.Summarize("trip").EventCount)
}

func TestRestoreWithoutSavedSnapshot(t *testing.T) {
	h := newTestHandler(t)

	w := httptest.NewRecorder()
	h.RestoreSnapshot(w, roomRequest(t, "POST", "nothing-here", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
