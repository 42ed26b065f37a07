package intercom

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL)
	c.ConfigDir = t.TempDir()
	if err := c.GenerateKeypair(); err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	c.PeerID = "11111111-1111-1111-1111-111111111111"
	return c, srv
}

func TestSignedRequestHeaders(t *testing.T) {
	var got http.Header
	var gotBody []byte

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"channel":"trip","event":{"tx_id":"t1"}}`)
	}))

	_, err := c.AddExpense("trip", AddExpenseRequest{Payer: "alice", Amount: "10.00", Split: []string{"alice", "bob"}})
	if err != nil {
		t.Fatalf("AddExpense: %v", err)
	}

	if got.Get("X-Intercom-Peer") != c.PeerID {
		t.Errorf("peer header = %q, want %q", got.Get("X-Intercom-Peer"), c.PeerID)
	}
	nonce := got.Get("X-Intercom-Nonce")
	if len(nonce) != 24 {
		t.Errorf("nonce length = %d, want 24", len(nonce))
	}
	tsStr := got.Get("X-Intercom-Timestamp")
	if _, err := strconv.ParseInt(tsStr, 10, 64); err != nil {
		t.Errorf("timestamp %q not an integer: %v", tsStr, err)
	}

	// The signature must verify against bodyHash|nonce|timestamp with
	// the client's own public key.
	sig, err := base64.StdEncoding.DecodeString(got.Get("X-Intercom-Signature"))
	if err != nil {
		t.Fatalf("decode signature: %v", err)
	}
	sum := sha256.Sum256(gotBody)
	payload := fmt.Sprintf("%s|%s|%s", hex.EncodeToString(sum[:]), nonce, tsStr)
	if !ed25519.Verify(c.PublicKey, []byte(payload), sig) {
		t.Error("signature did not verify against signed payload")
	}
}

func TestErrorResponses(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":"amount must be positive"}`)
	}))

	_, err := c.AddExpense("trip", AddExpenseRequest{Payer: "alice", AmountCents: -5, Split: []string{"alice"}})
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	want := "intercom error 422: amount must be positive"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}

func TestSummaryRoundTrip(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/room/trip/summary" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(SummaryResponse{
			Channel:    "trip",
			EventCount: 2,
			TotalCents: 3000,
			Balances: []Balance{
				{Member: "alice", Cents: 1500},
				{Member: "bob", Cents: -1500},
			},
			Settlements: []Settlement{
				{From: "bob", To: "alice", AmountCents: 1500},
			},
		})
	}))

	resp, err := c.GetSummary("trip")
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if resp.EventCount != 2 || resp.TotalCents != 3000 {
		t.Errorf("summary = %+v", resp)
	}
	if len(resp.Settlements) != 1 || resp.Settlements[0].From != "bob" {
		t.Errorf("settlements = %+v", resp.Settlements)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	c, _ := newTestClient(t, http.NotFoundHandler())
	if err := c.SaveConfig(); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	reloaded := &Client{ConfigDir: c.ConfigDir}
	if err := reloaded.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if reloaded.PeerID != c.PeerID {
		t.Errorf("peer ID = %q, want %q", reloaded.PeerID, c.PeerID)
	}
	if !reloaded.PublicKey.Equal(c.PublicKey) {
		t.Error("public key mismatch after reload")
	}
}
