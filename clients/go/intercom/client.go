// Package intercom provides a client for the intercom shared-expense relay.
package intercom

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Client is an intercom API client.
type Client struct {
	BaseURL    string
	ConfigDir  string
	PeerID     string
	PublicKey  ed25519.PublicKey
	PrivateKey ed25519.PrivateKey
	HTTPClient *http.Client
}

// Config holds peer credentials.
type Config struct {
	ID        string `json:"id"`
	PublicKey string `json:"public_key"`
}

// NewClient creates a new intercom client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	configDir := os.Getenv("INTERCOM_CONFIG")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, ".intercom")
	}

	c := &Client{
		BaseURL:    baseURL,
		ConfigDir:  configDir,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}

	_ = c.LoadConfig()
	return c
}

// LoadConfig loads peer credentials from disk.
func (c *Client) LoadConfig() error {
	configFile := filepath.Join(c.ConfigDir, "peer.json")
	keyFile := filepath.Join(c.ConfigDir, "private.key")

	data, err := os.ReadFile(configFile)
	if err != nil {
		return err
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return err
	}

	keyData, err := os.ReadFile(keyFile)
	if err != nil {
		return err
	}

	privBytes, err := base64.StdEncoding.DecodeString(string(keyData))
	if err != nil {
		return err
	}

	c.PeerID = config.ID
	c.PrivateKey = ed25519.NewKeyFromSeed(privBytes)
	c.PublicKey = c.PrivateKey.Public().(ed25519.PublicKey)

	return nil
}

// SaveConfig saves peer credentials to disk.
func (c *Client) SaveConfig() error {
	if err := os.MkdirAll(c.ConfigDir, 0700); err != nil {
		return err
	}

	config := Config{
		ID:        c.PeerID,
		PublicKey: base64.StdEncoding.EncodeToString(c.PublicKey),
	}

	data, _ := json.MarshalIndent(config, "", "  ")
	if err := os.WriteFile(filepath.Join(c.ConfigDir, "peer.json"), data, 0600); err != nil {
		return err
	}

	seed := c.PrivateKey.Seed()
	keyData := base64.StdEncoding.EncodeToString(seed)
	return os.WriteFile(filepath.Join(c.ConfigDir, "private.key"), []byte(keyData), 0600)
}

// GenerateKeypair generates a new Ed25519 keypair.
func (c *Client) GenerateKeypair() error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	c.PublicKey = pub
	c.PrivateKey = priv
	return nil
}

// signRequest creates authentication headers for a request.
func (c *Client) signRequest(body []byte) http.Header {
	hash := sha256.Sum256(body)
	hashHex := hex.EncodeToString(hash[:])

	nonceBytes := make([]byte, 12) // 24 hex chars for adequate entropy
	rand.Read(nonceBytes)
	nonce := hex.EncodeToString(nonceBytes)

	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	payload := fmt.Sprintf("%s|%s|%s", hashHex, nonce, timestamp)
	sig := ed25519.Sign(c.PrivateKey, []byte(payload))

	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	headers.Set("X-Intercom-Peer", c.PeerID)
	headers.Set("X-Intercom-Nonce", nonce)
	headers.Set("X-Intercom-Timestamp", timestamp)
	headers.Set("X-Intercom-Signature", base64.StdEncoding.EncodeToString(sig))
	return headers
}

// doRequest performs an HTTP request.
func (c *Client) doRequest(method, path string, body []byte, signed bool) ([]byte, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	if signed {
		req.Header = c.signRequest(body)
	} else {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		return nil, fmt.Errorf("intercom error %d: %s", resp.StatusCode, errResp.Error)
	}

	return respBody, nil
}

// RegisterRequest is the request body for peer registration.
type RegisterRequest struct {
	PublicKey string `json:"public_key"`
	Name      string `json:"name"`
}

// RegisterResponse is the response from peer registration.
type RegisterResponse struct {
	ID         string `json:"id"`
	ProfileURL string `json:"profile_url"`
}

// Register registers a new peer identity, generating a keypair and
// persisting the credentials on success.
func (c *Client) Register(name string) (*RegisterResponse, error) {
	if err := c.GenerateKeypair(); err != nil {
		return nil, err
	}

	req := RegisterRequest{
		PublicKey: base64.StdEncoding.EncodeToString(c.PublicKey),
		Name:      name,
	}

	body, _ := json.Marshal(req)
	respBody, err := c.doRequest("POST", "/register", body, false)
	if err != nil {
		return nil, err
	}

	var resp RegisterResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}

	c.PeerID = resp.ID
	if err := c.SaveConfig(); err != nil {
		return nil, err
	}

	return &resp, nil
}

// Event is one expense event in a room's sequence.
type Event struct {
	TxID        string   `json:"tx_id"`
	Payer       string   `json:"payer"`
	AmountCents int64    `json:"amount_cents"`
	Split       []string `json:"split"`
	Note        string   `json:"note,omitempty"`
	TS          int64    `json:"ts"`
	By          string   `json:"by,omitempty"`
}

// AddExpenseRequest is the request body for recording an expense.
// Amount is the human decimal form ("12.50"); AmountCents is exact.
type AddExpenseRequest struct {
	TxID        string   `json:"tx_id,omitempty"`
	Payer       string   `json:"payer"`
	Amount      string   `json:"amount,omitempty"`
	AmountCents int64    `json:"amount_cents,omitempty"`
	Split       []string `json:"split"`
	Note        string   `json:"note,omitempty"`
	TS          int64    `json:"ts,omitempty"`
}

// AddExpenseResponse is the response from recording an expense.
type AddExpenseResponse struct {
	Channel   string `json:"channel"`
	Duplicate bool   `json:"duplicate"`
	Broadcast bool   `json:"broadcast"`
	Event     Event  `json:"event"`
}

// AddExpense records an expense in a room.
func (c *Client) AddExpense(channel string, req AddExpenseRequest) (*AddExpenseResponse, error) {
	body, _ := json.Marshal(req)

	respBody, err := c.doRequest("POST", "/room/"+url.PathEscape(channel)+"/expense", body, true)
	if err != nil {
		return nil, err
	}

	var resp AddExpenseResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExpensesResponse is the response from listing a room's events.
type ExpensesResponse struct {
	Channel string  `json:"channel"`
	Count   int     `json:"count"`
	Events  []Event `json:"events"`
}

// GetExpenses retrieves a room's event sequence.
func (c *Client) GetExpenses(channel string) (*ExpensesResponse, error) {
	respBody, err := c.doRequest("GET", "/room/"+url.PathEscape(channel)+"/expenses", nil, false)
	if err != nil {
		return nil, err
	}

	var resp ExpensesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Balance is one member's net position in a room.
type Balance struct {
	Member string `json:"member"`
	Cents  int64  `json:"cents"`
}

// Settlement is one suggested transfer in a settlement plan.
type Settlement struct {
	From        string `json:"from"`
	To          string `json:"to"`
	AmountCents int64  `json:"amount_cents"`
}

// SummaryResponse is the balances-and-settlements view of a room.
type SummaryResponse struct {
	Channel     string       `json:"channel"`
	EventCount  int          `json:"event_count"`
	TotalCents  int64        `json:"total_cents"`
	Balances    []Balance    `json:"balances"`
	Settlements []Settlement `json:"settlements"`
}

// GetSummary retrieves a room's summary.
func (c *Client) GetSummary(channel string) (*SummaryResponse, error) {
	respBody, err := c.doRequest("GET", "/room/"+url.PathEscape(channel)+"/summary", nil, false)
	if err != nil {
		return nil, err
	}

	var resp SummaryResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RoomInfo is one live room in the list response.
type RoomInfo struct {
	Channel    string `json:"channel"`
	EventCount int    `json:"event_count"`
	TotalCents int64  `json:"total_cents"`
}

// RoomsResponse is the response from listing rooms.
type RoomsResponse struct {
	Rooms []RoomInfo `json:"rooms"`
	Total int        `json:"total"`
}

// ListRooms lists rooms that currently hold events.
func (c *Client) ListRooms() (*RoomsResponse, error) {
	respBody, err := c.doRequest("GET", "/rooms", nil, false)
	if err != nil {
		return nil, err
	}

	var resp RoomsResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FindMatch is one matching expense event.
type FindMatch struct {
	Channel string `json:"channel"`
	Event   Event  `json:"event"`
}

// FindResponse is the response from searching expense notes.
type FindResponse struct {
	Query   string      `json:"query"`
	Matches []FindMatch `json:"matches"`
	Total   int         `json:"total"`
}

// Find searches expense notes across rooms.
func (c *Client) Find(query string, limit int, channel string) (*FindResponse, error) {
	path := fmt.Sprintf("/find?q=%s&limit=%d", url.QueryEscape(query), limit)
	if channel != "" {
		path += "&channel=" + url.QueryEscape(channel)
	}

	respBody, err := c.doRequest("GET", path, nil, false)
	if err != nil {
		return nil, err
	}

	var resp FindResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Snapshot is a portable copy of a room's event sequence.
type Snapshot struct {
	Channel string  `json:"channel"`
	Version int     `json:"version"`
	Events  []Event `json:"events"`
}

// GetSnapshot exports a room's snapshot.
func (c *Client) GetSnapshot(channel string) (*Snapshot, error) {
	respBody, err := c.doRequest("GET", "/room/"+url.PathEscape(channel)+"/snapshot", nil, false)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(respBody, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ImportResponse is the response from importing a snapshot.
type ImportResponse struct {
	Channel string `json:"channel"`
	Added   int    `json:"added"`
	Total   int    `json:"total"`
}

// ImportSnapshot merges a snapshot into a room on the server.
func (c *Client) ImportSnapshot(channel string, snap *Snapshot) (*ImportResponse, error) {
	body, _ := json.Marshal(snap)

	respBody, err := c.doRequest("POST", "/room/"+url.PathEscape(channel)+"/snapshot", body, true)
	if err != nil {
		return nil, err
	}

	var resp ImportResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PeerProfile is a registered peer's profile.
type PeerProfile struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	PublicKey string `json:"public_key"`
	JoinedAt  string `json:"joined_at"`
}

// GetPeer gets a peer's profile.
func (c *Client) GetPeer(peerID string) (*PeerProfile, error) {
	respBody, err := c.doRequest("GET", "/who/"+peerID, nil, false)
	if err != nil {
		return nil, err
	}

	var resp PeerProfile
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	respBody, err := c.doRequest("GET", "/health", nil, false)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
