package crypto

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func testKeypair(t *testing.T) (ed25519.PrivateKey, string) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return priv, base64.StdEncoding.EncodeToString(pub)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	priv, pubB64 := testKeypair(t)

	body := []byte(`{"payer":"alice","amount":"30.00"}`)
	ts := time.Now().UnixMilli()
	sig := SignRequest(priv, body, "nonce-1234567890abcdefghij", ts)

	pub, err := ValidatePublicKey(pubB64)
	if err != nil {
		t.Fatal(err)
	}
	payload := SignaturePayload(BodyHash(body), "nonce-1234567890abcdefghij", ts)
	if err := VerifySignature(pub, payload, sig); err != nil {
		t.Fatal(err)
	}
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	priv, pubB64 := testKeypair(t)

	ts := time.Now().UnixMilli()
	sig := SignRequest(priv, []byte("original"), "n", ts)

	pub, _ := ValidatePublicKey(pubB64)
	payload := SignaturePayload(BodyHash([]byte("tampered")), "n", ts)
	err := VerifySignature(pub, payload, sig)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestValidatePublicKeyRejectsBadInput(t *testing.T) {
	if _, err := ValidatePublicKey("not base64!!"); !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
	short := base64.StdEncoding.EncodeToString(make([]byte, 16))
	if _, err := ValidatePublicKey(short); !errors.Is(err, ErrInvalidPublicKey) {
		t.Fatalf("expected ErrInvalidPublicKey, got %v", err)
	}
}
