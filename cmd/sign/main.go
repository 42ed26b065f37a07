// Command sign produces the auth headers for a request to the control
// surface, for use with curl during development.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MaivaSoftwares/intercom/internal/crypto"
)

func main() {
	privKeyB64 := flag.String("key", "", "Base64-encoded Ed25519 private key")
	peerID := flag.String("peer", "", "Peer UUID")
	bodyFile := flag.String("body", "", "File containing request body (or use stdin)")
	flag.Parse()

	if *privKeyB64 == "" || *peerID == "" {
		fmt.Fprintln(os.Stderr, "Usage: sign -key <private-key-base64> -peer <peer-uuid> [-body <file>]")
		fmt.Fprintln(os.Stderr, "  Reads body from stdin if -body not specified")
		os.Exit(1)
	}

	privKeyBytes, err := base64.StdEncoding.DecodeString(*privKeyB64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid private key: %v\n", err)
		os.Exit(1)
	}
	privKey := ed25519.PrivateKey(privKeyBytes)

	var body []byte
	if *bodyFile != "" {
		body, err = os.ReadFile(*bodyFile)
	} else {
		body, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read body: %v\n", err)
		os.Exit(1)
	}

	nonceBytes := make([]byte, 12)
	rand.Read(nonceBytes)
	nonce := hex.EncodeToString(nonceBytes)

	timestamp := time.Now().UnixMilli()
	signature := crypto.SignRequest(privKey, body, nonce, timestamp)

	fmt.Printf("X-Intercom-Peer: %s\n", *peerID)
	fmt.Printf("X-Intercom-Nonce: %s\n", nonce)
	fmt.Printf("X-Intercom-Timestamp: %d\n", timestamp)
	fmt.Printf("X-Intercom-Signature: %s\n", signature)
}
