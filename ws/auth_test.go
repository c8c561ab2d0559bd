package ws

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"testing"
	"time"
)

func signedParams(t *testing.T, username, nonce string, signedAt time.Time, tamper func(*ConnectParams)) json.RawMessage {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	hash := sha256.Sum256(pub)
	deviceID := hex.EncodeToString(hash[:])
	ms := signedAt.UnixMilli()

	sig := ed25519.Sign(priv, []byte(SignaturePayload(deviceID, "test-client", username, ms, nonce)))
	params := ConnectParams{
		MinProtocol: 1,
		MaxProtocol: 1,
		Username:    username,
		Client:      &ConnectClient{ID: "test-client"},
		Device: &ConnectDevice{
			ID:        deviceID,
			PublicKey: base64.RawURLEncoding.EncodeToString(pub),
			Signature: base64.RawURLEncoding.EncodeToString(sig),
			SignedAt:  ms,
			Nonce:     nonce,
		},
	}
	if tamper != nil {
		tamper(&params)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return raw
}

func TestVerifyConnect(t *testing.T) {
	raw := signedParams(t, "Alice", "n1", time.Now(), nil)

	username, err := VerifyConnect(raw, "n1")
	if err != nil {
		t.Fatalf("VerifyConnect: %v", err)
	}
	if username != "alice" {
		t.Errorf("username = %q, want %q", username, "alice")
	}
}

func TestVerifyConnectRejects(t *testing.T) {
	tests := []struct {
		name  string
		raw   json.RawMessage
		nonce string
	}{
		{"wrong nonce", signedParams(t, "alice", "n1", time.Now(), nil), "n2"},
		{"no challenge", signedParams(t, "alice", "", time.Now(), nil), ""},
		{"expired", signedParams(t, "alice", "n1", time.Now().Add(-10*time.Minute), nil), "n1"},
		{"missing username", signedParams(t, "", "n1", time.Now(), nil), "n1"},
		{"missing device", signedParams(t, "alice", "n1", time.Now(), func(p *ConnectParams) {
			p.Device = nil
		}), "n1"},
		{"claimed other user", signedParams(t, "alice", "n1", time.Now(), func(p *ConnectParams) {
			p.Username = "mallory"
		}), "n1"},
		{"device id mismatch", signedParams(t, "alice", "n1", time.Now(), func(p *ConnectParams) {
			p.Device.ID = "abc"
		}), "n1"},
		{"garbage", json.RawMessage(`{`), "n1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := VerifyConnect(tt.raw, tt.nonce); err == nil {
				t.Error("expected error")
			}
		})
	}
}
