package ws

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nicebartender/dupeguard/chat"
)

// maxSignatureAge bounds how old a signed challenge may be.
const maxSignatureAge = 5 * time.Minute

type ConnectParams struct {
	MinProtocol int            `json:"minProtocol"`
	MaxProtocol int            `json:"maxProtocol"`
	Username    string         `json:"username"`
	Client      *ConnectClient `json:"client"`
	Device      *ConnectDevice `json:"device"`
}

type ConnectClient struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Version     string `json:"version"`
}

type ConnectDevice struct {
	ID        string `json:"id"`
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
	SignedAt  int64  `json:"signedAt"`
	Nonce     string `json:"nonce"`
}

// SignaturePayload is the string a client signs to answer a challenge.
func SignaturePayload(deviceID, clientID, username string, signedAt int64, nonce string) string {
	return fmt.Sprintf("v1|%s|%s|%s|%d|%s", deviceID, clientID, username, signedAt, nonce)
}

// VerifyConnect validates the connect handshake and returns the login name.
func VerifyConnect(paramsRaw json.RawMessage, challengeNonce string) (username string, err error) {
	var params ConnectParams
	if err := json.Unmarshal(paramsRaw, &params); err != nil {
		return "", fmt.Errorf("invalid connect params: %w", err)
	}

	username = chat.NormalizeChannel(params.Username)
	if username == "" {
		return "", fmt.Errorf("missing username")
	}
	if params.Device == nil {
		return "", fmt.Errorf("missing device info")
	}
	dev := params.Device

	if challengeNonce == "" || dev.Nonce != challengeNonce {
		return "", fmt.Errorf("nonce mismatch")
	}

	signedAt := time.UnixMilli(dev.SignedAt)
	if math.Abs(time.Since(signedAt).Seconds()) > maxSignatureAge.Seconds() {
		return "", fmt.Errorf("signature expired")
	}

	pubKeyBytes, err := base64.RawURLEncoding.DecodeString(dev.PublicKey)
	if err != nil || len(pubKeyBytes) != ed25519.PublicKeySize {
		return "", fmt.Errorf("invalid public key")
	}

	// Device ID = SHA256(publicKey)
	hash := sha256.Sum256(pubKeyBytes)
	if dev.ID != hex.EncodeToString(hash[:]) {
		return "", fmt.Errorf("device ID mismatch")
	}

	sigBytes, err := base64.RawURLEncoding.DecodeString(dev.Signature)
	if err != nil {
		return "", fmt.Errorf("invalid signature encoding")
	}

	payload := SignaturePayload(dev.ID, safeClientID(params.Client), params.Username, dev.SignedAt, dev.Nonce)
	if !ed25519.Verify(ed25519.PublicKey(pubKeyBytes), []byte(payload), sigBytes) {
		slog.Warn("signature verification failed", "username", username)
		return "", fmt.Errorf("invalid signature")
	}

	return username, nil
}

func safeClientID(c *ConnectClient) string {
	if c == nil {
		return "unknown"
	}
	return c.ID
}
