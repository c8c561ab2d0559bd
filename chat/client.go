// Package chat is a websocket chat client with duplicate-message avoidance
// on its send path.
package chat

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/nicebartender/dupeguard/dedupe"
	"github.com/nicebartender/dupeguard/ratelimit"
)

const (
	clientID              = "dupeguard-go"
	defaultRequestTimeout = 30 * time.Second
	challengeTimeout      = 10 * time.Second
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("connection closed")
)

type Config struct {
	URL      string
	Username string
	// AvoidDuplicates routes Say and Me through a dedupe.Modifier.
	AvoidDuplicates bool
	RequestTimeout  time.Duration
}

type Client struct {
	url      string
	username string
	timeout  time.Duration

	conn      *websocket.Conn
	connected bool
	mu        sync.Mutex
	writeMu   sync.Mutex
	nextID    atomic.Int64

	pending   map[string]chan wireMessage
	pendingMu sync.Mutex

	challenge chan string
	done      chan struct{}

	joined   map[string]bool
	joinedMu sync.RWMutex

	handlers   []func(Message)
	handlersMu sync.RWMutex

	userStates *ratelimit.UserStateTracker
	sender     dedupe.Sender
	modifier   *dedupe.Modifier

	// Ed25519 device identity
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	deviceID   string
}

func NewClient(cfg Config) *Client {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	hash := sha256.Sum256(pub)

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	c := &Client{
		url:        cfg.URL,
		username:   NormalizeChannel(cfg.Username),
		timeout:    timeout,
		pending:    make(map[string]chan wireMessage),
		challenge:  make(chan string, 1),
		done:       make(chan struct{}),
		joined:     make(map[string]bool),
		userStates: ratelimit.NewUserStateTracker(),
		privateKey: priv,
		publicKey:  pub,
		deviceID:   hex.EncodeToString(hash[:]),
	}

	c.sender = rawSender{c}
	if cfg.AvoidDuplicates {
		c.modifier = dedupe.NewModifier(c.sender, dedupe.NewTracker(),
			ratelimit.Checker{Source: c.userStates}, c, c.username)
		c.sender = c.modifier
	}
	return c
}

func (c *Client) Username() string {
	return c.username
}

// Modifier returns the duplicate-avoidance layer, or nil when disabled.
func (c *Client) Modifier() *dedupe.Modifier {
	return c.modifier
}

func (c *Client) UserStates() *ratelimit.UserStateTracker {
	return c.userStates
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect dials the server and completes the challenge handshake.
func (c *Client) Connect(ctx context.Context) error {
	wsURL := websocketURL(c.url)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readLoop()

	if err := c.authenticate(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("auth: %w", err)
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	slog.Info("chat: connected", "url", wsURL, "username", c.username)
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Done is closed when the connection's read loop exits.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func websocketURL(raw string) string {
	switch {
	case strings.HasPrefix(raw, "ws://"), strings.HasPrefix(raw, "wss://"):
		return raw
	case strings.HasPrefix(raw, "http://"):
		return "ws://" + strings.TrimPrefix(raw, "http://")
	case strings.HasPrefix(raw, "https://"):
		return "wss://" + strings.TrimPrefix(raw, "https://")
	}
	return "wss://" + strings.TrimSuffix(raw, "/")
}

func (c *Client) readLoop() {
	defer func() {
		select {
		case <-c.done:
		default:
			close(c.done)
		}
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			slog.Debug("chat: readLoop ended", "err", err)
			return
		}

		var msg wireMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("chat: dropping undecodable frame", "err", err)
			continue
		}

		switch msg.Type {
		case "res":
			c.pendingMu.Lock()
			ch, ok := c.pending[msg.ID]
			if ok {
				delete(c.pending, msg.ID)
			}
			c.pendingMu.Unlock()
			if ok {
				ch <- msg
				close(ch)
			}
		case "event":
			c.handleEvent(msg)
		}
	}
}

// request sends a req frame and waits for its res frame.
func (c *Client) request(ctx context.Context, method string, params interface{}) (wireMessage, error) {
	if err := ctx.Err(); err != nil {
		return wireMessage{}, err
	}

	id := fmt.Sprintf("go-%d", c.nextID.Add(1))

	ch := make(chan wireMessage, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	data, err := json.Marshal(wireMessage{
		Type:   "req",
		ID:     id,
		Method: method,
		Params: params,
	})
	if err != nil {
		return wireMessage{}, fmt.Errorf("marshal %s: %w", method, err)
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return wireMessage{}, ErrNotConnected
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	c.writeMu.Unlock()
	if err != nil {
		return wireMessage{}, fmt.Errorf("write %s: %w", method, err)
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		if !resp.OK {
			reqErr := &RequestError{Method: method, Code: "UNKNOWN", Message: "unknown error"}
			if resp.Error != nil {
				reqErr.Code = resp.Error.Code
				reqErr.Message = resp.Error.Message
			}
			return resp, reqErr
		}
		return resp, nil
	case <-timer.C:
		return wireMessage{}, fmt.Errorf("timeout waiting for %s response", method)
	case <-ctx.Done():
		return wireMessage{}, ctx.Err()
	case <-c.done:
		return wireMessage{}, ErrClosed
	}
}

// base64URLEncode encodes bytes to base64url without padding
func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func (c *Client) authenticate(ctx context.Context) error {
	var nonce string
	timeout := time.NewTimer(challengeTimeout)
	defer timeout.Stop()

	select {
	case nonce = <-c.challenge:
	case <-timeout.C:
		return fmt.Errorf("timeout waiting for challenge")
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return fmt.Errorf("connection closed before challenge")
	}

	signedAt := time.Now().UnixMilli()
	signPayload := fmt.Sprintf("v1|%s|%s|%s|%d|%s",
		c.deviceID, clientID, c.username, signedAt, nonce)
	signature := ed25519.Sign(c.privateKey, []byte(signPayload))

	params := map[string]interface{}{
		"minProtocol": 1,
		"maxProtocol": 1,
		"username":    c.username,
		"client": map[string]interface{}{
			"id":          clientID,
			"displayName": c.username,
			"version":     "1.0.0",
		},
		"device": map[string]interface{}{
			"id":        c.deviceID,
			"publicKey": base64URLEncode(c.publicKey),
			"signature": base64URLEncode(signature),
			"signedAt":  signedAt,
			"nonce":     nonce,
		},
	}

	if _, err := c.request(ctx, "connect", params); err != nil {
		return err
	}
	return nil
}
