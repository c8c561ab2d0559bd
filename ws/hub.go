package ws

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const tickInterval = 10 * time.Second

type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	// Channel subscriptions: channel -> set of clients
	channelSubs map[string]map[*Client]bool
	mu          sync.RWMutex

	RPCRouter func(client *Client, req RPCRequest)
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		channelSubs: make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			nonce := generateNonce()
			client.setChallenge(nonce)
			client.SendJSON(NewEvent(EventChallenge, map[string]string{
				"nonce": nonce,
			}))
			slog.Debug("client connected, challenge sent")

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.done)
				h.removeFromAllChannels(client)
				slog.Info("client unregistered", "username", client.Username())
			}
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the request and serves the connection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade failed", "err", err)
		return
	}
	client := NewClient(h, conn)
	h.Register(client)
	go client.WritePump()
	go client.ReadPump()
}

func (h *Hub) Subscribe(channel string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.channelSubs[channel] == nil {
		h.channelSubs[channel] = make(map[*Client]bool)
	}
	h.channelSubs[channel][client] = true
}

func (h *Hub) Unsubscribe(channel string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.channelSubs[channel]; ok {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.channelSubs, channel)
		}
	}
}

func (h *Hub) IsSubscribed(channel string, client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.channelSubs[channel][client]
}

// Broadcast sends event to every client joined to channel except exclude.
func (h *Hub) Broadcast(channel string, event RPCEvent, exclude *Client) {
	h.mu.RLock()
	subs := make([]*Client, 0, len(h.channelSubs[channel]))
	for client := range h.channelSubs[channel] {
		subs = append(subs, client)
	}
	h.mu.RUnlock()

	for _, client := range subs {
		if client != exclude {
			client.SendJSON(event)
		}
	}
}

func (h *Hub) removeFromAllChannels(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for channel, subs := range h.channelSubs {
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.channelSubs, channel)
		}
	}
}

func (h *Hub) handleMessage(client *Client, data []byte) {
	var msg RPCMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		slog.Warn("invalid message", "err", err)
		return
	}

	switch msg.Type {
	case "req":
		// Handle connect specially (before auth check)
		if msg.Method == "connect" {
			h.handleConnect(client, msg)
			return
		}

		if !client.IsAuthenticated() {
			client.SendJSON(NewErrorResponse(msg.ID, CodeAuthRequired, "Not authenticated"))
			return
		}

		// Parse params into map
		var params map[string]json.RawMessage
		if msg.Params != nil {
			json.Unmarshal(msg.Params, &params)
		}
		if params == nil {
			params = make(map[string]json.RawMessage)
		}

		req := RPCRequest{ID: msg.ID, Method: msg.Method, Params: params}
		if h.RPCRouter != nil {
			h.RPCRouter(client, req)
		}

	default:
		slog.Warn("unknown message type", "type", msg.Type)
	}
}

func (h *Hub) handleConnect(client *Client, msg RPCMessage) {
	username, err := VerifyConnect(msg.Params, client.challenge())
	if err != nil {
		slog.Warn("auth failed", "err", err)
		client.SendJSON(NewErrorResponse(msg.ID, CodeAuthFailed, err.Error()))
		return
	}

	client.SetAuth(username)
	client.SendJSON(NewResponse(msg.ID, map[string]interface{}{
		"protocol": 1,
		"username": username,
		"policy": map[string]interface{}{
			"tickIntervalMs": tickInterval.Milliseconds(),
		},
	}))

	slog.Info("client authenticated", "username", username)

	go h.tickLoop(client)
}

func (h *Hub) tickLoop(client *Client) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-ticker.C:
			client.SendJSON(NewEvent(EventTick, nil))
		}
	}
}

func generateNonce() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
