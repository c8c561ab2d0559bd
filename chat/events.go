package chat

import (
	"encoding/json"
	"log/slog"

	"github.com/nicebartender/dupeguard/dedupe"
	"github.com/nicebartender/dupeguard/ratelimit"
)

// OnMessage registers a handler for incoming chat messages. Handlers run on
// the read loop and must not block or call back into the client's request
// methods.
func (c *Client) OnMessage(fn func(Message)) {
	c.handlersMu.Lock()
	defer c.handlersMu.Unlock()
	c.handlers = append(c.handlers, fn)
}

func (c *Client) handleEvent(msg wireMessage) {
	switch msg.Event {
	case "connect.challenge":
		var payload struct {
			Nonce string `json:"nonce"`
		}
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Nonce == "" {
			slog.Debug("chat: bad challenge", "err", err)
			return
		}
		select {
		case c.challenge <- payload.Nonce:
		default:
		}

	case "channel.message":
		var m Message
		if err := json.Unmarshal(msg.Payload, &m); err != nil {
			slog.Debug("chat: bad message event", "err", err)
			return
		}
		if m.Channel == "" || m.Sender == "" {
			slog.Debug("chat: message event missing fields", "id", m.ID)
			return
		}
		c.dispatchMessage(m)

	case "channel.userstate":
		var payload userStatePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Channel == "" {
			slog.Debug("chat: bad userstate event", "err", err)
			return
		}
		c.userStates.Update(ratelimit.UserState{
			Channel: payload.Channel,
			Badges:  payload.Badges,
			Mod:     payload.Mod,
		})

	case "tick":
	default:
		slog.Debug("chat: unhandled event", "event", msg.Event)
	}
}

func (c *Client) dispatchMessage(m Message) {
	if c.modifier != nil {
		c.modifier.HandleEcho(dedupe.Echo{
			Channel: m.Channel,
			Sender:  m.Sender,
			Text:    m.Text,
			Action:  m.Action,
		})
	}

	c.handlersMu.RLock()
	handlers := c.handlers
	c.handlersMu.RUnlock()

	for _, fn := range handlers {
		fn(m)
	}
}
