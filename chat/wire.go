package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire format — same as ws/protocol.go
type wireMessage struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  interface{}     `json:"params,omitempty"`
	OK      bool            `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   *wireError      `json:"error,omitempty"`
	Event   string          `json:"event,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RequestError is returned when the server rejects a request.
type RequestError struct {
	Method  string
	Code    string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s rejected: %s: %s", e.Method, e.Code, e.Message)
}

// Error codes the relay uses.
const (
	CodeDuplicate     = "DUPLICATE"
	CodeInvalidParams = "INVALID_PARAMS"
	CodeAuthRequired  = "AUTH_REQUIRED"
)

// Message is a chat message delivered by the server.
type Message struct {
	ID      string    `json:"id"`
	Channel string    `json:"channel"`
	Sender  string    `json:"sender"`
	Text    string    `json:"text"`
	Action  bool      `json:"action"`
	SentAt  time.Time `json:"sentAt"`
}

type userStatePayload struct {
	Channel string   `json:"channel"`
	Badges  []string `json:"badges"`
	Mod     bool     `json:"mod"`
}

type sendParams struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
	Action  bool   `json:"action"`
}

type channelParams struct {
	Channel string `json:"channel"`
}
