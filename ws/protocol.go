package ws

import (
	"encoding/json"
	"time"
)

// Error codes sent in RPCError.Code.
const (
	CodeAuthRequired  = "AUTH_REQUIRED"
	CodeAuthFailed    = "AUTH_FAILED"
	CodeInvalidParams = "INVALID_PARAMS"
	CodeUnknownMethod = "UNKNOWN_METHOD"
	CodeNotJoined     = "NOT_JOINED"
	CodeDuplicate     = "DUPLICATE"
	CodeDBError       = "DB_ERROR"
)

// Event names sent in RPCEvent.Event.
const (
	EventChallenge = "connect.challenge"
	EventTick      = "tick"
	EventMessage   = "channel.message"
	EventUserState = "channel.userstate"
	EventJoin      = "channel.join"
	EventPart      = "channel.part"
)

// RPCMessage is the type-peek for incoming messages
type RPCMessage struct {
	Type   string          `json:"type"`
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
}

// RPCRequest is a parsed incoming request
type RPCRequest struct {
	ID     string
	Method string
	Params map[string]json.RawMessage
}

type RPCResponse struct {
	Type    string      `json:"type"`
	ID      string      `json:"id"`
	OK      bool        `json:"ok"`
	Payload interface{} `json:"payload,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RPCEvent struct {
	Type    string      `json:"type"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// MessagePayload is the payload of EventMessage.
type MessagePayload struct {
	ID      string    `json:"id"`
	Channel string    `json:"channel"`
	Sender  string    `json:"sender"`
	Text    string    `json:"text"`
	Action  bool      `json:"action"`
	SentAt  time.Time `json:"sentAt"`
}

// UserStatePayload is the payload of EventUserState.
type UserStatePayload struct {
	Channel string   `json:"channel"`
	Badges  []string `json:"badges"`
	Mod     bool     `json:"mod"`
}

func NewResponse(id string, payload interface{}) RPCResponse {
	return RPCResponse{Type: "res", ID: id, OK: true, Payload: payload}
}

func NewErrorResponse(id, code, message string) RPCResponse {
	return RPCResponse{
		Type:  "res",
		ID:    id,
		OK:    false,
		Error: &RPCError{Code: code, Message: message},
	}
}

func NewEvent(event string, payload interface{}) RPCEvent {
	return RPCEvent{Type: "event", Event: event, Payload: payload}
}
