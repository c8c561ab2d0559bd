package rpc

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nicebartender/dupeguard/db"
	"github.com/nicebartender/dupeguard/ws"
)

func (r *Router) handleChannelsSend(client *ws.Client, req ws.RPCRequest) {
	channel := channelParam(req)
	text := jsonString(req.Params["text"])
	action := jsonBool(req.Params["action"])

	if channel == "" || strings.TrimSpace(text) == "" {
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeInvalidParams, "channel and text are required"))
		return
	}

	sender := client.Username()
	dup, err := r.isDuplicate(channel, sender, text, action)
	if err != nil {
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeDBError, err.Error()))
		return
	}
	if dup {
		slog.Info("rejected duplicate message", "channel", channel, "sender", sender)
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeDuplicate,
			"Your message is identical to the one you sent less than "+r.DuplicateWindow.String()+" ago."))
		return
	}

	msg, err := r.DB.InsertMessage(uuid.NewString(), channel, sender, text, action)
	if err != nil {
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeDBError, err.Error()))
		return
	}

	// Joined clients, the sender included, get the message before the sender
	// gets its response.
	r.Hub.Broadcast(channel, ws.NewEvent(ws.EventMessage, messagePayload(msg)), nil)

	client.SendJSON(ws.NewResponse(req.ID, map[string]interface{}{
		"messageId": msg.ID,
	}))
}

// isDuplicate reports whether the platform rule drops this message: same
// text and kind as the sender's previous message in the channel, within the
// window. Privileged users are exempt.
func (r *Router) isDuplicate(channel, sender, text string, action bool) (bool, error) {
	if r.DuplicateWindow <= 0 || r.isPrivileged(channel, sender) {
		return false, nil
	}

	last, err := r.DB.LastMessageFrom(channel, sender)
	if err != nil || last == nil {
		return false, err
	}
	if last.Text != text || last.Action != action {
		return false, nil
	}
	return time.Since(last.CreatedAt) < r.DuplicateWindow, nil
}

func (r *Router) handleChannelsHistory(client *ws.Client, req ws.RPCRequest) {
	channel := channelParam(req)
	if channel == "" {
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeInvalidParams, "channel is required"))
		return
	}

	limit := jsonInt(req.Params["limit"])
	if limit <= 0 {
		limit = 50
	}

	var before *time.Time
	if bs := jsonString(req.Params["before"]); bs != "" {
		if t, err := time.Parse(time.RFC3339, bs); err == nil {
			before = &t
		}
	}

	messages, err := r.DB.GetMessages(channel, before, limit)
	if err != nil {
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeDBError, err.Error()))
		return
	}

	payloads := make([]ws.MessagePayload, 0, len(messages))
	for i := range messages {
		payloads = append(payloads, messagePayload(&messages[i]))
	}

	client.SendJSON(ws.NewResponse(req.ID, map[string]interface{}{
		"messages": payloads,
	}))
}

func messagePayload(m *db.Message) ws.MessagePayload {
	return ws.MessagePayload{
		ID:      m.ID,
		Channel: m.Channel,
		Sender:  m.Sender,
		Text:    m.Text,
		Action:  m.Action,
		SentAt:  m.CreatedAt,
	}
}
