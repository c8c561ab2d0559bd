package rpc

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nicebartender/dupeguard/chat"
	"github.com/nicebartender/dupeguard/db"
	"github.com/nicebartender/dupeguard/ratelimit"
	"github.com/nicebartender/dupeguard/ws"
)

// DefaultDuplicateWindow is how long an identical message from the same
// sender is rejected.
const DefaultDuplicateWindow = 30 * time.Second

type Router struct {
	Hub *ws.Hub
	DB  *db.DB

	// DuplicateWindow <= 0 disables duplicate rejection.
	DuplicateWindow time.Duration
	// Moderators hold the moderator badge in every channel.
	Moderators map[string]bool
}

func NewRouter(hub *ws.Hub, database *db.DB) *Router {
	r := &Router{
		Hub:             hub,
		DB:              database,
		DuplicateWindow: DefaultDuplicateWindow,
		Moderators:      make(map[string]bool),
	}
	hub.RPCRouter = r.Handle
	return r
}

// SetModerators replaces the moderator list.
func (r *Router) SetModerators(names []string) {
	r.Moderators = make(map[string]bool, len(names))
	for _, name := range names {
		if n := chat.NormalizeChannel(name); n != "" {
			r.Moderators[n] = true
		}
	}
}

func (r *Router) Handle(client *ws.Client, req ws.RPCRequest) {
	slog.Debug("RPC", "method", req.Method, "username", client.Username())

	switch req.Method {
	case "channels.join":
		r.handleChannelsJoin(client, req)
	case "channels.part":
		r.handleChannelsPart(client, req)
	case "channels.send":
		r.handleChannelsSend(client, req)
	case "channels.history":
		r.handleChannelsHistory(client, req)
	default:
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeUnknownMethod, "Unknown method: "+req.Method))
	}
}

// badges returns the user's badges in channel.
func (r *Router) badges(channel, username string) []string {
	badges := []string{}
	if channel == username {
		badges = append(badges, ratelimit.BadgeBroadcaster)
	}
	if r.Moderators[username] {
		badges = append(badges, ratelimit.BadgeModerator)
	}
	return badges
}

func (r *Router) isPrivileged(channel, username string) bool {
	return len(r.badges(channel, username)) > 0
}

func jsonString(raw json.RawMessage) string {
	var s string
	if raw != nil {
		json.Unmarshal(raw, &s)
	}
	return s
}

func jsonInt(raw json.RawMessage) int {
	var i int
	if raw != nil {
		json.Unmarshal(raw, &i)
	}
	return i
}

func jsonBool(raw json.RawMessage) bool {
	var b bool
	if raw != nil {
		json.Unmarshal(raw, &b)
	}
	return b
}

func channelParam(req ws.RPCRequest) string {
	return chat.NormalizeChannel(jsonString(req.Params["channel"]))
}
