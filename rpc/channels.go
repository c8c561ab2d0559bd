package rpc

import (
	"github.com/nicebartender/dupeguard/ws"
)

func (r *Router) handleChannelsJoin(client *ws.Client, req ws.RPCRequest) {
	channel := channelParam(req)
	if channel == "" {
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeInvalidParams, "channel is required"))
		return
	}

	username := client.Username()
	if !r.Hub.IsSubscribed(channel, client) {
		r.Hub.Subscribe(channel, client)
		r.Hub.Broadcast(channel, ws.NewEvent(ws.EventJoin, map[string]interface{}{
			"channel":  channel,
			"username": username,
		}), client)
	}

	// User state goes out before the response so it is known once the join
	// completes.
	client.SendJSON(ws.NewEvent(ws.EventUserState, ws.UserStatePayload{
		Channel: channel,
		Badges:  r.badges(channel, username),
		Mod:     r.Moderators[username],
	}))

	client.SendJSON(ws.NewResponse(req.ID, map[string]interface{}{
		"channel": channel,
	}))
}

func (r *Router) handleChannelsPart(client *ws.Client, req ws.RPCRequest) {
	channel := channelParam(req)
	if channel == "" {
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeInvalidParams, "channel is required"))
		return
	}

	if !r.Hub.IsSubscribed(channel, client) {
		client.SendJSON(ws.NewErrorResponse(req.ID, ws.CodeNotJoined, "Not joined to "+channel))
		return
	}

	r.Hub.Unsubscribe(channel, client)
	r.Hub.Broadcast(channel, ws.NewEvent(ws.EventPart, map[string]interface{}{
		"channel":  channel,
		"username": client.Username(),
	}), nil)

	client.SendJSON(ws.NewResponse(req.ID, map[string]interface{}{
		"channel": channel,
	}))
}
