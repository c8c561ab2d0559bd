package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nicebartender/dupeguard/dedupe"
)

// Say sends a normal message to channel.
func (c *Client) Say(ctx context.Context, channel, text string) error {
	return c.sender.Say(ctx, NormalizeChannel(channel), text)
}

// Me sends an action message to channel.
func (c *Client) Me(ctx context.Context, channel, text string) error {
	return c.sender.Me(ctx, NormalizeChannel(channel), text)
}

// rawSender is the unwrapped network send.
type rawSender struct {
	c *Client
}

var _ dedupe.Sender = rawSender{}

func (s rawSender) Say(ctx context.Context, channel, text string) error {
	return s.c.sendMessage(ctx, channel, text, false)
}

func (s rawSender) Me(ctx context.Context, channel, text string) error {
	return s.c.sendMessage(ctx, channel, text, true)
}

func (c *Client) sendMessage(ctx context.Context, channel, text string, action bool) error {
	_, err := c.request(ctx, "channels.send", sendParams{
		Channel: channel,
		Text:    text,
		Action:  action,
	})
	return err
}

func (c *Client) Join(ctx context.Context, channel string) error {
	channel = NormalizeChannel(channel)
	if _, err := c.request(ctx, "channels.join", channelParams{Channel: channel}); err != nil {
		return fmt.Errorf("join %s: %w", channel, err)
	}

	c.joinedMu.Lock()
	c.joined[channel] = true
	c.joinedMu.Unlock()
	return nil
}

func (c *Client) Part(ctx context.Context, channel string) error {
	channel = NormalizeChannel(channel)
	if _, err := c.request(ctx, "channels.part", channelParams{Channel: channel}); err != nil {
		return fmt.Errorf("part %s: %w", channel, err)
	}

	c.joinedMu.Lock()
	delete(c.joined, channel)
	c.joinedMu.Unlock()
	c.userStates.Forget(channel)
	return nil
}

// IsJoined reports whether the client receives channel's messages.
func (c *Client) IsJoined(channel string) bool {
	c.joinedMu.RLock()
	defer c.joinedMu.RUnlock()
	return c.joined[NormalizeChannel(channel)]
}

func (c *Client) JoinedChannels() []string {
	c.joinedMu.RLock()
	channels := make([]string, 0, len(c.joined))
	for ch := range c.joined {
		channels = append(channels, ch)
	}
	c.joinedMu.RUnlock()
	slices.Sort(channels)
	return channels
}

// History returns up to limit recent messages of channel, oldest first.
func (c *Client) History(ctx context.Context, channel string, limit int) ([]Message, error) {
	channel = NormalizeChannel(channel)
	resp, err := c.request(ctx, "channels.history", map[string]interface{}{
		"channel": channel,
		"limit":   limit,
	})
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", channel, err)
	}

	var payload struct {
		Messages []Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Payload, &payload); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return payload.Messages, nil
}
