package dedupe

import (
	"context"
	"fmt"
	"log/slog"
)

// Sender performs the actual network send of normal and action messages.
type Sender interface {
	Say(ctx context.Context, channel, text string) error
	Me(ctx context.Context, channel, text string) error
}

// RateLimiter reports whether the user may send quickly in a channel. Fast
// senders are not subject to the platform's duplicate filter.
type RateLimiter interface {
	FastSend(channel, username string) (bool, error)
}

// JoinState reports whether the client currently receives a channel's
// messages, including echoes of its own.
type JoinState interface {
	IsJoined(channel string) bool
}

// Echo is a message the server delivered back to the client.
type Echo struct {
	Channel string
	Sender  string
	Text    string
	Action  bool
}

// Modifier wraps a Sender and appends InvisibleSuffix to messages the
// platform would drop as duplicates.
type Modifier struct {
	next     Sender
	tracker  *Tracker
	limiter  RateLimiter
	joins    JoinState
	username string
}

func NewModifier(next Sender, tracker *Tracker, limiter RateLimiter, joins JoinState, username string) *Modifier {
	if tracker == nil {
		tracker = NewTracker()
	}
	return &Modifier{
		next:     next,
		tracker:  tracker,
		limiter:  limiter,
		joins:    joins,
		username: username,
	}
}

func (m *Modifier) Tracker() *Tracker {
	return m.tracker
}

func (m *Modifier) Say(ctx context.Context, channel, text string) error {
	return m.send(ctx, channel, text, false)
}

func (m *Modifier) Me(ctx context.Context, channel, text string) error {
	return m.send(ctx, channel, text, true)
}

func (m *Modifier) send(ctx context.Context, channel, text string, action bool) error {
	fast, err := m.limiter.FastSend(channel, m.username)
	if err != nil {
		return fmt.Errorf("fast send check: %w", err)
	}

	if fast {
		return m.forward(ctx, channel, text, action)
	}

	out := m.tracker.AppendInvisibleCharacter(channel, text, action)
	if out != text {
		slog.Debug("dedupe: appending invisible suffix", "channel", channel, "action", action)
	}

	if err := m.forward(ctx, channel, out, action); err != nil {
		return err
	}

	if !m.joins.IsJoined(channel) {
		// Not joined: no echo will arrive, so remember what was sent.
		m.tracker.Record(channel, out, action)
	}
	return nil
}

func (m *Modifier) forward(ctx context.Context, channel, text string, action bool) error {
	if action {
		return m.next.Me(ctx, channel, text)
	}
	return m.next.Say(ctx, channel, text)
}

// HandleEcho records the server's copy of a message sent by the logged in
// user. It always wins over what send inferred.
func (m *Modifier) HandleEcho(e Echo) {
	if e.Channel == "" || e.Sender == "" {
		return
	}
	if e.Sender != m.username {
		return
	}
	m.tracker.Record(e.Channel, e.Text, e.Action)
}
