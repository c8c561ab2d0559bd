// Package dedupe keeps repeated chat messages from being dropped by the
// platform's duplicate-message filter.
package dedupe

import "sync"

// InvisibleSuffix is appended to a message that would otherwise be
// byte-identical to the previous one in the same channel. The space keeps the
// combining grapheme joiner from attaching to the last visible glyph.
const InvisibleSuffix = " \u034f"

// LastMessage is the most recent message known to come from the logged in
// user in a channel.
type LastMessage struct {
	Text   string
	Action bool
}

// Tracker remembers the last message per channel.
// Records are overwritten, never evicted.
type Tracker struct {
	mu   sync.Mutex
	last map[string]LastMessage
}

func NewTracker() *Tracker {
	return &Tracker{
		last: make(map[string]LastMessage),
	}
}

// AppendInvisibleCharacter returns text with InvisibleSuffix appended if the
// channel's last message has the same text and kind. It does not modify the
// tracker.
func (t *Tracker) AppendInvisibleCharacter(channel, text string, action bool) string {
	t.mu.Lock()
	last, ok := t.last[channel]
	t.mu.Unlock()

	if ok && last.Text == text && last.Action == action {
		return text + InvisibleSuffix
	}
	return text
}

// Record overwrites the channel's last message.
func (t *Tracker) Record(channel, text string, action bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[channel] = LastMessage{Text: text, Action: action}
}

func (t *Tracker) Last(channel string) (LastMessage, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.last[channel]
	return last, ok
}
