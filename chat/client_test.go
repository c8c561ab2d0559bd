package chat

import (
	"encoding/json"
	"testing"

	"github.com/nicebartender/dupeguard/dedupe"
)

func event(t *testing.T, name string, payload interface{}) wireMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return wireMessage{Type: "event", Event: name, Payload: raw}
}

func TestNormalizeChannel(t *testing.T) {
	tests := map[string]string{
		"#Foo":    "foo",
		"  #bar ": "bar",
		"baz":     "baz",
		"#ÀLICE":  "àlice",
		"":        "",
	}
	for in, want := range tests {
		if got := NormalizeChannel(in); got != want {
			t.Errorf("NormalizeChannel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWebsocketURL(t *testing.T) {
	tests := map[string]string{
		"ws://localhost:8090":  "ws://localhost:8090",
		"wss://chat.example":   "wss://chat.example",
		"http://localhost:1":   "ws://localhost:1",
		"https://chat.example": "wss://chat.example",
		"chat.example/":        "wss://chat.example",
	}
	for in, want := range tests {
		if got := websocketURL(in); got != want {
			t.Errorf("websocketURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSelfEchoUpdatesTracker(t *testing.T) {
	c := NewClient(Config{Username: "Alice", AvoidDuplicates: true})

	var got []Message
	c.OnMessage(func(m Message) { got = append(got, m) })

	c.handleEvent(event(t, "channel.message", Message{Channel: "foo", Sender: "alice", Text: "hi"}))
	c.handleEvent(event(t, "channel.message", Message{Channel: "foo", Sender: "bob", Text: "yo"}))

	last, ok := c.Modifier().Tracker().Last("foo")
	if !ok || last != (dedupe.LastMessage{Text: "hi"}) {
		t.Errorf("record = %+v (ok=%v), want alice's echo", last, ok)
	}
	if len(got) != 2 {
		t.Errorf("handlers saw %d messages, want 2", len(got))
	}
}

func TestMalformedEventsIgnored(t *testing.T) {
	c := NewClient(Config{Username: "alice", AvoidDuplicates: true})

	var got []Message
	c.OnMessage(func(m Message) { got = append(got, m) })

	c.handleEvent(wireMessage{Type: "event", Event: "channel.message", Payload: json.RawMessage(`{"channel":`)})
	c.handleEvent(event(t, "channel.message", map[string]string{"sender": "alice", "text": "no channel"}))
	c.handleEvent(event(t, "channel.message", map[string]string{"channel": "foo", "text": "no sender"}))
	c.handleEvent(event(t, "channel.userstate", map[string]interface{}{"badges": []string{"moderator"}}))

	if len(got) != 0 {
		t.Errorf("handlers saw %d malformed messages", len(got))
	}
	if _, ok := c.Modifier().Tracker().Last("foo"); ok {
		t.Error("malformed echo updated the tracker")
	}
	if _, ok := c.UserStates().ChannelState(""); ok {
		t.Error("userstate without channel was stored")
	}
}

func TestUserStateEvent(t *testing.T) {
	c := NewClient(Config{Username: "alice"})
	c.handleEvent(event(t, "channel.userstate", userStatePayload{Channel: "foo", Badges: []string{"vip"}}))

	state, ok := c.UserStates().ChannelState("foo")
	if !ok || !state.IsPrivileged() {
		t.Errorf("state = %+v (ok=%v), want vip", state, ok)
	}
	if c.Modifier() != nil {
		t.Error("modifier should be nil when duplicate avoidance is off")
	}
}

func TestChallengeEvent(t *testing.T) {
	c := NewClient(Config{Username: "alice"})
	c.handleEvent(event(t, "connect.challenge", map[string]string{"nonce": "abc"}))

	select {
	case nonce := <-c.challenge:
		if nonce != "abc" {
			t.Errorf("nonce = %q", nonce)
		}
	default:
		t.Fatal("challenge not delivered")
	}
}

func TestJoinedChannelsSorted(t *testing.T) {
	c := NewClient(Config{Username: "alice"})
	c.joined["zeta"] = true
	c.joined["alpha"] = true

	got := c.JoinedChannels()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zeta" {
		t.Errorf("JoinedChannels() = %v", got)
	}
	if !c.IsJoined("#Alpha") {
		t.Error("IsJoined should normalize its argument")
	}
}
