package ratelimit

import (
	"slices"
	"sync"
)

// UserStateTracker holds the latest user state per channel.
type UserStateTracker struct {
	mu     sync.RWMutex
	states map[string]UserState
}

func NewUserStateTracker() *UserStateTracker {
	return &UserStateTracker{
		states: make(map[string]UserState),
	}
}

func (t *UserStateTracker) Update(state UserState) {
	if state.Channel == "" {
		return
	}
	state.Badges = slices.Clone(state.Badges)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[state.Channel] = state
}

func (t *UserStateTracker) Forget(channel string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, channel)
}

func (t *UserStateTracker) ChannelState(channel string) (UserState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	state, ok := t.states[channel]
	return state, ok
}
