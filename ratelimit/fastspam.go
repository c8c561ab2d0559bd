// Package ratelimit decides whether a user may send at the elevated rate in a
// channel, based on the user state the server reports for that channel.
package ratelimit

import (
	"errors"
	"fmt"
	"slices"
)

const (
	BadgeBroadcaster = "broadcaster"
	BadgeModerator   = "moderator"
	BadgeVIP         = "vip"
)

var (
	ErrNoStateSource = errors.New("no user state source")
	ErrEmptyChannel  = errors.New("empty channel name")
	ErrEmptyUsername = errors.New("empty username")
)

// UserState is the logged in user's state in one channel.
type UserState struct {
	Channel string
	Badges  []string
	Mod     bool
}

func (s UserState) HasBadge(badge string) bool {
	return slices.Contains(s.Badges, badge)
}

// IsPrivileged reports whether the state grants the elevated send rate.
func (s UserState) IsPrivileged() bool {
	return s.Mod ||
		s.HasBadge(BadgeModerator) ||
		s.HasBadge(BadgeBroadcaster) ||
		s.HasBadge(BadgeVIP)
}

type StateSource interface {
	ChannelState(channel string) (UserState, bool)
}

// Result of CanSpamFast. Certain is false when no user state was known for
// the channel and the answer is a conservative guess of "not fast".
type Result struct {
	FastSpam bool
	Certain  bool
}

// CanSpamFast reports whether username may send fast in channel.
func CanSpamFast(channel, username string, states StateSource) (Result, error) {
	if channel == "" {
		return Result{}, ErrEmptyChannel
	}
	if username == "" {
		return Result{}, ErrEmptyUsername
	}

	// The broadcaster always may.
	if channel == username {
		return Result{FastSpam: true, Certain: true}, nil
	}

	if states == nil {
		return Result{}, fmt.Errorf("channel %s: %w", channel, ErrNoStateSource)
	}

	state, ok := states.ChannelState(channel)
	if !ok {
		return Result{FastSpam: false, Certain: false}, nil
	}
	return Result{FastSpam: state.IsPrivileged(), Certain: true}, nil
}

// Checker adapts CanSpamFast to a fast-send predicate.
type Checker struct {
	Source StateSource
}

func (c Checker) FastSend(channel, username string) (bool, error) {
	res, err := CanSpamFast(channel, username, c.Source)
	if err != nil {
		return false, err
	}
	return res.FastSpam, nil
}
