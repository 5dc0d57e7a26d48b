package router

import "errors"

// ErrNotRegistered is returned when a SendMessage targets an actor with no
// registered mailbox.
var ErrNotRegistered = errors.New("actor not registered")

// ErrChannelNotOpen is returned when a ChannelMessage names a channel that
// is missing or not in the Open state.
var ErrChannelNotOpen = errors.New("channel not open")

// ErrMailboxFull is returned when a target's mailbox has no free capacity
// and the caller's context is cancelled before room frees up.
var ErrMailboxFull = errors.New("mailbox full")
