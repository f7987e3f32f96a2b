package smf

import "fmt"

// Event is the tagged union of everything that can appear inside a track:
// a channel voice message, a meta event, or a system-exclusive event.
//
// Event is a sealed interface — isEvent is unexported, so only the three
// types defined here can implement it. A type switch over ChannelEvent,
// MetaEventWrapper, and SysExEventWrapper is therefore exhaustive, giving
// this closed tagged union the same safety a native sum type would.
type Event interface {
	isEvent()
	fmt.Stringer
}

// ChannelEvent is a channel voice message addressed to one of 16 channels.
type ChannelEvent struct {
	Channel uint8 // 0..15
	Message ChannelMessage
}

func (ChannelEvent) isEvent() {}

func (c ChannelEvent) String() string {
	return fmt.Sprintf("ch%d %s", c.Channel, c.Message)
}

// MetaEventWrapper wraps a decoded meta event. It exists only so MetaEvent
// (itself a sealed interface of many variants) can also be an Event.
type MetaEventWrapper struct {
	Event MetaEvent
}

func (MetaEventWrapper) isEvent() {}

func (m MetaEventWrapper) String() string { return m.Event.String() }

// SysExEventWrapper wraps a decoded system-exclusive event.
type SysExEventWrapper struct {
	Event SysExEvent
}

func (SysExEventWrapper) isEvent() {}

func (s SysExEventWrapper) String() string { return s.Event.String() }
