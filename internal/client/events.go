package client

import "time"

// MessageKind classifies a ChatMessage for the consumer.
type MessageKind string

const (
	KindMessage MessageKind = "message" // PRIVMSG traffic
	KindNotice  MessageKind = "notice"  // NOTICE traffic
	KindJoin    MessageKind = "join"    // a nick entered a channel
	KindPart    MessageKind = "part"    // a nick left a channel
	KindQuit    MessageKind = "quit"    // a nick disconnected
	KindTopic   MessageKind = "topic"   // a channel topic changed
	KindNick    MessageKind = "nick"    // a nick was renamed
)

// Event is one of ChatMessage, SystemNotice or StateSnapshot. Subscribers
// switch on the concrete type.
type Event interface{}

// ChatMessage represents channel or direct traffic, including membership
// changes rendered as inline activity. Content carries the message text for
// message/notice, the reason for part/quit, the new topic for topic and the
// new nick for nick.
type ChatMessage struct {
	Channel string
	Nick    string
	Content string
	Kind    MessageKind
	Time    time.Time
}

// SystemNotice represents out-of-band text the consumer should render
// verbatim (registration progress, connection lifecycle, retry activity).
type SystemNotice struct {
	Text string
}

// StateSnapshot represents the connection state at a point in time. A fresh
// snapshot is emitted after every change to connectivity, registration or
// channel membership.
type StateSnapshot struct {
	Connected  bool
	Registered bool
	Nick       string
	Channels   []string
}

// ChannelInfo describes one joined channel for the consumer.
type ChannelInfo struct {
	Name      string
	Topic     string
	UserCount int
	Users     []string
}

// EventHandler receives events synchronously, in emission order. Handlers
// must not block; slow consumers stall the read path.
type EventHandler func(Event)

// eventKind names an event for instrumentation.
func eventKind(ev Event) string {
	switch v := ev.(type) {
	case ChatMessage:
		return string(v.Kind)
	case SystemNotice:
		return "system"
	case StateSnapshot:
		return "snapshot"
	default:
		return "other"
	}
}
