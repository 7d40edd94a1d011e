package client

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"
)

// handleLine parses one inbound line and dispatches it. Unparseable lines
// are dropped without an event; one bad line must not poison the stream.
func (c *Client) handleLine(line string) {
	if c.metrics != nil {
		c.metrics.LinesTotal.WithLabelValues("in").Inc()
	}

	msg, err := parseMessage(line)
	if err != nil {
		if c.metrics != nil {
			c.metrics.ParseErrors.Inc()
		}
		c.log.Debug("dropping unparseable line", slog.String("raw", line))
		return
	}
	c.dispatch(msg)
}

func (c *Client) dispatch(msg *Message) {
	switch msg.Command {
	case "PING":
		c.handlePing(msg)
	case RplWelcome:
		c.handleWelcome(msg)
	case ErrNicknameInUse:
		c.handleNickInUse(msg)
	case "PRIVMSG", "NOTICE":
		c.handleChat(msg)
	case "JOIN":
		c.handleJoin(msg)
	case "PART":
		c.handlePart(msg)
	case "QUIT":
		c.handleQuit(msg)
	case "TOPIC":
		c.handleTopic(msg)
	case "NICK":
		c.handleNickChange(msg)
	case RplNamReply:
		c.handleNames(msg)
	case RplEndOfNames:
		c.handleEndOfNames(msg)
	default:
		// MOTD, server notices and unknown numerics are ignored.
	}
}

// handlePing answers the server keepalive immediately, bypassing the paced
// queue; a delayed PONG gets the connection dropped.
func (c *Client) handlePing(msg *Message) {
	token := msg.Trailing
	if !msg.HasTrailing && len(msg.Params) > 0 {
		token = msg.Params[0]
	}
	if err := c.rawSend(fmt.Sprintf("PONG :%s", token)); err != nil {
		c.log.Error("pong failed", slog.String("error", err.Error()), slog.String("session_id", c.session()))
	}
}

// handleWelcome promotes the connection to registered. The welcome numeric
// names the nick the server actually accepted, which may be a collision
// retry candidate rather than the configured nick.
func (c *Client) handleWelcome(msg *Message) {
	c.mu.Lock()
	if c.state.registered {
		c.mu.Unlock()
		return
	}
	c.state.registered = true
	if len(msg.Params) > 0 {
		c.state.localNick = msg.Params[0]
		c.state.requestedNick = msg.Params[0]
	}
	snap := c.snapshotLocked()
	sessionID := c.sessionID
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.Registered.Set(1)
	}
	c.log.Info("registered", slog.String("nick", snap.Nick), slog.String("session_id", sessionID))

	text := msg.Trailing
	if text == "" {
		text = "Registered as " + snap.Nick
	}
	c.emit(SystemNotice{Text: text})
	c.emit(snap)
}

// handleNickInUse drives the collision retry policy: derive a new candidate
// by appending a random numeric suffix to the rejected one, up to the
// configured budget, then give up with a terminal notice. The connection is
// left open but unregistered; the caller decides whether to disconnect.
func (c *Client) handleNickInUse(msg *Message) {
	c.mu.Lock()
	sessionID := c.sessionID
	if c.state.registered {
		// A post-registration 433 would answer a manual nick change,
		// which this client never sends.
		c.mu.Unlock()
		return
	}
	if c.state.nickAttempts >= c.cfg.IRC.MaxNickAttempts {
		if c.state.nickExhausted {
			c.mu.Unlock()
			return
		}
		c.state.nickExhausted = true
		rejected := c.state.requestedNick
		c.mu.Unlock()

		c.log.Error("nick negotiation failed",
			slog.String("nick", rejected),
			slog.Int("attempts", c.cfg.IRC.MaxNickAttempts),
			slog.String("session_id", sessionID))
		c.emit(SystemNotice{Text: fmt.Sprintf("Nickname %s is in use and all retries failed; connection remains unregistered", rejected)})
		return
	}
	c.state.nickAttempts++
	candidate := fmt.Sprintf("%s%d", c.state.requestedNick, rand.Intn(1000))
	c.state.requestedNick = candidate
	c.state.localNick = candidate
	attempt := c.state.nickAttempts
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.NickRetries.Inc()
	}
	c.log.Warn("nick in use, retrying",
		slog.String("candidate", candidate),
		slog.Int("attempt", attempt),
		slog.String("session_id", sessionID))
	if err := c.rawSend("NICK " + candidate); err != nil {
		c.log.Error("nick retry failed", slog.String("error", err.Error()), slog.String("session_id", sessionID))
	}
	c.emit(SystemNotice{Text: "Nickname in use, trying " + candidate})
}

// handleChat turns PRIVMSG and NOTICE traffic into ChatMessage events. The
// target is a channel, or our own nick for direct messages.
func (c *Client) handleChat(msg *Message) {
	if len(msg.Params) == 0 {
		return
	}
	kind := KindMessage
	if msg.Command == "NOTICE" {
		kind = KindNotice
	}
	if c.metrics != nil {
		c.metrics.MessagesTotal.WithLabelValues("in").Inc()
	}
	c.emit(ChatMessage{
		Channel: msg.Params[0],
		Nick:    nickFromPrefix(msg.Prefix),
		Content: msg.Trailing,
		Kind:    kind,
		Time:    time.Now(),
	})
}

// handleJoin records a join in the channel roster. Our own join brings the
// channel into the membership set; joins for channels we are not in are
// dropped. Some servers carry the channel as a trailing parameter.
func (c *Client) handleJoin(msg *Message) {
	channel := ""
	switch {
	case len(msg.Params) > 0:
		channel = msg.Params[0]
	case msg.HasTrailing:
		channel = msg.Trailing
	}
	if channel == "" {
		return
	}
	nick := nickFromPrefix(msg.Prefix)

	c.mu.Lock()
	if nick == c.state.localNick {
		c.state.ensureChannel(channel)
	}
	joined := c.state.addMember(channel, nick)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if !joined {
		return
	}
	c.emit(ChatMessage{Channel: channel, Nick: nick, Kind: KindJoin, Time: time.Now()})
	c.emit(snap)
}

// handlePart prunes the roster; our own part drops the whole channel.
func (c *Client) handlePart(msg *Message) {
	if len(msg.Params) == 0 {
		return
	}
	channel := msg.Params[0]
	nick := nickFromPrefix(msg.Prefix)

	c.mu.Lock()
	self := nick == c.state.localNick
	if self {
		c.state.dropChannel(channel)
	} else {
		c.state.removeMember(channel, nick)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(ChatMessage{Channel: channel, Nick: nick, Content: msg.Trailing, Kind: KindPart, Time: time.Now()})
	if self {
		c.emit(snap)
	}
}

// handleQuit removes the nick from every roster that contains it. QUIT
// carries no channel on the wire, so one quit event is emitted per channel
// the nick was actually in.
func (c *Client) handleQuit(msg *Message) {
	nick := nickFromPrefix(msg.Prefix)
	if nick == "" {
		return
	}

	c.mu.Lock()
	affected := c.state.removeEverywhere(nick)
	c.mu.Unlock()

	for _, channel := range affected {
		c.emit(ChatMessage{Channel: channel, Nick: nick, Content: msg.Trailing, Kind: KindQuit, Time: time.Now()})
	}
}

// handleTopic records a topic change for a joined channel. An empty trailing
// parameter clears the topic.
func (c *Client) handleTopic(msg *Message) {
	if len(msg.Params) == 0 {
		return
	}
	channel := msg.Params[0]

	c.mu.Lock()
	joined := c.state.setTopic(channel, msg.Trailing)
	c.mu.Unlock()

	if !joined {
		return
	}
	c.emit(ChatMessage{
		Channel: channel,
		Nick:    nickFromPrefix(msg.Prefix),
		Content: msg.Trailing,
		Kind:    KindTopic,
		Time:    time.Now(),
	})
}

// handleNickChange rewrites a renamed nick in every roster. When the old
// nick is ours the local nick follows and a notice is emitted.
func (c *Client) handleNickChange(msg *Message) {
	newNick := msg.Trailing
	if !msg.HasTrailing {
		if len(msg.Params) == 0 {
			return
		}
		newNick = msg.Params[0]
	}
	if newNick == "" {
		return
	}
	oldNick := nickFromPrefix(msg.Prefix)

	c.mu.Lock()
	self := oldNick == c.state.localNick
	if self {
		c.state.localNick = newNick
		c.state.requestedNick = newNick
	}
	c.state.renameMember(oldNick, newNick)
	c.mu.Unlock()

	if self {
		c.emit(SystemNotice{Text: "You are now known as " + newNick})
	}
	c.emit(ChatMessage{Nick: oldNick, Content: newNick, Kind: KindNick, Time: time.Now()})
}

// handleNames unions a bulk names reply into a joined channel's roster. The
// channel is the last positional parameter; privilege markers on each nick
// are stripped.
func (c *Client) handleNames(msg *Message) {
	if len(msg.Params) == 0 || !msg.HasTrailing {
		return
	}
	channel := msg.Params[len(msg.Params)-1]

	c.mu.Lock()
	joined := false
	for _, name := range strings.Fields(msg.Trailing) {
		nick := strings.TrimLeft(name, "@+%&~")
		if nick != "" && c.state.addMember(channel, nick) {
			joined = true
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if !joined {
		return
	}
	c.emit(snap)
}

// handleEndOfNames marks the roster complete for this pass.
func (c *Client) handleEndOfNames(msg *Message) {
	c.emit(c.State())
}
