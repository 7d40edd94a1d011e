// Package client implements a line-oriented IRC connection: the socket
// lifecycle, the registration handshake, channel and roster state, and the
// translation of raw wire traffic into structured events for a UI consumer.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ircclient/internal/config"
	"ircclient/internal/metrics"
	"ircclient/internal/ratelimit"
)

// Client owns one connection to one server. All inbound traffic is handled
// by a single reader goroutine, so state mutations from the wire are applied
// in arrival order; the mutex exists because the public command surface runs
// on caller goroutines.
type Client struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *metrics.Metrics

	mu        sync.RWMutex
	conn      Conn
	connected bool
	state     *connState
	subs      map[int]EventHandler
	nextSub   int
	sessionID string
	outbound  chan string
	done      chan struct{}

	// writeMu serializes socket writes so queued traffic and direct
	// control commands cannot interleave mid-line.
	writeMu sync.Mutex

	wg sync.WaitGroup
}

// New creates a client for the given configuration. logger may be nil, in
// which case slog.Default() is used; m may be nil to disable instrumentation.
func New(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:     cfg,
		log:     logger,
		metrics: m,
		state:   newConnState(cfg.Identity.Nick),
		subs:    make(map[int]EventHandler),
	}
}

// Subscribe registers a handler for all events. Handlers run synchronously
// in registration order. The returned id is passed to Unsubscribe.
func (c *Client) Subscribe(h EventHandler) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSub++
	c.subs[c.nextSub] = h
	return c.nextSub
}

// Unsubscribe removes a previously registered handler.
func (c *Client) Unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

// emit delivers an event to every subscriber. Handlers are invoked outside
// the state lock so they may call back into the client.
func (c *Client) emit(ev Event) {
	if c.metrics != nil {
		c.metrics.EventsTotal.WithLabelValues(eventKind(ev)).Inc()
	}

	c.mu.RLock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]EventHandler, len(ids))
	for i, id := range ids {
		handlers[i] = c.subs[id]
	}
	c.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Connect dials the server and starts the registration handshake. Calling
// it while already connected is a no-op. The context bounds the dial only;
// the connection itself lives until Disconnect or a socket failure.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.RLock()
	if c.connected {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()

	if !isValidNick(c.cfg.Identity.Nick) {
		return newError("connect", "", ErrInvalidNick)
	}

	var (
		conn Conn
		err  error
	)
	switch c.cfg.Server.Transport {
	case config.TransportWebsocket:
		conn, err = dialWebSocket(ctx, c.cfg.Server.WebsocketURL)
	default:
		conn, err = dialTCP(ctx, c.cfg.Server.Addr())
	}
	if err != nil {
		if c.metrics != nil {
			c.metrics.ConnectsTotal.WithLabelValues("error").Inc()
		}
		c.log.Error("connect failed", slog.String("error", err.Error()))
		c.emit(SystemNotice{Text: fmt.Sprintf("Connection failed: %v", err)})
		return newError("connect", "", err)
	}

	c.mu.Lock()
	if c.connected {
		// Lost a connect race; keep the established connection.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	sessionID := uuid.New().String()
	c.sessionID = sessionID
	c.conn = conn
	c.connected = true
	c.state = newConnState(c.cfg.Identity.Nick)
	c.outbound = make(chan string, c.cfg.IRC.QueueSize)
	c.done = make(chan struct{})
	done := c.done
	outbound := c.outbound
	nick := c.state.requestedNick
	snap := c.snapshotLocked()
	c.mu.Unlock()

	framer := newLineFramer(c.cfg.IRC.MaxLineLength)
	bucket := ratelimit.NewBucket(int64(c.cfg.IRC.FloodBurst), int64(c.cfg.IRC.FloodRate))

	c.wg.Add(2)
	go c.readLoop(conn, framer)
	go c.writeLoop(conn, outbound, done, bucket, sessionID)

	if c.metrics != nil {
		c.metrics.ConnectsTotal.WithLabelValues("success").Inc()
		c.metrics.Connected.Set(1)
		c.metrics.Registered.Set(0)
	}
	c.log.Info("connected",
		slog.String("addr", conn.RemoteAddr()),
		slog.String("nick", nick),
		slog.String("session_id", sessionID))

	// Registration handshake, ahead of any queued traffic.
	c.rawSend(fmt.Sprintf("NICK %s", nick))
	c.rawSend(fmt.Sprintf("USER %s 0 * :%s", nick, c.cfg.Identity.Realname))

	c.emit(SystemNotice{Text: "Connected to " + conn.RemoteAddr()})
	c.emit(snap)
	return nil
}

// Disconnect sends a polite QUIT, closes the socket and waits for the
// reader and writer to stop. Calling it while already disconnected is a
// no-op and emits nothing.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	conn := c.conn
	c.conn = nil
	close(c.done)
	quit := fmt.Sprintf("QUIT :%s", c.cfg.IRC.QuitReason)
	sessionID := c.sessionID
	c.mu.Unlock()

	// Best-effort goodbye before the socket drops.
	c.writeMu.Lock()
	_ = conn.WriteLine(quit)
	c.writeMu.Unlock()
	conn.Close()
	c.wg.Wait()

	c.mu.Lock()
	c.state.reset()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.Connected.Set(0)
		c.metrics.Registered.Set(0)
		c.metrics.DisconnectsTotal.WithLabelValues("local").Inc()
	}
	c.log.Info("disconnected", slog.String("session_id", sessionID))
	c.emit(SystemNotice{Text: "Disconnected"})
	c.emit(snap)
	return nil
}

// teardown handles an unexpected socket failure observed by the read loop.
// A concurrent or prior Disconnect wins: the second caller emits nothing.
func (c *Client) teardown(cause error) {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return
	}
	c.connected = false
	conn := c.conn
	c.conn = nil
	close(c.done)
	c.state.reset()
	snap := c.snapshotLocked()
	sessionID := c.sessionID
	c.mu.Unlock()

	conn.Close()

	reason := "error"
	text := fmt.Sprintf("Disconnected: %v", cause)
	switch {
	case errors.Is(cause, io.EOF):
		reason = "remote"
		text = "Disconnected: connection closed by server"
	case errors.Is(cause, ErrLineTooLong):
		reason = "line_too_long"
	}
	if c.metrics != nil {
		c.metrics.Connected.Set(0)
		c.metrics.Registered.Set(0)
		c.metrics.DisconnectsTotal.WithLabelValues(reason).Inc()
	}
	c.log.Warn("connection lost", slog.String("error", cause.Error()), slog.String("session_id", sessionID))
	c.emit(SystemNotice{Text: text})
	c.emit(snap)
}

// readLoop feeds the socket through the framer and dispatches every
// complete line. It owns all inbound state mutation.
func (c *Client) readLoop(conn Conn, framer *lineFramer) {
	defer c.wg.Done()

	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			lines, ferr := framer.feed(buf[:n])
			for _, line := range lines {
				c.handleLine(line)
			}
			if ferr != nil {
				c.teardown(ferr)
				return
			}
		}
		if err != nil {
			c.teardown(err)
			return
		}
	}
}

// writeLoop drains the outbound queue through the flood bucket so a burst
// of commands cannot get the connection dropped for excess flood.
func (c *Client) writeLoop(conn Conn, outbound <-chan string, done <-chan struct{}, bucket *ratelimit.Bucket, sessionID string) {
	defer c.wg.Done()

	for {
		select {
		case <-done:
			return
		case line := <-outbound:
			if !bucket.Wait(done) {
				return
			}
			if err := c.writeRaw(conn, line); err != nil {
				c.log.Error("write failed", slog.String("error", err.Error()), slog.String("session_id", sessionID))
			}
			if c.metrics != nil {
				c.metrics.QueueDepth.Set(float64(len(outbound)))
			}
		}
	}
}

// writeRaw performs one serialized line write.
func (c *Client) writeRaw(conn Conn, line string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteLine(line); err != nil {
		return err
	}
	if c.metrics != nil {
		c.metrics.LinesTotal.WithLabelValues("out").Inc()
	}
	return nil
}

// rawSend writes a line immediately, bypassing the paced queue. Control
// traffic (NICK, USER, PONG, QUIT) must not wait behind chat messages.
func (c *Client) rawSend(line string) error {
	c.mu.RLock()
	conn := c.conn
	ok := c.connected
	c.mu.RUnlock()
	if !ok || conn == nil {
		return ErrNotConnected
	}
	return c.writeRaw(conn, line)
}

// enqueue hands a line to the paced writer. It never blocks; a full queue
// is reported to the caller instead of stalling the read path.
func (c *Client) enqueue(line string) error {
	c.mu.RLock()
	if !c.connected {
		c.mu.RUnlock()
		return ErrNotConnected
	}
	outbound := c.outbound
	done := c.done
	c.mu.RUnlock()

	select {
	case outbound <- line:
		if c.metrics != nil {
			c.metrics.QueueDepth.Set(float64(len(outbound)))
		}
		return nil
	case <-done:
		return ErrNotConnected
	default:
		return ErrQueueFull
	}
}

// JoinChannel sends a JOIN for the (normalized) channel and records it
// locally. Joining a channel twice is harmless.
func (c *Client) JoinChannel(name string) error {
	channel := normalizeChannel(name)
	if channel == "" || !isValidChannelName(channel) {
		return newError("join", c.session(), ErrInvalidChannel)
	}
	if err := c.enqueue("JOIN " + channel); err != nil {
		return newError("join", c.session(), err)
	}

	c.mu.Lock()
	c.state.ensureChannel(channel)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap)
	return nil
}

// PartChannel sends a PART for the (normalized) channel and drops its
// roster and topic locally.
func (c *Client) PartChannel(name string) error {
	channel := normalizeChannel(name)
	if channel == "" || !isValidChannelName(channel) {
		return newError("part", c.session(), ErrInvalidChannel)
	}
	if err := c.enqueue("PART " + channel); err != nil {
		return newError("part", c.session(), err)
	}

	c.mu.Lock()
	c.state.dropChannel(channel)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.emit(snap)
	return nil
}

// SendMessage sends a PRIVMSG to a channel or nick. No local echo is
// synthesized; servers that echo deliver the message back through the
// normal PRIVMSG path.
func (c *Client) SendMessage(target, text string) error {
	target = strings.TrimSpace(target)
	if target == "" || strings.ContainsAny(target, " ,\r\n") {
		return newError("send", c.session(), ErrInvalidChannel)
	}
	if text == "" {
		return newError("send", c.session(), ErrEmptyMessage)
	}
	if strings.ContainsAny(text, "\r\n") {
		return newError("send", c.session(), ErrMalformedLine)
	}
	if err := c.enqueue(fmt.Sprintf("PRIVMSG %s :%s", target, text)); err != nil {
		return newError("send", c.session(), err)
	}
	if c.metrics != nil {
		c.metrics.MessagesTotal.WithLabelValues("out").Inc()
	}
	return nil
}

// Nick returns the current confirmed or provisional nick.
func (c *Client) Nick() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.localNick
}

// IsConnected reports whether the socket is open.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// State returns the current snapshot synchronously.
func (c *Client) State() StateSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Channels returns every joined channel with its topic and sorted roster.
func (c *Client) Channels() []ChannelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	infos := make([]ChannelInfo, 0, len(c.state.channels))
	for name, ch := range c.state.channels {
		users := make([]string, 0, len(ch.members))
		for nick := range ch.members {
			users = append(users, nick)
		}
		sort.Strings(users)
		infos = append(infos, ChannelInfo{
			Name:      name,
			Topic:     ch.topic,
			UserCount: len(users),
			Users:     users,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// snapshotLocked builds a snapshot. Callers must hold mu.
func (c *Client) snapshotLocked() StateSnapshot {
	return StateSnapshot{
		Connected:  c.connected,
		Registered: c.state.registered,
		Nick:       c.state.localNick,
		Channels:   c.state.channelNames(),
	}
}

func (c *Client) session() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}
