package client

import "sort"

// channelState tracks what the server has told us about one joined channel.
type channelState struct {
	topic   string
	members map[string]bool
}

// connState is the authoritative local view of one connection: the nick, the
// registration status and the joined channels with their rosters. It is not
// safe for concurrent use; the owning Client serializes access.
type connState struct {
	localNick     string // confirmed or provisional nick
	requestedNick string // nick currently being negotiated, never empty
	registered    bool
	nickAttempts  int
	nickExhausted bool
	channels      map[string]*channelState
}

func newConnState(nick string) *connState {
	return &connState{
		localNick:     nick,
		requestedNick: nick,
		channels:      make(map[string]*channelState),
	}
}

// ensureChannel returns the state for a channel, creating an empty roster on
// first sight.
func (s *connState) ensureChannel(name string) *channelState {
	ch, ok := s.channels[name]
	if !ok {
		ch = &channelState{members: make(map[string]bool)}
		s.channels[name] = ch
	}
	return ch
}

// dropChannel forgets a channel along with its roster and topic.
func (s *connState) dropChannel(name string) {
	delete(s.channels, name)
}

// addMember records a nick in a joined channel's roster. It reports whether
// the channel is actually joined; traffic still in flight after a local part
// must not resurrect the channel.
func (s *connState) addMember(channel, nick string) bool {
	ch, ok := s.channels[channel]
	if !ok {
		return false
	}
	ch.members[nick] = true
	return true
}

// setTopic records a channel topic, reporting whether the channel is joined.
func (s *connState) setTopic(channel, topic string) bool {
	ch, ok := s.channels[channel]
	if !ok {
		return false
	}
	ch.topic = topic
	return true
}

// removeMember removes a nick from one channel's roster.
func (s *connState) removeMember(channel, nick string) {
	if ch, ok := s.channels[channel]; ok {
		delete(ch.members, nick)
	}
}

// removeEverywhere removes a nick from every roster that contains it and
// returns the affected channel names in sorted order. QUIT carries no
// channel parameter on the wire, so this is how a quit is applied.
func (s *connState) removeEverywhere(nick string) []string {
	var affected []string
	for name, ch := range s.channels {
		if ch.members[nick] {
			delete(ch.members, nick)
			affected = append(affected, name)
		}
	}
	sort.Strings(affected)
	return affected
}

// renameMember rewrites a nick in place in every roster that contains it.
func (s *connState) renameMember(oldNick, newNick string) {
	for _, ch := range s.channels {
		if ch.members[oldNick] {
			delete(ch.members, oldNick)
			ch.members[newNick] = true
		}
	}
}

// channelNames returns the joined channels in sorted order.
func (s *connState) channelNames() []string {
	names := make([]string, 0, len(s.channels))
	for name := range s.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// reset clears everything tied to a live connection. The last known nick is
// kept for display; the next connect negotiates from scratch.
func (s *connState) reset() {
	s.registered = false
	s.nickAttempts = 0
	s.nickExhausted = false
	s.channels = make(map[string]*channelState)
}
