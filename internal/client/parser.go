package client

import "strings"

// Message represents one parsed protocol line.
//
// Raw keeps the original line for diagnostics. HasTrailing distinguishes a
// line with no trailing parameter from one whose trailing parameter is the
// empty string ("TOPIC #chan :" clears a topic, "TOPIC #chan" queries it).
type Message struct {
	Prefix      string   // Sender prefix without the leading colon, "" if absent
	Command     string   // Command or numeric, uppercased
	Params      []string // Positional parameters before the trailing marker
	Trailing    string   // Trailing parameter without the leading colon
	HasTrailing bool
	Raw         string
}

// parseMessage parses a terminator-stripped line into a Message. Lines that
// do not conform are reported as ErrMalformedLine; the dispatcher drops them
// and carries on.
func parseMessage(line string) (*Message, error) {
	raw := line
	if line == "" {
		return nil, ErrMalformedLine
	}

	msg := &Message{Raw: raw}

	// ":prefix command ..." - prefix runs to the first space
	if line[0] == ':' {
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return nil, ErrMalformedLine
		}
		msg.Prefix = line[1:sp]
		line = line[sp+1:]
	}

	// The trailing parameter starts at the first " :" and absorbs the rest
	// of the line verbatim, embedded spaces included.
	if idx := strings.Index(line, " :"); idx >= 0 {
		msg.Trailing = line[idx+2:]
		msg.HasTrailing = true
		line = line[:idx]
	}

	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return nil, ErrMalformedLine
	}

	msg.Command = strings.ToUpper(tokens[0])
	msg.Params = tokens[1:]
	return msg, nil
}

// nickFromPrefix reduces a "nick!user@host" prefix to the nick. A prefix
// with no user part (a server name) is returned whole.
func nickFromPrefix(prefix string) string {
	if i := strings.IndexByte(prefix, '!'); i >= 0 {
		return prefix[:i]
	}
	return prefix
}
