package client

import (
	"strings"
	"unicode"
)

// maxNickLength is deliberately looser than the RFC 1459 limit of 9; modern
// servers advertise NICKLEN well above that, and collision retries append
// digits to the requested nick.
const maxNickLength = 30

func isValidChannelName(name string) bool {
	if len(name) < 2 || (!strings.HasPrefix(name, "#") && !strings.HasPrefix(name, "&")) {
		return false
	}
	// No spaces, commas or control characters per RFC 1459
	for _, r := range name[1:] {
		if r == ' ' || r == ',' || r == '\a' || unicode.IsControl(r) {
			return false
		}
	}
	return true
}

func isValidNick(nick string) bool {
	if len(nick) == 0 || len(nick) > maxNickLength {
		return false
	}

	// Must start with a letter
	if !unicode.IsLetter(rune(nick[0])) {
		return false
	}

	// Can only contain letters, numbers, - and _
	for _, r := range nick[1:] {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '_' {
			return false
		}
	}
	return true
}

// normalizeChannel trims whitespace and prepends the channel marker when the
// caller omitted it, so "general" and "#general" name the same channel.
func normalizeChannel(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if !strings.HasPrefix(name, "#") && !strings.HasPrefix(name, "&") {
		name = "#" + name
	}
	return name
}
