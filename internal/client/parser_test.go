package client

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Message
	}{
		{
			name: "full privmsg",
			line: ":nick!user@host PRIVMSG #chan :hello world",
			want: Message{
				Prefix:      "nick!user@host",
				Command:     "PRIVMSG",
				Params:      []string{"#chan"},
				Trailing:    "hello world",
				HasTrailing: true,
			},
		},
		{
			name: "no prefix",
			line: "PING :abc123",
			want: Message{
				Command:     "PING",
				Params:      []string{},
				Trailing:    "abc123",
				HasTrailing: true,
			},
		},
		{
			name: "no trailing",
			line: ":nick!user@host JOIN #chan",
			want: Message{
				Prefix:  "nick!user@host",
				Command: "JOIN",
				Params:  []string{"#chan"},
			},
		},
		{
			name: "numeric with several params",
			line: ":irc.example.org 353 gopher = #chan :@alice +bob carol",
			want: Message{
				Prefix:      "irc.example.org",
				Command:     "353",
				Params:      []string{"gopher", "=", "#chan"},
				Trailing:    "@alice +bob carol",
				HasTrailing: true,
			},
		},
		{
			name: "empty trailing is kept distinct",
			line: "TOPIC #chan :",
			want: Message{
				Command:     "TOPIC",
				Params:      []string{"#chan"},
				Trailing:    "",
				HasTrailing: true,
			},
		},
		{
			name: "command only",
			line: "QUIT",
			want: Message{
				Command: "QUIT",
				Params:  []string{},
			},
		},
		{
			name: "lowercase command is normalized",
			line: "ping :abc",
			want: Message{
				Command:     "PING",
				Params:      []string{},
				Trailing:    "abc",
				HasTrailing: true,
			},
		},
		{
			name: "colon inside trailing",
			line: ":n!u@h PRIVMSG #c :see: this",
			want: Message{
				Prefix:      "n!u@h",
				Command:     "PRIVMSG",
				Params:      []string{"#c"},
				Trailing:    "see: this",
				HasTrailing: true,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMessage(tt.line)
			if err != nil {
				t.Fatalf("parseMessage returned unexpected error: %v", err)
			}
			if got.Prefix != tt.want.Prefix {
				t.Errorf("Expected prefix %q, got %q", tt.want.Prefix, got.Prefix)
			}
			if got.Command != tt.want.Command {
				t.Errorf("Expected command %q, got %q", tt.want.Command, got.Command)
			}
			if !reflect.DeepEqual(got.Params, tt.want.Params) {
				t.Errorf("Expected params %v, got %v", tt.want.Params, got.Params)
			}
			if got.Trailing != tt.want.Trailing {
				t.Errorf("Expected trailing %q, got %q", tt.want.Trailing, got.Trailing)
			}
			if got.HasTrailing != tt.want.HasTrailing {
				t.Errorf("Expected HasTrailing %v, got %v", tt.want.HasTrailing, got.HasTrailing)
			}
			if got.Raw != tt.line {
				t.Errorf("Expected raw line to be preserved, got %q", got.Raw)
			}
		})
	}
}

func TestParseMessageMalformed(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty line", ""},
		{"bare prefix marker", ":"},
		{"prefix without command", ":nick!user@host"},
		{"spaces only", "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMessage(tt.line)
			if !errors.Is(err, ErrMalformedLine) {
				t.Errorf("Expected ErrMalformedLine, got %v", err)
			}
		})
	}
}

func TestNickFromPrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"full prefix", "nick!user@host", "nick"},
		{"server prefix", "irc.example.org", "irc.example.org"},
		{"nick only", "alice", "alice"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nickFromPrefix(tt.prefix); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}
