package client

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestFramerCompleteLines(t *testing.T) {
	f := newLineFramer(0)

	lines, err := f.feed([]byte("PING :abc\r\nJOIN #x\r\n"))
	if err != nil {
		t.Fatalf("feed returned unexpected error: %v", err)
	}

	want := []string{"PING :abc", "JOIN #x"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Expected %v, got %v", want, lines)
	}
}

func TestFramerPartialLineCarryOver(t *testing.T) {
	f := newLineFramer(0)

	lines, err := f.feed([]byte("PING :abc\r\nJOIN "))
	if err != nil {
		t.Fatalf("feed returned unexpected error: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"PING :abc"}) {
		t.Errorf("Expected [PING :abc], got %v", lines)
	}

	lines, err = f.feed([]byte("#x\r\n"))
	if err != nil {
		t.Fatalf("feed returned unexpected error: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"JOIN #x"}) {
		t.Errorf("Expected [JOIN #x], got %v", lines)
	}
}

func TestFramerTerminatorSplitAcrossChunks(t *testing.T) {
	f := newLineFramer(0)

	lines, err := f.feed([]byte("PING :abc\r"))
	if err != nil {
		t.Fatalf("feed returned unexpected error: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected no lines before the LF arrives, got %v", lines)
	}

	lines, err = f.feed([]byte("\nPONG :def\r\n"))
	if err != nil {
		t.Fatalf("feed returned unexpected error: %v", err)
	}
	want := []string{"PING :abc", "PONG :def"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Expected %v, got %v", want, lines)
	}
}

func TestFramerArbitraryChunking(t *testing.T) {
	// Any chunking of the same stream must produce the same lines.
	stream := ":a!u@h PRIVMSG #chan :hello world\r\nPING :tok\r\n:b!u@h JOIN #chan\r\n"
	want := []string{":a!u@h PRIVMSG #chan :hello world", "PING :tok", ":b!u@h JOIN #chan"}

	for chunkSize := 1; chunkSize <= len(stream); chunkSize++ {
		f := newLineFramer(0)
		var got []string
		for i := 0; i < len(stream); i += chunkSize {
			end := i + chunkSize
			if end > len(stream) {
				end = len(stream)
			}
			lines, err := f.feed([]byte(stream[i:end]))
			if err != nil {
				t.Fatalf("chunk size %d: feed returned error: %v", chunkSize, err)
			}
			got = append(got, lines...)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("chunk size %d: Expected %v, got %v", chunkSize, want, got)
		}
	}
}

func TestFramerBareLF(t *testing.T) {
	f := newLineFramer(0)

	lines, err := f.feed([]byte("PING :abc\n"))
	if err != nil {
		t.Fatalf("feed returned unexpected error: %v", err)
	}
	if !reflect.DeepEqual(lines, []string{"PING :abc"}) {
		t.Errorf("Expected [PING :abc], got %v", lines)
	}
}

func TestFramerEmptyLines(t *testing.T) {
	f := newLineFramer(0)

	lines, err := f.feed([]byte("\r\n\r\nPING :a\r\n"))
	if err != nil {
		t.Fatalf("feed returned unexpected error: %v", err)
	}
	want := []string{"", "", "PING :a"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Expected %v, got %v", want, lines)
	}
}

func TestFramerOverlongBufferedLine(t *testing.T) {
	f := newLineFramer(16)

	_, err := f.feed([]byte(strings.Repeat("a", 17)))
	if !errors.Is(err, ErrLineTooLong) {
		t.Errorf("Expected ErrLineTooLong, got %v", err)
	}
}

func TestFramerOverlongCompleteLine(t *testing.T) {
	f := newLineFramer(16)

	lines, err := f.feed([]byte("PING :a\r\n" + strings.Repeat("b", 20) + "\r\nPING :c\r\n"))
	if !errors.Is(err, ErrLineTooLong) {
		t.Errorf("Expected ErrLineTooLong, got %v", err)
	}
	// Lines before the oversized one are still delivered.
	if !reflect.DeepEqual(lines, []string{"PING :a"}) {
		t.Errorf("Expected [PING :a] before the failure, got %v", lines)
	}
}

func TestFramerUnderCapBuffering(t *testing.T) {
	f := newLineFramer(64)

	if _, err := f.feed([]byte(strings.Repeat("a", 60))); err != nil {
		t.Fatalf("Expected buffering under the cap to succeed, got %v", err)
	}
	lines, err := f.feed([]byte("\r\n"))
	if err != nil {
		t.Fatalf("feed returned unexpected error: %v", err)
	}
	if len(lines) != 1 || len(lines[0]) != 60 {
		t.Errorf("Expected one 60-byte line, got %v", lines)
	}
}
