package client

import (
	"errors"
	"fmt"
)

// IRC numeric replies recognized by the client, as per RFC 1459
const (
	// Registration replies
	RplWelcome       = "001" // RPL_WELCOME
	ErrNicknameInUse = "433" // ERR_NICKNAMEINUSE

	// Channel membership replies
	RplNamReply   = "353" // RPL_NAMREPLY
	RplEndOfNames = "366" // RPL_ENDOFNAMES
)

// Sentinel errors returned by the public command surface.
var (
	// ErrNotConnected indicates a command was issued while no connection is open.
	ErrNotConnected = errors.New("not connected")

	// ErrQueueFull indicates the outbound queue rejected a line.
	ErrQueueFull = errors.New("message queue full")

	// ErrLineTooLong indicates an inbound line exceeded the buffer cap.
	ErrLineTooLong = errors.New("line exceeds maximum length")

	// ErrInvalidNick indicates a nickname that fails validation.
	ErrInvalidNick = errors.New("invalid nickname")

	// ErrInvalidChannel indicates a channel name that fails validation.
	ErrInvalidChannel = errors.New("invalid channel name")

	// ErrEmptyMessage indicates a send with no text.
	ErrEmptyMessage = errors.New("no text to send")

	// ErrMalformedLine indicates a line that does not parse as a protocol message.
	ErrMalformedLine = errors.New("malformed line")
)

// ClientError wraps an error with the operation and session that produced it.
type ClientError struct {
	Op        string // Operation that failed (connect, join, send, ...)
	SessionID string // Connection session identifier
	Err       error  // Underlying error
}

// Error implements the error interface.
func (e *ClientError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ClientError) Unwrap() error {
	return e.Err
}

// newError creates a ClientError, passing nil through unchanged.
func newError(op, sessionID string, err error) error {
	if err == nil {
		return nil
	}
	return &ClientError{
		Op:        op,
		SessionID: sessionID,
		Err:       err,
	}
}
