package client

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"time"

	"github.com/gorilla/websocket"
)

// Conn abstracts the transport under the client: a raw TCP socket, or a
// WebSocket bridge that carries protocol lines inside text frames. Read
// feeds the framer; WriteLine sends one terminator-free line. Reads and
// writes may run on different goroutines, but writes must be serialized by
// the caller.
type Conn interface {
	io.Reader
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

// Compile-time interface checks
var (
	_ Conn = (*tcpConn)(nil)
	_ Conn = (*wsConn)(nil)
)

type tcpConn struct {
	conn   net.Conn
	writer *bufio.Writer
}

func dialTCP(ctx context.Context, addr string) (Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return &tcpConn{
		conn:   conn,
		writer: bufio.NewWriter(conn),
	}, nil
}

func (t *tcpConn) Read(p []byte) (int, error) {
	return t.conn.Read(p)
}

func (t *tcpConn) WriteLine(line string) error {
	if _, err := t.writer.WriteString(line + "\r\n"); err != nil {
		return err
	}
	return t.writer.Flush()
}

func (t *tcpConn) Close() error {
	return t.conn.Close()
}

func (t *tcpConn) RemoteAddr() string {
	return t.conn.RemoteAddr().String()
}

// wsConn adapts a WebSocket connection to the byte-stream interface the
// framer expects. Each inbound frame is surfaced as terminated bytes; each
// outbound line becomes one text frame without a terminator.
type wsConn struct {
	conn *websocket.Conn
	rest []byte // unread remainder of the current frame
}

func dialWebSocket(ctx context.Context, url string) (Conn, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

func (w *wsConn) Read(p []byte) (int, error) {
	if len(w.rest) == 0 {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			return 0, err
		}
		if !bytes.HasSuffix(data, []byte("\n")) {
			data = append(data, '\r', '\n')
		}
		w.rest = data
	}
	n := copy(p, w.rest)
	w.rest = w.rest[n:]
	return n, nil
}

func (w *wsConn) WriteLine(line string) error {
	return w.conn.WriteMessage(websocket.TextMessage, []byte(line))
}

func (w *wsConn) Close() error {
	// WriteControl is safe alongside concurrent writes, so a polite close
	// frame goes out even while the writer is active.
	deadline := time.Now().Add(time.Second)
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return w.conn.Close()
}

func (w *wsConn) RemoteAddr() string {
	return w.conn.RemoteAddr().String()
}
