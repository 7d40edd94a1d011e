package client

import "bytes"

// DefaultMaxLineLength bounds how much of a partial line the framer will
// buffer. RFC 1459 caps lines at 512 bytes, but tagged lines on modern
// servers run longer, so the default leaves generous headroom.
const DefaultMaxLineLength = 4096

// lineFramer turns an arbitrary byte stream into discrete lines. TCP reads
// arrive in chunks that bear no relation to line boundaries, so a partial
// line is carried over until its terminator shows up in a later chunk.
type lineFramer struct {
	buf     []byte
	maxLine int
}

func newLineFramer(maxLine int) *lineFramer {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineLength
	}
	return &lineFramer{maxLine: maxLine}
}

// feed appends a chunk and returns every complete line found, terminators
// stripped, in arrival order. Lines end at LF; a preceding CR is removed, so
// both CRLF and bare LF framing work. A line (complete or still buffered)
// that exceeds the cap returns ErrLineTooLong along with the lines extracted
// before it; the caller must treat that as a transport failure.
func (f *lineFramer) feed(chunk []byte) ([]string, error) {
	f.buf = append(f.buf, chunk...)

	var lines []string
	for {
		i := bytes.IndexByte(f.buf, '\n')
		if i < 0 {
			break
		}
		line := f.buf[:i]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
		if len(line) > f.maxLine {
			f.buf = nil
			return lines, ErrLineTooLong
		}
		lines = append(lines, string(line))
		f.buf = f.buf[i+1:]
	}

	if len(f.buf) > f.maxLine {
		f.buf = nil
		return lines, ErrLineTooLong
	}
	return lines, nil
}
