// Package wire implements the framing used on every byte stream in the
// federation: `PURPOSE SP LENGTH SP <LENGTH payload bytes> LF`. The purpose
// token is ASCII without whitespace, the length is ASCII decimal, and the
// payload is opaque. The same codec frames client TCP streams, peer TCP
// streams, and UDP discovery datagrams (one frame per datagram).
package wire

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var (
	// ErrMalformedFrame means the stream does not parse as a frame: a header
	// field is missing or non-numeric, the purpose token is empty or contains
	// non-printable bytes, or the byte after the payload is not LF. The
	// connection carrying it cannot be resynchronised and must be closed.
	ErrMalformedFrame = errors.New("wire: malformed frame")

	// ErrPayloadTooLarge means the header announced a payload beyond the
	// parser's configured limit.
	ErrPayloadTooLarge = errors.New("wire: payload exceeds limit")
)

// DefaultMaxPayload bounds the payload length a parser accepts unless
// configured otherwise.
const DefaultMaxPayload = 4 << 20

// Header fields are short; a run of this many bytes without the expected
// separator means the stream is desynchronised.
const (
	maxPurposeBytes = 64
	maxLengthDigits = 19
)

// Frame is one protocol unit: a purpose token plus an opaque payload.
type Frame struct {
	Purpose string
	Payload []byte
}

func (f Frame) String() string {
	return fmt.Sprintf("%s(%d bytes)", f.Purpose, len(f.Payload))
}

// Append appends the wire form of a frame to dst and returns the extended
// slice.
func Append(dst []byte, purpose string, payload []byte) []byte {
	dst = append(dst, purpose...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(len(payload)), 10)
	dst = append(dst, ' ')
	dst = append(dst, payload...)
	return append(dst, '\n')
}

// Encode returns the wire form of a frame.
func Encode(purpose string, payload []byte) []byte {
	return Append(make([]byte, 0, len(purpose)+len(payload)+16), purpose, payload)
}

// WriteFrame encodes the frame and writes it to w in a single Write call, so
// callers serialising writers with a mutex never interleave partial frames.
func WriteFrame(w io.Writer, purpose string, payload []byte) error {
	_, err := w.Write(Encode(purpose, payload))
	return err
}

// Parser is a streaming frame parser. Feed it byte chunks of any size; it
// yields the complete frames they contain and buffers the residue for the
// next call. A Parser is not safe for concurrent use; every connection owns
// one.
type Parser struct {
	buf []byte
	max int
	err error
}

// NewParser returns a parser accepting payloads up to maxPayload bytes.
// maxPayload <= 0 selects DefaultMaxPayload.
func NewParser(maxPayload int) *Parser {
	if maxPayload <= 0 {
		maxPayload = DefaultMaxPayload
	}
	return &Parser{max: maxPayload}
}

// Buffered reports how many residual bytes await completion of the next
// frame.
func (p *Parser) Buffered() int { return len(p.buf) }

// Feed consumes a chunk and returns the frames completed by it. Frames
// already parsed are returned even when the chunk ends in an error; once an
// error is returned the parser is dead and every later call returns the same
// error.
func (p *Parser) Feed(chunk []byte) ([]Frame, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.buf = append(p.buf, chunk...)

	var frames []Frame
	for {
		f, n, err := parseOne(p.buf, p.max)
		if err != nil {
			p.err = err
			p.buf = nil
			return frames, err
		}
		if n == 0 {
			// Incomplete; guard against a stream that can never produce a
			// separator.
			if err := headerPlausible(p.buf); err != nil {
				p.err = err
				p.buf = nil
				return frames, err
			}
			return frames, nil
		}
		frames = append(frames, f)
		p.buf = append(p.buf[:0], p.buf[n:]...)
	}
}

// Reader pulls whole frames off a byte stream, buffering partial frames
// between calls. It is the read half of a session: one Reader per
// connection, consumed by a single goroutine.
type Reader struct {
	r      io.Reader
	parser *Parser
	queue  []Frame
	buf    []byte
	err    error
}

// NewReader returns a Reader accepting payloads up to maxPayload bytes.
func NewReader(r io.Reader, maxPayload int) *Reader {
	return &Reader{r: r, parser: NewParser(maxPayload), buf: make([]byte, 4096)}
}

// Next returns the next frame, reading from the stream only when no parsed
// frame is queued. Frames parsed ahead of a protocol error drain before the
// error surfaces; protocol errors are permanent, I/O errors (including
// deadline timeouts) are returned as-is and a later call reads again.
func (r *Reader) Next() (Frame, error) {
	for {
		if len(r.queue) > 0 {
			f := r.queue[0]
			r.queue = r.queue[1:]
			return f, nil
		}
		if r.err != nil {
			return Frame{}, r.err
		}
		n, err := r.r.Read(r.buf)
		if n > 0 {
			frames, perr := r.parser.Feed(r.buf[:n])
			r.queue = append(r.queue, frames...)
			if perr != nil {
				r.err = perr
			}
			continue
		}
		if err != nil {
			return Frame{}, err
		}
	}
}

// Unmarshal parses exactly one frame from a datagram. Trailing bytes after
// the frame terminator make the datagram malformed.
func Unmarshal(datagram []byte) (Frame, error) {
	f, n, err := parseOne(datagram, DefaultMaxPayload)
	if err != nil {
		return Frame{}, err
	}
	if n == 0 || n != len(datagram) {
		return Frame{}, ErrMalformedFrame
	}
	return f, nil
}

// parseOne attempts to parse a single frame from buf. n == 0 with a nil
// error means more bytes are needed. The returned payload is a copy; buf may
// be reused by the caller.
func parseOne(buf []byte, max int) (Frame, int, error) {
	sp1 := bytes.IndexByte(buf, ' ')
	if sp1 < 0 {
		return Frame{}, 0, nil
	}
	if sp1 == 0 {
		return Frame{}, 0, ErrMalformedFrame
	}
	purpose := buf[:sp1]
	for _, b := range purpose {
		if b <= ' ' || b > '~' {
			return Frame{}, 0, ErrMalformedFrame
		}
	}

	rest := buf[sp1+1:]
	sp2 := bytes.IndexByte(rest, ' ')
	if sp2 < 0 {
		return Frame{}, 0, nil
	}
	if sp2 == 0 || sp2 > maxLengthDigits {
		return Frame{}, 0, ErrMalformedFrame
	}
	length, err := strconv.Atoi(string(rest[:sp2]))
	if err != nil || length < 0 {
		return Frame{}, 0, ErrMalformedFrame
	}
	if length > max {
		return Frame{}, 0, ErrPayloadTooLarge
	}

	payloadStart := sp1 + 1 + sp2 + 1
	end := payloadStart + length // index of the LF terminator
	if len(buf) < end+1 {
		return Frame{}, 0, nil
	}
	if buf[end] != '\n' {
		return Frame{}, 0, ErrMalformedFrame
	}

	payload := make([]byte, length)
	copy(payload, buf[payloadStart:end])
	return Frame{Purpose: string(purpose), Payload: payload}, end + 1, nil
}

// headerPlausible rejects buffered prefixes that can no longer become a valid
// header, so a garbage stream fails fast instead of growing the buffer.
func headerPlausible(buf []byte) error {
	sp1 := bytes.IndexByte(buf, ' ')
	if sp1 < 0 {
		if len(buf) > maxPurposeBytes {
			return ErrMalformedFrame
		}
		return nil
	}
	rest := buf[sp1+1:]
	if bytes.IndexByte(rest, ' ') < 0 && len(rest) > maxLengthDigits {
		return ErrMalformedFrame
	}
	return nil
}
