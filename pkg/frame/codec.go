// Package frame implements the length-prefixed wire framing shared by every
// inter-service and client-facing connection in the platform.
//
// Wire format of one frame: a 4-byte big-endian unsigned length N, followed
// by exactly N bytes of UTF-8 payload. The payload is usually a JSON
// document, but the codec also supports raw string payloads for callers
// that fall back when JSON decoding fails.
package frame

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize is the hard ceiling on a single frame's payload length.
// A declared length beyond this closes the connection.
const MaxFrameSize = 1 << 20 // 1 MiB

// ErrFrameTooLarge is returned when a declared frame length exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame: declared length exceeds MAX_FRAME_SIZE")

// ErrGracefulClose signals that the peer closed the connection cleanly
// between frames (EOF while reading the length prefix). It is not a
// protocol violation; callers should terminate the connection loop quietly.
var ErrGracefulClose = errors.New("frame: peer closed connection")

// Conn wraps a stream with the framed/raw dual transport mode described in
// the wire protocol: ReadFrame/WriteFrame for control messages, and
// ReadRaw/io.Writer passthrough for bulk bundle transfer.
type Conn struct {
	r *bufio.Reader
	w io.Writer
}

// NewConn wraps rw (typically a net.Conn) for framed and raw I/O.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{r: bufio.NewReader(rw), w: rw}
}

// ReadFrame reads one length-prefixed frame and returns its raw payload
// bytes. It returns ErrGracefulClose if the connection is closed cleanly
// before any bytes of the length prefix arrive; any other short read is a
// protocol violation and is returned as a plain error.
func (c *Conn) ReadFrame() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.r, lenBuf[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrGracefulClose
		}
		return nil, fmt.Errorf("frame: reading length prefix: %w", err)
	}

	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(c.r, payload); err != nil {
		return nil, fmt.Errorf("frame: short read on payload: %w", err)
	}

	return payload, nil
}

// WriteFrame writes payload as one length-prefixed frame. It fails the
// connection (returns an error) if payload exceeds MaxFrameSize.
func (c *Conn) WriteFrame(payload []byte) error {
	if len(payload) > MaxFrameSize {
		return ErrFrameTooLarge
	}

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))

	if _, err := c.w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("frame: writing length prefix: %w", err)
	}
	if _, err := c.w.Write(payload); err != nil {
		return fmt.Errorf("frame: writing payload: %w", err)
	}
	return nil
}

// ReadJSON reads one frame and decodes it as JSON into v.
func (c *Conn) ReadJSON(v any) error {
	payload, err := c.ReadFrame()
	if err != nil {
		return err
	}
	return json.Unmarshal(payload, v)
}

// WriteJSON encodes v as JSON and writes it as one frame.
func (c *Conn) WriteJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("frame: marshalling payload: %w", err)
	}
	return c.WriteFrame(payload)
}

// Decode attempts to JSON-decode raw, falling back to returning it as a
// raw UTF-8 string when JSON decoding fails, per the codec's payload
// contract: "parsers MUST attempt JSON decode first and fall back to
// returning the raw string on decode failure."
func Decode(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil {
		return v
	}
	return string(raw)
}

// ReadRaw reads exactly size bytes in raw byte-stream mode, honoring any
// bytes already buffered by the framed reader before falling through to the
// underlying stream. Callers switch to this immediately after a controlling
// framed message (UPLOAD_INIT's READY_TO_RECV, DOWNLOAD_GAME's size-bearing
// reply) and revert to framed mode once size bytes have been consumed.
func (c *Conn) ReadRaw(w io.Writer, size int64) (int64, error) {
	return io.CopyN(w, c.r, size)
}

// WriteRaw writes size bytes from r in raw byte-stream mode. The caller is
// responsible for ensuring the controlling framed message preceding this
// call already announced size to the peer.
func (c *Conn) WriteRaw(r io.Reader, size int64) (int64, error) {
	return io.CopyN(c.w, r, size)
}
