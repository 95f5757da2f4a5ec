// Package frame implements a length-prefixed msgpack sink and the
// matching decoder.
//
// Wire format: each item is a 4-byte big-endian payload length followed
// by the msgpack-encoded payload. Frames larger than MaxPayloadSize are
// rejected on both ends.
package frame

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/sift/iox"
)

// Frame size constants.
const (
	// MaxFrameSize is the maximum frame size (16 MiB), prefix included.
	MaxFrameSize = 16 * 1024 * 1024
	// MaxPayloadSize is the maximum payload size.
	MaxPayloadSize = MaxFrameSize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// ErrorKind classifies frame codec errors.
type ErrorKind int

const (
	// ErrorPartial indicates a truncated or incomplete frame.
	ErrorPartial ErrorKind = iota
	// ErrorTooLarge indicates a frame exceeding MaxFrameSize.
	ErrorTooLarge
	// ErrorDecode indicates a msgpack decoding error.
	ErrorDecode
)

// Error represents a frame codec error.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsFrameError reports whether err is a frame codec error.
func IsFrameError(err error) bool {
	var frameErr *Error
	return errors.As(err, &frameErr)
}

// Sink writes items as length-prefixed msgpack frames. Not safe for
// concurrent use.
type Sink[T any] struct {
	w      io.Writer
	closer io.Closer
}

// New creates a sink over w. The writer is not closed by Close.
func New[T any](w io.Writer) *Sink[T] {
	return &Sink[T]{w: w, closer: iox.CloserFunc(func() error { return nil })}
}

// NewCloser creates a sink that owns wc and closes it on Close.
func NewCloser[T any](wc io.WriteCloser) *Sink[T] {
	return &Sink[T]{w: wc, closer: iox.NewOnceCloser(wc)}
}

// Write encodes item and writes one frame.
func (s *Sink[T]) Write(_ context.Context, item T) error {
	payload, err := msgpack.Marshal(item)
	if err != nil {
		return fmt.Errorf("frame: marshal item: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return &Error{
			Kind: ErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}

	var lengthBuf [LengthPrefixSize]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	if _, err := s.w.Write(lengthBuf[:]); err != nil {
		return fmt.Errorf("frame: write length prefix: %w", err)
	}
	if _, err := s.w.Write(payload); err != nil {
		return fmt.Errorf("frame: write payload: %w", err)
	}
	return nil
}

// Close releases the writer if owned.
func (s *Sink[T]) Close() error {
	return s.closer.Close()
}

// Decoder reads length-prefixed msgpack frames from a stream.
type Decoder struct {
	reader io.Reader
}

// NewDecoder creates a decoder over r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: r}
}

// ReadFrame reads a single frame and returns the raw msgpack payload.
//
// Errors:
//   - io.EOF: stream ended cleanly at a frame boundary
//   - *Error with Kind=ErrorPartial: incomplete frame
//   - *Error with Kind=ErrorTooLarge: frame exceeds limit
func (d *Decoder) ReadFrame() ([]byte, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &Error{
			Kind: ErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &Error{
			Kind: ErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.reader, payload); err != nil {
		return nil, &Error{
			Kind: ErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}
	return payload, nil
}

// Decode reads the next frame and unmarshals it into out.
func (d *Decoder) Decode(out any) error {
	payload, err := d.ReadFrame()
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(payload, out); err != nil {
		return &Error{
			Kind: ErrorDecode,
			Msg:  "failed to decode payload",
			Err:  err,
		}
	}
	return nil
}
