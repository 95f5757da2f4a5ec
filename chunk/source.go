// Package chunk normalizes heterogeneous inputs into a single pull-based
// sequence of decoded text chunks.
//
// A Source is single-pass and non-restartable. Byte-based sources decode
// UTF-8 incrementally so that a multi-byte rune split across physical
// reads is reassembled rather than producing replacement characters;
// undecodable bytes left at end of stream are flushed through the
// decoder's finalization step.
package chunk

import (
	"context"
	"io"

	"github.com/pithecene-io/sift/iox"
)

// Source yields decoded text chunks in arrival order.
//
// Next returns io.EOF after the final chunk. Close releases the
// underlying handle and is safe to call on every exit path; it is
// idempotent. A Source must not be used after Close.
type Source interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

// TextReader is a pull-based producer of already-decoded text.
// ReadText returns io.EOF when no text remains.
type TextReader interface {
	ReadText(ctx context.Context) (string, error)
}

// FromText adapts a pull-based text reader. If r also implements
// io.Closer, Close is forwarded to it.
func FromText(r TextReader) Source {
	var c io.Closer
	if rc, ok := r.(io.Closer); ok {
		c = rc
	}
	return &textSource{r: r, closer: iox.NewOnceCloser(c)}
}

type textSource struct {
	r      TextReader
	closer *iox.OnceCloser
	done   bool
}

func (s *textSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.done {
		return "", io.EOF
	}
	for {
		text, err := s.r.ReadText(ctx)
		if err != nil {
			s.done = true
			return "", err
		}
		// Empty reads carry no boundary information; skip them.
		if text != "" {
			return text, nil
		}
	}
}

func (s *textSource) Close() error { return s.closer.Close() }

// FromStringChan adapts a push-style sequence of text chunks. The
// sequence ends when ch is closed.
func FromStringChan(ch <-chan string) Source {
	return &stringChanSource{ch: ch}
}

type stringChanSource struct {
	ch   <-chan string
	done bool
}

func (s *stringChanSource) Next(ctx context.Context) (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case text, ok := <-s.ch:
			if !ok {
				s.done = true
				return "", io.EOF
			}
			if text != "" {
				return text, nil
			}
		}
	}
}

func (s *stringChanSource) Close() error {
	// Nothing held; the producer owns the channel.
	return nil
}

// FromByteChan adapts a push-style sequence of byte chunks, decoding
// UTF-8 incrementally across chunk boundaries. The sequence ends when
// ch is closed.
func FromByteChan(ch <-chan []byte) Source {
	return &byteChanSource{ch: ch, dec: newUTF8Stream()}
}

type byteChanSource struct {
	ch   <-chan []byte
	dec  *utf8Stream
	done bool
}

func (s *byteChanSource) Next(ctx context.Context) (string, error) {
	if s.done {
		return "", io.EOF
	}
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case p, ok := <-s.ch:
			if !ok {
				s.done = true
				if tail := s.dec.flush(); tail != "" {
					return tail, nil
				}
				return "", io.EOF
			}
			text, err := s.dec.decode(p)
			if err != nil {
				s.done = true
				return "", err
			}
			if text != "" {
				return text, nil
			}
		}
	}
}

func (s *byteChanSource) Close() error { return nil }
