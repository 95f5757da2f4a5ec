package chunk

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/pithecene-io/sift/iox"
)

// defaultReadSize is the read buffer size for byte-pull sources.
const defaultReadSize = 8192

// FromReader adapts a pull-based byte reader, decoding UTF-8
// incrementally. The reader is not closed; use FromReadCloser when the
// source owns the handle.
func FromReader(r io.Reader) Source {
	return newReaderSource(r, nil)
}

// FromReadCloser adapts a pull-based byte reader and closes it when the
// source is closed or the stream ends.
func FromReadCloser(r io.ReadCloser) Source {
	return newReaderSource(r, r)
}

// FromGzipReader adapts a gzip-compressed byte reader, decompressing
// transparently. If r also implements io.Closer it is closed after the
// gzip reader.
func FromGzipReader(r io.Reader) (Source, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}
	closer := iox.CloserFunc(func() error {
		gzErr := gz.Close()
		if rc, ok := r.(io.Closer); ok {
			if err := rc.Close(); err != nil && gzErr == nil {
				gzErr = err
			}
		}
		return gzErr
	})
	return newReaderSource(gz, closer), nil
}

func newReaderSource(r io.Reader, c io.Closer) *readerSource {
	return &readerSource{
		r:      r,
		closer: iox.NewOnceCloser(c),
		dec:    newUTF8Stream(),
		buf:    make([]byte, defaultReadSize),
	}
}

type readerSource struct {
	r      io.Reader
	closer *iox.OnceCloser
	dec    *utf8Stream
	buf    []byte
	srcErr error
	done   bool
}

func (s *readerSource) Next(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if s.done {
		return "", io.EOF
	}
	for {
		if s.srcErr != nil {
			s.done = true
			if errors.Is(s.srcErr, io.EOF) {
				if tail := s.dec.flush(); tail != "" {
					return tail, nil
				}
				return "", io.EOF
			}
			return "", fmt.Errorf("read chunk: %w", s.srcErr)
		}

		n, err := s.r.Read(s.buf)
		if err != nil {
			// Process any bytes delivered alongside the error first;
			// the error is surfaced on the next pass.
			s.srcErr = err
		}
		if n == 0 {
			continue
		}
		text, decErr := s.dec.decode(s.buf[:n])
		if decErr != nil {
			s.done = true
			return "", fmt.Errorf("decode chunk: %w", decErr)
		}
		if text != "" {
			return text, nil
		}
	}
}

func (s *readerSource) Close() error { return s.closer.Close() }
