// Package iox provides I/O helpers for resource cleanup.
package iox

import (
	"io"
	"sync"
)

// DiscardClose closes c and discards the error.
// Use in defer statements where close errors are unactionable:
//
//	defer iox.DiscardClose(resp.Body)
func DiscardClose(c io.Closer) { _ = c.Close() }

// DiscardErr calls fn and discards the returned error.
// Use for non-Close cleanup calls (e.g. Flush) where errors are unactionable:
//
//	defer iox.DiscardErr(w.Flush)
func DiscardErr(fn func() error) { _ = fn() }

// OnceCloser wraps a Closer so that only the first Close reaches the
// underlying resource. Chunk sources must tolerate Close on every exit
// path, so their cleanup funcs are wrapped in one of these.
type OnceCloser struct {
	once sync.Once
	c    io.Closer
	err  error
}

// NewOnceCloser wraps c in an idempotent closer. A nil c yields a no-op.
func NewOnceCloser(c io.Closer) *OnceCloser {
	return &OnceCloser{c: c}
}

// Close closes the underlying resource exactly once and returns the
// first close's error on every call.
func (o *OnceCloser) Close() error {
	o.once.Do(func() {
		if o.c != nil {
			o.err = o.c.Close()
		}
	})
	return o.err
}

// CloserFunc adapts a plain function to io.Closer.
type CloserFunc func() error

// Close implements io.Closer.
func (f CloserFunc) Close() error { return f() }
