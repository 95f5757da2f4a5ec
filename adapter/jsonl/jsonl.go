// Package jsonl implements a newline-delimited JSON sink.
//
// Each item is marshaled and written as one line. Writes are buffered;
// Close flushes and, when the sink owns its writer, closes it.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pithecene-io/sift/iox"
)

// Sink writes items as newline-delimited JSON. Not safe for concurrent
// use; the pipeline writes sequentially.
type Sink[T any] struct {
	w      *bufio.Writer
	closer io.Closer
}

// New creates a sink over w. The writer is not closed by Close.
func New[T any](w io.Writer) *Sink[T] {
	return &Sink[T]{w: bufio.NewWriter(w), closer: iox.CloserFunc(func() error { return nil })}
}

// NewCloser creates a sink that owns wc and closes it on Close.
func NewCloser[T any](wc io.WriteCloser) *Sink[T] {
	return &Sink[T]{w: bufio.NewWriter(wc), closer: iox.NewOnceCloser(wc)}
}

// Write marshals item and appends it as one line.
func (s *Sink[T]) Write(_ context.Context, item T) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("jsonl: marshal item: %w", err)
	}
	if _, err := s.w.Write(body); err != nil {
		return fmt.Errorf("jsonl: write item: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("jsonl: write item: %w", err)
	}
	return nil
}

// WriteBatch writes each item in order. Satisfies the batch sink
// interface used by buffered adapters.
func (s *Sink[T]) WriteBatch(ctx context.Context, items []T) error {
	for _, item := range items {
		if err := s.Write(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes buffered output and releases the writer if owned.
func (s *Sink[T]) Close() error {
	flushErr := s.w.Flush()
	closeErr := s.closer.Close()
	if flushErr != nil {
		return fmt.Errorf("jsonl: flush: %w", flushErr)
	}
	return closeErr
}
