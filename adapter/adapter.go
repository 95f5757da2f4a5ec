// Package adapter provides output sinks for validated stream items and
// combinators for composing them.
//
// Concrete sinks live in subpackages: jsonl (newline-delimited JSON to
// a writer), frame (length-prefixed msgpack frames), redis (pub/sub
// publish per item) and webhook (HTTP POST per item). This package
// holds the combinators that work over any sink: Multi fans items out
// to several sinks, Buffered batches items before handing them to a
// batch-oriented sink.
package adapter

import (
	"context"
	"errors"

	"github.com/pithecene-io/sift/stream"
)

// Multi fans each item out to every sink in order. A write failure on
// any sink aborts the write and is returned; earlier sinks in the list
// will already have received the item. Close closes every sink and
// joins their errors.
func Multi[T any](sinks ...stream.Sink[T]) stream.Sink[T] {
	return &multiSink[T]{sinks: sinks}
}

type multiSink[T any] struct {
	sinks []stream.Sink[T]
}

func (m *multiSink[T]) Write(ctx context.Context, item T) error {
	for _, s := range m.sinks {
		if err := s.Write(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiSink[T]) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
