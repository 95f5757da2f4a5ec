package stream

import "context"

// Sink receives validated values from PipeTo, one write at a time.
// The stream awaits each Write before requesting the next item, so a
// slow sink applies backpressure all the way down to the source.
type Sink[T any] interface {
	// Write delivers one validated value. Returning an error aborts
	// the pipe.
	Write(ctx context.Context, value T) error

	// Close releases sink resources. Called exactly once by PipeTo,
	// on success and on failure alike.
	Close() error
}

// SinkFunc adapts a plain function to a Sink with a no-op Close.
type SinkFunc[T any] func(ctx context.Context, value T) error

// Write implements Sink.
func (f SinkFunc[T]) Write(ctx context.Context, value T) error {
	return f(ctx, value)
}

// Close implements Sink.
func (f SinkFunc[T]) Close() error { return nil }
