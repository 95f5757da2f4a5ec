package adapter

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pithecene-io/sift/log"
)

// DefaultBatchSize is the flush threshold when none is configured.
const DefaultBatchSize = 100

// ErrInvalidBatchSize is returned for a negative batch size.
var ErrInvalidBatchSize = errors.New("invalid config: batch size must be >= 0")

// BatchSink consumes groups of items in a single downstream call.
type BatchSink[T any] interface {
	// WriteBatch delivers one batch. The slice is owned by the callee.
	WriteBatch(ctx context.Context, items []T) error

	// Close releases sink resources.
	Close() error
}

// BufferedConfig configures a Buffered sink.
type BufferedConfig struct {
	// BatchSize is the flush threshold in items (default 100).
	BatchSize int
	// Logger is optional. If nil, no logging is emitted.
	Logger *log.Logger
}

// Buffered accumulates items and hands them to a BatchSink in batches.
// Items are delivered in arrival order; a flush failure keeps the
// buffer intact so a retry does not silently drop items. Thread-safe.
type Buffered[T any] struct {
	sink   BatchSink[T]
	config BufferedConfig
	logger *log.Logger

	mu     sync.Mutex
	buffer []T
}

// NewBuffered creates a buffered sink over the given batch sink.
func NewBuffered[T any](sink BatchSink[T], config BufferedConfig) (*Buffered[T], error) {
	if config.BatchSize < 0 {
		return nil, ErrInvalidBatchSize
	}
	if config.BatchSize == 0 {
		config.BatchSize = DefaultBatchSize
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Nop()
	}
	return &Buffered[T]{
		sink:   sink,
		config: config,
		logger: logger,
		buffer: make([]T, 0, config.BatchSize),
	}, nil
}

// Write appends the item, flushing when the batch threshold is reached.
func (b *Buffered[T]) Write(ctx context.Context, item T) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buffer = append(b.buffer, item)
	if len(b.buffer) < b.config.BatchSize {
		return nil
	}
	return b.flushLocked(ctx)
}

// Flush delivers any buffered items immediately.
func (b *Buffered[T]) Flush(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushLocked(ctx)
}

func (b *Buffered[T]) flushLocked(ctx context.Context) error {
	if len(b.buffer) == 0 {
		return nil
	}
	batch := b.buffer
	if err := b.sink.WriteBatch(ctx, batch); err != nil {
		// Buffer retained for retry.
		return fmt.Errorf("flush batch of %d: %w", len(batch), err)
	}
	b.logger.Debug("batch flushed", map[string]any{"items": len(batch)})
	b.buffer = make([]T, 0, b.config.BatchSize)
	return nil
}

// Close flushes the remaining buffer, then closes the underlying sink.
// The sink is closed even when the final flush fails.
func (b *Buffered[T]) Close() error {
	flushErr := b.Flush(context.Background())
	closeErr := b.sink.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
