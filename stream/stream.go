// Package stream ties incremental boundary detection to per-item
// validation under configurable limits and error tolerance.
//
// A Stream is the consumer-facing handle over one pipeline instance:
// source chunks flow through the boundary scanner, each complete raw
// item is parsed and validated, and validated values are pulled one at
// a time. Iteration is single-pass, strictly ordered and not
// restartable; memory held is bounded by the largest in-flight item
// plus read-ahead, never by total input size.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/sift/chunk"
	"github.com/pithecene-io/sift/log"
	"github.com/pithecene-io/sift/metrics"
	"github.com/pithecene-io/sift/scan"
	"github.com/pithecene-io/sift/types"
)

// Mode strings used for logging and metrics dimensions.
const (
	modeArray = "array"
	modeLines = "lines"
)

// Stream is a single-pass ordered iteration over validated items.
// Create one with New (top-level JSON array input) or NewLines
// (newline-delimited input). Each Stream owns an independent pipeline;
// no state is shared between instances.
type Stream[T any] struct {
	id        string
	mode      string
	src       chunk.Source
	validator types.Validator[T]
	opts      Options
	logger    *log.Logger
	collector *metrics.Collector

	arr   *scan.ArrayScanner
	lines *scan.LineScanner

	// pending holds raw items produced by the scanner but not yet
	// parsed/validated.
	pending []string
	// index is the zero-based position of the next raw item, counting
	// skipped and collected items.
	index int
	// emitted counts validated items yielded, for MaxItems.
	emitted int
	// bytes counts encoded source bytes consumed.
	bytes int64
	// deadline is the armed timeout; zero means unbounded.
	deadline time.Time
	started  time.Time

	itemErrs []types.ItemError

	srcDone  bool
	finished bool
	fatal    error

	closeOnce sync.Once
	closeErr  error
}

// New creates a stream over a top-level JSON array.
//
// The stream takes ownership of src: it is released when iteration
// ends for any reason, or when Close is called.
func New[T any](src chunk.Source, v types.Validator[T], opts Options) *Stream[T] {
	s := newStream(src, v, opts, modeArray)
	s.arr = scan.NewArrayScanner()
	return s
}

// NewLines creates a stream over newline-delimited JSON records.
func NewLines[T any](src chunk.Source, v types.Validator[T], opts Options) *Stream[T] {
	s := newStream(src, v, opts, modeLines)
	s.lines = scan.NewLineScanner()
	return s
}

func newStream[T any](src chunk.Source, v types.Validator[T], opts Options, mode string) *Stream[T] {
	opts = opts.withDefaults()
	now := time.Now()

	s := &Stream[T]{
		id:        uuid.NewString(),
		mode:      mode,
		src:       chunk.Prefetch(src, opts.HighWaterMark),
		validator: v,
		opts:      opts,
		logger:    opts.Logger,
		collector: opts.Collector,
		started:   now,
	}
	if opts.Timeout.Duration > 0 {
		s.deadline = now.Add(opts.Timeout.Duration)
	}

	s.logger.Debug("stream created", map[string]any{
		"stream_id":  s.id,
		"mode":       mode,
		"max_items":  opts.MaxItems,
		"max_bytes":  int64(opts.MaxBytes),
		"timeout_ms": opts.Timeout.Milliseconds(),
		"on_error":   string(opts.ErrorMode),
	})
	return s
}

// ID returns the stream's correlation identifier.
func (s *Stream[T]) ID() string { return s.id }

// Next returns the next validated item in order. It returns io.EOF when
// the stream is exhausted (including a MaxItems stop) and a fatal error
// on grammar violations, limit breaches, source failures, or — under
// fail mode — the first failing item. After a fatal error the same
// error is returned on every call.
func (s *Stream[T]) Next(ctx context.Context) (T, error) {
	var zero T
	if s.fatal != nil {
		return zero, s.fatal
	}
	if s.finished {
		return zero, io.EOF
	}
	if s.opts.MaxItems > 0 && s.emitted >= s.opts.MaxItems {
		return zero, s.stop()
	}

	for {
		// Drain already-detected raw items before touching the source.
		for len(s.pending) > 0 {
			raw := s.pending[0]
			s.pending = s.pending[1:]
			value, ok, err := s.processItem(ctx, raw)
			if err != nil {
				return zero, s.fail(err)
			}
			if !ok {
				continue
			}
			s.emitted++
			s.collector.IncItemsEmitted()
			return value, nil
		}

		if s.srcDone {
			if err := s.finishScanner(); err != nil {
				s.collector.IncParseFailures()
				return zero, s.fail(err)
			}
			if len(s.pending) > 0 {
				continue
			}
			return zero, s.stop()
		}

		if err := s.checkTimeout(); err != nil {
			s.collector.IncLimitBreaches()
			return zero, s.fail(err)
		}

		text, err := s.src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.srcDone = true
				continue
			}
			return zero, s.fail(fmt.Errorf("read source: %w", err))
		}

		s.bytes += int64(len(text))
		s.collector.IncChunksRead(int64(len(text)))
		if s.opts.MaxBytes > 0 && s.bytes > int64(s.opts.MaxBytes) {
			s.collector.IncLimitBreaches()
			return zero, s.fail(&LimitError{
				Kind:   LimitBytes,
				Limit:  int64(s.opts.MaxBytes),
				Actual: s.bytes,
			})
		}

		if err := s.feed(text); err != nil {
			s.collector.IncParseFailures()
			return zero, s.fail(err)
		}
	}
}

// feed pushes one chunk through the boundary scanner.
func (s *Stream[T]) feed(text string) error {
	if s.lines != nil {
		s.pending = append(s.pending, s.lines.Feed(text)...)
		return nil
	}
	items, err := s.arr.Feed(text)
	if err != nil {
		return err
	}
	s.pending = append(s.pending, items...)
	if s.arr.Done() {
		// The array closed; anything further in the source is ignored.
		s.srcDone = true
	}
	return nil
}

// finishScanner flushes scanner state after the source is exhausted.
func (s *Stream[T]) finishScanner() error {
	if s.lines != nil {
		if line, ok := s.lines.Finish(); ok {
			s.pending = append(s.pending, line)
		}
		return nil
	}
	return s.arr.Finish()
}

// processItem parses and validates one raw item. ok reports that value
// should be yielded; a non-nil error is fatal (fail mode only).
func (s *Stream[T]) processItem(ctx context.Context, raw string) (T, bool, error) {
	var zero T
	idx := s.index
	s.index++

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		s.collector.IncItemsMalformed()
		return zero, false, s.handleItemFailure(idx, fmt.Errorf("malformed item: %w", err), nil)
	}

	result := s.validator.Validate(ctx, parsed)
	if !result.Ok() {
		return zero, false, s.handleItemFailure(idx, &types.IssueError{Issues: result.Issues}, parsed)
	}
	return result.Value, true, nil
}

// handleItemFailure applies the configured error mode to one failing
// item. Under fail mode the returned error terminates the stream; under
// skip and collect it is nil and iteration continues.
func (s *Stream[T]) handleItemFailure(idx int, cause error, raw any) error {
	itemErr := types.ItemError{Index: idx, Err: cause, Raw: raw}

	switch s.opts.ErrorMode {
	case types.ErrorModeSkip:
		s.collector.IncItemsSkipped()
		s.logger.Debug("item skipped", map[string]any{
			"stream_id": s.id,
			"index":     idx,
			"error":     cause.Error(),
		})
		return nil
	case types.ErrorModeCollect:
		s.collector.IncItemsCollected()
		s.itemErrs = append(s.itemErrs, itemErr)
		return nil
	default:
		return &itemErr
	}
}

// checkTimeout enforces the wall-clock limit at a chunk boundary.
func (s *Stream[T]) checkTimeout() error {
	if s.deadline.IsZero() || time.Now().Before(s.deadline) {
		return nil
	}
	return &LimitError{
		Kind:   LimitTimeout,
		Limit:  s.opts.Timeout.Milliseconds(),
		Actual: time.Since(s.started).Milliseconds(),
	}
}

// stop ends iteration gracefully, releasing the source.
func (s *Stream[T]) stop() error {
	s.finished = true
	_ = s.Close()
	s.logger.Debug("stream exhausted", map[string]any{
		"stream_id": s.id,
		"emitted":   s.emitted,
		"bytes":     s.bytes,
	})
	return io.EOF
}

// fail records a fatal error, releases the source, and returns the
// error. Subsequent calls replay it.
func (s *Stream[T]) fail(err error) error {
	s.fatal = err
	_ = s.Close()
	s.logger.Error("stream failed", map[string]any{
		"stream_id": s.id,
		"error":     err.Error(),
	})
	return err
}

// Errors returns the item errors accumulated so far under collect mode,
// in item order. The slice grows as iteration proceeds; it is empty
// until iteration has passed a failing item, and nil under other modes.
func (s *Stream[T]) Errors() []types.ItemError {
	return s.itemErrs
}

// Close releases the underlying source. Safe to call multiple times
// and on every exit path; iteration after Close returns io.EOF.
func (s *Stream[T]) Close() error {
	s.closeOnce.Do(func() {
		s.finished = true
		s.closeErr = s.src.Close()
	})
	return s.closeErr
}

// All returns a single-use iterator over validated items. Iteration
// stops at exhaustion or the first fatal error, which is yielded with a
// zero value. The source is released when the loop ends, including
// early breaks.
func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer func() { _ = s.Close() }()
		for {
			value, err := s.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(value, err) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// Collect drains the stream into a slice. Only safe when the caller
// knows the bounded result fits in memory.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	defer func() { _ = s.Close() }()
	var out []T
	for {
		value, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, value)
	}
}

// PipeTo writes each validated item to sink, awaiting every write
// before requesting the next item. The sink is closed on all paths; a
// sink failure aborts the pipe and is propagated.
func (s *Stream[T]) PipeTo(ctx context.Context, sink Sink[T]) error {
	defer func() { _ = s.Close() }()

	for {
		value, err := s.Next(ctx)
		if errors.Is(err, io.EOF) {
			return sink.Close()
		}
		if err != nil {
			_ = sink.Close()
			return err
		}
		if err := sink.Write(ctx, value); err != nil {
			_ = sink.Close()
			return fmt.Errorf("sink write: %w", err)
		}
	}
}
