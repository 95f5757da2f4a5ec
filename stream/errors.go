package stream

import (
	"errors"
	"fmt"
)

// LimitKind classifies fatal resource limit breaches.
type LimitKind int

const (
	// LimitBytes indicates consumed source bytes exceeded MaxBytes.
	LimitBytes LimitKind = iota
	// LimitTimeout indicates wall-clock time exceeded Timeout.
	LimitTimeout
)

// LimitError reports a breached resource limit. Limit breaches bound
// the pipeline's own resource consumption and are always fatal,
// regardless of the configured error mode.
type LimitError struct {
	Kind LimitKind
	// Limit is the configured bound (bytes, or milliseconds for timeouts).
	Limit int64
	// Actual is the observed value when the breach was detected.
	Actual int64
}

func (e *LimitError) Error() string {
	switch e.Kind {
	case LimitTimeout:
		return fmt.Sprintf("timeout exceeded: %dms elapsed, limit %dms", e.Actual, e.Limit)
	default:
		return fmt.Sprintf("byte limit exceeded: %d bytes consumed, limit %d", e.Actual, e.Limit)
	}
}

// IsLimitError returns true if err is a fatal limit breach.
func IsLimitError(err error) bool {
	var limitErr *LimitError
	return errors.As(err, &limitErr)
}
