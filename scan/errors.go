package scan

import (
	"errors"
	"fmt"
)

// ParseError reports a top-level grammar violation: input that does not
// start with '[', a malformed element separator, or input ending before
// the array closes. Parse errors are always fatal and are never subject
// to the per-item error mode.
type ParseError struct {
	// Offset is the absolute byte offset of the offending character
	// (or of end-of-input), counted across all fed chunks.
	Offset int64
	// Msg describes the violated expectation.
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Msg)
}

// IsParseError returns true if err is a top-level grammar error.
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
