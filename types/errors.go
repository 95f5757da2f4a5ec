package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorMode controls how the pipeline reacts to per-item failures
// (validation issues and malformed item text). Byte/time limit breaches
// and top-level grammar errors are always fatal regardless of mode.
type ErrorMode string

const (
	// ErrorModeFail stops the stream at the first failing item.
	ErrorModeFail ErrorMode = "fail"
	// ErrorModeSkip drops failing items and continues.
	ErrorModeSkip ErrorMode = "skip"
	// ErrorModeCollect records failing items and continues.
	ErrorModeCollect ErrorMode = "collect"
)

// ParseErrorMode parses a mode string from flags or config.
func ParseErrorMode(s string) (ErrorMode, error) {
	switch ErrorMode(s) {
	case ErrorModeFail, ErrorModeSkip, ErrorModeCollect:
		return ErrorMode(s), nil
	case "":
		return ErrorModeFail, nil
	default:
		return "", fmt.Errorf("unknown error mode %q (want fail, skip, or collect)", s)
	}
}

// IssueError wraps validation issues as an error for propagation and
// collection. Issues is always non-empty.
type IssueError struct {
	Issues []Issue
}

func (e *IssueError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = issue.String()
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError returns true if err carries validation issues.
func IsValidationError(err error) bool {
	var issueErr *IssueError
	return errors.As(err, &issueErr)
}

// ItemError records one failing item under collect mode.
type ItemError struct {
	// Index is the zero-based position of the item in the stream.
	Index int
	// Err is the failure: an *IssueError for validation failures, or
	// the JSON decode error for malformed item text.
	Err error
	// Raw is the parsed-but-invalid value when the item text was valid
	// JSON; nil for malformed items.
	Raw any
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// Unwrap returns the underlying failure for errors.Is/As traversal.
func (e *ItemError) Unwrap() error {
	return e.Err
}
