// Package types defines core domain types for the sift pipeline.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"context"
	"fmt"
	"strings"
)

// Validator checks a parsed JSON value and produces a typed output.
// The pipeline treats implementations as a black box: pure, single-call
// per item, free to block on ctx if validation needs I/O.
type Validator[T any] interface {
	// Validate checks value and returns either a typed output or a
	// non-empty list of issues. It must not retain value.
	Validate(ctx context.Context, value any) Result[T]
}

// ValidatorFunc adapts a plain function to the Validator interface.
type ValidatorFunc[T any] func(ctx context.Context, value any) Result[T]

// Validate implements Validator.
func (f ValidatorFunc[T]) Validate(ctx context.Context, value any) Result[T] {
	return f(ctx, value)
}

// Result is the outcome of validating a single item: either a typed
// value or a non-empty ordered list of issues.
type Result[T any] struct {
	Value  T
	Issues []Issue
}

// Ok reports whether validation succeeded.
func (r Result[T]) Ok() bool { return len(r.Issues) == 0 }

// Success creates a successful result carrying value.
func Success[T any](value T) Result[T] {
	return Result[T]{Value: value}
}

// Failure creates a failed result with a single message-only issue.
func Failure[T any](message string) Result[T] {
	return Result[T]{Issues: []Issue{{Message: message}}}
}

// Failures creates a failed result from existing issues.
func Failures[T any](issues []Issue) Result[T] {
	return Result[T]{Issues: issues}
}

// Issue describes one reason validation failed.
type Issue struct {
	// Message is the human-readable failure description.
	Message string `json:"message"`
	// Path locates the failing value within the item, outermost first.
	// Empty for issues about the item as a whole.
	Path []PathSegment `json:"path,omitempty"`
}

// String renders the issue as "message" or "message at path".
func (i Issue) String() string {
	if len(i.Path) == 0 {
		return i.Message
	}
	return fmt.Sprintf("%s at %s", i.Message, FormatPath(i.Path))
}

// PathSegment is one step into a nested value: an object key or an
// array index.
type PathSegment struct {
	Key   string
	Index int
	// IsIndex discriminates: true means Index is set, false means Key.
	IsIndex bool
}

// PathKey creates an object-key path segment.
func PathKey(key string) PathSegment { return PathSegment{Key: key} }

// PathIndex creates an array-index path segment.
func PathIndex(i int) PathSegment { return PathSegment{Index: i, IsIndex: true} }

// FormatPath renders a path as a dotted/bracketed selector, e.g.
// "items[3].name".
func FormatPath(path []PathSegment) string {
	var b strings.Builder
	for i, seg := range path {
		if seg.IsIndex {
			fmt.Fprintf(&b, "[%d]", seg.Index)
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.Key)
	}
	return b.String()
}

// PrefixPath prepends segment to the path of every issue. Used by
// container validators to locate nested failures.
func PrefixPath(issues []Issue, segment PathSegment) []Issue {
	out := make([]Issue, len(issues))
	for i, issue := range issues {
		path := make([]PathSegment, 0, len(issue.Path)+1)
		path = append(path, segment)
		path = append(path, issue.Path...)
		out[i] = Issue{Message: issue.Message, Path: path}
	}
	return out
}
