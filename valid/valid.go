// Package valid provides composable value validators for use with the
// streaming pipeline.
//
// Field validators check a decoded JSON value against an expected shape
// and produce either a typed Go value or a list of issues with paths
// pointing at the offending location. Object and Array compose field
// validators into structured schemas; ParseSchema builds an object
// schema from a compact text form suitable for command-line use.
package valid

import (
	"context"
	"fmt"
	"sort"

	"github.com/pithecene-io/sift/types"
)

// Value is a validator over untyped decoded JSON. Composite validators
// are built from Values so heterogeneous fields can share a schema.
type Value = types.Validator[any]

// String accepts any JSON string.
func String() Value {
	return types.ValidatorFunc[any](func(_ context.Context, value any) types.Result[any] {
		if _, ok := value.(string); !ok {
			return types.Failure[any]("Expected string")
		}
		return types.Success(value)
	})
}

// NonEmptyString accepts any JSON string with at least one byte.
func NonEmptyString() Value {
	return types.ValidatorFunc[any](func(_ context.Context, value any) types.Result[any] {
		s, ok := value.(string)
		if !ok {
			return types.Failure[any]("Expected string")
		}
		if s == "" {
			return types.Failure[any]("String must not be empty")
		}
		return types.Success(value)
	})
}

// Number accepts any JSON number.
func Number() Value {
	return types.ValidatorFunc[any](func(_ context.Context, value any) types.Result[any] {
		if _, ok := value.(float64); !ok {
			return types.Failure[any]("Expected number")
		}
		return types.Success(value)
	})
}

// Integer accepts a JSON number with no fractional part.
func Integer() Value {
	return types.ValidatorFunc[any](func(_ context.Context, value any) types.Result[any] {
		n, ok := value.(float64)
		if !ok {
			return types.Failure[any]("Expected integer")
		}
		if n != float64(int64(n)) {
			return types.Failure[any]("Expected integer")
		}
		return types.Success(value)
	})
}

// Bool accepts a JSON boolean.
func Bool() Value {
	return types.ValidatorFunc[any](func(_ context.Context, value any) types.Result[any] {
		if _, ok := value.(bool); !ok {
			return types.Failure[any]("Expected boolean")
		}
		return types.Success(value)
	})
}

// Any accepts every value, including null.
func Any() Value {
	return types.ValidatorFunc[any](func(_ context.Context, value any) types.Result[any] {
		return types.Success(value)
	})
}

// Optional wraps a validator so that null passes through unchanged.
// Missing-field semantics are handled by Object.
func Optional(inner Value) Value {
	return types.ValidatorFunc[any](func(ctx context.Context, value any) types.Result[any] {
		if value == nil {
			return types.Success[any](nil)
		}
		return inner.Validate(ctx, value)
	})
}

// MinLength constrains a string validator to at least n bytes.
func MinLength(n int) Value {
	return types.ValidatorFunc[any](func(_ context.Context, value any) types.Result[any] {
		s, ok := value.(string)
		if !ok {
			return types.Failure[any]("Expected string")
		}
		if len(s) < n {
			return types.Failure[any](fmt.Sprintf("String must be at least %d characters, got %d", n, len(s)))
		}
		return types.Success(value)
	})
}

// MaxLength constrains a string validator to at most n bytes.
func MaxLength(n int) Value {
	return types.ValidatorFunc[any](func(_ context.Context, value any) types.Result[any] {
		s, ok := value.(string)
		if !ok {
			return types.Failure[any]("Expected string")
		}
		if len(s) > n {
			return types.Failure[any](fmt.Sprintf("String must be at most %d characters, got %d", n, len(s)))
		}
		return types.Success(value)
	})
}

// field pairs a key with its validator and requiredness.
type field struct {
	name     string
	v        Value
	optional bool
}

// ObjectValidator validates a JSON object against declared fields.
// Undeclared keys pass through untouched. Zero declared fields accepts
// any object.
type ObjectValidator struct {
	fields []field
}

// Object starts an object schema. Fields are declared with Field and
// OptionalField; declaration order is preserved in issue reporting.
func Object() *ObjectValidator {
	return &ObjectValidator{}
}

// Field declares a required field. Missing or null values fail.
func (o *ObjectValidator) Field(name string, v Value) *ObjectValidator {
	o.fields = append(o.fields, field{name: name, v: v})
	return o
}

// OptionalField declares a field that may be absent or null.
func (o *ObjectValidator) OptionalField(name string, v Value) *ObjectValidator {
	o.fields = append(o.fields, field{name: name, v: v, optional: true})
	return o
}

// Validate checks value against the declared fields. All fields are
// checked even after the first failure so one pass reports every issue.
func (o *ObjectValidator) Validate(ctx context.Context, value any) types.Result[map[string]any] {
	obj, ok := value.(map[string]any)
	if !ok {
		return types.Failure[map[string]any]("Expected object")
	}

	var issues []types.Issue
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = v
	}

	for _, f := range o.fields {
		fv, present := obj[f.name]
		if !present || fv == nil {
			if f.optional {
				continue
			}
			issues = append(issues, types.Issue{
				Message: fmt.Sprintf("Missing required field '%s'", f.name),
				Path:    []types.PathSegment{types.PathKey(f.name)},
			})
			continue
		}
		result := f.v.Validate(ctx, fv)
		if !result.Ok() {
			issues = append(issues, types.PrefixPath(result.Issues, types.PathKey(f.name))...)
			continue
		}
		out[f.name] = result.Value
	}

	if len(issues) > 0 {
		return types.Failures[map[string]any](issues)
	}
	return types.Result[map[string]any]{Value: out}
}

// AsValue adapts the object schema for nesting inside another schema.
func (o *ObjectValidator) AsValue() Value {
	return types.ValidatorFunc[any](func(ctx context.Context, value any) types.Result[any] {
		r := o.Validate(ctx, value)
		return types.Result[any]{Value: any(r.Value), Issues: r.Issues}
	})
}

// Array validates a JSON array whose elements all satisfy elem.
// Element issues carry their index in the path.
func Array(elem Value) types.Validator[[]any] {
	return types.ValidatorFunc[[]any](func(ctx context.Context, value any) types.Result[[]any] {
		arr, ok := value.([]any)
		if !ok {
			return types.Failure[[]any]("Expected array")
		}
		var issues []types.Issue
		out := make([]any, len(arr))
		for i, v := range arr {
			result := elem.Validate(ctx, v)
			if !result.Ok() {
				issues = append(issues, types.PrefixPath(result.Issues, types.PathIndex(i))...)
				continue
			}
			out[i] = result.Value
		}
		if len(issues) > 0 {
			return types.Failures[[]any](issues)
		}
		return types.Result[[]any]{Value: out}
	})
}

// FieldNames returns the declared field names in declaration order.
func (o *ObjectValidator) FieldNames() []string {
	names := make([]string, len(o.fields))
	for i, f := range o.fields {
		names[i] = f.name
	}
	return names
}

// SortedKeys returns an object's keys in lexical order. Helper for
// deterministic output in sinks and tests.
func SortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
