package valid

import (
	"context"
	"strings"
	"testing"

	"github.com/pithecene-io/sift/types"
)

func TestFieldValidators(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		v       Value
		value   any
		ok      bool
		message string
	}{
		{"string accepts string", String(), "hi", true, ""},
		{"string rejects number", String(), float64(1), false, "Expected string"},
		{"string rejects null", String(), nil, false, "Expected string"},
		{"non-empty accepts", NonEmptyString(), "x", true, ""},
		{"non-empty rejects empty", NonEmptyString(), "", false, "String must not be empty"},
		{"number accepts float", Number(), 1.5, true, ""},
		{"number rejects string", Number(), "1", false, "Expected number"},
		{"integer accepts whole", Integer(), float64(42), true, ""},
		{"integer rejects fraction", Integer(), 1.5, false, "Expected integer"},
		{"bool accepts", Bool(), true, true, ""},
		{"bool rejects", Bool(), "true", false, "Expected boolean"},
		{"any accepts null", Any(), nil, true, ""},
		{"optional passes null", Optional(String()), nil, true, ""},
		{"optional checks non-null", Optional(String()), float64(1), false, "Expected string"},
		{"min length ok", MinLength(3), "abc", true, ""},
		{"min length short", MinLength(3), "ab", false, "at least 3"},
		{"max length ok", MaxLength(3), "abc", true, ""},
		{"max length long", MaxLength(3), "abcd", false, "at most 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.v.Validate(ctx, tt.value)
			if result.Ok() != tt.ok {
				t.Fatalf("Ok() = %v, want %v (issues: %v)", result.Ok(), tt.ok, result.Issues)
			}
			if !tt.ok && !strings.Contains(result.Issues[0].Message, tt.message) {
				t.Errorf("message %q does not contain %q", result.Issues[0].Message, tt.message)
			}
		})
	}
}

func TestObjectValidator(t *testing.T) {
	ctx := context.Background()
	schema := Object().
		Field("id", Number()).
		Field("name", String()).
		OptionalField("note", String())

	t.Run("valid object", func(t *testing.T) {
		result := schema.Validate(ctx, map[string]any{"id": float64(1), "name": "Alice"})
		if !result.Ok() {
			t.Fatalf("unexpected issues: %v", result.Issues)
		}
		if result.Value["name"] != "Alice" {
			t.Errorf("value: %v", result.Value)
		}
	})

	t.Run("extra keys pass through", func(t *testing.T) {
		result := schema.Validate(ctx, map[string]any{"id": float64(1), "name": "A", "color": "red"})
		if !result.Ok() {
			t.Fatalf("unexpected issues: %v", result.Issues)
		}
		if result.Value["color"] != "red" {
			t.Errorf("extra key dropped: %v", result.Value)
		}
	})

	t.Run("missing required field", func(t *testing.T) {
		result := schema.Validate(ctx, map[string]any{"id": float64(1)})
		if result.Ok() {
			t.Fatal("expected issues")
		}
		issue := result.Issues[0]
		if !strings.Contains(issue.Message, "Missing required field 'name'") {
			t.Errorf("message: %q", issue.Message)
		}
		if types.FormatPath(issue.Path) != "name" {
			t.Errorf("path: %q", types.FormatPath(issue.Path))
		}
	})

	t.Run("all failures reported in one pass", func(t *testing.T) {
		result := schema.Validate(ctx, map[string]any{"id": "x", "note": float64(1)})
		if len(result.Issues) != 3 {
			t.Fatalf("got %d issues, want 3: %v", len(result.Issues), result.Issues)
		}
	})

	t.Run("missing optional field ok", func(t *testing.T) {
		if r := schema.Validate(ctx, map[string]any{"id": float64(1), "name": "A"}); !r.Ok() {
			t.Fatalf("unexpected issues: %v", r.Issues)
		}
	})

	t.Run("non-object", func(t *testing.T) {
		result := schema.Validate(ctx, []any{1})
		if result.Ok() || result.Issues[0].Message != "Expected object" {
			t.Fatalf("unexpected result: %v", result.Issues)
		}
	})

	t.Run("field path on nested failure", func(t *testing.T) {
		result := schema.Validate(ctx, map[string]any{"id": "nope", "name": "A"})
		if result.Ok() {
			t.Fatal("expected issues")
		}
		if got := types.FormatPath(result.Issues[0].Path); got != "id" {
			t.Errorf("path: %q", got)
		}
	})
}

func TestObjectAsValueNesting(t *testing.T) {
	ctx := context.Background()
	inner := Object().Field("city", String())
	schema := Object().Field("address", inner.AsValue())

	result := schema.Validate(ctx, map[string]any{
		"address": map[string]any{"city": float64(5)},
	})
	if result.Ok() {
		t.Fatal("expected issues")
	}
	if got := types.FormatPath(result.Issues[0].Path); got != "address.city" {
		t.Errorf("path: got %q, want %q", got, "address.city")
	}
}

func TestArrayValidator(t *testing.T) {
	ctx := context.Background()
	v := Array(Number())

	if r := v.Validate(ctx, []any{float64(1), float64(2)}); !r.Ok() {
		t.Fatalf("unexpected issues: %v", r.Issues)
	}

	r := v.Validate(ctx, []any{float64(1), "two", float64(3)})
	if r.Ok() {
		t.Fatal("expected issues")
	}
	if got := types.FormatPath(r.Issues[0].Path); got != "[1]" {
		t.Errorf("path: got %q, want %q", got, "[1]")
	}

	if r := v.Validate(ctx, "nope"); r.Ok() || r.Issues[0].Message != "Expected array" {
		t.Fatalf("unexpected result: %v", r.Issues)
	}
}

func TestParseSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("basic", func(t *testing.T) {
		schema, err := ParseSchema("id:number,name:string,active:bool")
		if err != nil {
			t.Fatalf("ParseSchema: %v", err)
		}
		if got := schema.FieldNames(); len(got) != 3 || got[0] != "id" {
			t.Fatalf("fields: %v", got)
		}
		r := schema.Validate(ctx, map[string]any{"id": float64(1), "name": "A", "active": true})
		if !r.Ok() {
			t.Fatalf("unexpected issues: %v", r.Issues)
		}
	})

	t.Run("optional suffix", func(t *testing.T) {
		schema, err := ParseSchema("id:number,age:number?")
		if err != nil {
			t.Fatalf("ParseSchema: %v", err)
		}
		if r := schema.Validate(ctx, map[string]any{"id": float64(1)}); !r.Ok() {
			t.Fatalf("optional field should accept absence: %v", r.Issues)
		}
	})

	t.Run("whitespace tolerated", func(t *testing.T) {
		if _, err := ParseSchema(" id : number , name : string "); err != nil {
			t.Fatalf("ParseSchema: %v", err)
		}
	})

	t.Run("empty schema accepts any object", func(t *testing.T) {
		schema, err := ParseSchema("")
		if err != nil {
			t.Fatalf("ParseSchema: %v", err)
		}
		if r := schema.Validate(ctx, map[string]any{"anything": true}); !r.Ok() {
			t.Fatalf("unexpected issues: %v", r.Issues)
		}
	})

	errCases := []struct {
		name   string
		schema string
	}{
		{"missing colon", "idnumber"},
		{"unknown type", "id:decimal"},
		{"duplicate field", "id:number,id:string"},
		{"empty name", ":number"},
	}
	for _, tt := range errCases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSchema(tt.schema); err == nil {
				t.Fatalf("expected error for %q", tt.schema)
			}
		})
	}
}
