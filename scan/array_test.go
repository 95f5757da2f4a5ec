package scan

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// scanChunks feeds the chunks in order, then Finish, returning all items.
func scanChunks(t *testing.T, chunks []string) ([]string, error) {
	t.Helper()
	sc := NewArrayScanner()
	var items []string
	for _, chunk := range chunks {
		out, err := sc.Feed(chunk)
		if err != nil {
			return nil, err
		}
		items = append(items, out...)
		if sc.Done() {
			break
		}
	}
	if err := sc.Finish(); err != nil {
		return nil, err
	}
	return items, nil
}

// splitEvery splits text into chunks of at most size bytes.
func splitEvery(text string, size int) []string {
	var chunks []string
	for len(text) > size {
		chunks = append(chunks, text[:size])
		text = text[size:]
	}
	return append(chunks, text)
}

var arrayCases = []struct {
	name  string
	input string
	want  []string
}{
	{"empty", `[]`, nil},
	{"empty with space", ` [ ] `, nil},
	{"single number", `[42]`, []string{"42"}},
	{"numbers", `[1,2,3]`, []string{"1", "2", "3"}},
	{"negative and float", `[-1.5,2e10,0.25]`, []string{"-1.5", "2e10", "0.25"}},
	{"literals", `[true,false,null]`, []string{"true", "false", "null"}},
	{"strings", `["a","b"]`, []string{`"a"`, `"b"`}},
	{"string with comma and brackets", `["a,b]{["]`, []string{`"a,b]{["`}},
	{"string with escaped quote", `["a\"b","c\\"]`, []string{`"a\"b"`, `"c\\"`}},
	{"objects", `[{"id":1,"name":"Alice"},{"id":2,"name":"Bob"}]`,
		[]string{`{"id":1,"name":"Alice"}`, `{"id":2,"name":"Bob"}`}},
	{"nested containers", `[{"a":[1,{"b":2}]},[[3],4]]`,
		[]string{`{"a":[1,{"b":2}]}`, `[[3],4]`}},
	{"whitespace everywhere", " [ 1 , {\"a\": 2} ,\n\"x\" ]\t", // trailing text inside same chunk after ']' is never scanned
		[]string{"1", `{"a": 2}`, `"x"`}},
	{"empty object", `[{}]`, []string{`{}`}},
	{"unicode strings", `["héllo","日本語"]`, []string{`"héllo"`, `"日本語"`}},
}

func TestArrayScanner_WholeInput(t *testing.T) {
	for _, tc := range arrayCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := scanChunks(t, []string{tc.input})
			if err != nil {
				t.Fatalf("scan failed: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("items = %q, want %q", got, tc.want)
			}
		})
	}
}

// Splitting the input anywhere, including mid-string, mid-escape and
// mid-number, must not change the emitted items.
func TestArrayScanner_ChunkingInvariance(t *testing.T) {
	for _, tc := range arrayCases {
		t.Run(tc.name, func(t *testing.T) {
			// Every fixed chunk size, down to one byte per feed.
			for size := 1; size <= len(tc.input); size++ {
				got, err := scanChunks(t, splitEvery(tc.input, size))
				if err != nil {
					t.Fatalf("size %d: scan failed: %v", size, err)
				}
				if !reflect.DeepEqual(got, tc.want) {
					t.Fatalf("size %d: items = %q, want %q", size, got, tc.want)
				}
			}
			// Every two-chunk split point.
			for cut := 0; cut <= len(tc.input); cut++ {
				got, err := scanChunks(t, []string{tc.input[:cut], tc.input[cut:]})
				if err != nil {
					t.Fatalf("cut %d: scan failed: %v", cut, err)
				}
				if !reflect.DeepEqual(got, tc.want) {
					t.Fatalf("cut %d: items = %q, want %q", cut, got, tc.want)
				}
			}
		})
	}
}

func TestArrayScanner_Idempotence(t *testing.T) {
	input := `[{"a":1},"b",3]`
	first, err := scanChunks(t, splitEvery(input, 3))
	if err != nil {
		t.Fatalf("first scan failed: %v", err)
	}
	second, err := scanChunks(t, splitEvery(input, 3))
	if err != nil {
		t.Fatalf("second scan failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("independent scans differ: %q vs %q", first, second)
	}
}

func TestArrayScanner_NotAnArray(t *testing.T) {
	sc := NewArrayScanner()
	_, err := sc.Feed(`{"a":1}`)
	if !IsParseError(err) {
		t.Fatalf("Feed = %v, want parse error", err)
	}
	var parseErr *ParseError
	errors.As(err, &parseErr)
	if parseErr.Offset != 0 {
		t.Errorf("Offset = %d, want 0", parseErr.Offset)
	}
}

func TestArrayScanner_MalformedSeparator(t *testing.T) {
	sc := NewArrayScanner()
	_, err := sc.Feed(`["a" "b"]`)
	if !IsParseError(err) {
		t.Fatalf("Feed = %v, want parse error", err)
	}
	var parseErr *ParseError
	errors.As(err, &parseErr)
	if parseErr.Offset != 5 {
		t.Errorf("Offset = %d, want 5", parseErr.Offset)
	}
}

func TestArrayScanner_SeparatorErrorOffsetAcrossChunks(t *testing.T) {
	sc := NewArrayScanner()
	if _, err := sc.Feed(`[11111, 22222`); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	_, err := sc.Feed(` x]`)
	if !IsParseError(err) {
		t.Fatalf("Feed = %v, want parse error", err)
	}
	var parseErr *ParseError
	errors.As(err, &parseErr)
	if parseErr.Offset != 14 {
		t.Errorf("Offset = %d, want 14", parseErr.Offset)
	}
}

func TestArrayScanner_FeedAfterDone(t *testing.T) {
	sc := NewArrayScanner()
	if _, err := sc.Feed(`[]`); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if !sc.Done() {
		t.Fatal("scanner should be done after ']'")
	}
	if _, err := sc.Feed(`more`); !errors.Is(err, ErrScanDone) {
		t.Errorf("Feed after done = %v, want ErrScanDone", err)
	}
}

func TestArrayScanner_Finish(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"closed array", `[1]`, false},
		{"empty input", ``, true},
		{"only whitespace", "  \n", true},
		{"unterminated after item", `[1,`, true},
		{"mid item", `[{"a":`, true},
		{"missing bracket", `[1`, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc := NewArrayScanner()
			if _, err := sc.Feed(tc.input); err != nil {
				t.Fatalf("Feed failed: %v", err)
			}
			err := sc.Finish()
			if tc.wantErr && !IsParseError(err) {
				t.Errorf("Finish = %v, want parse error", err)
			}
			if !tc.wantErr && err != nil {
				t.Errorf("Finish = %v, want nil", err)
			}
		})
	}
}

// The buffer must stay bounded by the largest in-flight element plus one
// chunk, regardless of how many elements stream through.
func TestArrayScanner_BufferBounded(t *testing.T) {
	sc := NewArrayScanner()
	item := `{"k":"0123456789abcdef"}`
	chunk := item + ","

	if _, err := sc.Feed("["); err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	for range 10000 {
		if _, err := sc.Feed(chunk); err != nil {
			t.Fatalf("Feed failed: %v", err)
		}
		if len(sc.buf) > len(item)+len(chunk) {
			t.Fatalf("buffer grew to %d bytes, bound is %d", len(sc.buf), len(item)+len(chunk))
		}
	}
	items, err := sc.Feed(item + "]")
	if err != nil {
		t.Fatalf("final Feed failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("final Feed returned %d items, want 1", len(items))
	}
	if err := sc.Finish(); err != nil {
		t.Fatalf("Finish failed: %v", err)
	}
}

func TestArrayScanner_ManyItemsCountPreserved(t *testing.T) {
	const n = 1000
	input := "["
	for i := range n {
		if i > 0 {
			input += ","
		}
		input += fmt.Sprintf(`{"i":%d}`, i)
	}
	input += "]"

	for _, size := range []int{1, 7, 64, len(input)} {
		items, err := scanChunks(t, splitEvery(input, size))
		if err != nil {
			t.Fatalf("size %d: scan failed: %v", size, err)
		}
		if len(items) != n {
			t.Errorf("size %d: got %d items, want %d", size, len(items), n)
		}
	}
}
