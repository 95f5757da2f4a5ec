package jsonl

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestWrite_OneLinePerItem(t *testing.T) {
	var buf bytes.Buffer
	s := New[item](&buf)

	items := []item{{1, "Alice"}, {2, "Bob"}}
	for _, it := range items {
		if err := s.Write(t.Context(), it); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	want := `{"id":1,"name":"Alice"}` + "\n" + `{"id":2,"name":"Bob"}` + "\n"
	if buf.String() != want {
		t.Errorf("output:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWrite_BufferedUntilClose(t *testing.T) {
	var buf bytes.Buffer
	s := New[item](&buf)

	if err := s.Write(t.Context(), item{ID: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Small writes stay in the bufio buffer until flush.
	if buf.Len() != 0 {
		t.Errorf("expected no output before Close, got %q", buf.String())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected output after Close")
	}
}

func TestWriteBatch(t *testing.T) {
	var buf bytes.Buffer
	s := New[item](&buf)

	if err := s.WriteBatch(t.Context(), []item{{1, "a"}, {2, "b"}, {3, "c"}}); err != nil {
		t.Fatalf("write batch: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
}

func TestWrite_UnmarshalableValue(t *testing.T) {
	var buf bytes.Buffer
	s := New[any](&buf)

	if err := s.Write(t.Context(), func() {}); err == nil {
		t.Fatal("expected marshal error")
	}
}

type trackingCloser struct {
	bytes.Buffer
	closed int
}

func (c *trackingCloser) Close() error {
	c.closed++
	return nil
}

func TestNewCloser_ClosesWriterOnce(t *testing.T) {
	wc := &trackingCloser{}
	s := NewCloser[item](wc)

	if err := s.Write(t.Context(), item{ID: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if wc.closed != 1 {
		t.Errorf("writer closed %d times, want 1", wc.closed)
	}
	if wc.Len() == 0 {
		t.Error("expected flushed output")
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestClose_ReportsFlushError(t *testing.T) {
	s := New[item](failingWriter{})

	// Stays in the buffer; the failure surfaces at flush.
	if err := s.Write(t.Context(), item{ID: 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := s.Close(); err == nil {
		t.Fatal("expected flush error")
	}
}
