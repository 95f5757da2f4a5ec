package chunk

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/klauspost/compress/gzip"
)

// drain reads a source to exhaustion and concatenates the chunks.
func drain(t *testing.T, src Source) string {
	t.Helper()
	var b strings.Builder
	ctx := context.Background()
	for {
		text, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return b.String()
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		b.WriteString(text)
	}
}

func TestFromReader_Basic(t *testing.T) {
	src := FromReader(strings.NewReader(`[{"a":1}]`))
	defer src.Close()

	if got := drain(t, src); got != `[{"a":1}]` {
		t.Errorf("drained %q, want original text", got)
	}
}

func TestFromReader_SplitRune(t *testing.T) {
	// OneByteReader forces every multi-byte rune to arrive split.
	input := `["héllo","wörld","日本語"]`
	src := FromReader(iotest.OneByteReader(strings.NewReader(input)))
	defer src.Close()

	if got := drain(t, src); got != input {
		t.Errorf("drained %q, want %q", got, input)
	}
}

func TestFromReader_TruncatedRuneAtEOF(t *testing.T) {
	// 0xE6 0x97 is the first two bytes of 日; the final byte never arrives.
	src := FromReader(bytes.NewReader([]byte{'a', 0xE6, 0x97}))
	defer src.Close()

	got := drain(t, src)
	if !strings.HasPrefix(got, "a") {
		t.Fatalf("drained %q, want leading %q", got, "a")
	}
	if !strings.ContainsRune(got, '�') {
		t.Errorf("drained %q, want replacement character for truncated rune", got)
	}
}

func TestFromReader_AfterEOF(t *testing.T) {
	src := FromReader(strings.NewReader("x"))
	defer src.Close()

	drain(t, src)
	if _, err := src.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Next after exhaustion = %v, want io.EOF", err)
	}
}

func TestFromReader_ContextCanceled(t *testing.T) {
	src := FromReader(strings.NewReader("abc"))
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next with canceled ctx = %v, want context.Canceled", err)
	}
}

type trackingCloser struct {
	io.Reader
	closed int
}

func (c *trackingCloser) Close() error {
	c.closed++
	return nil
}

func TestFromReadCloser_ClosesOnce(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("x")}
	src := FromReadCloser(rc)

	drain(t, src)
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
	if rc.closed != 1 {
		t.Errorf("underlying Close called %d times, want 1", rc.closed)
	}
}

func TestFromGzipReader(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(`[1,2,3]`)); err != nil {
		t.Fatalf("gzip write failed: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close failed: %v", err)
	}

	src, err := FromGzipReader(&buf)
	if err != nil {
		t.Fatalf("FromGzipReader failed: %v", err)
	}
	defer src.Close()

	if got := drain(t, src); got != `[1,2,3]` {
		t.Errorf("drained %q, want [1,2,3]", got)
	}
}

func TestFromStringChan(t *testing.T) {
	ch := make(chan string, 4)
	ch <- `[{"id":`
	ch <- "" // empty chunks are skipped
	ch <- `1}]`
	close(ch)

	src := FromStringChan(ch)
	defer src.Close()

	if got := drain(t, src); got != `[{"id":1}]` {
		t.Errorf("drained %q", got)
	}
}

func TestFromByteChan_SplitRune(t *testing.T) {
	enc := []byte("日") // 3 bytes
	ch := make(chan []byte, 3)
	ch <- enc[:1]
	ch <- enc[1:2]
	ch <- enc[2:]
	close(ch)

	src := FromByteChan(ch)
	defer src.Close()

	if got := drain(t, src); got != "日" {
		t.Errorf("drained %q, want 日", got)
	}
}

func TestFromByteChan_FlushOnClose(t *testing.T) {
	ch := make(chan []byte, 1)
	ch <- []byte{0xE6} // lone lead byte, never completed
	close(ch)

	src := FromByteChan(ch)
	defer src.Close()

	if got := drain(t, src); got != "�" {
		t.Errorf("drained %q, want replacement character", got)
	}
}

type sliceTextReader struct {
	chunks []string
	pos    int
	closed bool
}

func (r *sliceTextReader) ReadText(_ context.Context) (string, error) {
	if r.pos >= len(r.chunks) {
		return "", io.EOF
	}
	text := r.chunks[r.pos]
	r.pos++
	return text, nil
}

func (r *sliceTextReader) Close() error {
	r.closed = true
	return nil
}

func TestFromText(t *testing.T) {
	reader := &sliceTextReader{chunks: []string{"[1,", "", "2]"}}
	src := FromText(reader)

	if got := drain(t, src); got != "[1,2]" {
		t.Errorf("drained %q, want [1,2]", got)
	}
	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !reader.closed {
		t.Error("Close was not forwarded to the text reader")
	}
}

func TestPrefetch_PreservesOrder(t *testing.T) {
	chunks := []string{"a", "b", "c", "d", "e"}
	ch := make(chan string, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)

	src := Prefetch(FromStringChan(ch), 2)
	defer src.Close()

	if got := drain(t, src); got != "abcde" {
		t.Errorf("drained %q, want abcde", got)
	}
}

func TestPrefetch_ZeroDepthPassthrough(t *testing.T) {
	ch := make(chan string)
	close(ch)
	inner := FromStringChan(ch)
	if Prefetch(inner, 0) != inner {
		t.Error("depth 0 should return the source unchanged")
	}
}

func TestPrefetch_CloseReleasesSource(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("never read")}
	src := Prefetch(FromReadCloser(rc), 4)

	if err := src.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if rc.closed != 1 {
		t.Errorf("underlying Close called %d times, want 1", rc.closed)
	}
}
