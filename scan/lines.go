package scan

import (
	"bytes"
	"strings"
)

// LineScanner incrementally splits newline-delimited text into trimmed,
// non-blank records. Feed it decoded text chunks in arrival order; call
// Finish after the final chunk to flush a trailing record that lacks a
// newline.
type LineScanner struct {
	buf []byte
}

// NewLineScanner creates a scanner for newline-delimited records.
func NewLineScanner() *LineScanner {
	return &LineScanner{}
}

// Feed appends chunk and returns every complete record it makes
// available. Records are trimmed of surrounding whitespace; blank lines
// are skipped.
func (s *LineScanner) Feed(chunk string) []string {
	s.buf = append(s.buf, chunk...)

	var lines []string
	start := 0
	for {
		i := bytes.IndexByte(s.buf[start:], '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(s.buf[start : start+i]))
		start += i + 1
		if line != "" {
			lines = append(lines, line)
		}
	}
	if start > 0 {
		s.buf = append(s.buf[:0], s.buf[start:]...)
	}
	return lines
}

// Finish flushes the remainder after the final chunk. ok reports whether
// a non-blank trailing record existed; a trailing newline is not
// required for the last record.
func (s *LineScanner) Finish() (line string, ok bool) {
	line = strings.TrimSpace(string(s.buf))
	s.buf = nil
	return line, line != ""
}
