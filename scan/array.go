// Package scan detects element boundaries inside an unbounded stream of
// partial text. ArrayScanner splits a top-level JSON array into complete
// element substrings; LineScanner splits newline-delimited records.
//
// Both scanners accept arbitrarily chunked input: feeds may split the
// text anywhere, including mid-string, mid-escape, or mid-rune, without
// changing the emitted items. Memory held is bounded by the largest
// single in-flight element plus one chunk, never by total input size.
package scan

import (
	"errors"
	"fmt"
)

// state is the scanner position within the top-level array grammar.
type state int

const (
	// stateSeekArrayStart skips leading whitespace before '['.
	stateSeekArrayStart state = iota
	// stateSeekItemOrEnd is inside the array, before an element or ']'.
	stateSeekItemOrEnd
	// stateInItem is inside an element whose end has not been seen.
	stateInItem
	// stateSeekCommaOrEnd is after a completed element, before ',' or ']'.
	stateSeekCommaOrEnd
	// stateDone is terminal: the array has closed.
	stateDone
)

// itemKind discriminates how an in-flight element ends.
type itemKind int

const (
	// kindScalar ends at whitespace, ',' or ']' at depth zero.
	kindScalar itemKind = iota
	// kindString ends at its unescaped closing quote.
	kindString
	// kindContainer ends when its brackets balance back to zero.
	kindContainer
)

// emit describes how an element completed, if it did.
type emit int

const (
	// emitNone: the element continues.
	emitNone emit = iota
	// emitBefore: the element ends before the current character, which
	// belongs to the enclosing grammar (',' , ']' or whitespace).
	emitBefore
	// emitThrough: the element ends at the current character inclusive
	// (a closing quote or balancing bracket).
	emitThrough
)

// ErrScanDone is returned when input is fed after the array has closed.
var ErrScanDone = errors.New("scan: input after array end")

// ArrayScanner incrementally splits a top-level JSON array into complete
// element substrings. Feed it decoded text chunks in arrival order; each
// call returns the elements completed by that chunk. Call Finish after
// the final chunk to verify the array was terminated.
//
// The scanner owns a buffer holding only the unconsumed tail: fully
// classified leading text is discarded after every feed, and a
// continuation offset ensures no character is ever scanned twice.
type ArrayScanner struct {
	state state

	buf []byte
	// pos is the continuation offset: the next unscanned index in buf.
	pos int
	// itemStart is the index in buf where the in-flight element began.
	itemStart int
	// consumed counts bytes discarded before buf[0], for absolute offsets.
	consumed int64

	kind     itemKind
	depth    int
	inString bool
	escaped  bool
}

// NewArrayScanner creates a scanner expecting a single top-level array.
func NewArrayScanner() *ArrayScanner {
	return &ArrayScanner{}
}

// Done reports whether the array has closed. Once done, the scanner
// consumes no further input.
func (s *ArrayScanner) Done() bool { return s.state == stateDone }

// Feed appends chunk and scans forward from the continuation offset,
// returning every element completed within the newly visible text.
// Returns a *ParseError on top-level grammar violations and ErrScanDone
// if called after the array closed.
func (s *ArrayScanner) Feed(chunk string) ([]string, error) {
	if s.state == stateDone {
		return nil, ErrScanDone
	}
	s.buf = append(s.buf, chunk...)

	var items []string
	for ; s.pos < len(s.buf); s.pos++ {
		c := s.buf[s.pos]
		switch s.state {
		case stateSeekArrayStart:
			switch {
			case c == '[':
				s.state = stateSeekItemOrEnd
			case isSpace(c):
			default:
				return nil, s.fatal("expected '[', got %q", c)
			}

		case stateSeekItemOrEnd:
			switch {
			case isSpace(c):
			case c == ']':
				s.finish()
				return items, nil
			default:
				s.beginItem(c)
			}

		case stateInItem:
			em, done := s.scanItemByte(c)
			switch em {
			case emitBefore:
				items = append(items, string(s.buf[s.itemStart:s.pos]))
			case emitThrough:
				items = append(items, string(s.buf[s.itemStart:s.pos+1]))
			case emitNone:
			}
			if done {
				s.finish()
				return items, nil
			}

		case stateSeekCommaOrEnd:
			switch {
			case isSpace(c):
			case c == ',':
				s.state = stateSeekItemOrEnd
			case c == ']':
				s.finish()
				return items, nil
			default:
				return nil, s.fatal("expected ',' or ']', got %q", c)
			}

		case stateDone:
			// Unreachable: finish returns out of the loop.
		}
	}

	s.compact()
	return items, nil
}

// Finish validates the terminal state after the final chunk.
// A scanner that never saw the closing ']' reports an unterminated
// array; one that never saw '[' reports missing input.
func (s *ArrayScanner) Finish() error {
	switch s.state {
	case stateDone:
		return nil
	case stateSeekArrayStart:
		return &ParseError{Offset: s.offset(), Msg: "unexpected end of input: expected '['"}
	default:
		return &ParseError{Offset: s.offset(), Msg: "unexpected end of input: unterminated array"}
	}
}

// beginItem classifies the element's first character and enters
// stateInItem. The character itself is part of the element.
func (s *ArrayScanner) beginItem(c byte) {
	s.state = stateInItem
	s.itemStart = s.pos
	s.depth = 0
	s.inString = false
	s.escaped = false

	switch c {
	case '"':
		s.kind = kindString
		s.inString = true
	case '{', '[':
		s.kind = kindContainer
		s.depth = 1
	default:
		s.kind = kindScalar
	}
}

// scanItemByte advances the in-item tracker by one character and
// reports whether the element completed. done additionally reports that
// the character was the array's own closing ']'. Boundary characters
// outside the element (',' , whitespace) advance the state here so the
// main loop's increment consumes them under the right successor state.
func (s *ArrayScanner) scanItemByte(c byte) (emit, bool) {
	if s.inString {
		switch {
		case s.escaped:
			s.escaped = false
		case c == '\\':
			s.escaped = true
		case c == '"':
			s.inString = false
			if s.kind == kindString && s.depth == 0 {
				s.state = stateSeekCommaOrEnd
				return emitThrough, false
			}
		}
		return emitNone, false
	}

	switch c {
	case '"':
		s.inString = true
	case '{', '[':
		s.depth++
	case '}':
		s.depth--
		if s.kind == kindContainer && s.depth == 0 {
			s.state = stateSeekCommaOrEnd
			return emitThrough, false
		}
	case ']':
		if s.depth == 0 {
			// The array's own closing bracket ends a scalar element.
			return emitBefore, true
		}
		s.depth--
		if s.kind == kindContainer && s.depth == 0 {
			s.state = stateSeekCommaOrEnd
			return emitThrough, false
		}
	case ',':
		if s.depth == 0 {
			s.state = stateSeekItemOrEnd
			return emitBefore, false
		}
	default:
		if isSpace(c) && s.depth == 0 {
			// Scalars have no delimiter of their own; whitespace ends them.
			s.state = stateSeekCommaOrEnd
			return emitBefore, false
		}
	}
	return emitNone, false
}

// finish clears the buffer and enters the terminal state.
func (s *ArrayScanner) finish() {
	s.consumed += int64(s.pos) + 1 // include the closing ']'
	s.buf = s.buf[:0]
	s.pos = 0
	s.itemStart = 0
	s.state = stateDone
}

// compact discards fully classified leading text, keeping only the
// in-flight element (if any) so the buffer is bounded by one element
// plus one chunk of lookahead.
func (s *ArrayScanner) compact() {
	keepFrom := s.pos
	if s.state == stateInItem {
		keepFrom = s.itemStart
	}
	if keepFrom == 0 {
		return
	}
	s.consumed += int64(keepFrom)
	s.buf = append(s.buf[:0], s.buf[keepFrom:]...)
	s.pos -= keepFrom
	s.itemStart = 0
}

// offset is the absolute byte offset of the current scan position.
func (s *ArrayScanner) offset() int64 {
	return s.consumed + int64(s.pos)
}

func (s *ArrayScanner) fatal(format string, args ...any) error {
	return &ParseError{Offset: s.offset(), Msg: fmt.Sprintf(format, args...)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
