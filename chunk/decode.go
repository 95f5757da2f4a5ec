package chunk

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf8Stream is a stateful incremental UTF-8 decoder. Bytes belonging
// to a rune whose tail has not arrived yet are carried to the next
// decode call instead of being replaced.
type utf8Stream struct {
	dec   transform.Transformer
	carry []byte
}

func newUTF8Stream() *utf8Stream {
	return &utf8Stream{dec: unicode.UTF8.NewDecoder()}
}

// decode appends p to any carried bytes and returns the longest decodable
// prefix as text. A trailing partial rune stays carried.
func (u *utf8Stream) decode(p []byte) (string, error) {
	if len(u.carry) > 0 {
		p = append(u.carry, p...)
		u.carry = nil
	}
	return u.transform(p, false)
}

// flush finalizes the decoder at end of stream. Carried bytes that never
// completed a rune come out as replacement characters.
func (u *utf8Stream) flush() string {
	if len(u.carry) == 0 {
		return ""
	}
	p := u.carry
	u.carry = nil
	// Finalization cannot fail: every byte is either decoded or replaced.
	text, _ := u.transform(p, true)
	return text
}

func (u *utf8Stream) transform(src []byte, atEOF bool) (string, error) {
	if len(src) == 0 {
		return "", nil
	}
	// Worst case each input byte becomes one replacement rune.
	dst := make([]byte, 3*len(src)+utf8.UTFMax)
	nDst, nSrc, err := u.dec.Transform(dst, src, atEOF)
	if err != nil && err != transform.ErrShortSrc && err != transform.ErrShortDst {
		return "", err
	}
	if nSrc < len(src) {
		u.carry = append([]byte(nil), src[nSrc:]...)
	}
	return string(dst[:nDst]), nil
}
