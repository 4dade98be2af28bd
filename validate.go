package mdhtml

import (
	"errors"
	"unicode/utf8"
)

var (
	// ErrInvalidUTF8 reports source text that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("mdhtml: invalid utf-8 input")
	// ErrBinaryInput reports source text that looks like binary data.
	ErrBinaryInput = errors.New("mdhtml: binary input detected")
)

const (
	minBinarySample = 64
	maxControlPct   = 2
)

// ValidateInput reports whether src is usable Markdown source: valid UTF-8,
// free of NUL bytes and not dominated by control characters.
func ValidateInput(src []byte) error {
	var v validator
	rest, err := v.addBytes(src)
	if err != nil {
		return err
	}
	if len(rest) > 0 {
		return ErrInvalidUTF8
	}
	return nil
}

// validateString is ValidateInput for strings without the copy.
func validateString(src string) error {
	var v validator
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])
		if err := v.addRune(r, size); err != nil {
			return err
		}
		i += size
	}
	return nil
}

// validator checks input incrementally so Render can validate while it
// reads.
type validator struct {
	total   int
	control int
}

func (v *validator) reset() {
	v.total = 0
	v.control = 0
}

// addBytes validates the complete runes of b and returns the incomplete tail
// for the next chunk.
func (v *validator) addBytes(b []byte) ([]byte, error) {
	i := 0
	for i < len(b) && utf8.FullRune(b[i:]) {
		r, size := utf8.DecodeRune(b[i:])
		if err := v.addRune(r, size); err != nil {
			return nil, err
		}
		i += size
	}
	return b[i:], nil
}

func (v *validator) addRune(r rune, size int) error {
	if r == utf8.RuneError && size == 1 {
		return ErrInvalidUTF8
	}
	if r == 0 {
		return ErrBinaryInput
	}
	v.total += size
	if isControlRune(r) {
		v.control++
		if v.total >= minBinarySample && v.control*100 >= v.total*maxControlPct {
			return ErrBinaryInput
		}
	}
	return nil
}

func isControlRune(r rune) bool {
	switch r {
	case '\n', '\r', '\t', '\f':
		return false
	}
	return r < 0x20 || r == 0x7F
}

// sanitizeBytes copies the valid, non-control runes of src to dst and
// returns them with the incomplete tail of src. dst must be at least as long
// as src.
func sanitizeBytes(dst, src []byte) ([]byte, []byte) {
	di, i := 0, 0
	for i < len(src) && utf8.FullRune(src[i:]) {
		r, size := utf8.DecodeRune(src[i:])
		if (r == utf8.RuneError && size == 1) || isControlRune(r) {
			i += size
			continue
		}
		di += copy(dst[di:], src[i:i+size])
		i += size
	}
	return dst[:di], src[i:]
}

// SanitizeInput returns src with invalid UTF-8 and disallowed control
// characters removed.
func SanitizeInput(src []byte) []byte {
	out, _ := sanitizeBytes(make([]byte, len(src)), src)
	return out
}
