package mdhtml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputRejectsInvalidUTF8(t *testing.T) {
	require.ErrorIs(t, ValidateInput([]byte{0xff, 0xfe, 0xfd}), ErrInvalidUTF8)
	require.ErrorIs(t, ValidateInput([]byte("ok \xe2\x82")), ErrInvalidUTF8)
}

func TestValidateInputRejectsBinary(t *testing.T) {
	require.ErrorIs(t, ValidateInput(append([]byte("hello"), 0x00)), ErrBinaryInput)

	noisy := strings.Repeat("\x01abcdefghij", 10)
	require.ErrorIs(t, ValidateInput([]byte(noisy)), ErrBinaryInput)
}

func TestValidateInputAcceptsMarkdown(t *testing.T) {
	src := "# Title\r\n\n\tcode\n\n| a | b |\n|---|---|\n| ø | 漢 |\n\f"
	require.NoError(t, ValidateInput([]byte(src)))
	require.NoError(t, validateString(src))
}

func TestValidatorCarriesSplitRunes(t *testing.T) {
	var v validator
	data := []byte("xå")
	rest, err := v.addBytes(data[:2])
	require.NoError(t, err)
	assert.Equal(t, data[1:2], rest)

	rest, err = v.addBytes(append(rest, data[2:]...))
	require.NoError(t, err)
	assert.Empty(t, rest)
}

func TestSanitizeBytesDropsControlAndInvalid(t *testing.T) {
	src := []byte("a\x00b\xffc\x07d\n")
	dst := make([]byte, len(src))
	clean, rest := sanitizeBytes(dst, src)
	assert.Equal(t, "abcd\n", string(clean))
	assert.Empty(t, rest)
}

func TestSanitizeInputDropsIncompleteTail(t *testing.T) {
	src := append([]byte("ok\x01"), "é"[:1]...)
	assert.Equal(t, "ok", string(SanitizeInput(src)))
	require.NoError(t, ValidateInput(SanitizeInput([]byte("x\xc3\x28y"))))
}
