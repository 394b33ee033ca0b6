package script_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/metalheadbang/unleash/pkg/script"
)

func TestDecodeTextUTF8(t *testing.T) {
	in := []byte("SetHealth(\"boss1\", 100)\n")
	assert.Equal(t, string(in), script.DecodeText(in))
}

func TestDecodeTextWindows1252Fallback(t *testing.T) {
	// 0xE9 is é in windows-1252 and invalid as a standalone UTF-8 byte.
	in := []byte{'c', 'a', 'f', 0xE9}
	assert.Equal(t, "café", script.DecodeText(in))
}

func TestDecodeTextNeverEmptyOnGarbage(t *testing.T) {
	in := []byte{0xFF, 0xFE, 0x00, 0x41}
	out := script.DecodeText(in)
	assert.NotEmpty(t, out)
	// Whatever the fallback produced, it must be valid UTF-8 text.
	assert.True(t, strings.ToValidUTF8(out, "") == out)
}
