package script

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DecodeText turns raw container bytes into a string. Files are expected to
// be UTF-8; older mods ship windows-1252 text, so that is tried next. As a
// last resort the bytes are decoded as UTF-8 with invalid sequences replaced
// rather than failing the file.
func DecodeText(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}

	if decoded, err := charmap.Windows1252.NewDecoder().Bytes(data); err == nil {
		return string(decoded)
	}

	// Lossy fallback: string conversion replaces invalid UTF-8 with U+FFFD
	// when ranged, so rebuild explicitly.
	out := make([]rune, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		out = append(out, r)
		data = data[size:]
	}
	return string(out)
}
