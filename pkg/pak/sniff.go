package pak

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the detected container format of a mod file.
type Kind string

const (
	KindPak     Kind = "pak" // zip container carrying scripts directly
	KindZip     Kind = "zip" // generic archive nesting paks
	KindSevenZ  Kind = "7z"
	KindRar     Kind = "rar"
	KindUnknown Kind = ""
)

var (
	zipMagics = [][]byte{
		{0x50, 0x4B, 0x03, 0x04},
		{0x50, 0x4B, 0x05, 0x06},
		{0x50, 0x4B, 0x07, 0x08},
	}
	sevenZMagic = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	rarMagic    = []byte{0x52, 0x61, 0x72, 0x21, 0x1A, 0x07}
)

// Sniff detects a container format from its magic bytes, falling back to
// the file extension when the header is unreadable or unrecognized. Mods
// routinely ship with wrong extensions, so the header wins. A zip header on
// a `.pak` file is a pak, on anything else a generic archive.
func Sniff(path string) Kind {
	ext := strings.ToLower(filepath.Ext(path))

	sig := make([]byte, 8)
	f, err := os.Open(path)
	if err == nil {
		_, _ = f.Read(sig)
		_ = f.Close()
	}

	switch {
	case isZipHeader(sig):
		if ext == ".pak" {
			return KindPak
		}
		return KindZip
	case bytes.HasPrefix(sig, sevenZMagic):
		return KindSevenZ
	case bytes.HasPrefix(sig, rarMagic):
		return KindRar
	}

	switch ext {
	case ".pak":
		return KindPak
	case ".zip":
		return KindZip
	case ".7z":
		return KindSevenZ
	case ".rar":
		return KindRar
	}
	return KindUnknown
}

func isZipHeader(sig []byte) bool {
	for _, m := range zipMagics {
		if bytes.HasPrefix(sig, m) {
			return true
		}
	}
	return false
}
