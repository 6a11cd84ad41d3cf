package textenc

import "bytes"

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectBOM reports the charset named by a leading byte-order mark in b and
// the mark's length.
func DetectBOM(b []byte) (Charset, int, bool) {
	switch {
	case bytes.HasPrefix(b, bomUTF8):
		return UTF8, len(bomUTF8), true
	case bytes.HasPrefix(b, bomUTF16LE):
		return UTF16LE, len(bomUTF16LE), true
	case bytes.HasPrefix(b, bomUTF16BE):
		return UTF16BE, len(bomUTF16BE), true
	default:
		return 0, 0, false
	}
}

// BOM returns the byte-order mark for c, or nil when c has none.
func BOM(c Charset) []byte {
	switch c {
	case UTF8, Auto:
		return bomUTF8
	case UTF16LE:
		return bomUTF16LE
	case UTF16BE:
		return bomUTF16BE
	default:
		return nil
	}
}
