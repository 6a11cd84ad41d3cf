// Package textenc implements the Encoding Descriptor threaded through every
// string operation: a charset, a byte-order-mark policy, and a policy for bytes
// or runes the charset cannot map.
//
// Codecs come from golang.org/x/text. Decoding with the Replace policy never
// fails on bad input; it substitutes the replacement rune and reports that it
// did so, which callers surface as a warning outcome rather than an error.
package textenc

import (
	"fmt"
	"strings"
)

// Charset identifies a text encoding.
type Charset int

const (
	UTF8 Charset = iota
	ShiftJIS // CP932
	GBK      // CP936, superset of GB2312
	UTF16LE
	UTF16BE
	Windows1252
	// Auto decodes as UTF-8, then Shift-JIS, then GBK, taking the first strict
	// success. Encoding with Auto produces UTF-8.
	Auto
)

var charsetNames = map[Charset]string{
	UTF8:        "utf-8",
	ShiftJIS:    "shift-jis",
	GBK:         "gbk",
	UTF16LE:     "utf-16le",
	UTF16BE:     "utf-16be",
	Windows1252: "windows-1252",
	Auto:        "auto",
}

func (c Charset) String() string {
	if s, ok := charsetNames[c]; ok {
		return s
	}
	return fmt.Sprintf("charset(%d)", int(c))
}

// ParseCharset resolves a charset name. Common aliases are accepted.
func ParseCharset(name string) (Charset, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8", "":
		return UTF8, nil
	case "shift-jis", "shift_jis", "sjis", "cp932", "jis":
		return ShiftJIS, nil
	case "gbk", "gb2312", "cp936":
		return GBK, nil
	case "utf-16le", "utf16le", "utf-16", "utf16":
		return UTF16LE, nil
	case "utf-16be", "utf16be":
		return UTF16BE, nil
	case "windows-1252", "cp1252", "latin1":
		return Windows1252, nil
	case "auto":
		return Auto, nil
	default:
		return 0, fmt.Errorf("textenc: unknown charset %q", name)
	}
}

// BOMPolicy controls how byte-order marks are handled.
type BOMPolicy int

const (
	// BOMDetect switches to the charset named by a leading BOM and strips it.
	BOMDetect BOMPolicy = iota
	// BOMStrip removes a BOM that matches the declared charset but never
	// switches charset.
	BOMStrip
	// BOMRequire fails decoding when no BOM for the declared charset is
	// present, and emits one when encoding.
	BOMRequire
)

// InvalidPolicy controls unmappable input.
type InvalidPolicy int

const (
	// Replace substitutes the replacement rune (decode) or '?' (encode).
	Replace InvalidPolicy = iota
	// Strict fails with an encoding error.
	Strict
)

// DefaultReplacement is used when Encoding.Replacement is zero.
const DefaultReplacement = '\uFFFD'

// Encoding is the immutable descriptor shared by all string operations.
type Encoding struct {
	Charset     Charset
	BOM         BOMPolicy
	Invalid     InvalidPolicy
	Replacement rune
}

// Default is UTF-8 with BOM detection and replacement.
var Default = Encoding{Charset: UTF8}

// New returns an Encoding for c with default policies.
func New(c Charset) Encoding { return Encoding{Charset: c} }

// WithStrict returns a copy using the Strict policy when strict is set.
func (e Encoding) WithStrict(strict bool) Encoding {
	if strict {
		e.Invalid = Strict
	} else {
		e.Invalid = Replace
	}
	return e
}

// IsWide reports whether code units are two bytes wide.
func (e Encoding) IsWide() bool {
	return e.Charset == UTF16LE || e.Charset == UTF16BE
}

func (e Encoding) replacement() rune {
	if e.Replacement == 0 {
		return DefaultReplacement
	}
	return e.Replacement
}

func (e Encoding) String() string {
	return e.Charset.String()
}
