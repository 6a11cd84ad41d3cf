package textenc

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/vnkit/pkg/types"
)

// encodeSubstitute replaces runes the target charset cannot represent.
const encodeSubstitute = "?"

// Encode converts s to bytes in e's charset. Under BOMRequire the output is
// prefixed with the charset's byte-order mark. replaced reports that at least
// one rune was substituted.
func (e Encoding) Encode(s string) (b []byte, replaced bool, err error) {
	cs := e.Charset
	if cs == Auto {
		cs = UTF8
	}
	b, replaced, err = e.encodeAs(cs, s)
	if err != nil {
		return nil, false, err
	}
	if e.BOM == BOMRequire {
		if bom := BOM(cs); bom != nil {
			b = append(append(make([]byte, 0, len(bom)+len(b)), bom...), b...)
		}
	}
	return b, replaced, nil
}

func (e Encoding) encodeAs(cs Charset, s string) ([]byte, bool, error) {
	switch cs {
	case UTF8:
		if utf8.ValidString(s) {
			return []byte(s), false, nil
		}
		if e.Invalid == Strict {
			return nil, false, types.EncodingErr("encode utf-8", errInvalidInput)
		}
		return []byte(strings.ToValidUTF8(s, encodeSubstitute)), true, nil
	case UTF16LE:
		return e.encodeWith("utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), s)
	case UTF16BE:
		return e.encodeWith("utf-16be", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), s)
	case ShiftJIS:
		if !strings.ContainsRune(s, sjisPrivate) {
			return e.encodeWith("shift-jis", japanese.ShiftJIS, s)
		}
		var out []byte
		replaced := false
		for i, part := range strings.Split(s, string(sjisPrivate)) {
			if i > 0 {
				out = append(out, 0xFF)
			}
			b, r, err := e.encodeWith("shift-jis", japanese.ShiftJIS, part)
			if err != nil {
				return nil, false, err
			}
			replaced = replaced || r
			out = append(out, b...)
		}
		return out, replaced, nil
	case GBK:
		return e.encodeWith("gbk", simplifiedchinese.GBK, s)
	case Windows1252:
		return e.encodeWith("windows-1252", charmap.Windows1252, s)
	default:
		return nil, false, types.UnsupportedErr("encode", "charset %v", cs)
	}
}

// encodeWith tries a whole-string encode first and falls back to rune-by-rune
// substitution only when the Replace policy allows it.
func (e Encoding) encodeWith(name string, enc encoding.Encoding, s string) ([]byte, bool, error) {
	encoder := enc.NewEncoder()
	out, err := encoder.Bytes([]byte(s))
	if err == nil {
		return out, false, nil
	}
	if e.Invalid == Strict {
		return nil, false, types.EncodingErr("encode "+name, err)
	}
	out = out[:0]
	var one [utf8.UTFMax]byte
	for _, r := range s {
		n := utf8.EncodeRune(one[:], r)
		b, rerr := encoder.Bytes(one[:n])
		if rerr != nil {
			b = []byte(encodeSubstitute)
		}
		out = append(out, b...)
	}
	return out, true, nil
}
