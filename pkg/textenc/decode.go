package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/joshuapare/vnkit/pkg/types"
)

// sjisPrivate stands in for a lone 0xFF byte in Shift-JIS text. Some engines
// use 0xFF as an inline control byte; mapping it to a private-use rune lets it
// survive a decode/encode round trip.
const sjisPrivate = '\uF8F3'

var errInvalidInput = errors.New("invalid byte sequence")

// Decode converts b to a UTF-8 string. replaced is true when the Replace
// policy substituted at least one rune; under Strict the same input fails with
// an encoding error instead.
func (e Encoding) Decode(b []byte) (s string, replaced bool, err error) {
	b, cs, err := e.applyBOM(b)
	if err != nil {
		return "", false, err
	}
	return e.decodeAs(cs, b)
}

// DecodeDetect is Decode that also reports the charset actually used after
// BOM handling and Auto resolution.
func (e Encoding) DecodeDetect(b []byte) (string, Charset, bool, error) {
	b, cs, err := e.applyBOM(b)
	if err != nil {
		return "", 0, false, err
	}
	if cs == Auto {
		return e.decodeAuto(b)
	}
	s, replaced, err := e.decodeAs(cs, b)
	return s, cs, replaced, err
}

func (e Encoding) decodeAuto(b []byte) (string, Charset, bool, error) {
	for _, try := range []Charset{UTF8, ShiftJIS} {
		if s, _, err := (Encoding{Charset: try, Invalid: Strict}).decodeAs(try, b); err == nil {
			return s, try, false, nil
		}
	}
	s, replaced, err := e.decodeAs(GBK, b)
	return s, GBK, replaced, err
}

func (e Encoding) applyBOM(b []byte) ([]byte, Charset, error) {
	cs := e.Charset
	found, n, ok := DetectBOM(b)
	switch e.BOM {
	case BOMDetect:
		if ok {
			return b[n:], found, nil
		}
	case BOMStrip:
		if ok && (found == cs || (cs == Auto && found == UTF8)) {
			return b[n:], cs, nil
		}
	case BOMRequire:
		if !ok || (found != cs && cs != Auto) {
			return nil, cs, types.EncodingErr("decode", fmt.Errorf("missing %s byte-order mark", cs))
		}
		if cs == Auto {
			cs = found
		}
		return b[n:], cs, nil
	}
	return b, cs, nil
}

func (e Encoding) decodeAs(cs Charset, b []byte) (string, bool, error) {
	switch cs {
	case UTF8:
		if utf8.Valid(b) {
			return string(b), false, nil
		}
		if e.Invalid == Strict {
			return "", false, types.EncodingErr("decode utf-8", errInvalidInput)
		}
		return strings.ToValidUTF8(string(b), string(e.replacement())), true, nil
	case UTF16LE, UTF16BE:
		return e.decodeUTF16(b, cs == UTF16BE)
	case ShiftJIS:
		return e.decodeShiftJIS(b)
	case GBK:
		return e.decodeLegacy("gbk", simplifiedchinese.GBK, b)
	case Windows1252:
		return e.decodeLegacy("windows-1252", charmap.Windows1252, b)
	case Auto:
		s, _, replaced, err := e.decodeAuto(b)
		return s, replaced, err
	default:
		return "", false, types.UnsupportedErr("decode", "charset %v", cs)
	}
}

// decodeLegacy runs an x/text decoder. Those decoders emit U+FFFD for invalid
// input rather than failing, and no legacy charset here can encode U+FFFD, so
// its presence marks a replacement.
func (e Encoding) decodeLegacy(name string, enc encoding.Encoding, b []byte) (string, bool, error) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", false, types.EncodingErr("decode "+name, err)
	}
	if !bytes.ContainsRune(out, utf8.RuneError) {
		return string(out), false, nil
	}
	if e.Invalid == Strict {
		return "", false, types.EncodingErr("decode "+name, errInvalidInput)
	}
	s := string(out)
	if r := e.replacement(); r != utf8.RuneError {
		s = strings.ReplaceAll(s, string(utf8.RuneError), string(r))
	}
	return s, true, nil
}

func (e Encoding) decodeShiftJIS(b []byte) (string, bool, error) {
	// 0xFF is never a valid lead or trail byte in CP932, so splitting on it
	// cannot cut a double-byte character in half.
	if bytes.IndexByte(b, 0xFF) < 0 {
		return e.decodeLegacy("shift-jis", japanese.ShiftJIS, b)
	}
	if e.Invalid == Strict {
		return "", false, types.EncodingErr("decode shift-jis", errInvalidInput)
	}
	var sb strings.Builder
	replaced := false
	for i, chunk := range bytes.Split(b, []byte{0xFF}) {
		if i > 0 {
			sb.WriteRune(sjisPrivate)
		}
		s, r, err := e.decodeLegacy("shift-jis", japanese.ShiftJIS, chunk)
		if err != nil {
			return "", false, err
		}
		replaced = replaced || r
		sb.WriteString(s)
	}
	return sb.String(), replaced, nil
}

// decodeUTF16 decodes UTF-16 code units, combining surrogate pairs and
// replacing unpaired surrogates or a dangling odd byte.
func (e Encoding) decodeUTF16(b []byte, bigEndian bool) (string, bool, error) {
	unit := func(i int) rune {
		if bigEndian {
			return rune(b[i])<<8 | rune(b[i+1])
		}
		return rune(b[i]) | rune(b[i+1])<<8
	}
	var sb strings.Builder
	sb.Grow(len(b) / 2)
	replaced := false
	bad := func() error {
		if e.Invalid == Strict {
			return types.EncodingErr("decode utf-16", errInvalidInput)
		}
		replaced = true
		sb.WriteRune(e.replacement())
		return nil
	}
	i := 0
	for ; i+1 < len(b); i += 2 {
		r := unit(i)
		switch {
		case r >= 0xD800 && r <= 0xDBFF:
			if i+3 < len(b) {
				if r2 := unit(i + 2); r2 >= 0xDC00 && r2 <= 0xDFFF {
					sb.WriteRune(0x10000 + ((r-0xD800)<<10 | (r2 - 0xDC00)))
					i += 2
					continue
				}
			}
			if err := bad(); err != nil {
				return "", false, err
			}
		case r >= 0xDC00 && r <= 0xDFFF:
			if err := bad(); err != nil {
				return "", false, err
			}
		default:
			sb.WriteRune(r)
		}
	}
	if i < len(b) {
		if err := bad(); err != nil {
			return "", false, err
		}
	}
	return sb.String(), replaced, nil
}
