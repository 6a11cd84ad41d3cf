// Package binio provides typed, endian-aware reads and writes over plain
// io.Reader and io.Writer values.
//
// Little-endian is the unmarked default: ReadU32 is little-endian and
// ReadU32BE is big-endian. Every failure of the underlying stream surfaces as
// a types.KindIO error; malformed content (magic mismatches) surfaces as
// types.KindFormat. Nothing in this package panics on short input.
package binio

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// Order selects the byte order of multi-byte values.
type Order int

const (
	LittleEndian Order = iota
	BigEndian
)

func (o Order) String() string {
	if o == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// ByteOrder returns the encoding/binary implementation for o.
func (o Order) ByteOrder() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ParseOrder accepts "le", "little", "be", "big" and the empty string.
func ParseOrder(s string) (Order, error) {
	switch s {
	case "", "le", "little", "little-endian":
		return LittleEndian, nil
	case "be", "big", "big-endian":
		return BigEndian, nil
	default:
		return 0, fmt.Errorf("binio: unknown byte order %q", s)
	}
}

// Uint128 is an unsigned 128-bit value split into two halves.
type Uint128 struct {
	Hi, Lo uint64
}

// Int128 is a signed 128-bit value in two's complement.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Big returns v as a big.Int.
func (v Uint128) Big() *big.Int {
	b := new(big.Int).SetUint64(v.Hi)
	b.Lsh(b, 64)
	return b.Or(b, new(big.Int).SetUint64(v.Lo))
}

// Big returns v as a big.Int.
func (v Int128) Big() *big.Int {
	b := big.NewInt(v.Hi)
	b.Lsh(b, 64)
	return b.Add(b, new(big.Int).SetUint64(v.Lo))
}

// Uint128 decodes 16 bytes of b.
func (o Order) Uint128(b []byte) Uint128 {
	_ = b[15]
	if o == BigEndian {
		return Uint128{Hi: binary.BigEndian.Uint64(b[0:8]), Lo: binary.BigEndian.Uint64(b[8:16])}
	}
	return Uint128{Hi: binary.LittleEndian.Uint64(b[8:16]), Lo: binary.LittleEndian.Uint64(b[0:8])}
}

// PutUint128 encodes v into 16 bytes of b.
func (o Order) PutUint128(b []byte, v Uint128) {
	_ = b[15]
	if o == BigEndian {
		binary.BigEndian.PutUint64(b[0:8], v.Hi)
		binary.BigEndian.PutUint64(b[8:16], v.Lo)
		return
	}
	binary.LittleEndian.PutUint64(b[0:8], v.Lo)
	binary.LittleEndian.PutUint64(b[8:16], v.Hi)
}

// Uint decodes an unsigned integer of width 1, 2, 4 or 8 bytes from b.
func (o Order) Uint(b []byte, width int) (uint64, error) {
	if len(b) < width {
		return 0, fmt.Errorf("binio: need %d bytes, have %d", width, len(b))
	}
	bo := o.ByteOrder()
	switch width {
	case 1:
		return uint64(b[0]), nil
	case 2:
		return uint64(bo.Uint16(b)), nil
	case 4:
		return uint64(bo.Uint32(b)), nil
	case 8:
		return bo.Uint64(b), nil
	default:
		return 0, fmt.Errorf("binio: unsupported integer width %d", width)
	}
}

// PutUint encodes v into width bytes of b.
func (o Order) PutUint(b []byte, width int, v uint64) error {
	if len(b) < width {
		return fmt.Errorf("binio: need %d bytes, have %d", width, len(b))
	}
	bo := o.ByteOrder()
	switch width {
	case 1:
		b[0] = byte(v)
	case 2:
		bo.PutUint16(b, uint16(v))
	case 4:
		bo.PutUint32(b, uint32(v))
	case 8:
		bo.PutUint64(b, v)
	default:
		return fmt.Errorf("binio: unsupported integer width %d", width)
	}
	return nil
}

// SignExtend interprets the low width bytes of v as a two's complement value.
func SignExtend(v uint64, width int) int64 {
	shift := uint(64 - 8*width)
	return int64(v<<shift) >> shift
}

// FitsUint reports whether v fits in width bytes unsigned.
func FitsUint(v uint64, width int) bool {
	if width >= 8 {
		return true
	}
	return v>>(8*uint(width)) == 0
}

// FitsInt reports whether v fits in width bytes signed.
func FitsInt(v int64, width int) bool {
	if width >= 8 {
		return true
	}
	limit := int64(1) << (8*uint(width) - 1)
	return v >= -limit && v < limit
}
