package bitstream

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshuapare/vnkit/pkg/types"
)

type pair struct {
	width int
	value uint64
}

func roundTrip(t *testing.T, order Order, pairs []pair) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf, order)
	for _, p := range pairs {
		require.NoError(t, w.WriteBits(p.width, p.value))
	}
	require.NoError(t, w.Flush())
	out := append([]byte(nil), buf.Bytes()...)

	r := NewReader(&buf, order)
	for i, p := range pairs {
		got, err := r.ReadBits(p.width)
		require.NoError(t, err, "pair %d", i)
		assert.Equal(t, p.value, got, "pair %d", i)
	}
	return out
}

func TestRoundTripBothOrders(t *testing.T) {
	pairs := []pair{{3, 5}, {1, 1}, {12, 0xABC}}
	for _, order := range []Order{MSBFirst, LSBFirst} {
		t.Run(order.String(), func(t *testing.T) {
			roundTrip(t, order, pairs)
		})
	}
}

func TestMSBFirstLayout(t *testing.T) {
	out := roundTrip(t, MSBFirst, []pair{{3, 5}, {1, 1}, {12, 0xABC}})
	// 101 1 1010 1011 1100
	assert.Equal(t, []byte{0xBA, 0xBC}, out)
}

func TestLSBFirstLayout(t *testing.T) {
	out := roundTrip(t, LSBFirst, []pair{{3, 5}, {1, 1}, {4, 0xA}})
	// value bits fill from bit 0: 101, then 1, then 1010
	assert.Equal(t, []byte{0xAD}, out)
}

func TestUnalignedTotalIsZeroPadded(t *testing.T) {
	pairs := []pair{{5, 0x1F}, {9, 0x155}, {64, 0xDEADBEEFCAFEF00D}, {1, 0}}
	for _, order := range []Order{MSBFirst, LSBFirst} {
		t.Run(order.String(), func(t *testing.T) {
			out := roundTrip(t, order, pairs)
			assert.Len(t, out, 10) // 79 bits
		})
	}

	out := roundTrip(t, MSBFirst, []pair{{3, 7}})
	assert.Equal(t, []byte{0xE0}, out)
}

func TestReaderPositions(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xFF, 0x00}), MSBFirst)
	_, err := r.ReadBits(3)
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.BytePos())
	assert.Equal(t, 3, r.BitOffset())

	r.Align()
	v, err := r.ReadBits(8)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	assert.Equal(t, int64(2), r.BytePos())
	assert.Equal(t, 0, r.BitOffset())

	_, err = r.ReadBit()
	assert.ErrorIs(t, err, types.ErrIO)
}

func TestReadSigned(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xF0}), MSBFirst)
	v, err := r.ReadSigned(4)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), v)
}

func TestWidthLimits(t *testing.T) {
	w := NewWriter(&bytes.Buffer{}, MSBFirst)
	assert.ErrorIs(t, w.WriteBits(65, 0), types.ErrRange)
	assert.ErrorIs(t, w.WriteBits(3, 8), types.ErrRange)

	r := NewReader(bytes.NewReader(nil), LSBFirst)
	_, err := r.ReadBits(-1)
	assert.ErrorIs(t, err, types.ErrRange)
}
