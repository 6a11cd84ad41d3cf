package buf

import (
	"math"
	"testing"
)

func TestAddOverflowSafe(t *testing.T) {
	if sum, ok := AddOverflowSafe(10, 5); !ok || sum != 15 {
		t.Fatalf("AddOverflowSafe(10,5)=%d,%v want 15,true", sum, ok)
	}
	if _, ok := AddOverflowSafe(math.MaxInt64, 1); ok {
		t.Fatalf("expected overflow when adding to MaxInt64")
	}
	if _, ok := AddOverflowSafe(math.MinInt64, -1); ok {
		t.Fatalf("expected underflow when subtracting from MinInt64")
	}
}

func TestMulOverflowSafe(t *testing.T) {
	if p, ok := MulOverflowSafe(12, 4); !ok || p != 48 {
		t.Fatalf("MulOverflowSafe(12,4)=%d,%v", p, ok)
	}
	if _, ok := MulOverflowSafe(math.MaxInt64/2, 3); ok {
		t.Fatalf("expected overflow")
	}
	if _, ok := MulOverflowSafe(-1, 3); ok {
		t.Fatalf("negative operands must be rejected")
	}
}

func TestCheckWindow(t *testing.T) {
	if end, err := CheckWindow(2, 3, 5); err != nil || end != 5 {
		t.Fatalf("CheckWindow(2,3,5)=%d,%v", end, err)
	}
	for _, tc := range [][3]int64{{-1, 1, 5}, {0, -1, 5}, {4, 2, 5}, {math.MaxInt64, 1, 5}} {
		if _, err := CheckWindow(tc[0], tc[1], tc[2]); err == nil {
			t.Fatalf("CheckWindow%v should fail", tc)
		}
	}
}

func TestSliceAndHas(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4}
	if got, ok := Slice(data, 1, 3); !ok || len(got) != 3 || got[0] != 1 || got[2] != 3 {
		t.Fatalf("Slice returned unexpected result: %v, %v", got, ok)
	}
	if got, _ := Slice(data, 1, 3); cap(got) != 3 {
		t.Fatalf("Slice must cap the result so appends cannot clobber the parent")
	}
	if _, ok := Slice(data, 4, 2); ok {
		t.Fatalf("Slice should fail when extending beyond len")
	}
	if Has(data, 2, 4) {
		t.Fatalf("Has should be false for out-of-bounds range")
	}
	if !Has(data, 2, 1) {
		t.Fatalf("Has should be true for valid range")
	}
}

func TestGrow(t *testing.T) {
	b := make([]byte, 2, 8)
	b[0], b[1] = 1, 2
	b = append(b, 9)[:2] // leave garbage in spare capacity
	b = Grow(b, 4)
	if len(b) != 4 || b[2] != 0 || b[3] != 0 {
		t.Fatalf("Grow must zero-fill: %v", b)
	}
	b = Grow(b, 20)
	if len(b) != 20 || b[0] != 1 || b[1] != 2 {
		t.Fatalf("Grow lost data: %v", b)
	}
	if same := Grow(b, 3); len(same) != 20 {
		t.Fatalf("Grow must not shrink")
	}
}
