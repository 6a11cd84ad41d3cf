package schema

import (
	"fmt"
	"math"
	"strings"
)

// Record holds decoded field values in layout order.
type Record struct {
	names  []string
	values map[string]any
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{values: make(map[string]any)}
}

// Set stores v under name, keeping the original position when name exists.
func (r *Record) Set(name string, v any) {
	if r.values == nil {
		r.values = make(map[string]any)
	}
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// Get returns the raw value for name.
func (r Record) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Names returns field names in insertion order.
func (r Record) Names() []string { return append([]string(nil), r.names...) }

// Len returns the number of fields.
func (r Record) Len() int { return len(r.names) }

// Uint returns name as an unsigned integer.
func (r Record) Uint(name string) (uint64, bool) {
	v, ok := r.values[name]
	if !ok {
		return 0, false
	}
	return toUint(v)
}

// Int returns name as a signed integer.
func (r Record) Int(name string) (int64, bool) {
	v, ok := r.values[name]
	if !ok {
		return 0, false
	}
	return toInt(v)
}

// Float returns name as a float.
func (r Record) Float(name string) (float64, bool) {
	switch v := r.values[name].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	return 0, false
}

// String returns name as a string.
func (r Record) String(name string) (string, bool) {
	s, ok := r.values[name].(string)
	return s, ok
}

// Bytes returns name as raw bytes.
func (r Record) Bytes(name string) ([]byte, bool) {
	b, ok := r.values[name].([]byte)
	return b, ok
}

// Summary renders the record as "name=value" pairs for logs.
func (r Record) Summary() string {
	var sb strings.Builder
	for i, n := range r.names {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%s=%v", n, r.values[n])
	}
	return sb.String()
}

func toUint(v any) (uint64, bool) {
	switch x := v.(type) {
	case uint64:
		return x, true
	case uint32:
		return uint64(x), true
	case uint16:
		return uint64(x), true
	case uint8:
		return uint64(x), true
	case uint:
		return uint64(x), true
	case int, int8, int16, int32, int64:
		i, _ := toInt(x)
		if i < 0 {
			return 0, false
		}
		return uint64(i), true
	}
	return 0, false
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case int:
		return int64(x), true
	case uint, uint8, uint16, uint32, uint64:
		u, _ := toUint(x)
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	}
	return 0, false
}
