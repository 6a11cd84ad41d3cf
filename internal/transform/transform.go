// Package transform wraps third-party compression and cipher libraries as
// opaque byte transforms selected by name.
package transform

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/joshuapare/vnkit/pkg/types"
)

var (
	// ErrLimitExceeded is returned when decoded output would exceed the caller's limit.
	ErrLimitExceeded = errors.New("transform: output exceeds limit")
	// ErrUnknown is returned by Lookup for names not in the table.
	ErrUnknown = errors.New("transform: unknown transform")
	// ErrKeyRequired is returned when a keyed transform is built without a key.
	ErrKeyRequired = errors.New("transform: key required")
)

// DefaultLimit caps decoded output when the caller does not know the size.
const DefaultLimit = 256 << 20

// Transform is a named reversible byte transformation.
type Transform struct {
	Name string
	// Encode maps plain bytes to stored bytes.
	Encode func(in []byte) ([]byte, error)
	// Decode maps stored bytes back, producing at most limit bytes.
	Decode func(in []byte, limit int64) ([]byte, error)
}

type factory func(key []byte) (Transform, error)

var registry = map[string]factory{
	"none":         func([]byte) (Transform, error) { return identity(), nil },
	"zstd":         func([]byte) (Transform, error) { return zstdTransform(), nil },
	"lz4":          func([]byte) (Transform, error) { return lz4Transform(), nil },
	"brotli":       func([]byte) (Transform, error) { return brotliTransform(), nil },
	"zlib":         func([]byte) (Transform, error) { return zlibTransform(), nil },
	"deflate":      func([]byte) (Transform, error) { return deflateTransform(), nil },
	"xor":          xorTransform,
	"blowfish-ecb": blowfishTransform,
}

// Lookup builds the transform called name. key is used by ciphers and
// ignored otherwise. An empty name selects "none".
func Lookup(name string, key []byte) (Transform, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "none"
	}
	f, ok := registry[name]
	if !ok {
		return Transform{}, types.UnsupportedErr("transform", "%q: %v", name, ErrUnknown)
	}
	return f(key)
}

// Names lists the available transforms.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func identity() Transform {
	return Transform{
		Name:   "none",
		Encode: func(in []byte) ([]byte, error) { return in, nil },
		Decode: func(in []byte, limit int64) ([]byte, error) {
			if err := checkLimit("none", int64(len(in)), limit); err != nil {
				return nil, err
			}
			return in, nil
		},
	}
}

func checkLimit(name string, n, limit int64) error {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if n > limit {
		return fmt.Errorf("%s: %w (%d > %d)", name, ErrLimitExceeded, n, limit)
	}
	return nil
}

// corrupt marks a decoder failure as malformed input.
func corrupt(name string, err error) error {
	return &types.Error{Kind: types.KindFormat, Op: name + " decode", Err: err}
}
