package engine

import (
	"log/slog"

	"github.com/joshuapare/vnkit/pkg/binio"
	"github.com/joshuapare/vnkit/pkg/textenc"
)

// Config is the resolved configuration a codec runs with. It is produced by
// the caller from files and flags; codecs never parse command lines.
type Config struct {
	Engine Tag

	// Encoding decodes strings in the asset; OutputEncoding encodes them
	// back on import. A zero OutputEncoding reuses Encoding.
	Encoding       textenc.Encoding
	OutputEncoding *textenc.Encoding

	// Order overrides the engine's native byte order when set.
	Order *binio.Order

	// Key is the password or key bytes for encrypted containers.
	Key []byte

	// Strict turns replacement characters into encoding errors.
	Strict bool
	// Replacement substitutes undecodable input when not strict; zero keeps
	// the encoding's own replacement.
	Replacement rune

	// Transform names an opaque transform applied to engine payloads.
	Transform string

	Workers int
	Logger  *slog.Logger
}

// DefaultConfig returns lenient UTF-8 settings with a discarding logger.
func DefaultConfig() Config {
	return Config{Encoding: textenc.Default, Workers: 1}
}

func (c Config) apply(e textenc.Encoding) textenc.Encoding {
	e = e.WithStrict(c.Strict)
	if c.Replacement != 0 {
		e.Replacement = c.Replacement
	}
	return e
}

// InputEncoding is the encoding for decoding asset strings.
func (c Config) InputEncoding() textenc.Encoding { return c.apply(c.Encoding) }

// OutputEnc is the encoding for writing strings back.
func (c Config) OutputEnc() textenc.Encoding {
	if c.OutputEncoding != nil {
		return c.apply(*c.OutputEncoding)
	}
	return c.apply(c.Encoding)
}

// ByteOrder returns the override or def.
func (c Config) ByteOrder(def binio.Order) binio.Order {
	if c.Order != nil {
		return *c.Order
	}
	return def
}

// Log returns the configured logger or a discarding one.
func (c Config) Log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.New(slog.DiscardHandler)
}
