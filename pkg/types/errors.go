package types

import (
	"errors"
	"fmt"
)

// -----------------------------------------------------------------------------
// Typed Errors (stable categories for programmatic handling)
// -----------------------------------------------------------------------------

// ErrKind classifies errors so callers can branch on intent rather than text.
type ErrKind int

const (
	KindIO          ErrKind = iota // underlying read/write/seek failure, short reads
	KindFormat                     // magic mismatch or structurally invalid layout
	KindEncoding                   // unmappable bytes under a strict charset
	KindRange                      // region seek out of bounds, patch target not covered
	KindUnsupported                // recognized but not implemented sub-variant
)

func (k ErrKind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindFormat:
		return "format"
	case KindEncoding:
		return "encoding"
	case KindRange:
		return "range"
	case KindUnsupported:
		return "unsupported"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a typed error with an optional underlying cause.
type Error struct {
	Kind ErrKind
	Op   string // operation that failed, e.g. "peek u32"
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Msg
	if e.Op != "" {
		if msg == "" {
			msg = e.Op
		} else {
			msg = e.Op + ": " + msg
		}
	}
	if e.Err != nil {
		if msg == "" {
			return e.Err.Error()
		}
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports kind equality so errors.Is(err, ErrRange) matches any range error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || t == nil {
		return false
	}
	return t.Op == "" && t.Msg == kindSentinelMsg(t.Kind) && e.Kind == t.Kind
}

func kindSentinelMsg(k ErrKind) string { return k.String() + " error" }

// Sentinels matched by kind through errors.Is.
var (
	ErrIO          = &Error{Kind: KindIO, Msg: kindSentinelMsg(KindIO)}
	ErrFormat      = &Error{Kind: KindFormat, Msg: kindSentinelMsg(KindFormat)}
	ErrEncoding    = &Error{Kind: KindEncoding, Msg: kindSentinelMsg(KindEncoding)}
	ErrRange       = &Error{Kind: KindRange, Msg: kindSentinelMsg(KindRange)}
	ErrUnsupported = &Error{Kind: KindUnsupported, Msg: kindSentinelMsg(KindUnsupported)}
)

// ErrIgnored is returned by codecs when a file is recognized but carries nothing
// to extract or import. It is classified as OutcomeIgnored, not as a failure.
var ErrIgnored = errors.New("file ignored")

// IOErr wraps err as an IO error for op. A nil err yields nil.
func IOErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return err
	}
	return &Error{Kind: KindIO, Op: op, Err: err}
}

// FormatErr builds a format error.
func FormatErr(op, format string, args ...any) error {
	return &Error{Kind: KindFormat, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// EncodingErr builds an encoding error wrapping the codec failure.
func EncodingErr(op string, err error) error {
	return &Error{Kind: KindEncoding, Op: op, Err: err}
}

// RangeErr builds a range error.
func RangeErr(op, format string, args ...any) error {
	return &Error{Kind: KindRange, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// UnsupportedErr builds an unsupported-variant error.
func UnsupportedErr(op, format string, args ...any) error {
	return &Error{Kind: KindUnsupported, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrKind, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind, true
	}
	return 0, false
}

// MismatchError reports a failed equality assertion, typically a magic signature.
// It unwraps to a format error.
type MismatchError struct {
	What     string
	Expected any
	Actual   any
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s mismatch: expected %v, got %v", e.What, e.Expected, e.Actual)
}

func (e *MismatchError) Unwrap() error { return ErrFormat }
