package types

import "errors"

// Outcome is the per-file result category tallied by the batch counter.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeIgnored
	OutcomeWarning
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeIgnored:
		return "ignored"
	case OutcomeWarning:
		return "warning"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Classify maps a task result to its outcome. warned is set when the task
// completed but applied a lossy fallback (e.g. replacement characters).
func Classify(err error, warned bool) Outcome {
	switch {
	case err == nil && warned:
		return OutcomeWarning
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrIgnored):
		return OutcomeIgnored
	default:
		return OutcomeError
	}
}
