// Package counter tallies per-file outcomes of a batch run.
//
// A Counter is created once per run and handed to every task; it is safe for
// concurrent use without extra locking.
package counter

import (
	"fmt"
	"sync/atomic"

	"github.com/joshuapare/vnkit/pkg/types"
)

// Counter holds one atomic tally per outcome.
type Counter struct {
	ok      atomic.Int64
	ignored atomic.Int64
	warning atomic.Int64
	errored atomic.Int64
}

// New returns a zeroed counter.
func New() *Counter { return &Counter{} }

func (c *Counter) slot(o types.Outcome) *atomic.Int64 {
	switch o {
	case types.OutcomeIgnored:
		return &c.ignored
	case types.OutcomeWarning:
		return &c.warning
	case types.OutcomeError:
		return &c.errored
	default:
		return &c.ok
	}
}

// Inc records one file with outcome o.
func (c *Counter) Inc(o types.Outcome) { c.slot(o).Add(1) }

// Add records n files with outcome o.
func (c *Counter) Add(o types.Outcome, n int64) { c.slot(o).Add(n) }

// Record classifies err (see types.Classify) and records it.
func (c *Counter) Record(err error, warned bool) types.Outcome {
	o := types.Classify(err, warned)
	c.Inc(o)
	return o
}

// Counts is a point-in-time copy of a Counter.
type Counts struct {
	OK      int64 `json:"ok"`
	Ignored int64 `json:"ignored"`
	Warning int64 `json:"warning"`
	Error   int64 `json:"error"`
}

// Total is the number of files recorded.
func (c Counts) Total() int64 { return c.OK + c.Ignored + c.Warning + c.Error }

func (c Counts) String() string {
	return fmt.Sprintf("OK: %d, Ignored: %d, Warning: %d, Error: %d", c.OK, c.Ignored, c.Warning, c.Error)
}

// Snapshot reads all tallies.
func (c *Counter) Snapshot() Counts {
	return Counts{
		OK:      c.ok.Load(),
		Ignored: c.ignored.Load(),
		Warning: c.warning.Load(),
		Error:   c.errored.Load(),
	}
}

// Merge adds other's tallies into c.
func (c *Counter) Merge(other *Counter) {
	s := other.Snapshot()
	c.ok.Add(s.OK)
	c.ignored.Add(s.Ignored)
	c.warning.Add(s.Warning)
	c.errored.Add(s.Error)
}

func (c *Counter) String() string { return c.Snapshot().String() }
