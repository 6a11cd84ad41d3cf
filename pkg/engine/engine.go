// Package engine defines the contract every per-engine codec implements and
// the registry that selects one by tag.
//
// The set of codecs is closed and built explicitly by the caller with
// NewRegistry; nothing registers itself at init time.
package engine

import (
	"context"
	"io"

	"github.com/joshuapare/vnkit/pkg/types"
)

// Tag identifies an engine format, e.g. "scpt".
type Tag string

// Message is one extractable string.
type Message struct {
	Name string `json:"name,omitempty"`
	Text string `json:"message"`
}

// Script is the decoded text content of one asset.
type Script struct {
	Engine   Tag       `json:"engine"`
	Name     string    `json:"name,omitempty"`
	Messages []Message `json:"messages"`
}

// Texts returns the message texts in order.
func (s *Script) Texts() []string {
	out := make([]string, len(s.Messages))
	for i, m := range s.Messages {
		out[i] = m.Text
	}
	return out
}

// Input is an opened asset.
type Input struct {
	Name string
	Data io.ReadSeeker
}

// Codec decodes an engine's asset into a Script and re-encodes an edited
// Script against the original asset.
//
// The returned Outcome is OutcomeWarning when the operation succeeded with a
// lossy fallback such as replacement characters.
type Codec interface {
	Tag() Tag
	// Extensions lists file extensions (with dot, lower case) this codec claims.
	Extensions() []string
	Decode(ctx context.Context, in Input, cfg Config) (*Script, types.Outcome, error)
	Encode(ctx context.Context, in Input, script *Script, out io.WriteSeeker, cfg Config) (types.Outcome, error)
}

// Sniffer is implemented by codecs that can recognize their format from the
// leading bytes of a file.
type Sniffer interface {
	Sniff(head []byte) bool
}
