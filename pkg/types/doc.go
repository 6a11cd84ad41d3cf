// Package types holds the small vocabulary shared by every vnkit package:
// typed errors with stable kinds and per-file outcome categories.
//
// Library packages never panic or exit on malformed input. Every fallible
// operation returns an error whose kind (io/format/encoding/range/unsupported)
// can be recovered with KindOf or matched with errors.Is against the sentinel
// values, and the batch runner folds those into an Outcome.
package types
