package aggregate

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xls/biff8"
)

// Code classifies a soft condition.
type Code int

const (
	// CodeUnresolvedCrossReference: a header/footer or shared-range record
	// could not be matched exactly and was associated best-effort (or not at
	// all).
	CodeUnresolvedCrossReference Code = iota + 1
	// CodeUnknownRecordType: an unrecognized record inside an aggregate span
	// was passed through unchanged.
	CodeUnknownRecordType
	// CodeSynthesized: a required record was missing and a default was
	// generated.
	CodeSynthesized
	// CodeFolded: a repeated view-keyed record was folded into an existing
	// one.
	CodeFolded
	// CodeDuplicateID: two groups carry the same identifier; the first wins
	// for lookups.
	CodeDuplicateID
)

func (c Code) String() string {
	switch c {
	case CodeUnresolvedCrossReference:
		return "unresolved-cross-reference"
	case CodeUnknownRecordType:
		return "unknown-record-type"
	case CodeSynthesized:
		return "synthesized"
	case CodeFolded:
		return "folded"
	case CodeDuplicateID:
		return "duplicate-id"
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// Diagnostic is one soft condition observed while building or resolving.
type Diagnostic struct {
	Code    Code
	Sid     uint16
	Index   int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s at index %d: %s", d.Code, biff8.Name(d.Sid), d.Index, d.Message)
}

// Diagnostics collects soft conditions in the order they are observed and
// mirrors each one to a logger.  A nil *Diagnostics discards everything.
// It is not safe for concurrent use; each sheet owns its own collector.
type Diagnostics struct {
	items []Diagnostic
	log   *zap.Logger
}

// NewDiagnostics returns an empty collector.  A nil logger is replaced by a
// no-op one.
func NewDiagnostics(log *zap.Logger) *Diagnostics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Diagnostics{log: log}
}

// Add records d.
func (ds *Diagnostics) Add(d Diagnostic) {
	if ds == nil {
		return
	}
	ds.items = append(ds.items, d)
	fields := []zap.Field{
		zap.Stringer("code", d.Code),
		zap.String("record", biff8.Name(d.Sid)),
		zap.Uint16("sid", d.Sid),
		zap.Int("index", d.Index),
	}
	switch d.Code {
	case CodeUnresolvedCrossReference, CodeDuplicateID:
		ds.log.Warn(d.Message, fields...)
	default:
		ds.log.Debug(d.Message, fields...)
	}
}

// Addf records a diagnostic with a formatted message.
func (ds *Diagnostics) Addf(code Code, sid uint16, index int, format string, args ...any) {
	ds.Add(Diagnostic{Code: code, Sid: sid, Index: index, Message: fmt.Sprintf(format, args...)})
}

// Items returns the recorded diagnostics in observation order.
func (ds *Diagnostics) Items() []Diagnostic {
	if ds == nil {
		return nil
	}
	out := make([]Diagnostic, len(ds.items))
	copy(out, ds.items)
	return out
}

// Len returns the number of recorded diagnostics.
func (ds *Diagnostics) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.items)
}

// Count returns the number of diagnostics with the given code.
func (ds *Diagnostics) Count(code Code) int {
	if ds == nil {
		return 0
	}
	n := 0
	for _, d := range ds.items {
		if d.Code == code {
			n++
		}
	}
	return n
}
