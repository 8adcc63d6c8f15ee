package aggregate

import (
	"fmt"

	"github.com/TsubasaBE/go-xls/biff8"
)

// DuplicateRecordError reports a second occurrence of a strict singleton
// record within one aggregate span.  Index and FirstIndex are absolute record
// indices in the input sequence.
type DuplicateRecordError struct {
	Kind       Kind
	Sid        uint16
	Index      int
	FirstIndex int
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("aggregate: duplicate %s (0x%04X) record in %s at index %d (first at index %d)",
		biff8.Name(e.Sid), e.Sid, e.Kind, e.Index, e.FirstIndex)
}

// MalformedAggregateError reports an aggregate that lacks a structurally
// required record, or that has no members at all.
type MalformedAggregateError struct {
	Kind   Kind
	Index  int
	Reason string
}

func (e *MalformedAggregateError) Error() string {
	return fmt.Sprintf("aggregate: malformed %s at index %d: %s", e.Kind, e.Index, e.Reason)
}
