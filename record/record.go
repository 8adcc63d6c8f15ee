// Package record provides the low-level BIFF8 record primitives: the tagged
// record value, stream framing (Reader / Writer), payload field helpers and
// the lookahead Cursor used by the aggregate builders.
package record

import (
	"fmt"

	"github.com/TsubasaBE/go-xls/biff8"
)

// HeaderSize is the encoded size of a BIFF8 record header (sid + length).
const HeaderSize = 4

// Record is a single tagged record: a type id and its opaque payload.
//
// Records are treated as immutable once read.  Code that changes a record
// builds a new payload and replaces the whole value.
type Record struct {
	// Sid is the record type id.
	Sid uint16
	// Data is the raw payload, excluding the header.
	Data []byte
	// Options carries the version/instance word of PowerPoint atom headers.
	// It is always zero for BIFF records.
	Options uint16
}

// New returns a record with the given sid and a copy of data.
func New(sid uint16, data []byte) Record {
	var d []byte
	if len(data) > 0 {
		d = make([]byte, len(data))
		copy(d, data)
	}
	return Record{Sid: sid, Data: d}
}

// Len returns the payload length in bytes.
func (r Record) Len() int { return len(r.Data) }

// Size returns the encoded size of the record including its 4-byte header.
func (r Record) Size() int { return HeaderSize + len(r.Data) }

// String implements fmt.Stringer for diagnostics.
func (r Record) String() string {
	return fmt.Sprintf("%s[%d]", biff8.Name(r.Sid), len(r.Data))
}

// Equal reports whether two records have the same sid, options and payload.
func (r Record) Equal(o Record) bool {
	if r.Sid != o.Sid || r.Options != o.Options || len(r.Data) != len(o.Data) {
		return false
	}
	for i := range r.Data {
		if r.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// TotalSize returns the encoded size of recs.
func TotalSize(recs []Record) int {
	n := 0
	for _, r := range recs {
		n += r.Size()
	}
	return n
}
