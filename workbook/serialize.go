package workbook

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/record"
)

// Serialize returns the record sequence of the whole workbook stream.  Built
// worksheets are emitted in canonical order; every other substream is
// emitted as read.  The lbPlyPos field of each BOUNDSHEET is rewritten to
// the new position of its substream.
func (wb *Workbook) Serialize() ([]record.Record, error) {
	pos := record.TotalSize(wb.globals)
	built := make(map[*substream]*sheetEntry, len(wb.sheets))
	for _, e := range wb.sheets {
		if e.stream != nil && e.sheet != nil {
			built[e.stream] = e
		}
	}

	newPos := make(map[*substream]int, len(wb.streams))
	var body []record.Record
	for _, s := range wb.streams[1:] {
		newPos[s] = pos
		recs := s.recs
		if e, ok := built[s]; ok {
			recs = e.sheet.Serialize(pos)
		}
		body = append(body, recs...)
		pos += record.TotalSize(recs)
	}

	out := make([]record.Record, 0, len(wb.globals)+len(body))
	out = append(out, wb.globals...)
	for _, e := range wb.sheets {
		if e.stream == nil {
			continue
		}
		r := out[e.bound]
		if r.Sid != biff8.BoundSheet || len(r.Data) < 4 {
			return nil, fmt.Errorf("workbook: BOUNDSHEET for sheet %q is malformed", e.name)
		}
		data := bytes.Clone(r.Data)
		binary.LittleEndian.PutUint32(data, uint32(newPos[e.stream]))
		r.Data = data
		out[e.bound] = r
	}
	return append(out, body...), nil
}

// WriteTo writes the serialized workbook stream to w.  The output is the raw
// Workbook stream, not a compound file.
func (wb *Workbook) WriteTo(w io.Writer) (int64, error) {
	recs, err := wb.Serialize()
	if err != nil {
		return 0, err
	}
	rw := record.NewWriter(w)
	if err := rw.WriteAll(recs); err != nil {
		return rw.Tell(), fmt.Errorf("workbook: write stream: %w", err)
	}
	return rw.Tell(), nil
}
