package record

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Reader iterates over BIFF8 records from an io.Reader.  Each call to Next
// returns the next record or io.EOF at the end of the stream.
//
// The BIFF8 header is fixed-size: a 2-byte little-endian sid followed by a
// 2-byte little-endian payload length.
type Reader struct {
	r   io.Reader
	pos int64
}

// NewReader wraps an io.Reader for BIFF8 record iteration.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Tell returns the stream offset of the next record header.
func (r *Reader) Tell() int64 {
	return r.pos
}

// Next reads the next record from the stream.
// Returns (rec, nil) on success, or (Record{}, io.EOF) at end of stream.
// A stream truncated inside a header or payload returns a non-EOF error rather
// than silently masking data corruption as end-of-file.
func (r *Reader) Next() (Record, error) {
	var hdr [HeaderSize]byte
	n, err := io.ReadFull(r.r, hdr[:])
	if err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		// Some writers pad the stream with a trailing zero byte or two.
		if errors.Is(err, io.ErrUnexpectedEOF) && allZero(hdr[:n]) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("record: reading header at offset %d: %w", r.pos, err)
	}
	sid := binary.LittleEndian.Uint16(hdr[0:])
	size := int(binary.LittleEndian.Uint16(hdr[2:]))

	// The stream of a compound file is padded to the sector size with zeros.
	// A zero sid with zero length never occurs in a real substream.
	if sid == 0 && size == 0 {
		return Record{}, io.EOF
	}

	rec := Record{Sid: sid}
	if size > 0 {
		rec.Data = make([]byte, size)
		if _, err := io.ReadFull(r.r, rec.Data); err != nil {
			return Record{}, fmt.Errorf("record: reading %d payload bytes for sid 0x%04X at offset %d: %w", size, sid, r.pos, err)
		}
	}
	r.pos += int64(HeaderSize + size)
	return rec, nil
}

// ReadAll reads every record up to the end of the stream.
func ReadAll(r io.Reader) ([]Record, error) {
	rdr := NewReader(r)
	var recs []Record
	for {
		rec, err := rdr.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return recs, err
		}
		recs = append(recs, rec)
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
