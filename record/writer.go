package record

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/TsubasaBE/go-xls/biff8"
)

// Writer encodes records onto an io.Writer using BIFF8 framing.
type Writer struct {
	w   io.Writer
	pos int64
}

// NewWriter returns a Writer that appends records to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Tell returns the number of bytes written so far.
func (w *Writer) Tell() int64 {
	return w.pos
}

// Write encodes a single record.  Payloads longer than the BIFF8 limit are
// rejected; splitting a payload into CONTINUE records is the job of the code
// that built it.
func (w *Writer) Write(rec Record) error {
	if len(rec.Data) > biff8.MaxRecordLen {
		return fmt.Errorf("record: payload of %d bytes for sid 0x%04X exceeds %d byte limit", len(rec.Data), rec.Sid, biff8.MaxRecordLen)
	}
	var hdr [HeaderSize]byte
	binary.LittleEndian.PutUint16(hdr[0:], rec.Sid)
	binary.LittleEndian.PutUint16(hdr[2:], uint16(len(rec.Data)))
	if _, err := w.w.Write(hdr[:]); err != nil {
		return fmt.Errorf("record: writing header for sid 0x%04X: %w", rec.Sid, err)
	}
	if len(rec.Data) > 0 {
		if _, err := w.w.Write(rec.Data); err != nil {
			return fmt.Errorf("record: writing payload for sid 0x%04X: %w", rec.Sid, err)
		}
	}
	w.pos += int64(rec.Size())
	return nil
}

// WriteAll encodes recs in order.
func (w *Writer) WriteAll(recs []Record) error {
	for _, rec := range recs {
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return nil
}
