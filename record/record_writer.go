package record

import (
	"encoding/binary"
	"math"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// PayloadWriter accumulates the little-endian fields of a record payload.
// It is the write-side counterpart of RecordReader.
type PayloadWriter struct {
	buf []byte
}

// NewPayloadWriter returns an empty writer with room for size bytes.
func NewPayloadWriter(size int) *PayloadWriter {
	return &PayloadWriter{buf: make([]byte, 0, size)}
}

// Bytes returns the accumulated payload.
func (w *PayloadWriter) Bytes() []byte { return w.buf }

// Len returns the number of bytes written so far.
func (w *PayloadWriter) Len() int { return len(w.buf) }

// WriteUint8 appends one byte.
func (w *PayloadWriter) WriteUint8(v uint8) { w.buf = append(w.buf, v) }

// WriteUint16 appends a little-endian uint16.
func (w *PayloadWriter) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteUint32 appends a little-endian uint32.
func (w *PayloadWriter) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteDouble appends a little-endian IEEE-754 double.
func (w *PayloadWriter) WriteDouble(v float64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, math.Float64bits(v))
}

// WriteBytes appends raw bytes.
func (w *PayloadWriter) WriteBytes(b []byte) { w.buf = append(w.buf, b...) }

// WriteUnicodeString appends an XLUnicodeString (2-byte count).
func (w *PayloadWriter) WriteUnicodeString(s string) {
	u := utf16.Encode([]rune(s))
	w.WriteUint16(uint16(len(u)))
	w.writeChars(u)
}

// WriteShortUnicodeString appends a ShortXLUnicodeString (1-byte count).
func (w *PayloadWriter) WriteShortUnicodeString(s string) {
	u := utf16.Encode([]rune(s))
	w.WriteUint8(uint8(len(u)))
	w.writeChars(u)
}

// writeChars writes the option byte and the characters, compressed when
// every code unit fits in ISO 8859-1.
func (w *PayloadWriter) writeChars(u []uint16) {
	wide := false
	for _, c := range u {
		if c > 0xFF {
			wide = true
			break
		}
	}
	if wide {
		w.WriteUint8(0x01)
		for _, c := range u {
			w.WriteUint16(c)
		}
		return
	}
	w.WriteUint8(0x00)
	enc, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(string(utf16.Decode(u))))
	if err != nil {
		// Every code unit is below 0x100, so the encoder cannot fail here.
		for _, c := range u {
			w.WriteUint8(uint8(c))
		}
		return
	}
	w.WriteBytes(enc)
}
