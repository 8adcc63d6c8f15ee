package record

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"unicode/utf16"

	"golang.org/x/text/encoding/charmap"
)

// RecordReader wraps the payload of a single BIFF8 record and provides typed
// little-endian read helpers.
type RecordReader struct {
	data []byte
	pos  int
}

// NewRecordReader creates a RecordReader over the given byte slice.
func NewRecordReader(data []byte) *RecordReader {
	return &RecordReader{data: data}
}

// Remaining returns the number of unread bytes.
func (r *RecordReader) Remaining() int {
	return len(r.data) - r.pos
}

// Pos returns the current read offset within the payload.
func (r *RecordReader) Pos() int {
	return r.pos
}

// Skip advances the read position by n bytes.
func (r *RecordReader) Skip(n int) error {
	if n < 0 {
		return fmt.Errorf("record: skip count %d is negative", n)
	}
	if r.Remaining() < n {
		return fmt.Errorf("record: skip %d bytes but only %d remain", n, r.Remaining())
	}
	r.pos += n
	return nil
}

// Read reads exactly len(p) bytes into p.
func (r *RecordReader) Read(p []byte) error {
	n := len(p)
	if r.Remaining() < n {
		return io.ErrUnexpectedEOF
	}
	copy(p, r.data[r.pos:r.pos+n])
	r.pos += n
	return nil
}

// ReadUint8 reads one unsigned byte.
func (r *RecordReader) ReadUint8() (uint8, error) {
	if r.Remaining() < 1 {
		return 0, io.ErrUnexpectedEOF
	}
	v := r.data[r.pos]
	r.pos++
	return v, nil
}

// ReadUint16 reads a little-endian uint16.
func (r *RecordReader) ReadUint16() (uint16, error) {
	if r.Remaining() < 2 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

// ReadUint32 reads a little-endian uint32.
func (r *RecordReader) ReadUint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, io.ErrUnexpectedEOF
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadInt32 reads a little-endian int32.
func (r *RecordReader) ReadInt32() (int32, error) {
	u, err := r.ReadUint32()
	return int32(u), err
}

// ReadRK reads a 4-byte RK value as stored in RK and MULRK records.
//
//   - Bit 0 set means the final value is divided by 100.
//   - Bit 1 set means the upper 30 bits are a signed integer.
//   - Otherwise the upper 30 bits are the high word of a double (low word = 0).
func (r *RecordReader) ReadRK() (float64, error) {
	raw, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	return DecodeRK(raw), nil
}

// DecodeRK converts a raw RK word into its numeric value.
func DecodeRK(raw int32) float64 {
	var v float64
	if raw&0x02 != 0 {
		// Arithmetic shift keeps the sign of negative integers.
		v = float64(raw >> 2)
	} else {
		hi := uint32(raw) & 0xFFFFFFFC
		v = math.Float64frombits(uint64(hi) << 32)
	}
	if raw&0x01 != 0 {
		v /= 100
	}
	return v
}

// ReadDouble reads a little-endian IEEE-754 double (8 bytes).
func (r *RecordReader) ReadDouble() (float64, error) {
	if r.Remaining() < 8 {
		return 0, io.ErrUnexpectedEOF
	}
	bits := binary.LittleEndian.Uint64(r.data[r.pos:])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

// ReadGUID reads a 16-byte identifier.
func (r *RecordReader) ReadGUID() ([16]byte, error) {
	var g [16]byte
	if err := r.Read(g[:]); err != nil {
		return g, err
	}
	return g, nil
}

// ReadUnicodeString reads an XLUnicodeString: a 2-byte character count, an
// option byte and the characters.
func (r *RecordReader) ReadUnicodeString() (string, error) {
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	return r.ReadUnicodeChars(int(n))
}

// ReadShortUnicodeString reads a ShortXLUnicodeString: a 1-byte character
// count, an option byte and the characters.
func (r *RecordReader) ReadShortUnicodeString() (string, error) {
	n, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	return r.ReadUnicodeChars(int(n))
}

// ReadUnicodeChars reads the option byte and n characters of a BIFF8 string
// whose count has already been consumed.  Rich-text runs and phonetic blocks
// flagged in the option byte are skipped.
func (r *RecordReader) ReadUnicodeChars(n int) (string, error) {
	opts, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	var runs, phonetic int
	if opts&0x08 != 0 {
		c, err := r.ReadUint16()
		if err != nil {
			return "", err
		}
		runs = int(c)
	}
	if opts&0x04 != 0 {
		c, err := r.ReadUint32()
		if err != nil {
			return "", err
		}
		phonetic = int(c)
	}
	s, err := r.ReadChars(n, opts&0x01 != 0)
	if err != nil {
		return "", err
	}
	if err := r.Skip(runs*4 + phonetic); err != nil {
		return "", err
	}
	return s, nil
}

// ReadChars reads n characters, either as UTF-16LE code units (wide) or as
// compressed single bytes holding the low byte of each code unit.
func (r *RecordReader) ReadChars(n int, wide bool) (string, error) {
	size := n
	if wide {
		size = n * 2
	}
	if r.Remaining() < size {
		return "", io.ErrUnexpectedEOF
	}
	raw := r.data[r.pos : r.pos+size]
	r.pos += size
	if wide {
		return decodeUTF16LE(raw), nil
	}
	return decodeCompressed(raw)
}

// decodeCompressed maps compressed BIFF8 characters to UTF-8.  Compressed
// characters are the low byte of a UTF-16 code unit whose high byte is zero,
// which is exactly ISO 8859-1.
func decodeCompressed(b []byte) (string, error) {
	if len(b) == 0 {
		return "", nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("record: decoding compressed string: %w", err)
	}
	return string(out), nil
}

// decodeUTF16LE converts a byte slice of UTF-16 little-endian code units into
// a UTF-8 Go string. Invalid code units are replaced with U+FFFD.
func decodeUTF16LE(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	n := len(b) / 2
	u16 := make([]uint16, n)
	for i := range n {
		u16[i] = binary.LittleEndian.Uint16(b[i*2:])
	}
	return string(utf16.Decode(u16))
}
