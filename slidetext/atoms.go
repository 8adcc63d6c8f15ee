package slidetext

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/record"
)

// HeaderSize is the size of a PowerPoint record header: a 16-bit
// version/instance word, a 16-bit record type and a 32-bit length.
const HeaderSize = 8

// containerVersion marks a record whose payload is a list of child records.
const containerVersion = 0x000F

// SlideListWithText instances.
const (
	InstanceSlides  = 0
	InstanceMasters = 1
	InstanceNotes   = 2
)

// IsContainer reports whether r holds child records.
func IsContainer(r record.Record) bool { return r.Options&0x000F == containerVersion }

// Instance returns the record instance stored in the upper 12 bits of the
// version/instance word.
func Instance(r record.Record) uint16 { return r.Options >> 4 }

// ParseChildren decodes a sequence of PowerPoint records.  Container
// payloads are kept as raw bytes.
func ParseChildren(data []byte) ([]record.Record, error) {
	var out []record.Record
	for off := 0; off < len(data); {
		if len(data)-off < HeaderSize {
			return out, fmt.Errorf("slidetext: truncated record header at offset %d: %w", off, io.ErrUnexpectedEOF)
		}
		opts := binary.LittleEndian.Uint16(data[off:])
		typ := binary.LittleEndian.Uint16(data[off+2:])
		n := binary.LittleEndian.Uint32(data[off+4:])
		off += HeaderSize
		if uint64(n) > uint64(len(data)-off) {
			return out, fmt.Errorf("slidetext: record type %d at offset %d claims %d bytes, %d left: %w",
				typ, off-HeaderSize, n, len(data)-off, io.ErrUnexpectedEOF)
		}
		r := record.New(typ, data[off:off+int(n)])
		r.Options = opts
		out = append(out, r)
		off += int(n)
	}
	return out, nil
}

// Encode writes records with PowerPoint headers.
func Encode(recs []record.Record) []byte {
	size := 0
	for _, r := range recs {
		size += HeaderSize + len(r.Data)
	}
	buf := make([]byte, 0, size)
	for _, r := range recs {
		buf = binary.LittleEndian.AppendUint16(buf, r.Options)
		buf = binary.LittleEndian.AppendUint16(buf, r.Sid)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.Data)))
		buf = append(buf, r.Data...)
	}
	return buf
}

// Find walks a PowerPoint document stream and returns every
// SlideListWithText container, descending into nested containers.
func Find(stream []byte) ([]record.Record, error) {
	recs, err := ParseChildren(stream)
	if err != nil {
		return nil, err
	}
	var out []record.Record
	for _, r := range recs {
		if r.Sid == aggregate.PPTSlideListWithText {
			out = append(out, r)
			continue
		}
		if !IsContainer(r) {
			continue
		}
		nested, err := Find(r.Data)
		if err != nil {
			return out, fmt.Errorf("slidetext: container type %d: %w", r.Sid, err)
		}
		out = append(out, nested...)
	}
	return out, nil
}

// ── SlidePersistAtom ──────────────────────────────────────────────────────────

const slidePersistSize = 20

// SlidePersist is a decoded SlidePersistAtom.
type SlidePersist struct {
	RefID       uint32
	Flags       uint32
	NumberTexts int32
	// SlideID is negative for master slides.
	SlideID int32
}

// ParseSlidePersist decodes a SlidePersistAtom.
func ParseSlidePersist(r record.Record) (SlidePersist, error) {
	var p SlidePersist
	if r.Sid != aggregate.PPTSlidePersistAtom {
		return p, fmt.Errorf("slidetext: record type %d is not a SlidePersistAtom", r.Sid)
	}
	rr := record.NewRecordReader(r.Data)
	var err error
	if p.RefID, err = rr.ReadUint32(); err != nil {
		return p, fmt.Errorf("slidetext: decoding SlidePersistAtom: %w", err)
	}
	if p.Flags, err = rr.ReadUint32(); err != nil {
		return p, fmt.Errorf("slidetext: decoding SlidePersistAtom: %w", err)
	}
	if p.NumberTexts, err = rr.ReadInt32(); err != nil {
		return p, fmt.Errorf("slidetext: decoding SlidePersistAtom: %w", err)
	}
	if p.SlideID, err = rr.ReadInt32(); err != nil {
		return p, fmt.Errorf("slidetext: decoding SlidePersistAtom: %w", err)
	}
	return p, nil
}

// Record encodes p as a SlidePersistAtom.
func (p SlidePersist) Record() record.Record {
	w := record.NewPayloadWriter(slidePersistSize)
	w.WriteUint32(p.RefID)
	w.WriteUint32(p.Flags)
	w.WriteUint32(uint32(p.NumberTexts))
	w.WriteUint32(uint32(p.SlideID))
	w.WriteUint32(0)
	return record.New(aggregate.PPTSlidePersistAtom, w.Bytes())
}

// ── Text atoms ────────────────────────────────────────────────────────────────

// Text decodes a TextCharsAtom (UTF-16LE) or TextBytesAtom (Latin-1).
func Text(r record.Record) (string, bool) {
	rr := record.NewRecordReader(r.Data)
	switch r.Sid {
	case aggregate.PPTTextCharsAtom:
		s, err := rr.ReadChars(len(r.Data)/2, true)
		return s, err == nil
	case aggregate.PPTTextBytesAtom:
		s, err := rr.ReadChars(len(r.Data), false)
		return s, err == nil
	}
	return "", false
}
