package pagesettings

import (
	"fmt"
	"slices"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
)

// ── HEADER / FOOTER ───────────────────────────────────────────────────────────

// parseText decodes the XLUnicodeString payload of a HEADER or FOOTER
// record.  An empty payload is the empty string.
func parseText(r record.Record) (string, error) {
	if len(r.Data) == 0 {
		return "", nil
	}
	s, err := record.NewRecordReader(r.Data).ReadUnicodeString()
	if err != nil {
		return "", fmt.Errorf("pagesettings: decoding %s text: %w", biff8.Name(r.Sid), err)
	}
	return s, nil
}

// ── Margins and centering ─────────────────────────────────────────────────────

func parseDouble(r record.Record) (float64, error) {
	v, err := record.NewRecordReader(r.Data).ReadDouble()
	if err != nil {
		return 0, fmt.Errorf("pagesettings: decoding %s: %w", biff8.Name(r.Sid), err)
	}
	return v, nil
}

func parseFlag(r record.Record) (bool, error) {
	v, err := record.NewRecordReader(r.Data).ReadUint16()
	if err != nil {
		return false, fmt.Errorf("pagesettings: decoding %s: %w", biff8.Name(r.Sid), err)
	}
	return v != 0, nil
}

// ── Page breaks ───────────────────────────────────────────────────────────────

// Break is one manual page break.  For row breaks Main is the row below the
// break and From/To the column span; for column breaks Main is the column to
// the right of the break and From/To the row span.
type Break struct {
	Main uint16
	From uint16
	To   uint16
}

func parseBreaks(r record.Record) ([]Break, error) {
	rr := record.NewRecordReader(r.Data)
	n, err := rr.ReadUint16()
	if err != nil {
		return nil, fmt.Errorf("pagesettings: decoding %s count: %w", biff8.Name(r.Sid), err)
	}
	// Guard: each break is 6 bytes.
	if int(n)*6 > rr.Remaining() {
		return nil, fmt.Errorf("pagesettings: %s declares %d breaks but only %d bytes remain", biff8.Name(r.Sid), n, rr.Remaining())
	}
	out := make([]Break, 0, n)
	for range n {
		var b Break
		b.Main, _ = rr.ReadUint16()
		b.From, _ = rr.ReadUint16()
		b.To, _ = rr.ReadUint16()
		out = append(out, b)
	}
	return out, nil
}

func encodeBreaks(sid uint16, bs []Break) record.Record {
	w := record.NewPayloadWriter(2 + 6*len(bs))
	w.WriteUint16(uint16(len(bs)))
	for _, b := range bs {
		w.WriteUint16(b.Main)
		w.WriteUint16(b.From)
		w.WriteUint16(b.To)
	}
	return record.Record{Sid: sid, Data: w.Bytes()}
}

// addBreak inserts or replaces the break at b.Main, keeping the list sorted.
func addBreak(bs []Break, b Break) []Break {
	i, found := slices.BinarySearchFunc(bs, b.Main, func(e Break, m uint16) int { return int(e.Main) - int(m) })
	if found {
		bs[i] = b
		return bs
	}
	return slices.Insert(bs, i, b)
}

func removeBreak(bs []Break, main uint16) ([]Break, bool) {
	i := slices.IndexFunc(bs, func(b Break) bool { return b.Main == main })
	if i < 0 {
		return bs, false
	}
	return slices.Delete(bs, i, i+1), true
}

// shiftBreaks moves every break whose Main lies in [start, stop] by count.
func shiftBreaks(bs []Break, start, stop, count int) []Break {
	var moved, kept []Break
	for _, b := range bs {
		if int(b.Main) >= start && int(b.Main) <= stop {
			moved = append(moved, b)
		} else {
			kept = append(kept, b)
		}
	}
	slices.SortFunc(kept, func(a, b Break) int { return int(a.Main) - int(b.Main) })
	for _, b := range moved {
		b.Main = uint16(int(b.Main) + count)
		kept = addBreak(kept, b)
	}
	return kept
}

// ── SETUP ─────────────────────────────────────────────────────────────────────

// PrintSetup holds the fields of the SETUP record.
type PrintSetup struct {
	PaperSize    uint16
	Scale        uint16
	PageStart    uint16
	FitWidth     uint16
	FitHeight    uint16
	Options      uint16
	HResolution  uint16
	VResolution  uint16
	HeaderMargin float64
	FooterMargin float64
	Copies       uint16
}

// DefaultPrintSetup returns the SETUP values Excel writes for a new sheet.
func DefaultPrintSetup() PrintSetup {
	return PrintSetup{
		PaperSize:    1,
		Scale:        100,
		PageStart:    1,
		FitWidth:     1,
		FitHeight:    1,
		Options:      2,
		HResolution:  300,
		VResolution:  300,
		HeaderMargin: 0.5,
		FooterMargin: 0.5,
		Copies:       1,
	}
}

func parsePrintSetup(r record.Record) (PrintSetup, error) {
	var p PrintSetup
	rr := record.NewRecordReader(r.Data)
	for _, f := range []*uint16{&p.PaperSize, &p.Scale, &p.PageStart, &p.FitWidth, &p.FitHeight, &p.Options, &p.HResolution, &p.VResolution} {
		v, err := rr.ReadUint16()
		if err != nil {
			return p, fmt.Errorf("pagesettings: decoding SETUP: %w", err)
		}
		*f = v
	}
	var err error
	if p.HeaderMargin, err = rr.ReadDouble(); err != nil {
		return p, fmt.Errorf("pagesettings: decoding SETUP header margin: %w", err)
	}
	if p.FooterMargin, err = rr.ReadDouble(); err != nil {
		return p, fmt.Errorf("pagesettings: decoding SETUP footer margin: %w", err)
	}
	if p.Copies, err = rr.ReadUint16(); err != nil {
		return p, fmt.Errorf("pagesettings: decoding SETUP copies: %w", err)
	}
	return p, nil
}

func (p PrintSetup) encode() record.Record {
	w := record.NewPayloadWriter(34)
	for _, v := range []uint16{p.PaperSize, p.Scale, p.PageStart, p.FitWidth, p.FitHeight, p.Options, p.HResolution, p.VResolution} {
		w.WriteUint16(v)
	}
	w.WriteDouble(p.HeaderMargin)
	w.WriteDouble(p.FooterMargin)
	w.WriteUint16(p.Copies)
	return record.Record{Sid: biff8.Setup, Data: w.Bytes()}
}

// ── HEADERFOOTER ──────────────────────────────────────────────────────────────

// headerFooterGUIDOffset is the position of guidSView after the 12-byte
// future record header.
const headerFooterGUIDOffset = 12

// HeaderFooterView returns the view identifier of a HEADERFOOTER record.
// The zero identifier means the record belongs to the sheet itself.
func HeaderFooterView(r record.Record) (aggregate.ViewID, error) {
	if r.Sid != biff8.HeaderFooter {
		return aggregate.ViewID{}, fmt.Errorf("pagesettings: unexpected header-footer record sid 0x%04X", r.Sid)
	}
	if len(r.Data) < headerFooterGUIDOffset+16 {
		return aggregate.ViewID{}, fmt.Errorf("pagesettings: HEADERFOOTER payload of %d bytes is too short", len(r.Data))
	}
	v, _ := aggregate.ViewIDFrom(r.Data[headerFooterGUIDOffset:])
	return v, nil
}

// emptyText returns the synthesized empty HEADER or FOOTER record.
func emptyText(sid uint16) record.Record {
	return biffenc.Text(sid, "")
}
