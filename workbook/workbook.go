// Package workbook opens a BIFF8 workbook stream, splits it into its
// globals and sheet substreams, builds every worksheet in parallel and
// re-serializes the whole stream with the sheet offsets recomputed.
package workbook

import (
	"bytes"
	"fmt"
	"io"
	"runtime"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/cfb"
	"github.com/TsubasaBE/go-xls/numfmt"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/sheet"
	"github.com/TsubasaBE/go-xls/stringtable"
	"github.com/TsubasaBE/go-xls/styles"
	"github.com/TsubasaBE/go-xls/worksheet"
)

// Sheet visibility levels, as stored in the hsState field of a BOUNDSHEET
// record. Use these constants with SheetVisibility.
const (
	// SheetVisible indicates the sheet tab is visible (hsState == 0).
	SheetVisible = 0
	// SheetHidden indicates the sheet is hidden but can be unhidden by the
	// user via Excel's "Unhide" dialog (hsState == 1).
	SheetHidden = 1
	// SheetVeryHidden indicates the sheet can only be unhidden
	// programmatically (hsState == 2).
	SheetVeryHidden = 2
)

// substream is one BOF … EOF run of the workbook stream.
type substream struct {
	pos  int64
	recs []record.Record
}

func (s *substream) kind() uint16 {
	if len(s.recs) == 0 || len(s.recs[0].Data) < 4 {
		return 0
	}
	d := s.recs[0].Data
	return uint16(d[2]) | uint16(d[3])<<8
}

// sheetEntry ties a BOUNDSHEET record to its substream and build result.
type sheetEntry struct {
	name       string
	visibility int
	bound      int // index of the BOUNDSHEET record in the globals
	stream     *substream
	sheet      *sheet.Sheet
	err        error
}

// Workbook is a parsed BIFF8 workbook.
type Workbook struct {
	globals     []record.Record
	streams     []*substream
	sheets      []*sheetEntry
	stringTable *stringtable.StringTable
	// Styles is the XF number-format table of the globals substream.
	Styles styles.StyleTable
	// Date1904 is true when the DATEMODE record selects the 1904 date
	// system.
	Date1904  bool
	formatter *numfmt.Formatter
	log       *zap.Logger
}

// Open reads the Workbook (or legacy Book) stream of the named compound
// file and builds it.  A workbook whose sheets partly failed to build is
// returned together with the combined error.
func Open(name string, opts ...Option) (*Workbook, error) {
	_, data, err := cfb.ReadFileStream(name, cfb.WorkbookStream, cfb.BookStream)
	if err != nil {
		return nil, fmt.Errorf("workbook: open %q: %w", name, err)
	}
	return FromStream(data, opts...)
}

// OpenReader is Open for a compound file held by r.
func OpenReader(r io.ReaderAt, opts ...Option) (*Workbook, error) {
	_, data, err := cfb.ReadStream(r, cfb.WorkbookStream, cfb.BookStream)
	if err != nil {
		return nil, fmt.Errorf("workbook: open reader: %w", err)
	}
	return FromStream(data, opts...)
}

// FromStream builds a workbook from the raw bytes of its Workbook stream.
func FromStream(data []byte, opts ...Option) (*Workbook, error) {
	o := options{log: zap.NewNop(), lateScanLimit: aggregate.DefaultLateScanLimit}
	for _, f := range opts {
		f(&o)
	}
	streams, err := split(data)
	if err != nil {
		return nil, err
	}
	if streams[0].kind() != biff8.BOFGlobals {
		return nil, fmt.Errorf("workbook: first substream is not a workbook globals substream (type 0x%04X)", streams[0].kind())
	}

	wb := &Workbook{
		globals: streams[0].recs,
		streams: streams,
		log:     o.log,
	}
	if err := wb.parseGlobals(); err != nil {
		return nil, err
	}
	wb.formatter = &numfmt.Formatter{Date1904: wb.Date1904}
	return wb, wb.buildSheets(o)
}

// split cuts the stream into substreams.  Nested BOF … EOF pairs (charts
// embedded in a worksheet) stay inside their parent substream.
func split(data []byte) ([]*substream, error) {
	rdr := record.NewReader(bytes.NewReader(data))
	var (
		out   []*substream
		cur   *substream
		depth int
	)
	for {
		pos := rdr.Tell()
		r, err := rdr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("workbook: %w", err)
		}
		if cur == nil {
			if r.Sid != biff8.BOF {
				// Padding or garbage between substreams.
				continue
			}
			cur = &substream{pos: pos}
		}
		cur.recs = append(cur.recs, r)
		switch r.Sid {
		case biff8.BOF:
			depth++
		case biff8.EOF:
			depth--
			if depth == 0 {
				out = append(out, cur)
				cur = nil
			}
		}
	}
	if cur != nil {
		// A truncated final substream is still handed to the sheet builder,
		// which reports the missing EOF.
		out = append(out, cur)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("workbook: stream holds no BOF record")
	}
	return out, nil
}

// parseGlobals reads BOUNDSHEET, DATEMODE, SST, FORMAT and XF.
func (wb *Workbook) parseGlobals() error {
	byPos := make(map[int64]*substream, len(wb.streams))
	for _, s := range wb.streams[1:] {
		byPos[s.pos] = s
	}

	for i, r := range wb.globals {
		switch r.Sid {
		case biff8.BoundSheet:
			entry, pos, err := parseBoundSheet(r)
			if err != nil {
				return fmt.Errorf("workbook: parse BOUNDSHEET record: %w", err)
			}
			entry.bound = i
			entry.stream = byPos[int64(pos)]
			if entry.stream == nil && len(wb.sheets)+1 < len(wb.streams) {
				// Stale offsets: fall back to substream order.
				entry.stream = wb.streams[len(wb.sheets)+1]
				wb.log.Warn("BOUNDSHEET offset does not point at a substream, using stream order",
					zap.String("sheet", entry.name), zap.Uint32("offset", pos))
			}
			wb.sheets = append(wb.sheets, entry)
		case biff8.DateMode:
			wb.Date1904 = len(r.Data) >= 2 && r.Data[0] != 0
		case biff8.SST:
			end := i + 1
			for end < len(wb.globals) && wb.globals[end].Sid == biff8.Continue {
				end++
			}
			st, err := stringtable.New(wb.globals[i:end])
			if err != nil {
				// Keep what was decoded; LABELSST cells past the damage
				// render as their index.
				wb.log.Warn("Shared string table is damaged", zap.Error(err))
			}
			wb.stringTable = st
		}
	}

	st, err := styles.Parse(wb.globals)
	if err != nil {
		// Styles only affect FormatCell; degrade to General.
		wb.log.Warn("Unable to parse number formats", zap.Error(err))
	}
	wb.Styles = st
	return nil
}

// parseBoundSheet decodes a BOUNDSHEET record: lbPlyPos u32, hsState u8,
// dt u8, stName ShortXLUnicodeString.
func parseBoundSheet(r record.Record) (*sheetEntry, uint32, error) {
	rr := record.NewRecordReader(r.Data)
	pos, err := rr.ReadUint32()
	if err != nil {
		return nil, 0, fmt.Errorf("read lbPlyPos: %w", err)
	}
	state, err := rr.ReadUint8()
	if err != nil {
		return nil, 0, fmt.Errorf("read hsState: %w", err)
	}
	if _, err := rr.ReadUint8(); err != nil {
		return nil, 0, fmt.Errorf("read dt: %w", err)
	}
	name, err := rr.ReadShortUnicodeString()
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet name: %w", err)
	}
	return &sheetEntry{name: name, visibility: int(state & 0x03)}, pos, nil
}

// buildSheets builds every worksheet substream, at most o.workers at a
// time.  A sheet that fails keeps its partial build when one exists and
// its raw records otherwise; the errors are combined.
func (wb *Workbook) buildSheets(o options) error {
	workers := o.workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for _, e := range wb.sheets {
		if e.stream == nil || e.stream.kind() != biff8.BOFWorksheet {
			continue
		}
		g.Go(func() error {
			e.sheet, e.err = sheet.Build(e.stream.recs,
				sheet.WithName(e.name),
				sheet.WithLogger(wb.log),
				sheet.WithLateScanLimit(o.lateScanLimit),
				sheet.WithOrphanPolicy(o.orphan),
			)
			return nil
		})
	}
	_ = g.Wait()

	var errs error
	for _, e := range wb.sheets {
		if e.err != nil {
			wb.log.Warn("Sheet built with errors", zap.String("sheet", e.name), zap.Error(e.err))
			errs = multierr.Append(errs, e.err)
		}
	}
	return errs
}

// Sheets returns the names of all sheets in BOUNDSHEET order.
func (wb *Workbook) Sheets() []string {
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.name
	}
	return names
}

// Sheet returns the built worksheet at the given 1-based index.  Chart,
// macro and unbuildable sheets return an error.
func (wb *Workbook) Sheet(idx int) (*sheet.Sheet, error) {
	if idx < 1 || idx > len(wb.sheets) {
		return nil, fmt.Errorf("workbook: sheet index %d out of range [1, %d]", idx, len(wb.sheets))
	}
	return wb.sheets[idx-1].built()
}

// SheetByName returns the built worksheet with the given name
// (case-insensitive).
func (wb *Workbook) SheetByName(name string) (*sheet.Sheet, error) {
	for _, s := range wb.sheets {
		if strings.EqualFold(s.name, name) {
			return s.built()
		}
	}
	return nil, fmt.Errorf("workbook: sheet %q not found", name)
}

func (e *sheetEntry) built() (*sheet.Sheet, error) {
	if e.sheet == nil {
		if e.err != nil {
			return nil, e.err
		}
		return nil, fmt.Errorf("workbook: sheet %q is not a worksheet", e.name)
	}
	return e.sheet, nil
}

// SheetError returns the build error of the sheet at the given 1-based
// index, or nil.
func (wb *Workbook) SheetError(idx int) error {
	if idx < 1 || idx > len(wb.sheets) {
		return nil
	}
	return wb.sheets[idx-1].err
}

// Worksheet returns a cell-value view over the sheet at the given 1-based
// index.
func (wb *Workbook) Worksheet(idx int) (*worksheet.Worksheet, error) {
	sh, err := wb.Sheet(idx)
	if sh == nil {
		return nil, err
	}
	return worksheet.New(sh, wb.stringTable, wb.Styles), nil
}

// SheetVisibility returns the visibility level of the named sheet
// (case-insensitive), or -1 if no sheet with that name exists.
func (wb *Workbook) SheetVisibility(name string) int {
	for _, s := range wb.sheets {
		if strings.EqualFold(s.name, name) {
			return s.visibility
		}
	}
	return -1
}

// SheetDiagnostic is a diagnostic tagged with the sheet it came from.
type SheetDiagnostic struct {
	Sheet string
	aggregate.Diagnostic
}

// Diagnostics returns the soft conditions of every built sheet, in sheet
// order.
func (wb *Workbook) Diagnostics() []SheetDiagnostic {
	var out []SheetDiagnostic
	for _, e := range wb.sheets {
		if e.sheet == nil {
			continue
		}
		for _, d := range e.sheet.Diagnostics().Items() {
			out = append(out, SheetDiagnostic{Sheet: e.name, Diagnostic: d})
		}
	}
	return out
}

// Strings returns the shared string table, or nil when the workbook has
// none.
func (wb *Workbook) Strings() *stringtable.StringTable { return wb.stringTable }

// FormatCell renders v with the number format of the XF at index xf.
func (wb *Workbook) FormatCell(v any, xf int) string {
	if xf < 0 || xf >= len(wb.Styles) {
		if v == nil {
			return ""
		}
		return fmt.Sprint(v)
	}
	s := wb.Styles[xf]
	return wb.formatter.FormatValue(v, s.NumFmtID, s.FormatStr)
}
