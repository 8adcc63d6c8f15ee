package rowblock

import (
	"fmt"

	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/biffenc"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/sharedvalue"
)

// Default field values of an implied ROW record.
const (
	DefaultRowHeight  = 0x00FF
	DefaultRowOptions = 0x00000100
)

// rowEncodedSize is the size of a ROW record including its header.
const rowEncodedSize = 20

// isValueRecord reports whether sid is a cell value record.
func isValueRecord(sid uint16) bool {
	switch sid {
	case biff8.Blank, biff8.Number, biff8.Label, biff8.BoolErr, biff8.Formula,
		biff8.RK, biff8.MulRK, biff8.MulBlank, biff8.LabelSST, biff8.RString:
		return true
	}
	return false
}

// cellSpan decodes the coordinates of a value record.  For MULRK and
// MULBLANK lastCol is the last column covered; otherwise it equals the
// first column.
func cellSpan(r record.Record) (ref sharedvalue.CellRef, lastCol uint16, err error) {
	rr := record.NewRecordReader(r.Data)
	if ref.Row, err = rr.ReadUint16(); err != nil {
		return ref, 0, fmt.Errorf("rowblock: decoding %s row: %w", biff8.Name(r.Sid), err)
	}
	if ref.Col, err = rr.ReadUint16(); err != nil {
		return ref, 0, fmt.Errorf("rowblock: decoding %s column: %w", biff8.Name(r.Sid), err)
	}
	lastCol = ref.Col
	if r.Sid == biff8.MulRK || r.Sid == biff8.MulBlank {
		// The last column is the trailing 16-bit field.
		if len(r.Data) < 6 {
			return ref, 0, fmt.Errorf("rowblock: %s payload of %d bytes is too short", biff8.Name(r.Sid), len(r.Data))
		}
		lastCol = uint16(r.Data[len(r.Data)-2]) | uint16(r.Data[len(r.Data)-1])<<8
		if lastCol < ref.Col {
			return ref, 0, fmt.Errorf("rowblock: %s last column %d precedes first column %d", biff8.Name(r.Sid), lastCol, ref.Col)
		}
	}
	return ref, lastCol, nil
}

// rowIndex decodes the row number of a ROW record.
func rowIndex(r record.Record) (uint16, error) {
	v, err := record.NewRecordReader(r.Data).ReadUint16()
	if err != nil {
		return 0, fmt.Errorf("rowblock: decoding ROW index: %w", err)
	}
	return v, nil
}

// RowInfo holds the decoded fields of a ROW record.
type RowInfo struct {
	Row          uint16
	FirstCol     uint16
	LastColPlus1 uint16
	Height       uint16
	Options      uint32
}

// ParseRow decodes a ROW record.
func ParseRow(r record.Record) (RowInfo, error) {
	var ri RowInfo
	if r.Sid != biff8.Row {
		return ri, fmt.Errorf("rowblock: %s is not a ROW record", biff8.Name(r.Sid))
	}
	rr := record.NewRecordReader(r.Data)
	var err error
	for _, f := range []*uint16{&ri.Row, &ri.FirstCol, &ri.LastColPlus1, &ri.Height} {
		if *f, err = rr.ReadUint16(); err != nil {
			return ri, fmt.Errorf("rowblock: decoding ROW: %w", err)
		}
	}
	if err := rr.Skip(4); err != nil {
		return ri, fmt.Errorf("rowblock: decoding ROW: %w", err)
	}
	if ri.Options, err = rr.ReadUint32(); err != nil {
		return ri, fmt.Errorf("rowblock: decoding ROW options: %w", err)
	}
	return ri, nil
}

// DefaultRow returns the ROW record written for a row that has cells but no
// ROW record of its own.
func DefaultRow(row, firstCol, lastColPlus1 uint16) record.Record {
	return biffenc.Row(row, firstCol, lastColPlus1, DefaultRowHeight, DefaultRowOptions)
}

// ── FORMULA ───────────────────────────────────────────────────────────────────

const (
	formulaOptionsOffset = 14
	formulaCceOffset     = 20
	formulaRgceOffset    = 22

	formulaSharedFlag = 0x0008
	ptgExp            = 0x01
)

// formulaRefersToGroup reports whether a FORMULA record points at a shared
// range: either the fShrFmla flag is set or its token stream is a single
// PtgExp.
func formulaRefersToGroup(r record.Record) bool {
	if len(r.Data) < formulaRgceOffset {
		return false
	}
	opts := uint16(r.Data[formulaOptionsOffset]) | uint16(r.Data[formulaOptionsOffset+1])<<8
	if opts&formulaSharedFlag != 0 {
		return true
	}
	cce := int(r.Data[formulaCceOffset]) | int(r.Data[formulaCceOffset+1])<<8
	return cce >= 5 && len(r.Data) > formulaRgceOffset && r.Data[formulaRgceOffset] == ptgExp
}

// ExpReference returns the anchor coordinates carried by a FORMULA record
// whose token stream starts with PtgExp.
func ExpReference(r record.Record) (sharedvalue.CellRef, bool) {
	if r.Sid != biff8.Formula || len(r.Data) < formulaRgceOffset+5 || r.Data[formulaRgceOffset] != ptgExp {
		return sharedvalue.CellRef{}, false
	}
	rr := record.NewRecordReader(r.Data[formulaRgceOffset+1:])
	row, _ := rr.ReadUint16()
	col, _ := rr.ReadUint16()
	return sharedvalue.CellRef{Row: row, Col: col}, true
}
