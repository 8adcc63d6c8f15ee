// Package biffenc builds BIFF8 records from typed field values.
//
// The encoders cover the records that the sheet and workbook layers
// synthesize (INDEX, DBCELL, DIMENSIONS, implied ROW, empty HEADER/FOOTER,
// patched BOUNDSHEET) and the handful of cell and view records the test
// fixtures need.  Layouts follow [MS-XLS] section 2.4.
package biffenc

import (
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/record"
)

func rec(sid uint16, w *record.PayloadWriter) record.Record {
	return record.Record{Sid: sid, Data: w.Bytes()}
}

// ── Substream framing ─────────────────────────────────────────────────────────

// BOF returns a BIFF8 BOF record for a substream of type dt.
func BOF(dt uint16) record.Record {
	w := record.NewPayloadWriter(16)
	w.WriteUint16(biff8.BIFF8)
	w.WriteUint16(dt)
	w.WriteUint16(0x0DBB) // rupBuild
	w.WriteUint16(0x07CC) // rupYear
	w.WriteUint32(0x000100C1)
	w.WriteUint32(0x00000006)
	return rec(biff8.BOF, w)
}

// EOF returns the end-of-substream record.
func EOF() record.Record {
	return record.Record{Sid: biff8.EOF}
}

// Continue wraps data in a CONTINUE record.
func Continue(data []byte) record.Record {
	return record.New(biff8.Continue, data)
}

// Index returns an INDEX record.  lastRowPlus1 is one past the last row that
// holds a ROW or cell record; dbcells are absolute stream positions.
func Index(firstRow, lastRowPlus1, defColWidthPos uint32, dbcells []uint32) record.Record {
	w := record.NewPayloadWriter(16 + 4*len(dbcells))
	w.WriteUint32(0)
	w.WriteUint32(firstRow)
	w.WriteUint32(lastRowPlus1)
	w.WriteUint32(defColWidthPos)
	for _, p := range dbcells {
		w.WriteUint32(p)
	}
	return rec(biff8.Index, w)
}

// IndexSize returns the encoded size of an INDEX record with n DBCELL
// entries, header included.
func IndexSize(n int) int {
	return record.HeaderSize + 16 + 4*n
}

// DBCell returns a DBCELL record.
func DBCell(rowOffset uint32, cellOffsets []uint16) record.Record {
	w := record.NewPayloadWriter(4 + 2*len(cellOffsets))
	w.WriteUint32(rowOffset)
	for _, o := range cellOffsets {
		w.WriteUint16(o)
	}
	return rec(biff8.DBCell, w)
}

// ── Sheet settings ────────────────────────────────────────────────────────────

// Dimensions returns a DIMENSIONS record.  The last row and column are
// exclusive.
func Dimensions(firstRow, lastRowPlus1 uint32, firstCol, lastColPlus1 uint16) record.Record {
	w := record.NewPayloadWriter(14)
	w.WriteUint32(firstRow)
	w.WriteUint32(lastRowPlus1)
	w.WriteUint16(firstCol)
	w.WriteUint16(lastColPlus1)
	w.WriteUint16(0)
	return rec(biff8.Dimensions, w)
}

// Window2 returns a WINDOW2 record with Excel's default sheet options.
func Window2() record.Record {
	w := record.NewPayloadWriter(18)
	w.WriteUint16(0x06B6)
	w.WriteUint16(0) // rwTop
	w.WriteUint16(0) // colLeft
	w.WriteUint32(64)
	w.WriteUint16(0)
	w.WriteUint16(0)
	w.WriteUint32(0)
	return rec(biff8.Window2, w)
}

// DefColWidth returns a DEFCOLWIDTH record.
func DefColWidth(width uint16) record.Record {
	w := record.NewPayloadWriter(2)
	w.WriteUint16(width)
	return rec(biff8.DefColWidth, w)
}

// ColInfo returns a COLINFO record covering columns first..last inclusive.
func ColInfo(first, last, width, xf, options uint16) record.Record {
	w := record.NewPayloadWriter(12)
	w.WriteUint16(first)
	w.WriteUint16(last)
	w.WriteUint16(width)
	w.WriteUint16(xf)
	w.WriteUint16(options)
	w.WriteUint16(0)
	return rec(biff8.ColInfo, w)
}

// ── Page settings ─────────────────────────────────────────────────────────────

// Text returns a HEADER or FOOTER record.  An empty string encodes as an
// empty payload, which is how Excel writes a sheet without header text.
func Text(sid uint16, s string) record.Record {
	if s == "" {
		return record.Record{Sid: sid}
	}
	w := record.NewPayloadWriter(3 + len(s))
	w.WriteUnicodeString(s)
	return rec(sid, w)
}

// Margin returns a LEFTMARGIN, RIGHTMARGIN, TOPMARGIN or BOTTOMMARGIN record.
func Margin(sid uint16, inches float64) record.Record {
	w := record.NewPayloadWriter(8)
	w.WriteDouble(inches)
	return rec(sid, w)
}

// Bool16 returns a record whose payload is a single 16-bit flag (HCENTER,
// VCENTER and similar).
func Bool16(sid uint16, v bool) record.Record {
	w := record.NewPayloadWriter(2)
	if v {
		w.WriteUint16(1)
	} else {
		w.WriteUint16(0)
	}
	return rec(sid, w)
}

// HeaderFooter returns a HEADERFOOTER future record for the given view.  The
// strings fill the even-page slots; odd-page text lives in HEADER and FOOTER.
func HeaderFooter(view [16]byte, headerEven, footerEven string) record.Record {
	w := record.NewPayloadWriter(40 + len(headerEven) + len(footerEven))
	w.WriteUint16(biff8.HeaderFooter) // frtHeader.rt
	w.WriteUint16(0)                  // grbitFrt
	w.WriteBytes(make([]byte, 8))
	w.WriteBytes(view[:])
	var flags uint16
	if headerEven != "" || footerEven != "" {
		flags |= 0x0001 // fHFDiffOddEven
	}
	w.WriteUint16(flags)
	w.WriteUint16(uint16(len([]rune(headerEven))))
	w.WriteUint16(uint16(len([]rune(footerEven))))
	w.WriteUint16(0) // cchHeaderFirst
	w.WriteUint16(0) // cchFooterFirst
	if headerEven != "" {
		w.WriteUnicodeString(headerEven)
	}
	if footerEven != "" {
		w.WriteUnicodeString(footerEven)
	}
	return rec(biff8.HeaderFooter, w)
}

// ── Custom views ──────────────────────────────────────────────────────────────

// UserSViewBegin returns a USERSVIEWBEGIN record for the given view.
func UserSViewBegin(view [16]byte) record.Record {
	w := record.NewPayloadWriter(64)
	w.WriteBytes(view[:])
	w.WriteBytes(make([]byte, 48))
	return rec(biff8.UserSViewBegin, w)
}

// UserSViewEnd returns a USERSVIEWEND record.
func UserSViewEnd() record.Record {
	w := record.NewPayloadWriter(2)
	w.WriteUint16(1)
	return rec(biff8.UserSViewEnd, w)
}

// ── Rows and cells ────────────────────────────────────────────────────────────

// Row returns a ROW record.
func Row(row, firstCol, lastColPlus1, height uint16, options uint32) record.Record {
	w := record.NewPayloadWriter(16)
	w.WriteUint16(row)
	w.WriteUint16(firstCol)
	w.WriteUint16(lastColPlus1)
	w.WriteUint16(height)
	w.WriteUint16(0)
	w.WriteUint16(0)
	w.WriteUint32(options)
	return rec(biff8.Row, w)
}

// Number returns a NUMBER cell record.
func Number(row, col, xf uint16, v float64) record.Record {
	w := record.NewPayloadWriter(14)
	w.WriteUint16(row)
	w.WriteUint16(col)
	w.WriteUint16(xf)
	w.WriteDouble(v)
	return rec(biff8.Number, w)
}

// LabelSST returns a LABELSST cell record referencing shared string isst.
func LabelSST(row, col, xf uint16, isst uint32) record.Record {
	w := record.NewPayloadWriter(10)
	w.WriteUint16(row)
	w.WriteUint16(col)
	w.WriteUint16(xf)
	w.WriteUint32(isst)
	return rec(biff8.LabelSST, w)
}

// Blank returns a BLANK cell record.
func Blank(row, col, xf uint16) record.Record {
	w := record.NewPayloadWriter(6)
	w.WriteUint16(row)
	w.WriteUint16(col)
	w.WriteUint16(xf)
	return rec(biff8.Blank, w)
}

// FormulaShared is the fShrFmla bit of the FORMULA options word.
const FormulaShared = 0x0008

// Formula returns a FORMULA cell record with a numeric cached result.
func Formula(row, col, xf uint16, result float64, options uint16, rgce []byte) record.Record {
	w := record.NewPayloadWriter(22 + len(rgce))
	w.WriteUint16(row)
	w.WriteUint16(col)
	w.WriteUint16(xf)
	w.WriteDouble(result)
	w.WriteUint16(options)
	w.WriteUint32(0) // chn
	w.WriteUint16(uint16(len(rgce)))
	w.WriteBytes(rgce)
	return rec(biff8.Formula, w)
}

// PtgExp returns the token stream of a formula that points at the shared
// formula, array or table anchored at (row, col).
func PtgExp(row, col uint16) []byte {
	w := record.NewPayloadWriter(5)
	w.WriteUint8(0x01)
	w.WriteUint16(row)
	w.WriteUint16(col)
	return w.Bytes()
}

func rangeRef(w *record.PayloadWriter, firstRow, lastRow uint16, firstCol, lastCol uint8) {
	w.WriteUint16(firstRow)
	w.WriteUint16(lastRow)
	w.WriteUint8(firstCol)
	w.WriteUint8(lastCol)
}

// ShrFmla returns a SHRFMLA record for the given range.
func ShrFmla(firstRow, lastRow uint16, firstCol, lastCol uint8, cUse uint8, rgce []byte) record.Record {
	w := record.NewPayloadWriter(10 + len(rgce))
	rangeRef(w, firstRow, lastRow, firstCol, lastCol)
	w.WriteUint8(0)
	w.WriteUint8(cUse)
	w.WriteUint16(uint16(len(rgce)))
	w.WriteBytes(rgce)
	return rec(biff8.ShrFmla, w)
}

// Array returns an ARRAY record for the given range.
func Array(firstRow, lastRow uint16, firstCol, lastCol uint8, rgce []byte) record.Record {
	w := record.NewPayloadWriter(14 + len(rgce))
	rangeRef(w, firstRow, lastRow, firstCol, lastCol)
	w.WriteUint16(0) // options
	w.WriteUint32(0) // chn
	w.WriteUint16(uint16(len(rgce)))
	w.WriteBytes(rgce)
	return rec(biff8.Array, w)
}

// Table returns a TABLE record for the given range.
func Table(firstRow, lastRow uint16, firstCol, lastCol uint8) record.Record {
	w := record.NewPayloadWriter(16)
	rangeRef(w, firstRow, lastRow, firstCol, lastCol)
	w.WriteUint16(0)
	w.WriteUint16(0)
	w.WriteUint16(0)
	w.WriteUint16(0)
	w.WriteUint16(0)
	return rec(biff8.Table, w)
}

// String returns a STRING record holding a formula's cached string result.
func String(s string) record.Record {
	w := record.NewPayloadWriter(3 + len(s))
	w.WriteUnicodeString(s)
	return rec(biff8.String, w)
}

// ── Workbook globals ──────────────────────────────────────────────────────────

// BoundSheet returns a BOUNDSHEET record for a worksheet whose BOF is at pos.
func BoundSheet(pos uint32, state, sheetType uint8, name string) record.Record {
	w := record.NewPayloadWriter(8 + len(name))
	w.WriteUint32(pos)
	w.WriteUint8(state)
	w.WriteUint8(sheetType)
	w.WriteShortUnicodeString(name)
	return rec(biff8.BoundSheet, w)
}

// Format returns a FORMAT record.
func Format(id uint16, code string) record.Record {
	w := record.NewPayloadWriter(5 + len(code))
	w.WriteUint16(id)
	w.WriteUnicodeString(code)
	return rec(biff8.Format, w)
}

// XF returns a cell XF record using font 0 and the given number format.
func XF(numFmt uint16) record.Record {
	w := record.NewPayloadWriter(20)
	w.WriteUint16(0) // ifnt
	w.WriteUint16(numFmt)
	w.WriteUint16(0x0001) // fLocked
	w.WriteBytes(make([]byte, 14))
	return rec(biff8.XF, w)
}

// DateMode returns a DATEMODE record; date1904 selects the 1904 epoch.
func DateMode(date1904 bool) record.Record {
	return Bool16(biff8.DateMode, date1904)
}

// SST returns an SST record holding strs without CONTINUE splitting.
func SST(strs []string) record.Record {
	w := record.NewPayloadWriter(8)
	w.WriteUint32(uint32(len(strs)))
	w.WriteUint32(uint32(len(strs)))
	for _, s := range strs {
		w.WriteUnicodeString(s)
	}
	return rec(biff8.SST, w)
}

// RK returns an RK cell record with an already encoded RK value.
func RK(row, col, xf uint16, rk int32) record.Record {
	w := record.NewPayloadWriter(10)
	w.WriteUint16(row)
	w.WriteUint16(col)
	w.WriteUint16(xf)
	w.WriteUint32(uint32(rk))
	return rec(biff8.RK, w)
}

// BoolErr returns a BOOLERR cell record.
func BoolErr(row, col, xf uint16, v uint8, isErr bool) record.Record {
	w := record.NewPayloadWriter(8)
	w.WriteUint16(row)
	w.WriteUint16(col)
	w.WriteUint16(xf)
	w.WriteUint8(v)
	if isErr {
		w.WriteUint8(1)
	} else {
		w.WriteUint8(0)
	}
	return rec(biff8.BoolErr, w)
}
