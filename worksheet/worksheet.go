// Package worksheet decodes the cell values of a built sheet and provides
// row/cell iteration.
package worksheet

import (
	"github.com/TsubasaBE/go-xls/sheet"
	"github.com/TsubasaBE/go-xls/stringtable"
	"github.com/TsubasaBE/go-xls/styles"
)

// Dimension describes the used range of a worksheet.
type Dimension struct {
	// R is the first row index (0-based).
	R int
	// C is the first column index (0-based).
	C int
	// H is the height (number of rows).
	H int
	// W is the width (number of columns).
	W int
}

// Cell is a single worksheet cell.
type Cell struct {
	// R is the 0-based row index of the cell.
	R int
	// C is the 0-based column index of the cell.
	C int
	// V holds the typed cell value. The dynamic type is one of:
	//   - nil: blank / empty cell
	//   - string: text, formula-string result, or Excel error string (e.g. "#DIV/0!")
	//   - float64: numeric value, date serial, or formula-float result
	//   - bool: boolean value
	V any
	// Style is the 0-based index into the workbook's XF table.
	Style int
}

// Worksheet is a read view over the row block of a built sheet.
type Worksheet struct {
	name   string
	sheet  *sheet.Sheet
	st     *stringtable.StringTable
	styles styles.StyleTable
	// Dimension is the used range computed from the row block, or nil for
	// a sheet without cells.
	Dimension *Dimension
}

// New returns a view over sh.  st resolves LABELSST cells and may be nil.
func New(sh *sheet.Sheet, st *stringtable.StringTable, xfs styles.StyleTable) *Worksheet {
	ws := &Worksheet{name: sh.Name(), sheet: sh, st: st, styles: xfs}
	firstRow, lastRowPlus1, firstCol, lastColPlus1 := sh.Rows().Bounds()
	if lastRowPlus1 > 0 {
		ws.Dimension = &Dimension{
			R: int(firstRow),
			C: int(firstCol),
			H: int(lastRowPlus1 - firstRow),
			W: int(lastColPlus1) - int(firstCol),
		}
	}
	return ws
}

// Name returns the sheet name.
func (ws *Worksheet) Name() string { return ws.name }

// Sheet returns the underlying built sheet.
func (ws *Worksheet) Sheet() *sheet.Sheet { return ws.sheet }

// IsDateCell reports whether the XF at index style renders a date or time.
func (ws *Worksheet) IsDateCell(style int) bool {
	return ws.styles.IsDate(style)
}

// Rows iterates over the worksheet rows in order, calling yield for each one.
//
// When sparse is false empty rows from row 0 up to the last used row are
// emitted as slices of nil-valued Cells.  When sparse is true only rows that
// have a ROW record or a cell are yielded.  Each row spans columns 0 through
// the last used column.
//
// Rows uses Go 1.22+ range-over-func semantics.
func (ws *Worksheet) Rows(sparse bool) func(yield func([]Cell) bool) {
	return func(yield func([]Cell) bool) {
		block := ws.sheet.Rows()
		width := 1
		if ws.Dimension != nil {
			width = ws.Dimension.C + ws.Dimension.W
		}
		next := 0
		for _, r := range block.Rows() {
			if !sparse {
				for ; next < int(r); next++ {
					if !yield(makeEmptyRow(next, width)) {
						return
					}
				}
			}
			row := makeEmptyRow(int(r), width)
			for _, c := range block.CellsInRow(r) {
				for _, v := range decode(c.Record, c.Formula, ws.st) {
					if v.col < len(row) {
						row[v.col] = Cell{R: int(r), C: v.col, V: v.v, Style: v.xf}
					}
				}
			}
			if !yield(row) {
				return
			}
			next = int(r) + 1
		}
	}
}

// makeEmptyRow returns a row of nil-valued Cells spanning [0, width).
func makeEmptyRow(rowNum, width int) []Cell {
	cells := make([]Cell, max(width, 1))
	for i := range cells {
		cells[i] = Cell{R: rowNum, C: i}
	}
	return cells
}
