// Package xls reads, regroups and rewrites Microsoft Excel 97-2003 (.xls)
// workbooks at the BIFF8 record level.  No cgo is required.
//
// # Quick start
//
//	wb, err := xls.Open("Book1.xls")
//	if err != nil { ... }
//
//	fmt.Println(wb.Sheets()) // ["Sheet1", "Sheet2"]
//
//	ws, err := wb.Worksheet(1)
//	if err != nil { ... }
//
//	for row := range ws.Rows(false) {
//	    for _, cell := range row {
//	        fmt.Printf("(%d,%d) = %v\n", cell.R, cell.C, cell.V)
//	    }
//	}
//
// # Sheets and aggregates
//
// Every worksheet substream is grouped into aggregates (page settings, the
// row block, column info, custom views) and passthrough records.
// [workbook.Workbook.Sheet] returns the built [sheet.Sheet]; its Serialize
// method yields the canonical record order, with INDEX, DBCELL and
// DIMENSIONS recomputed.  A sheet whose aggregates partly failed to build is
// still returned; the failed records pass through unchanged and the error is
// reported by [workbook.Workbook.SheetError].
//
// # Round trip
//
// [workbook.Workbook.WriteTo] writes the whole Workbook stream back, with the
// BOUNDSHEET offsets patched to the new substream positions:
//
//	var buf bytes.Buffer
//	if _, err := wb.WriteTo(&buf); err != nil { ... }
//
// # Cell formatting
//
// [worksheet.Worksheet.Rows] always returns raw values (nil, string, float64,
// or bool).  To obtain the display string Excel would show, call
// [workbook.Workbook.FormatCell]:
//
//	formatted := wb.FormatCell(cell.V, cell.Style)
//
// # Dates
//
// Excel stores dates as floating-point serial numbers.  For direct access to
// the underlying [time.Time] value use [ConvertDateEx], passing wb.Date1904 so
// the correct date system is used:
//
//	if f, ok := cell.V.(float64); ok && wb.Styles.IsDate(cell.Style) {
//	    t, err := xls.ConvertDateEx(f, wb.Date1904)
//	}
//
// [ConvertDate] is a convenience wrapper for the common 1900 date system.
//
// # Format detection
//
// [IsDateFormat] checks whether a number-format index (and optional custom
// format string) represents a date or datetime format.
package xls

import (
	"fmt"
	"io"
	"time"

	"github.com/TsubasaBE/go-xls/internal/dateformat"
	"github.com/TsubasaBE/go-xls/numfmt"
	"github.com/TsubasaBE/go-xls/workbook"
)

// Version is the current version of the go-xls library.
const Version = "0.1.0"

// Open opens the named .xls file and builds every worksheet.  When some
// sheets fail to build the workbook is returned together with the error.
func Open(name string, opts ...workbook.Option) (*workbook.Workbook, error) {
	return workbook.Open(name, opts...)
}

// OpenReader reads an .xls compound file from an arbitrary [io.ReaderAt].
func OpenReader(r io.ReaderAt, opts ...workbook.Option) (*workbook.Workbook, error) {
	return workbook.OpenReader(r, opts...)
}

// ConvertDate converts an Excel date serial number in the 1900 date system
// to a [time.Time] value.
//
// Lotus 1-2-3 incorrectly treated 1900 as a leap year, and Excel perpetuates
// the bug: serial 60 is the phantom 1900-02-29.  This function handles the
// resulting branches:
//
//   - serial == 0  → midnight on 1900-01-01
//   - serial >= 61 → subtract one day to compensate for the phantom leap day
//   - 1 ≤ serial ≤ 60 → no compensation (serial 60 yields 1900-03-01)
//
// The fractional-day component is rounded to the nearest second.
func ConvertDate(date float64) (time.Time, error) {
	return ConvertDateEx(date, false)
}

// ConvertDateEx converts an Excel date serial number to a [time.Time] value,
// respecting the workbook's date system.  Pass wb.Date1904 as date1904.  In
// the 1904 system serial 0 is 1904-01-01 and no leap-day correction applies.
func ConvertDateEx(date float64, date1904 bool) (time.Time, error) {
	t, err := numfmt.ConvertSerial(date, date1904)
	if err != nil {
		return time.Time{}, fmt.Errorf("xls: ConvertDateEx: %w", err)
	}
	return t, nil
}

// IsDateFormat reports whether the number format with index id and optional
// custom format string formatStr is a date or datetime format.
//
// Built-in indices 14–22, 27–36, 45–47 and 50–58 are date formats.  Custom
// formats (id >= 164) are scanned for date/time tokens outside quoted and
// bracketed sections.
func IsDateFormat(id int, formatStr string) bool {
	return dateformat.IsDate(id, formatStr)
}
