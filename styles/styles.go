// Package styles holds the number-format metadata of a BIFF8 workbook: the
// FORMAT records of the globals substream and the format index of every XF
// record.  Cell records refer to an XF by its position in the XF list.
package styles

import (
	"fmt"

	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/internal/dateformat"
	"github.com/TsubasaBE/go-xls/record"
)

// XFStyle is the number-format part of one XF record.
type XFStyle struct {
	// NumFmtID is the ifmt field of the XF record.
	NumFmtID int
	// FormatStr is the format string of the FORMAT record with the same
	// index.  It is empty for built-in indices the workbook does not
	// override.
	FormatStr string
}

// StyleTable maps XF index to XFStyle.
type StyleTable []XFStyle

// Parse builds the table from the FORMAT and XF records of a globals
// substream, in stream order.  Records of any other type are ignored.
func Parse(recs []record.Record) (StyleTable, error) {
	formats := make(map[int]string)
	for i, r := range recs {
		if r.Sid != biff8.Format {
			continue
		}
		id, s, err := ParseFormat(r)
		if err != nil {
			return nil, fmt.Errorf("styles: FORMAT record %d: %w", i, err)
		}
		formats[id] = s
	}
	var st StyleTable
	for i, r := range recs {
		if r.Sid != biff8.XF {
			continue
		}
		rr := record.NewRecordReader(r.Data)
		if err := rr.Skip(2); err != nil {
			return nil, fmt.Errorf("styles: XF record %d: %w", i, err)
		}
		ifmt, err := rr.ReadUint16()
		if err != nil {
			return nil, fmt.Errorf("styles: XF record %d: %w", i, err)
		}
		st = append(st, XFStyle{NumFmtID: int(ifmt), FormatStr: formats[int(ifmt)]})
	}
	return st, nil
}

// ParseFormat decodes a FORMAT record into its index and format string.
func ParseFormat(r record.Record) (int, string, error) {
	rr := record.NewRecordReader(r.Data)
	id, err := rr.ReadUint16()
	if err != nil {
		return 0, "", err
	}
	s, err := rr.ReadUnicodeString()
	if err != nil {
		return 0, "", err
	}
	return int(id), s, nil
}

// IsDate reports whether the XF at index xf renders its value as a date or
// time.  It returns false when xf is out of range.
func (st StyleTable) IsDate(xf int) bool {
	if xf < 0 || xf >= len(st) {
		return false
	}
	return dateformat.IsDate(st[xf].NumFmtID, st[xf].FormatStr)
}

// FmtStr returns the effective format string of the XF at index xf: the
// workbook's FORMAT string, the built-in string, or "General".
func (st StyleTable) FmtStr(xf int) string {
	if xf < 0 || xf >= len(st) {
		return "General"
	}
	if s := st[xf].FormatStr; s != "" {
		return s
	}
	if s, ok := BuiltInNumFmt[st[xf].NumFmtID]; ok {
		return s
	}
	return "General"
}

// NumFmtID returns the format index of the XF at index xf, or 0 (General)
// when xf is out of range.
func (st StyleTable) NumFmtID(xf int) int {
	if xf < 0 || xf >= len(st) {
		return 0
	}
	return st[xf].NumFmtID
}

// BuiltInNumFmt maps built-in format indices to their format strings.
// Indices 27–36 and 50–58 are locale dependent; the entries are neutral
// fallbacks used when the workbook has no FORMAT record for them.
var BuiltInNumFmt = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `($#,##0_);($#,##0)`,
	6:  `($#,##0_);[Red]($#,##0)`,
	7:  `($#,##0.00_);($#,##0.00)`,
	8:  `($#,##0.00_);[Red]($#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "hh:mm",
	21: "hh:mm:ss",
	22: "m/d/yy hh:mm",
	27: "MM-DD-YYYY",
	28: "D-MMM-YY",
	29: "D-MMM-YY",
	30: "M/D/YY",
	31: "YYYY-M-D",
	32: "H:MM",
	33: "H:MM:SS",
	34: "H:MM AM/PM",
	35: "H:MM:SS AM/PM",
	36: "MM-DD-YYYY",
	37: `(#,##0_);(#,##0)`,
	38: `(#,##0_);[Red](#,##0)`,
	39: `(#,##0.00_);(#,##0.00)`,
	40: `(#,##0.00_);[Red](#,##0.00)`,
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_($* #,##0_);_($* (#,##0);_($* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_($* #,##0.00_);_($* (#,##0.00);_($* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
	50: "MM-DD-YYYY",
	51: "D-MMM-YY",
	52: "H:MM AM/PM",
	53: "H:MM:SS AM/PM",
	54: "D-MMM-YY",
	55: "H:MM AM/PM",
	56: "H:MM:SS AM/PM",
	57: "MM-DD-YYYY",
	58: "D-MMM-YY",
}
