package worksheet

import (
	"fmt"

	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/record"
	"github.com/TsubasaBE/go-xls/rowblock"
	"github.com/TsubasaBE/go-xls/stringtable"
)

// errStrings maps BIFF8 error codes to the text Excel shows in the cell.
var errStrings = map[byte]string{
	0x00: "#NULL!",
	0x07: "#DIV/0!",
	0x0F: "#VALUE!",
	0x17: "#REF!",
	0x1D: "#NAME?",
	0x24: "#NUM!",
	0x2A: "#N/A",
}

// errString returns the Excel error string for code, or a hex fallback
// (e.g. "0xff") for unknown codes.
func errString(b byte) string {
	if s, ok := errStrings[b]; ok {
		return s
	}
	return fmt.Sprintf("0x%02x", b)
}

type value struct {
	col int
	v   any
	xf  int
}

// Value decodes a single-cell value record.  MULRK and MULBLANK records
// yield the value of their first column.
func Value(r record.Record, st *stringtable.StringTable) (v any, xf int, err error) {
	vals := decode(r, nil, st)
	if len(vals) == 0 {
		return nil, 0, fmt.Errorf("worksheet: cannot decode %s", biff8.Name(r.Sid))
	}
	return vals[0].v, vals[0].xf, nil
}

// decode returns the values a cell record carries.  Malformed records yield
// nothing; the record itself is still emitted unchanged by the sheet.
func decode(r record.Record, f *rowblock.FormulaCell, st *stringtable.StringTable) []value {
	rr := record.NewRecordReader(r.Data)
	if err := rr.Skip(2); err != nil {
		return nil
	}
	col, err := rr.ReadUint16()
	if err != nil {
		return nil
	}

	switch r.Sid {
	case biff8.MulRK:
		return decodeMulti(rr, int(col), true)
	case biff8.MulBlank:
		return decodeMulti(rr, int(col), false)
	}

	xf, err := rr.ReadUint16()
	if err != nil {
		return nil
	}
	out := value{col: int(col), xf: int(xf)}
	switch r.Sid {
	case biff8.Blank:
	case biff8.Number:
		if out.v, err = rr.ReadDouble(); err != nil {
			return nil
		}
	case biff8.RK:
		if out.v, err = rr.ReadRK(); err != nil {
			return nil
		}
	case biff8.LabelSST:
		idx, err := rr.ReadUint32()
		if err != nil {
			return nil
		}
		if s, ok := st.Lookup(int(idx)); ok {
			out.v = s
		} else {
			out.v = fmt.Sprintf("<%d>", idx)
		}
	case biff8.Label, biff8.RString:
		if out.v, err = rr.ReadUnicodeString(); err != nil {
			return nil
		}
	case biff8.BoolErr:
		b, err1 := rr.ReadUint8()
		isErr, err2 := rr.ReadUint8()
		if err1 != nil || err2 != nil {
			return nil
		}
		if isErr != 0 {
			out.v = errString(b)
		} else {
			out.v = b != 0
		}
	case biff8.Formula:
		out.v = formulaResult(r.Data, f)
	default:
		return nil
	}
	return []value{out}
}

func decodeMulti(rr *record.RecordReader, first int, rk bool) []value {
	var out []value
	step := 2
	if rk {
		step = 6
	}
	// The trailing 2 bytes hold the last column.
	for col := first; rr.Remaining() >= step+2; col++ {
		xf, err := rr.ReadUint16()
		if err != nil {
			return out
		}
		v := value{col: col, xf: int(xf)}
		if rk {
			if v.v, err = rr.ReadRK(); err != nil {
				return out
			}
		}
		out = append(out, v)
	}
	return out
}

// formulaResult decodes the cached result of a FORMULA record.  When the
// top two bytes are 0xFFFF the first byte selects string, boolean, error or
// empty; otherwise the eight bytes are an IEEE double.
func formulaResult(data []byte, f *rowblock.FormulaCell) any {
	if len(data) < 14 {
		return nil
	}
	res := data[6:14]
	if res[6] != 0xFF || res[7] != 0xFF {
		v, err := record.NewRecordReader(res).ReadDouble()
		if err != nil {
			return nil
		}
		return v
	}
	switch res[0] {
	case 0x00:
		if f == nil || f.String == nil {
			return ""
		}
		s, err := record.NewRecordReader(f.String.Data).ReadUnicodeString()
		if err != nil {
			return ""
		}
		return s
	case 0x01:
		return res[2] != 0
	case 0x02:
		return errString(res[2])
	}
	return ""
}
