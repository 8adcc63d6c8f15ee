// Package dateformat decides whether a BIFF8 number format renders its value
// as a date or time.  It is shared by styles and numfmt.
package dateformat

// FirstCustomID is the lowest format index a FORMAT record may define
// without overriding a built-in format.
const FirstCustomID = 164

// IsBuiltInDateID reports whether id is a built-in format index that
// renders a date, a time or a datetime.
//
//	14–22   date and time formats (18–21 are time only)
//	27–36   locale-specific date formats
//	45–47   elapsed time and seconds
//	50–58   locale-specific date formats (variant set)
func IsBuiltInDateID(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// IsDate reports whether the format with index id and format string fmtStr
// renders a date or time.  Built-in indices are decided by IsBuiltInDateID
// unless the workbook overrides them with a FORMAT record, in which case
// fmtStr is scanned.
func IsDate(id int, fmtStr string) bool {
	if fmtStr == "" || fmtStr == "General" {
		return IsBuiltInDateID(id)
	}
	return ScanFormatStr(fmtStr)
}

// ScanFormatStr scans the unquoted portion of a number-format string for
// date/time token characters (d, m, y, h, s in either case, and the era
// token e).  Text in double quotes or square brackets is skipped.  An e that
// follows a digit placeholder is a scientific exponent, not an era.
func ScanFormatStr(formatStr string) bool {
	inDoubleQuote := false
	inBracket := false
	escaped := false
	var prev rune
	for _, ch := range formatStr {
		switch {
		case escaped:
			escaped = false
		case inDoubleQuote:
			if ch == '"' {
				inDoubleQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '\\':
			escaped = true
		case ch == '"':
			inDoubleQuote = true
		case ch == '[':
			inBracket = true
		case ch == 'd' || ch == 'D' ||
			ch == 'm' || ch == 'M' ||
			ch == 'y' || ch == 'Y' ||
			ch == 'h' || ch == 'H' ||
			ch == 's' || ch == 'S':
			return true
		case ch == 'e' || ch == 'E':
			if prev != '0' && prev != '#' && prev != '?' && prev != '.' {
				return true
			}
		}
		if !inDoubleQuote && !inBracket {
			prev = ch
		}
	}
	return false
}
