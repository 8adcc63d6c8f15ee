// Package numfmt renders numeric cell values the way Excel displays them
// under a number format.  Format strings are tokenized by
// [github.com/xuri/nfp]; this package walks the tokens.
package numfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/nfp"

	"github.com/TsubasaBE/go-xls/internal/dateformat"
	"github.com/TsubasaBE/go-xls/styles"
)

// Formatter renders values and caches parsed format strings.  The zero
// value is ready to use and safe for concurrent use.
type Formatter struct {
	// Date1904 selects the 1904 date system (DATEMODE record).
	Date1904 bool
	cache    sync.Map // format string -> []nfp.Section
}

// Format renders v with format index id and format string fmtStr.  An empty
// fmtStr selects the built-in string for id.
func (f *Formatter) Format(v float64, id int, fmtStr string) string {
	effective := resolveFormat(id, fmtStr)
	if effective == "General" {
		return renderGeneral(v)
	}
	sections := f.sections(effective)
	if len(sections) == 0 {
		return renderGeneral(v)
	}
	sec := selectSection(sections, v)
	if dateformat.IsDate(id, effective) {
		return renderDateTime(v, sec, f.Date1904)
	}
	return renderNumber(v, sec, len(sections))
}

// FormatValue renders a decoded cell value.  Strings pass through, booleans
// render as TRUE/FALSE, and float64 values go through Format.
func (f *Formatter) FormatValue(v any, id int, fmtStr string) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return f.Format(val, id, fmtStr)
	default:
		return fmt.Sprint(v)
	}
}

func (f *Formatter) sections(s string) []nfp.Section {
	if c, ok := f.cache.Load(s); ok {
		return c.([]nfp.Section)
	}
	ps := nfp.NumberFormatParser()
	sec := ps.Parse(s)
	f.cache.Store(s, sec)
	return sec
}

func resolveFormat(id int, fmtStr string) string {
	if fmtStr != "" {
		return fmtStr
	}
	if s, ok := styles.BuiltInNumFmt[id]; ok {
		return s
	}
	return "General"
}

// selectSection picks the section by sign: one section covers everything,
// two split non-negative/negative, three or more add a zero section.
func selectSection(sections []nfp.Section, v float64) nfp.Section {
	switch {
	case len(sections) == 1:
		return sections[0]
	case v < 0:
		return sections[1]
	case v == 0 && len(sections) >= 3:
		return sections[2]
	default:
		return sections[0]
	}
}

// renderGeneral renders integers without a decimal point and everything
// else with at most ten significant digits.
func renderGeneral(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'G', -1, 64)
	}
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	s := strconv.FormatFloat(v, 'G', 10, 64)
	if strings.ContainsAny(s, "E") {
		return s
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

// ── dates ─────────────────────────────────────────────────────────────────────

// ConvertSerial converts a date serial to a time.  In the 1900 system serial
// 60 is the phantom 1900-02-29, so serials from 61 on are shifted back by a
// day.  The fraction is rounded to the nearest second.
func ConvertSerial(serial float64, date1904 bool) (time.Time, error) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 {
		return time.Time{}, fmt.Errorf("numfmt: invalid date serial %v", serial)
	}
	const maxSerial = 2_958_466
	if serial > maxSerial {
		return time.Time{}, fmt.Errorf("numfmt: date serial %v exceeds %d", serial, maxSerial)
	}
	days := int(serial)
	secs := int64(math.Round((serial - math.Trunc(serial)) * 86400))
	if secs >= 86400 {
		days++
		secs -= 86400
	}
	clock := time.Duration(secs) * time.Second
	if date1904 {
		return time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days).Add(clock), nil
	}
	switch {
	case days == 0:
		return time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC).Add(clock), nil
	case days >= 61:
		days--
	}
	return time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days).Add(clock), nil
}

func renderDateTime(serial float64, sec nfp.Section, date1904 bool) string {
	t, err := ConvertSerial(serial, date1904)
	if err != nil {
		return renderGeneral(serial)
	}
	ampm := false
	for _, tok := range sec.Items {
		if tok.TType == nfp.TokenTypeDateTimes {
			if u := strings.ToUpper(tok.TValue); u == "AM/PM" || u == "A/P" {
				ampm = true
				break
			}
		}
	}

	var sb strings.Builder
	afterHour := false
	for _, tok := range sec.Items {
		upper := strings.ToUpper(tok.TValue)
		switch tok.TType {
		case nfp.TokenTypeDateTimes:
			sb.WriteString(dateToken(upper, t, ampm, afterHour))
			afterHour = upper == "H" || upper == "HH"
		case nfp.TokenTypeElapsedDateTimes:
			sb.WriteString(elapsedToken(upper, serial))
			afterHour = upper == "H" || upper == "HH"
		case nfp.TokenTypeLiteral:
			// Separators keep the hour context: "h:mm" means minutes.
			sb.WriteString(tok.TValue)
		default:
			afterHour = false
		}
	}
	if sb.Len() == 0 {
		return renderGeneral(serial)
	}
	return sb.String()
}

func dateToken(upper string, t time.Time, ampm, afterHour bool) string {
	hour := func() int {
		h := t.Hour()
		if ampm {
			if h %= 12; h == 0 {
				h = 12
			}
		}
		return h
	}
	switch upper {
	case "YYYY":
		return fmt.Sprintf("%04d", t.Year())
	case "YY":
		return fmt.Sprintf("%02d", t.Year()%100)
	case "MMMMM":
		return t.Month().String()[:1]
	case "MMMM":
		return t.Month().String()
	case "MMM":
		return t.Month().String()[:3]
	case "MM":
		if afterHour {
			return fmt.Sprintf("%02d", t.Minute())
		}
		return fmt.Sprintf("%02d", int(t.Month()))
	case "M":
		if afterHour {
			return strconv.Itoa(t.Minute())
		}
		return strconv.Itoa(int(t.Month()))
	case "DDDD":
		return t.Weekday().String()
	case "DDD":
		return t.Weekday().String()[:3]
	case "DD":
		return fmt.Sprintf("%02d", t.Day())
	case "D":
		return strconv.Itoa(t.Day())
	case "HH":
		return fmt.Sprintf("%02d", hour())
	case "H":
		return strconv.Itoa(hour())
	case "SS":
		return fmt.Sprintf("%02d", t.Second())
	case "S":
		return strconv.Itoa(t.Second())
	case "AM/PM":
		if t.Hour() < 12 {
			return "AM"
		}
		return "PM"
	case "A/P":
		if t.Hour() < 12 {
			return "A"
		}
		return "P"
	}
	return ""
}

// elapsedToken renders [h], [mm] and [ss]; nfp strips the brackets.
func elapsedToken(upper string, serial float64) string {
	total := int64(math.Round(serial * 86400))
	switch upper {
	case "H", "HH":
		return strconv.FormatInt(total/3600, 10)
	case "MM":
		return fmt.Sprintf("%02d", total/60%60)
	case "M":
		return strconv.FormatInt(total/60%60, 10)
	case "SS":
		return fmt.Sprintf("%02d", total%60)
	case "S":
		return strconv.FormatInt(total%60, 10)
	}
	return ""
}

// ── numbers ───────────────────────────────────────────────────────────────────

type layout struct {
	percent   bool
	thousands bool
	decimal   bool
	decZeros  int
	decHashes int
	intZeros  int
	sign      bool
}

func scan(sec nfp.Section) layout {
	var l layout
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypePercent:
			l.percent = true
		case nfp.TokenTypeThousandsSeparator:
			l.thousands = true
		case nfp.TokenTypeDecimalPoint:
			l.decimal = true
		case nfp.TokenTypeZeroPlaceHolder:
			if l.decimal {
				l.decZeros += len(tok.TValue)
			} else {
				l.intZeros += len(tok.TValue)
			}
		case nfp.TokenTypeHashPlaceHolder:
			if l.decimal {
				l.decHashes += len(tok.TValue)
			}
		case nfp.TokenTypeLiteral:
			if tok.TValue == "+" || tok.TValue == "-" {
				l.sign = true
			}
		}
	}
	return l
}

// renderNumber renders a non-date value.  A negative value gets a leading
// minus only when the format has a single section and no explicit sign;
// otherwise the negative section draws the sign itself.
func renderNumber(v float64, sec nfp.Section, nsections int) string {
	l := scan(sec)
	abs := math.Abs(v)
	if l.percent {
		abs *= 100
	}

	var intStr, fracStr string
	if l.decimal {
		s := strconv.FormatFloat(abs, 'f', l.decZeros+l.decHashes, 64)
		intStr, fracStr, _ = strings.Cut(s, ".")
		for len(fracStr) > l.decZeros && strings.HasSuffix(fracStr, "0") {
			fracStr = fracStr[:len(fracStr)-1]
		}
	} else {
		intStr = strconv.FormatFloat(abs, 'f', 0, 64)
	}
	if intStr == "0" && l.intZeros == 0 && (l.decimal || abs != 0) {
		intStr = ""
	}
	if n := l.intZeros - len(intStr); n > 0 {
		intStr = strings.Repeat("0", n) + intStr
	}
	if l.thousands {
		intStr = groupThousands(intStr)
	}

	var sb strings.Builder
	if v < 0 && !l.sign && nsections < 2 && abs != 0 {
		sb.WriteByte('-')
	}
	wroteInt, wroteFrac, afterDecimal := false, false, false
	for _, tok := range sec.Items {
		switch tok.TType {
		case nfp.TokenTypeLiteral:
			sb.WriteString(tok.TValue)
		case nfp.TokenTypeDecimalPoint:
			if fracStr != "" {
				sb.WriteByte('.')
			}
			afterDecimal = true
		case nfp.TokenTypeZeroPlaceHolder, nfp.TokenTypeHashPlaceHolder:
			switch {
			case afterDecimal && !wroteFrac:
				sb.WriteString(fracStr)
				wroteFrac = true
			case !afterDecimal && !wroteInt:
				sb.WriteString(intStr)
				wroteInt = true
			}
		case nfp.TokenTypePercent:
			sb.WriteByte('%')
		}
	}
	if !wroteInt && !afterDecimal {
		sb.WriteString(intStr)
	}
	if sb.Len() == 0 {
		return renderGeneral(v)
	}
	return sb.String()
}

func groupThousands(s string) string {
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	head := len(s) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(s[:head])
	for i := head; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
