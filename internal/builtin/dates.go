package builtin

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/lestrrat-go/strftime"

	"schemamap/value"
)

const defaultDateFormat = "%Y-%m-%d"

// zonedLayouts and naiveLayouts are the ISO-8601 forms tried before the
// lenient parser. Fractional seconds are accepted after the seconds field
// even though the layouts do not spell them out.
var (
	zonedLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02T15:04Z07:00",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// ParseTime reads an ISO-8601-ish timestamp. A trailing "Z" is read as
// "+00:00". Times without an offset are taken as UTC and reported as not
// zoned, so they render back without one.
func ParseTime(s string) (t time.Time, zoned bool, ok bool) {
	s = strings.TrimSpace(s)
	norm := strings.ReplaceAll(s, "Z", "+00:00")

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return t, true, true
		}
	}

	for _, layout := range naiveLayouts {
		if t, err := time.Parse(layout, norm); err == nil {
			return t, false, true
		}
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, false, false
	}

	return t, t.Location() != time.UTC, true
}

// FormatISO renders t as "2006-01-02T15:04:05" with microseconds when
// non-zero and the offset when zoned.
func FormatISO(t time.Time, zoned bool) string {
	s := t.Format("2006-01-02T15:04:05")

	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}

	if zoned {
		s += t.Format("-07:00")
	}

	return s
}

// dateTokens rewrites the YYYY MM DD HH mm ss shorthand into strftime
// directives.
var dateTokens = strings.NewReplacer(
	"YYYY", "%Y",
	"MM", "%m",
	"DD", "%d",
	"HH", "%H",
	"mm", "%M",
	"ss", "%S",
)

var microseconds = strftime.AppendFunc(func(b []byte, t time.Time) []byte {
	return fmt.Appendf(b, "%06d", t.Nanosecond()/1000)
})

// Strftime formats t with strftime directives or the YYYY-MM-DD
// shorthand. %f renders microseconds.
func Strftime(format string, t time.Time) (string, error) {
	return strftime.Format(dateTokens.Replace(format), t, strftime.WithSpecification('f', microseconds))
}

var strptimeLayouts = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
	'%': "%",
}

// Strptime parses s with a strftime-style format (or the YYYY-MM-DD
// shorthand) by translating it into a time layout. The result is zoned
// when the format reads an offset.
func Strptime(format, s string) (time.Time, bool, error) {
	format = dateTokens.Replace(format)

	var (
		layout strings.Builder
		zoned  bool
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 == len(format) {
			layout.WriteByte(format[i])
			continue
		}

		i++

		d := format[i]

		switch {
		case d == 'f' && strings.HasSuffix(layout.String(), "."):
			layout.WriteString("000000")
		case strptimeLayouts[d] != "":
			layout.WriteString(strptimeLayouts[d])
			zoned = zoned || d == 'z' || d == 'Z'
		default:
			return time.Time{}, false, fmt.Errorf("unsupported directive %%%c", d)
		}
	}

	t, err := time.Parse(layout.String(), s)

	return t, zoned, err
}

func applyDate(k Kind, v value.Value, args []value.Value) value.Value {
	switch k {
	case ParseDate:
		return parseDate(v, args)
	case FormatDate:
		return formatDate(v, args)
	case ToISO8601:
		if v.IsNull() {
			return value.String("")
		}

		s := v.Text()
		if !strings.Contains(s, "T") && len(s) == 10 {
			return value.String(s + "T00:00:00Z")
		}

		return value.String(s)
	case ToTimestamp:
		if v.IsNull() {
			return value.Int(0)
		}

		t, _, ok := ParseTime(v.Text())
		if !ok {
			return value.Int(0)
		}

		return value.Int(t.Unix())
	default:
		return shiftDate(k, v, args)
	}
}

func parseDate(v value.Value, args []value.Value) value.Value {
	format, ok := argStringOr(args, 0, defaultDateFormat)
	if !ok || len(args) > 1 {
		return v
	}

	if v.IsNull() {
		return value.Null
	}

	t, zoned, err := Strptime(format, v.Text())
	if err != nil {
		return value.String(v.Text())
	}

	return value.String(FormatISO(t, zoned))
}

func formatDate(v value.Value, args []value.Value) value.Value {
	format, ok := argStringOr(args, 0, defaultDateFormat)
	if !ok || len(args) > 1 {
		return v
	}

	if v.IsNull() {
		return value.String("")
	}

	t, _, ok := ParseTime(v.Text())
	if !ok {
		return value.String(v.Text())
	}

	out, err := Strftime(format, t)
	if err != nil {
		return value.String(v.Text())
	}

	return value.String(out)
}

// shiftDate implements add_days, add_months and add_years. Month and year
// shifts that land on a day the target month lacks (Jan 31 + 1 month) leave
// the input unchanged.
func shiftDate(k Kind, v value.Value, args []value.Value) value.Value {
	if len(args) != 1 {
		return v
	}

	if v.IsNull() {
		return value.String("")
	}

	t, zoned, ok := ParseTime(v.Text())
	if !ok {
		return value.String(v.Text())
	}

	if k == AddDays {
		days, ok := argNumber(args, 0)
		if !ok {
			return v
		}

		return value.String(FormatISO(t.Add(time.Duration(days*float64(24*time.Hour))), zoned))
	}

	n, ok := argInt(args, 0)
	if !ok {
		return v
	}

	var shifted time.Time
	if k == AddMonths {
		shifted = t.AddDate(0, int(n), 0)
	} else {
		shifted = t.AddDate(int(n), 0, 0)
	}

	if shifted.Day() != t.Day() {
		return value.String(v.Text())
	}

	return value.String(FormatISO(shifted, zoned))
}
