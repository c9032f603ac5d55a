package prelude

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/lestrrat-go/strftime"
)

const defaultDateFormat = "%Y-%m-%d"

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

func parseTime(s string) (t time.Time, zoned bool, ok bool) {
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

func formatISO(t time.Time, zoned bool) string {
	s := t.Format("2006-01-02T15:04:05")

	if us := t.Nanosecond() / 1000; us != 0 {
		s += fmt.Sprintf(".%06d", us)
	}

	if zoned {
		s += t.Format("-07:00")
	}

	return s
}

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

func strftimeFormat(format string, t time.Time) (string, error) {
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

func strptime(format, s string) (time.Time, bool, error) {
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

func builtinParseDate(v any, args []any, _ *env) any {
	format, ok := argStringOr(args, 0, defaultDateFormat)
	if !ok || len(args) > 1 {
		return v
	}

	if v == nil {
		return nil
	}

	t, zoned, err := strptime(format, text(v))
	if err != nil {
		return text(v)
	}

	return formatISO(t, zoned)
}

func builtinFormatDate(v any, args []any, _ *env) any {
	format, ok := argStringOr(args, 0, defaultDateFormat)
	if !ok || len(args) > 1 {
		return v
	}

	if v == nil {
		return ""
	}

	t, _, ok := parseTime(text(v))
	if !ok {
		return text(v)
	}

	out, err := strftimeFormat(format, t)
	if err != nil {
		return text(v)
	}

	return out
}

func builtinToIso8601(v any, _ []any, _ *env) any {
	if v == nil {
		return ""
	}

	s := text(v)
	if !strings.Contains(s, "T") && len(s) == 10 {
		return s + "T00:00:00Z"
	}

	return s
}

func builtinToTimestamp(v any, _ []any, _ *env) any {
	if v == nil {
		return int64(0)
	}

	t, _, ok := parseTime(text(v))
	if !ok {
		return int64(0)
	}

	return t.Unix()
}

func builtinAddDays(v any, args []any, _ *env) any {
	if len(args) != 1 {
		return v
	}

	if v == nil {
		return ""
	}

	t, zoned, ok := parseTime(text(v))
	if !ok {
		return text(v)
	}

	days, ok := argNumber(args, 0)
	if !ok {
		return v
	}

	return formatISO(t.Add(time.Duration(days*float64(24*time.Hour))), zoned)
}

func builtinAddMonths(v any, args []any, _ *env) any {
	return shiftDate(v, args, 0, 1)
}

func builtinAddYears(v any, args []any, _ *env) any {
	return shiftDate(v, args, 1, 0)
}

// shiftDate moves v by n years or months; a shift that lands on a day the
// target month lacks leaves the text unchanged.
func shiftDate(v any, args []any, years, months int) any {
	if len(args) != 1 {
		return v
	}

	if v == nil {
		return ""
	}

	t, zoned, ok := parseTime(text(v))
	if !ok {
		return text(v)
	}

	n, ok := argInt(args, 0)
	if !ok {
		return v
	}

	shifted := t.AddDate(years*int(n), months*int(n), 0)
	if shifted.Day() != t.Day() {
		return text(v)
	}

	return formatISO(shifted, zoned)
}
