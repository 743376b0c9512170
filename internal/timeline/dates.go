package timeline

import "time"

const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD string, ignoring a time suffix if present.
func ParseDate(s string) (time.Time, error) {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	return time.Parse(DateLayout, s)
}

// NormalizeDate returns s trimmed to its date part when it parses, else s unchanged.
func NormalizeDate(s string) string {
	t, err := ParseDate(s)
	if err != nil {
		return s
	}
	return t.Format(DateLayout)
}

// DateRange lists every calendar date from start to end inclusive.
func DateRange(start, end time.Time) []string {
	var out []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d.Format(DateLayout))
	}
	return out
}
