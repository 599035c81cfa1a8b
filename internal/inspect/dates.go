package inspect

import (
	"regexp"
	"strings"
	"time"
)

// monthYearRe matches a canonical MM/YYYY anywhere in a string.
var monthYearRe = regexp.MustCompile(`\b(0[1-9]|1[0-2])/((19|20)\d{2})\b`)

var exactMonthYearRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/((19|20)\d{2})$`)

var dayMonthYearRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)

// genericLayouts are tried in order for free-form date strings.
var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2006",
	"Jan 2006",
	"02-01-2006",
}

// ContainsMonthYear reports whether s carries an MM/YYYY token anywhere.
func ContainsMonthYear(s string) bool {
	return monthYearRe.MatchString(s)
}

// CanonicalMonthYear rewrites a best-effort parsed date into MM/YYYY.
// Recognizes ISO dates, DD/MM/YYYY, already-normalized MM/YYYY and generic
// parseable date strings. Reports false for unparseable input, which the
// caller must leave untouched.
func CanonicalMonthYear(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	if exactMonthYearRe.MatchString(s) {
		return s, true
	}

	if m := dayMonthYearRe.FindStringSubmatch(s); m != nil {
		day, month, year := atoi(m[1]), atoi(m[2]), m[3]
		// day-first convention; swap when only the other reading is valid
		if month > 12 && day >= 1 && day <= 12 {
			month = day
		}
		if month >= 1 && month <= 12 {
			return pad2(month) + "/" + year, true
		}
		return "", false
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("01/2006"), true
		}
	}
	return "", false
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func pad2(n int) string {
	if n < 10 {
		return "0" + string(rune('0'+n))
	}
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
