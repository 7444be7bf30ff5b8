package statement

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	dayMonthYear = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})$`)
	yearMonthDay = regexp.MustCompile(`^(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})$`)
	dayMonName   = regexp.MustCompile(`^(\d{1,2})[\s\-/]+([A-Za-z]{3})[A-Za-z]*\.?[\s\-/,]+(\d{4})$`)
)

var monthAbbrev = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

// fallbackLayouts are tried after the statement-style formats.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006",
	"01/02/06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"2 January 2006",
	"02-Jan-06",
	"20060102",
}

const (
	minYear = 2000
	maxYear = 2030
)

// ParseDate parses a statement date. Day-first numeric dates win over
// month-first ones.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseDateToken(s); ok {
		return t, true
	}
	// Dates followed by a time of day.
	if i := strings.IndexAny(s, " T"); i > 0 {
		if t, ok := parseDateToken(s[:i]); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDateToken(s string) (time.Time, bool) {
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		if t, ok := makeDate(atoi(m[3]), atoi(m[2]), atoi(m[1])); ok {
			return t, true
		}
	}
	if m := yearMonthDay.FindStringSubmatch(s); m != nil {
		if t, ok := makeDate(atoi(m[1]), atoi(m[2]), atoi(m[3])); ok {
			return t, true
		}
	}
	if m := dayMonName.FindStringSubmatch(s); m != nil {
		if month, ok := monthAbbrev[strings.ToLower(m[2])]; ok {
			if t, ok := makeDate(atoi(m[3]), int(month), atoi(m[1])); ok {
				return t, true
			}
		}
	}
	for _, layout := range fallbackLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if t.Year() < minYear || t.Year() > maxYear {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// makeDate rejects out-of-range parts instead of letting time.Date normalize them.
func makeDate(year, month, day int) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
