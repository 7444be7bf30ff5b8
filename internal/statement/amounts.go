package statement

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Marker is an explicit debit/credit marker attached to an amount.
type Marker int

// Amount markers.
const (
	MarkerNone Marker = iota
	MarkerCredit
	MarkerDebit
)

var (
	amountPattern   = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)
	trailingMarker  = regexp.MustCompile(`(?i)\s*(cr|dr)\.?$`)
	currencySymbols = strings.NewReplacer(
		"$", "", "€", "", "£", "", "₹", "", "¥", "",
		"USD", "", "EUR", "", "GBP", "", "INR", "", "Rs.", "", "Rs", "",
		",", "", " ", "", "\u00a0", "",
	)
)

// ParseAmount parses a money value. It tolerates currency symbols, thousand
// separators, parentheses for negatives and a trailing Cr/Dr marker.
// An empty value parses as zero.
func ParseAmount(s string) (decimal.Decimal, Marker, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return decimal.Zero, MarkerNone, true
	}

	marker := MarkerNone
	if m := trailingMarker.FindStringSubmatch(s); m != nil {
		if strings.EqualFold(m[1], "cr") {
			marker = MarkerCredit
		} else {
			marker = MarkerDebit
		}
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = currencySymbols.Replace(s)
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}
	if !amountPattern.MatchString(s) {
		return decimal.Zero, MarkerNone, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, MarkerNone, false
	}
	if negative {
		d = d.Neg()
	}

	switch marker {
	case MarkerCredit:
		d = d.Abs()
	case MarkerDebit:
		d = d.Abs().Neg()
	}
	return d, marker, true
}

// looksNumeric reports whether a value parses as a nonempty amount.
func looksNumeric(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, _, ok := ParseAmount(s)
	return ok
}
