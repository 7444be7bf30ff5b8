package statement

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// Bank and card-network prefixes that precede the counterparty name.
var vendorPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"CARD PURCHASE ",
	"ACH DEBIT ",
	"ACH CREDIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
	"DIRECT DEBIT ",
	"BY TRANSFER ",
	"TO TRANSFER ",
	"ONLINE PAYMENT ",
	"POS ",
	"UPI ",
	"NEFT ",
	"IMPS ",
	"RTGS ",
	"ACH ",
	"DD ",
}

var (
	vendorSeparators = regexp.MustCompile(`[/*|:#]+|\s-\s`)
	leadingDate      = regexp.MustCompile(`^\d{1,2}/\d{1,2}\s+`)
)

var bankTokens = map[string]bool{
	"UPI": true, "NEFT": true, "IMPS": true, "RTGS": true, "ACH": true,
	"POS": true, "DR": true, "CR": true, "TRF": true, "REF": true,
}

// maxVendorWords caps the words kept from a description.
const maxVendorWords = 3

// DeriveVendor guesses the counterparty name from a statement description.
func DeriveVendor(desc string) string {
	name := strings.TrimSpace(desc)
	if name == "" || name == model.PlaceholderDescription {
		return ""
	}

	for {
		upper := strings.ToUpper(name)
		stripped := false
		for _, prefix := range vendorPrefixes {
			if strings.HasPrefix(upper, prefix) {
				name = strings.TrimSpace(name[len(prefix):])
				stripped = true
				break
			}
		}
		if !stripped {
			break
		}
	}
	name = leadingDate.ReplaceAllString(name, "")

	// Bank references split the counterparty from ids with separators; keep
	// the first segment with letters in it.
	for _, segment := range vendorSeparators.Split(name, -1) {
		segment = strings.TrimSpace(segment)
		if isVendorCandidate(segment) {
			name = segment
			break
		}
	}

	var words []string
	for _, w := range strings.Fields(name) {
		if strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			continue
		}
		w = strings.Trim(w, ".,;-_()")
		if w == "" || bankTokens[strings.ToUpper(w)] {
			continue
		}
		words = append(words, w)
		if len(words) == maxVendorWords {
			break
		}
	}
	if len(words) == 0 {
		return ""
	}
	// Casers carry state and cannot be shared between goroutines.
	return cases.Title(language.English).String(strings.ToLower(strings.Join(words, " ")))
}

func isVendorCandidate(segment string) bool {
	letters := 0
	for _, r := range segment {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < 2 {
		return false
	}
	return !bankTokens[strings.ToUpper(segment)]
}
