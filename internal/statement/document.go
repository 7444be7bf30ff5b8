package statement

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var creditHints = regexp.MustCompile(`(?i)\b(credit(ed)?|deposit(ed)?|received|refund|interest earned|salary cr|by transfer|inward|reversal)\b`)

// docLine is the split form of one dated document line.
type docLine struct {
	date        string
	description string
	amount      string
	balance     string
	signed      bool
}

// normalizeDocument recovers rows from extracted document text. Lines that do
// not start with a date are layout noise and are dropped.
func normalizeDocument(text string) Table {
	table := Table{Format: FormatDocument, Headers: []string{labelDate, labelDescription, labelAmount, labelBalance}}

	var prevBalance *decimal.Decimal
	for i, line := range splitLines(text) {
		dl, ok := splitDocumentLine(line)
		if !ok {
			continue
		}

		amount := dl.amount
		balanceValue, balanceOK := parseBalance(dl.balance)

		// Summary lines carry a single figure which is a balance, not a movement.
		if isSummaryRow(dl.description) && dl.balance == "" {
			if v, _, ok := ParseAmount(dl.amount); ok && dl.amount != "" {
				prevBalance = &v
			}
		} else if amount != "" && !dl.signed {
			if v, _, ok := ParseAmount(amount); ok && !v.IsZero() {
				amount = signDocumentAmount(v, dl.description, prevBalance, balanceValue, balanceOK).String()
			}
		}
		if balanceOK {
			prevBalance = &balanceValue
		}

		table.Rows = append(table.Rows, Row{
			Line: i + 1,
			Fields: map[string]string{
				labelDate:        dl.date,
				labelDescription: dl.description,
				labelAmount:      amount,
				labelBalance:     dl.balance,
			},
		})
	}
	return table
}

func parseBalance(s string) (decimal.Decimal, bool) {
	if s == "" {
		return decimal.Zero, false
	}
	v, _, ok := ParseAmount(s)
	return v, ok
}

// signDocumentAmount infers the sign of an unsigned amount from the running
// balance, then from credit wording. Anything else is a debit.
func signDocumentAmount(v decimal.Decimal, desc string, prev *decimal.Decimal, balance decimal.Decimal, balanceOK bool) decimal.Decimal {
	abs := v.Abs()
	if prev != nil && balanceOK {
		switch diff := balance.Sub(*prev); {
		case diff.IsPositive():
			return abs
		case diff.IsNegative():
			return abs.Neg()
		}
	}
	if creditHints.MatchString(desc) {
		return abs
	}
	return abs.Neg()
}

// splitDocumentLine finds a leading date token and trailing numeric tokens.
func splitDocumentLine(line string) (docLine, bool) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return docLine{}, false
	}

	var dl docLine
	rest := tokens
	switch {
	case isDateValue(tokens[0]):
		dl.date, rest = tokens[0], tokens[1:]
	case len(tokens) >= 3 && isDateValue(strings.Join(tokens[:3], " ")):
		dl.date, rest = strings.Join(tokens[:3], " "), tokens[3:]
	default:
		return docLine{}, false
	}

	// Value dates often repeat right after the posting date.
	if len(rest) > 0 && isDateValue(rest[0]) {
		rest = rest[1:]
	}

	var figures []string
	end := len(rest)
	for end > 0 && len(figures) < 3 {
		tok := rest[end-1]
		if isMarkerToken(tok) && end > 1 && looksNumeric(rest[end-2]) {
			figures = append([]string{rest[end-2] + tok}, figures...)
			end -= 2
			continue
		}
		if !isFigure(tok) {
			break
		}
		figures = append([]string{tok}, figures...)
		end--
	}

	dl.description = strings.Join(rest[:end], " ")
	switch len(figures) {
	case 0:
	case 1:
		dl.amount = figures[0]
	default:
		dl.amount = figures[len(figures)-2]
		dl.balance = figures[len(figures)-1]
	}
	if dl.amount != "" {
		_, marker, _ := ParseAmount(dl.amount)
		trimmed := strings.TrimSpace(dl.amount)
		dl.signed = marker != MarkerNone || strings.HasPrefix(trimmed, "-") ||
			strings.HasPrefix(trimmed, "(") || strings.HasPrefix(trimmed, "+")
	}
	return dl, true
}

func isMarkerToken(tok string) bool {
	switch strings.ToLower(strings.TrimSuffix(tok, ".")) {
	case "cr", "dr":
		return true
	}
	return false
}

// maxBareFigureDigits separates plain amounts from long reference numbers.
const maxBareFigureDigits = 7

// isFigure accepts money-looking tokens but not long reference numbers.
func isFigure(tok string) bool {
	if !looksNumeric(tok) {
		return false
	}
	if strings.ContainsAny(tok, ".,()-+$€£₹") {
		return true
	}
	lower := strings.ToLower(tok)
	if strings.HasSuffix(lower, "cr") || strings.HasSuffix(lower, "dr") {
		return true
	}
	return len(tok) <= maxBareFigureDigits
}
