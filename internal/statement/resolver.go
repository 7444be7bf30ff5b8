package statement

import (
	"strings"
	"unicode"
)

// Mapping names the raw label holding each semantic field. An empty label
// means the field was not found.
type Mapping struct {
	Date        string
	Description string
	Debit       string
	Credit      string
	Amount      string
	Balance     string
	// Indicator is a column whose value marks the amount as debit or credit.
	Indicator string
}

// HasDebitCredit reports whether a debit/credit column pair was resolved.
func (m Mapping) HasDebitCredit() bool {
	return m.Debit != "" || m.Credit != ""
}

// Labels used by the document and OFX normalizers.
const (
	labelDate        = "date"
	labelDescription = "description"
	labelAmount      = "amount"
	labelBalance     = "balance"
	labelFITID       = "fitid"
)

var fixedMapping = Mapping{
	Date:        labelDate,
	Description: labelDescription,
	Amount:      labelAmount,
	Balance:     labelBalance,
}

// descriptionSampleRows bounds the rows inspected when sampling values.
const descriptionSampleRows = 10

type header struct {
	raw    string
	lower  string
	tokens []string
}

func (h header) has(sub string) bool { return strings.Contains(h.lower, sub) }

func (h header) token(tok string) bool {
	for _, t := range h.tokens {
		if t == tok {
			return true
		}
	}
	return false
}

type predicate func(h header) bool

func hasAny(subs ...string) predicate {
	return func(h header) bool {
		for _, s := range subs {
			if h.has(s) {
				return true
			}
		}
		return false
	}
}

func tokenAny(toks ...string) predicate {
	return func(h header) bool {
		for _, t := range toks {
			if h.token(t) {
				return true
			}
		}
		return false
	}
}

func either(preds ...predicate) predicate {
	return func(h header) bool {
		for _, p := range preds {
			if p(h) {
				return true
			}
		}
		return false
	}
}

func newHeader(raw string) header {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return header{
		raw:   raw,
		lower: lower,
		tokens: strings.FieldsFunc(lower, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}),
	}
}

// Field rules, each a list of predicates tried in priority order.
var (
	dateRules = []predicate{
		hasAny("date"),
		either(hasAny("txn", "time"), func(h header) bool { return h.lower == "dt" }),
	}
	descriptionRules = []predicate{
		hasAny("desc", "narr", "particular", "detail", "remark"),
		func(h header) bool { return h.has("transaction") && !h.has("date") && !h.has("type") },
	}
	indicatorRules = []predicate{
		func(h header) bool {
			switch strings.Join(h.tokens, "/") {
			case "type", "dr/cr", "cr/dr", "drcr", "crdr", "d/c", "c/d",
				"debit/credit", "credit/debit", "transaction/type", "txn/type":
				return true
			}
			return false
		},
	}
	balanceRules = []predicate{hasAny("balance", "closing")}
	// "Paid in" is a credit column on many statements.
	debitRules = []predicate{
		func(h header) bool {
			return either(hasAny("debit", "withdrawal", "paid", "expense"), tokenAny("dr", "out"))(h) && !h.token("in")
		},
	}
	creditRules = []predicate{hasAny("credit", "deposit", "received", "income"), tokenAny("cr", "in")}
	amountRules = []predicate{
		func(h header) bool { return h.lower == "amount" },
		func(h header) bool { return h.has("amount") && !h.has("balance") },
	}
)

// isDateHeader reports whether a label names a date column.
func isDateHeader(label string) bool {
	h := newHeader(label)
	for _, rule := range dateRules {
		if rule(h) {
			return true
		}
	}
	return false
}

// ResolveColumns maps the table's labels to semantic fields.
func ResolveColumns(table Table) Mapping {
	switch {
	case table.Format == FormatDocument || table.Format == FormatOFX:
		return fixedMapping
	case table.Positional:
		return resolveByValues(table)
	default:
		return resolveHeaders(table.Headers, table.Rows)
	}
}

func resolveHeaders(labels []string, rows []Row) Mapping {
	headers := make([]header, len(labels))
	for i, l := range labels {
		headers[i] = newHeader(l)
	}
	claimed := make([]bool, len(headers))

	claim := func(rules []predicate) string {
		for _, rule := range rules {
			for i, h := range headers {
				if !claimed[i] && rule(h) {
					claimed[i] = true
					return h.raw
				}
			}
		}
		return ""
	}

	var m Mapping
	m.Date = claim(dateRules)
	if m.Date == "" && len(headers) > 0 && !claimed[0] {
		claimed[0] = true
		m.Date = headers[0].raw
	}
	m.Description = claim(descriptionRules)
	m.Indicator = claim(indicatorRules)
	m.Balance = claim(balanceRules)
	m.Debit = claim(debitRules)
	m.Credit = claim(creditRules)
	m.Amount = claim(amountRules)

	if m.Description == "" {
		for i, h := range headers {
			if claimed[i] {
				continue
			}
			if v := sampleValue(rows, h.raw); len(v) > 3 && !looksNumeric(v) {
				claimed[i] = true
				m.Description = h.raw
				break
			}
		}
	}
	return m
}

func sampleValue(rows []Row, label string) string {
	for i, row := range rows {
		if i == descriptionSampleRows {
			break
		}
		if v := row.Get(label); v != "" {
			return v
		}
	}
	return ""
}

type columnStats struct {
	label    string
	dates    int
	numeric  int
	text     int
	textLen  int
	nonEmpty int
}

// resolveByValues infers the layout of header-free rows from sampled values.
func resolveByValues(table Table) Mapping {
	stats := make([]columnStats, len(table.Headers))
	for i, label := range table.Headers {
		stats[i].label = label
	}
	sample := table.Rows
	if len(sample) > descriptionSampleRows {
		sample = sample[:descriptionSampleRows]
	}
	for _, row := range sample {
		for i := range stats {
			v := row.Get(stats[i].label)
			if v == "" {
				continue
			}
			stats[i].nonEmpty++
			switch {
			case isDateValue(v):
				stats[i].dates++
			case looksNumeric(v):
				stats[i].numeric++
			default:
				stats[i].text++
				stats[i].textLen += len(v)
			}
		}
	}

	var m Mapping
	used := map[string]bool{}
	for _, s := range stats {
		if s.nonEmpty > 0 && s.dates*2 > s.nonEmpty {
			m.Date = s.label
			break
		}
	}
	if m.Date == "" && len(stats) > 0 {
		m.Date = stats[0].label
	}
	used[m.Date] = true

	bestLen := 0
	for _, s := range stats {
		if used[s.label] || s.text == 0 || s.text < s.numeric {
			continue
		}
		if avg := s.textLen / s.text; avg > bestLen {
			bestLen = avg
			m.Description = s.label
		}
	}
	used[m.Description] = true

	// A column empty throughout the sample still counts when numeric columns
	// sit on both sides of it: it is the unused half of a debit/credit pair.
	var numeric []string
	for i, s := range stats {
		if used[s.label] {
			continue
		}
		if s.isNumeric() || (s.nonEmpty == 0 && numericAround(stats, used, i)) {
			numeric = append(numeric, s.label)
		}
	}

	switch {
	case len(numeric) >= 3:
		m.Debit, m.Credit, m.Balance = numeric[0], numeric[1], numeric[len(numeric)-1]
	case len(numeric) == 2 && complementary(sample, numeric[0], numeric[1]):
		m.Debit, m.Credit = numeric[0], numeric[1]
	case len(numeric) == 2:
		m.Amount, m.Balance = numeric[0], numeric[1]
	case len(numeric) == 1:
		m.Amount = numeric[0]
	}
	return m
}

func (s columnStats) isNumeric() bool {
	return s.nonEmpty > 0 && s.numeric == s.nonEmpty
}

func numericAround(stats []columnStats, used map[string]bool, i int) bool {
	before, after := false, false
	for j, s := range stats {
		if used[s.label] || !s.isNumeric() {
			continue
		}
		if j < i {
			before = true
		} else if j > i {
			after = true
		}
	}
	return before && after
}

// complementary reports whether at most one of two columns is filled per row,
// as in a debit/credit pair.
func complementary(rows []Row, a, b string) bool {
	sparse := false
	for _, row := range rows {
		va, vb := row.Get(a), row.Get(b)
		if va != "" && vb != "" {
			return false
		}
		if va == "" || vb == "" {
			sparse = true
		}
	}
	return sparse
}

func isDateValue(v string) bool {
	_, ok := ParseDate(v)
	return ok
}
