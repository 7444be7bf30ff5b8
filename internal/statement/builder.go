package statement

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

var summaryRow = regexp.MustCompile(
	`^(opening balance|closing balance|balance (b/f|c/f|brought forward|carried forward)|` +
		`totals?( (debits?|credits?|amount|withdrawals|deposits))?)\b[\s:.]*`)

// isSummaryRow reports whether a normalized description names a balance or
// totals line rather than a transaction.
func isSummaryRow(desc string) bool {
	norm := strings.Join(strings.Fields(strings.ToLower(desc)), " ")
	if norm == "" {
		return false
	}
	loc := summaryRow.FindStringIndex(norm)
	if loc == nil {
		return false
	}
	// Only figures may follow the label.
	for _, tok := range strings.Fields(norm[loc[1]:]) {
		if !looksNumeric(tok) {
			return false
		}
	}
	return true
}

// Build converts resolved rows into transactions, in row order.
func Build(table Table, m Mapping) ([]model.Transaction, []SkippedRow) {
	var (
		txns    []model.Transaction
		skipped []SkippedRow
	)
	signer := newBalanceSigner(table.Rows, m)
	for _, row := range table.Rows {
		txn, reason := buildRow(row, m)
		if reason != "" {
			signer.observe(row, nil)
			skipped = append(skipped, SkippedRow{Line: row.Line, Reason: reason, Text: rowText(row, table.Headers)})
			continue
		}
		signer.observe(row, &txn)
		txns = append(txns, txn)
	}
	return txns, skipped
}

// balanceSigner signs an unsigned amount column by the running balance. A
// row is re-signed only when its balance moved by exactly its amount.
type balanceSigner struct {
	label string
	prev  *decimal.Decimal
}

// newBalanceSigner returns nil unless the mapping has a single amount column,
// a balance column, no other sign source and no negative amounts.
func newBalanceSigner(rows []Row, m Mapping) *balanceSigner {
	if m.Amount == "" || m.Balance == "" || m.HasDebitCredit() || m.Indicator != "" {
		return nil
	}
	for _, row := range rows {
		if v, _, ok := ParseAmount(row.Get(m.Amount)); ok && v.IsNegative() {
			return nil
		}
	}
	return &balanceSigner{label: m.Balance}
}

func (s *balanceSigner) observe(row Row, txn *model.Transaction) {
	if s == nil {
		return
	}
	balance, ok := parseBalance(row.Get(s.label))
	if !ok {
		return
	}
	if txn != nil && s.prev != nil {
		diff := balance.Sub(*s.prev)
		if diff.Abs().Equal(txn.Amount.Abs()) {
			setAmount(txn, diff)
		}
	}
	s.prev = &balance
}

func setAmount(txn *model.Transaction, amount decimal.Decimal) {
	txn.Amount = amount
	txn.Direction = model.DirectionDebit
	if amount.IsPositive() {
		txn.Direction = model.DirectionCredit
	}
}

func buildRow(row Row, m Mapping) (model.Transaction, SkipReason) {
	date, ok := ParseDate(row.Get(m.Date))
	if !ok {
		return model.Transaction{}, SkipUnparseableDate
	}

	desc := strings.Join(strings.Fields(row.Get(m.Description)), " ")
	if isSummaryRow(desc) {
		return model.Transaction{}, SkipSummaryRow
	}

	amount, ok := rowAmount(row, m)
	if !ok {
		return model.Transaction{}, SkipUnparseableAmount
	}
	if amount.IsZero() {
		return model.Transaction{}, SkipZeroAmount
	}

	if desc == "" {
		desc = model.PlaceholderDescription
	}
	txn := model.Transaction{
		Date:        date,
		Description: desc,
		VendorName:  DeriveVendor(desc),
		SourceLine:  row.Line,
	}
	setAmount(&txn, amount)
	return txn, ""
}

// rowAmount computes the signed amount. A nonzero credit wins over a debit;
// the single amount column is the fallback when both are zero.
func rowAmount(row Row, m Mapping) (decimal.Decimal, bool) {
	if m.HasDebitCredit() {
		credit, _, creditOK := ParseAmount(row.Get(m.Credit))
		debit, _, debitOK := ParseAmount(row.Get(m.Debit))
		if creditOK && !credit.IsZero() {
			return credit.Abs(), true
		}
		if debitOK && !debit.IsZero() {
			return debit.Abs().Neg(), true
		}
		if m.Amount == "" {
			return decimal.Zero, creditOK && debitOK
		}
	}

	raw := row.Get(m.Amount)
	amount, marker, ok := ParseAmount(raw)
	if !ok {
		return decimal.Zero, false
	}
	if marker == MarkerNone {
		switch indicatorSign(row.Get(m.Indicator)) {
		case MarkerCredit:
			amount = amount.Abs()
		case MarkerDebit:
			amount = amount.Abs().Neg()
		}
	}
	return amount, true
}

func indicatorSign(v string) Marker {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "cr", "c", "credit", "cr.", "deposit", "in":
		return MarkerCredit
	case "dr", "d", "debit", "dr.", "withdrawal", "out":
		return MarkerDebit
	}
	return MarkerNone
}

func rowText(row Row, headers []string) string {
	parts := make([]string, 0, len(headers))
	for _, h := range headers {
		parts = append(parts, row.Fields[h])
	}
	return strings.Join(parts, " | ")
}
