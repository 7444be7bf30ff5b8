package statement

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
)

var (
	ofxSeverity = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	// Opening tags missing their closing bracket at end of line.
	ofxOpenTag = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting issues in exported OFX files.
func preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = ofxSeverity.ReplaceAllStringFunc(content, strings.ToUpper)
	return ofxOpenTag.ReplaceAllString(content, "$1>")
}

// normalizeOFX converts bank and credit card statement transactions into rows.
// A file ofxgo cannot read is reported as a single error on line 0.
func normalizeOFX(text string) (Table, []LineError) {
	table := Table{
		Format:  FormatOFX,
		Headers: []string{labelDate, labelDescription, labelAmount, labelFITID},
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(preprocessOFX(text)))
	if err != nil {
		return table, []LineError{{Line: 0, Reason: fmt.Sprintf("failed to parse OFX file: %v", err)}}
	}

	var lists [][]ofxgo.Transaction
	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList.Transactions)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok && stmt.BankTranList != nil {
			lists = append(lists, stmt.BankTranList.Transactions)
		}
	}

	n := 0
	for _, txns := range lists {
		for _, tx := range txns {
			n++
			table.Rows = append(table.Rows, Row{
				Line: n,
				Fields: map[string]string{
					labelDate:        tx.DtPosted.Format("2006-01-02"),
					labelDescription: ofxDescription(tx),
					labelAmount:      tx.TrnAmt.FloatString(2),
					labelFITID:       string(tx.FiTID),
				},
			})
		}
	}

	slog.Debug("Parsed OFX statement", "statements", len(lists), "transactions", n)
	return table, nil
}

// ofxDescription prefers the payee, then NAME, then MEMO when NAME is generic.
func ofxDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGenericDescription(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}
	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(name) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}
