package statement

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

func amountsOf(txns []model.Transaction) []string {
	out := make([]string, len(txns))
	for i, txn := range txns {
		out[i] = txn.Amount.StringFixed(2)
	}
	return out
}

func TestParse_SalaryCreditRow(t *testing.T) {
	data := []byte("Date,Description,Debit,Credit\n15/03/2024,SALARY TRANSFER,,50000,\n")

	res := Parse(data, FormatDelimited)

	require.Empty(t, res.Errors)
	require.Len(t, res.Transactions, 1)
	txn := res.Transactions[0]
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), txn.Date)
	assert.True(t, decimal.NewFromInt(50000).Equal(txn.Amount), "amount %s", txn.Amount)
	assert.Equal(t, model.DirectionCredit, txn.Direction)
	assert.Equal(t, "SALARY TRANSFER", txn.Description)
	assert.Equal(t, 2, txn.SourceLine)
	assert.Equal(t, 0, res.Skipped)
}

const bankCSV = "\ufeffAccount Statement\n" +
	"Account: 1234\n" +
	"Date,Narration,Withdrawal Amt,Deposit Amt,Closing Balance\n" +
	"01/03/2024,Opening Balance,,,10000.00\n" +
	"02/03/2024,AWS SUBSCRIPTION,1200.00,,8800.00\n" +
	"03/03/2024,\"Client, Payment\",,\"5,000.00\",13800.00\n" +
	"04/03/2024,\"Broken quote,10,,1\n" +
	"05/03/2024,Adjustment,0,0,13800.00\n" +
	"not a date,Something,1,,1\n" +
	",,,,\n" +
	"31/03/2024,Total,1200.00,5000.00,\n"

func TestParse_DelimitedStatementWithNoise(t *testing.T) {
	res := Parse([]byte(bankCSV), FormatAuto)

	assert.Equal(t, FormatDelimited, res.Format)
	assert.Equal(t, "Date", res.Mapping.Date)
	assert.Equal(t, "Narration", res.Mapping.Description)
	assert.Equal(t, "Withdrawal Amt", res.Mapping.Debit)
	assert.Equal(t, "Deposit Amt", res.Mapping.Credit)
	assert.Equal(t, "Closing Balance", res.Mapping.Balance)

	assert.Equal(t, []string{"-1200.00", "5000.00"}, amountsOf(res.Transactions))
	assert.Equal(t, "Client, Payment", res.Transactions[1].Description)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 7, res.Errors[0].Line)

	reasons := map[SkipReason]int{}
	for _, s := range res.SkippedRows {
		reasons[s.Reason]++
	}
	assert.Equal(t, 4, res.Skipped)
	assert.Equal(t, 2, reasons[SkipSummaryRow])
	assert.Equal(t, 1, reasons[SkipZeroAmount])
	assert.Equal(t, 1, reasons[SkipUnparseableDate])
}

func TestParse_ExtraFieldsAreLineErrors(t *testing.T) {
	data := []byte("Date,Description,Amount\n01/02/2024,Coffee,-4.50,unexpected\n02/02/2024,Tea,-3.00\n")

	res := Parse(data, FormatDelimited)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 2, res.Errors[0].Line)
	assert.Contains(t, res.Errors[0].Reason, "expected 3 fields")
	assert.Equal(t, []string{"-3.00"}, amountsOf(res.Transactions))
}

func TestParse_HeaderFreeRows(t *testing.T) {
	data := []byte("15/03/2024,ACME SUPPLIES INV 42,250.00,\n16/03/2024,CLIENT REFUND,,99.50\n")

	res := Parse(data, FormatDelimited)

	require.Empty(t, res.Errors)
	assert.Equal(t, Mapping{Date: "0", Description: "1", Debit: "2", Credit: "3"}, res.Mapping)
	assert.Equal(t, []string{"-250.00", "99.50"}, amountsOf(res.Transactions))
}

func TestParse_HeaderFreeSingleDirectionSample(t *testing.T) {
	var b strings.Builder
	balance := 200000
	for day := 1; day <= 10; day++ {
		balance -= 1000
		fmt.Fprintf(&b, "%02d/03/2024,VENDOR PAYMENT %d,1000,,%d\n", day, day, balance)
	}
	b.WriteString("15/03/2024,CLIENT RECEIPT,,50000,240000\n")

	res := Parse([]byte(b.String()), FormatDelimited)

	require.Empty(t, res.Errors)
	assert.Equal(t, Mapping{Date: "0", Description: "1", Debit: "2", Credit: "3", Balance: "4"}, res.Mapping)
	require.Len(t, res.Transactions, 11)
	assert.Empty(t, res.SkippedRows)
	for _, txn := range res.Transactions[:10] {
		assert.Equal(t, "-1000.00", txn.Amount.StringFixed(2), txn.Description)
		assert.Equal(t, model.DirectionDebit, txn.Direction)
	}
	assert.Equal(t, "50000.00", res.Transactions[10].Amount.StringFixed(2))
	assert.Equal(t, model.DirectionCredit, res.Transactions[10].Direction)
}

func TestParse_HeaderFreeTwoRowsWithEmptyCreditColumn(t *testing.T) {
	data := []byte("01/03/2024,OPENING,,,100000\n02/03/2024,OFFICE RENT MARCH,20000,,80000\n")

	res := Parse(data, FormatDelimited)

	assert.Equal(t, "2", res.Mapping.Debit)
	assert.Equal(t, "3", res.Mapping.Credit)
	assert.Equal(t, "4", res.Mapping.Balance)
	assert.Contains(t, amountsOf(res.Transactions), "-20000.00")
}

func TestParse_UnsignedAmountSignedByBalance(t *testing.T) {
	data := []byte("Date,Description,Amount,Balance\n" +
		"01/03/2024,Opening Balance,,5000\n" +
		"02/03/2024,SUPPLIER PAYMENT,1200,3800\n" +
		"03/03/2024,CLIENT PAYMENT,700,4500\n" +
		"04/03/2024,MISC FEE,15,4500\n")

	res := Parse(data, FormatDelimited)

	require.Empty(t, res.Errors)
	assert.Equal(t, []string{"-1200.00", "700.00", "15.00"}, amountsOf(res.Transactions))
	assert.Equal(t, model.DirectionDebit, res.Transactions[0].Direction)
}

func TestParse_SignedAmountColumnIgnoresBalance(t *testing.T) {
	data := []byte("Date,Description,Amount,Balance\n" +
		"02/03/2024,SUPPLIER PAYMENT,-1200,3800\n" +
		"03/03/2024,CLIENT PAYMENT,700,3100\n")

	res := Parse(data, FormatDelimited)

	assert.Equal(t, []string{"-1200.00", "700.00"}, amountsOf(res.Transactions))
}

func TestParse_IndicatorColumn(t *testing.T) {
	data := []byte("Date;Description;Amount;Dr/Cr\n01/02/2024;Office rent;1,500.00;DR\n02/02/2024;Invoice 7;900;CR\n")

	res := Parse(data, FormatAuto)

	assert.Equal(t, "Dr/Cr", res.Mapping.Indicator)
	assert.Equal(t, []string{"-1500.00", "900.00"}, amountsOf(res.Transactions))
}

func TestParse_PlaceholderDescription(t *testing.T) {
	data := []byte("Date,Description,Amount\n01/02/2024,,-20\n")

	res := Parse(data, FormatDelimited)

	require.Len(t, res.Transactions, 1)
	assert.Equal(t, model.PlaceholderDescription, res.Transactions[0].Description)
	assert.Empty(t, res.Transactions[0].VendorName)
}

const documentText = `HDFC BANK STATEMENT
Page 1 of 2
01/03/2024 Opening Balance 10,000.00
02/03/2024 POS PURCHASE OFFICE DEPOT 1,250.00 8,750.00
05/03/2024 NEFT CR ACME CORP INV-42 5,000.00 13,750.00
06/03/2024 Interest credited 12.50
07 Mar 2024 Bank charges 25.00 Dr 13,737.50
Thank you for banking with us
`

func TestParse_DocumentText(t *testing.T) {
	res := Parse([]byte(documentText), FormatAuto)

	assert.Equal(t, FormatDocument, res.Format)
	assert.Empty(t, res.Errors)
	assert.Equal(t, []string{"-1250.00", "5000.00", "12.50", "-25.00"}, amountsOf(res.Transactions))
	assert.Equal(t, "Office Depot", res.Transactions[0].VendorName)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), res.Transactions[3].Date)

	require.Len(t, res.SkippedRows, 1)
	assert.Equal(t, SkipSummaryRow, res.SkippedRows[0].Reason)
	assert.Equal(t, 3, res.SkippedRows[0].Line)
}

const sampleOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>GITHUB INC
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>1500.00
<FITID>2024012001
<NAME>CLIENT PAYMENT
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func TestParse_OFX(t *testing.T) {
	res := Parse([]byte(sampleOFX), FormatAuto)

	assert.Equal(t, FormatOFX, res.Format)
	require.Empty(t, res.Errors)
	assert.Equal(t, []string{"-25.50", "1500.00"}, amountsOf(res.Transactions))
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), res.Transactions[0].Date)
	assert.Equal(t, "Github Inc", res.Transactions[0].VendorName)
}

func TestParse_InvalidOFXIsReported(t *testing.T) {
	res := Parse([]byte("OFXHEADER:100\n<OFX><broken"), FormatOFX)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, 0, res.Errors[0].Line)
	assert.Empty(t, res.Transactions)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "CSV": FormatDelimited, "qfx": FormatOFX, "pdf": FormatDocument} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("xlsx")
	require.Error(t, err)
}
