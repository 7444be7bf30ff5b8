package model

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction records whether a statement row was a credit or a debit.
type Direction string

// Direction constants.
const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// TransactionType describes what a transaction settled, if anything.
type TransactionType string

// Transaction type constants.
const (
	TypeInvoicePayment TransactionType = "invoice_payment"
	TypeBillPayment    TransactionType = "bill_payment"
	TypeExpense        TransactionType = "expense"
	TypeRevenue        TransactionType = "revenue"
	TypeTransfer       TransactionType = "transfer"
	TypeUnknown        TransactionType = "unknown"
)

// PlaceholderDescription is used when a statement row has no description.
const PlaceholderDescription = "No description"

// Transaction is a canonical bank-statement transaction.
// Amount is signed: positive is an inflow, negative an outflow.
type Transaction struct {
	Date                time.Time
	CreatedAt           time.Time
	ReviewedAt          *time.Time
	Amount              decimal.Decimal
	ID                  string
	OwnerID             string
	Hash                string
	Description         string
	VendorName          string
	Direction           Direction
	Category            Category
	ExpenseType         ExpenseType
	Frequency           Frequency
	ReviewReason        ReviewReason
	ReviewStatus        ReviewStatus
	ReviewedBy          string
	ReviewNotes         string
	TransactionType     TransactionType
	MatchedReceivableID string
	MatchedPayableID    string
	Confidence          int
	ExpenseConfidence   int
	SourceLine          int
	NeedsReview         bool
}

// IsInflow reports whether money came in.
func (t *Transaction) IsInflow() bool {
	return t.Amount.IsPositive()
}

// IsMatched reports whether the transaction already settles an obligation.
func (t *Transaction) IsMatched() bool {
	return t.MatchedReceivableID != "" || t.MatchedPayableID != ""
}

// GenerateHash creates a stable hash for duplicate detection.
func (t *Transaction) GenerateHash() string {
	desc := strings.Join(strings.Fields(strings.ToLower(t.Description)), " ")
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.OwnerID,
		t.Date.Format("2006-01-02"),
		t.Amount.StringFixed(2),
		desc)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// ApplyCategory copies a category cascade result onto the transaction.
func (t *Transaction) ApplyCategory(r CategoryResult) {
	t.Category = r.Category
	t.Confidence = r.Confidence
}

// ApplyExpense copies an expense cascade result onto the transaction.
func (t *Transaction) ApplyExpense(r ExpenseResult) {
	t.ExpenseType = r.Type
	t.Frequency = r.Frequency
	t.ExpenseConfidence = r.Confidence
}
