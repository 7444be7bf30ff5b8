package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// TransactionBuilder provides a fluent interface for constructing test transactions.
type TransactionBuilder struct {
	txn model.Transaction
}

var builderSeq atomic.Int64

// NewTransaction starts a transaction for owner with a unique ID.
func NewTransaction(ownerID string) *TransactionBuilder {
	return &TransactionBuilder{txn: model.Transaction{
		ID:          fmt.Sprintf("txn-%d", builderSeq.Add(1)),
		OwnerID:     ownerID,
		Date:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Description: "Test transaction",
		Amount:      decimal.NewFromInt(-100),
		Direction:   model.DirectionDebit,
	}}
}

// WithID sets the transaction ID.
func (b *TransactionBuilder) WithID(id string) *TransactionBuilder {
	b.txn.ID = id
	return b
}

// On sets the transaction date.
func (b *TransactionBuilder) On(year int, month time.Month, day int) *TransactionBuilder {
	b.txn.Date = time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return b
}

// OnDate sets the transaction date from a time value.
func (b *TransactionBuilder) OnDate(d time.Time) *TransactionBuilder {
	b.txn.Date = d
	return b
}

// Amount sets the signed amount and matching direction.
func (b *TransactionBuilder) Amount(amount float64) *TransactionBuilder {
	b.txn.Amount = decimal.NewFromFloat(amount)
	b.txn.Direction = model.DirectionDebit
	if amount > 0 {
		b.txn.Direction = model.DirectionCredit
	}
	return b
}

// Description sets the statement description.
func (b *TransactionBuilder) Description(desc string) *TransactionBuilder {
	b.txn.Description = desc
	return b
}

// Vendor sets the vendor name.
func (b *TransactionBuilder) Vendor(name string) *TransactionBuilder {
	b.txn.VendorName = name
	return b
}

// Category sets a classified category and confidence.
func (b *TransactionBuilder) Category(c model.Category, confidence int) *TransactionBuilder {
	b.txn.Category = c
	b.txn.Confidence = confidence
	return b
}

// Pending marks the transaction as waiting in the review queue.
func (b *TransactionBuilder) Pending(reason model.ReviewReason) *TransactionBuilder {
	b.txn.NeedsReview = true
	b.txn.ReviewReason = reason
	b.txn.ReviewStatus = model.ReviewPending
	return b
}

// Reviewed marks the transaction with a review status.
func (b *TransactionBuilder) Reviewed(status model.ReviewStatus) *TransactionBuilder {
	b.txn.ReviewStatus = status
	b.txn.NeedsReview = status == model.ReviewRejected
	return b
}

// Build returns the transaction with its dedup hash set.
func (b *TransactionBuilder) Build() model.Transaction {
	txn := b.txn
	txn.Hash = txn.GenerateHash()
	return txn
}

// Receivable returns an open invoice owed to owner.
func Receivable(ownerID, id string, total float64) model.Obligation {
	return model.Obligation{
		ID:          id,
		OwnerID:     ownerID,
		Kind:        model.KindReceivable,
		Number:      id,
		TotalAmount: decimal.NewFromFloat(total),
		Status:      model.StatusOpen,
	}
}

// Payable returns an open bill owed by owner.
func Payable(ownerID, id string, total float64) model.Obligation {
	return model.Obligation{
		ID:          id,
		OwnerID:     ownerID,
		Kind:        model.KindPayable,
		Number:      id,
		TotalAmount: decimal.NewFromFloat(total),
		Status:      model.StatusOpen,
	}
}
