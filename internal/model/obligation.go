package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ObligationKind distinguishes money owed to the owner from money the owner owes.
type ObligationKind string

const (
	// KindReceivable is an invoice the owner issued.
	KindReceivable ObligationKind = "receivable"
	// KindPayable is a bill the owner must pay.
	KindPayable ObligationKind = "payable"
)

// ObligationStatus is derived from the outstanding balance.
type ObligationStatus string

// Obligation status constants, ordered open < partial < settled.
const (
	StatusOpen    ObligationStatus = "open"
	StatusPartial ObligationStatus = "partial"
	StatusSettled ObligationStatus = "settled"
)

func (s ObligationStatus) rank() int {
	switch s {
	case StatusPartial:
		return 1
	case StatusSettled:
		return 2
	default:
		return 0
	}
}

// Obligation is a receivable or payable owned by an external system.
type Obligation struct {
	DueDate       *time.Time
	UpdatedAt     time.Time
	TotalAmount   decimal.Decimal
	PaidAmount    decimal.Decimal
	BalanceAmount decimal.Decimal
	ID            string
	OwnerID       string
	Kind          ObligationKind
	Number        string
	Counterparty  string
	Status        ObligationStatus
}

// IsOpen reports whether the obligation can still accept payments.
func (o *Obligation) IsOpen() bool {
	return o.Status == StatusOpen || o.Status == StatusPartial || o.Status == ""
}

// Recompute derives the balance and status from the total and paid amounts.
// Status never moves backwards.
func (o *Obligation) Recompute() {
	o.BalanceAmount = decimal.Max(decimal.Zero, o.TotalAmount.Sub(o.PaidAmount))

	derived := StatusOpen
	switch {
	case o.BalanceAmount.IsZero():
		derived = StatusSettled
	case o.PaidAmount.IsPositive():
		derived = StatusPartial
	}
	if derived.rank() >= o.Status.rank() {
		o.Status = derived
	}
}

// ApplyPayment records a payment of the absolute value of amount.
func (o *Obligation) ApplyPayment(amount decimal.Decimal) error {
	if !o.IsOpen() {
		return fmt.Errorf("obligation %s is %s", o.ID, o.Status)
	}
	paid := amount.Abs()
	if paid.IsZero() {
		return fmt.Errorf("payment amount must be nonzero")
	}
	o.PaidAmount = o.PaidAmount.Add(paid)
	o.Recompute()
	return nil
}
