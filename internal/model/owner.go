package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Owner is the business whose statements are processed.
type Owner struct {
	UpdatedAt   time.Time
	CashBalance decimal.Decimal
	MonthlyBurn decimal.Decimal
	ID          string
	Name        string
	// RunwayMonths is -1 when burn is zero or negative.
	RunwayMonths float64
}

// RecomputeRunway derives RunwayMonths from cash and burn, rounded to two
// places. Zero or negative burn means the runway is unbounded.
func (o *Owner) RecomputeRunway() {
	if !o.MonthlyBurn.IsPositive() {
		o.RunwayMonths = -1
		return
	}
	o.RunwayMonths = o.CashBalance.Div(o.MonthlyBurn).Round(2).InexactFloat64()
}
