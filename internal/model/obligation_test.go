package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObligation_ApplyPayment(t *testing.T) {
	o := &Obligation{ID: "inv-1", TotalAmount: decimal.NewFromInt(10000), Status: StatusOpen}
	o.Recompute()
	assert.Equal(t, "10000", o.BalanceAmount.String())
	assert.Equal(t, StatusOpen, o.Status)

	require.NoError(t, o.ApplyPayment(decimal.NewFromInt(4000)))
	assert.Equal(t, "4000", o.PaidAmount.String())
	assert.Equal(t, "6000", o.BalanceAmount.String())
	assert.Equal(t, StatusPartial, o.Status)

	require.NoError(t, o.ApplyPayment(decimal.NewFromInt(-6000)))
	assert.True(t, o.BalanceAmount.IsZero())
	assert.Equal(t, StatusSettled, o.Status)

	err := o.ApplyPayment(decimal.NewFromInt(1))
	assert.Error(t, err)
}

func TestObligation_OverpaymentClampsBalance(t *testing.T) {
	o := &Obligation{TotalAmount: decimal.NewFromInt(100)}
	require.NoError(t, o.ApplyPayment(decimal.NewFromInt(150)))
	assert.True(t, o.BalanceAmount.IsZero())
	assert.Equal(t, "150", o.PaidAmount.String())
	assert.Equal(t, StatusSettled, o.Status)
}

func TestObligation_RecomputeNeverMovesBackwards(t *testing.T) {
	o := &Obligation{
		TotalAmount: decimal.NewFromInt(100),
		PaidAmount:  decimal.NewFromInt(100),
		Status:      StatusSettled,
	}
	// A corrected total must not reopen a settled obligation.
	o.TotalAmount = decimal.NewFromInt(120)
	o.Recompute()
	assert.Equal(t, StatusSettled, o.Status)
	assert.Equal(t, "20", o.BalanceAmount.String())
}

func TestObligation_ZeroPaymentRejected(t *testing.T) {
	o := &Obligation{TotalAmount: decimal.NewFromInt(100)}
	assert.Error(t, o.ApplyPayment(decimal.Zero))
	assert.True(t, o.PaidAmount.IsZero())
}
