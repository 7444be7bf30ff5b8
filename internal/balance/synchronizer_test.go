package balance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/testutil"
)

func TestMonthlyBurn(t *testing.T) {
	txns := []model.Transaction{
		testutil.NewTransaction("o").Amount(-3000).Build(),
		testutil.NewTransaction("o").Amount(-1500).Build(),
		testutil.NewTransaction("o").Amount(1500).Build(),
	}
	assert.Equal(t, "1000", MonthlyBurn(txns, 3).String())

	transfer := testutil.NewTransaction("o").Amount(-9000).Build()
	transfer.TransactionType = model.TypeTransfer
	assert.Equal(t, "1000", MonthlyBurn(append(txns, transfer), 3).String())

	assert.True(t, MonthlyBurn(txns[2:], 3).IsZero(), "net inflow has no burn")
	assert.True(t, MonthlyBurn(nil, 3).IsZero())
}

func TestSynchronizer_Apply(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	db.SeedOwner(model.Owner{ID: "owner-1", Name: "Acme", CashBalance: decimal.NewFromInt(12000)})
	db.SeedTransactions(
		testutil.NewTransaction("owner-1").On(2024, 4, 10).Amount(-4000).Description("RENT APR").Build(),
		testutil.NewTransaction("owner-1").On(2024, 5, 10).Amount(-4000).Description("RENT MAY").Build(),
		testutil.NewTransaction("owner-1").On(2024, 6, 10).Amount(-4000).Description("RENT JUN").Build(),
		testutil.NewTransaction("owner-1").On(2023, 1, 10).Amount(-50000).Description("OLD").Build(),
	)

	syncer := NewSynchronizer(db.Storage, db.Storage, 3)
	syncer.now = func() time.Time { return time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC) }

	require.NoError(t, syncer.Apply(ctx, "owner-1", decimal.NewFromInt(3000)))

	owner, err := db.Storage.GetOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "15000", owner.CashBalance.String())
	assert.Equal(t, "4000", owner.MonthlyBurn.String())
	assert.InDelta(t, 3.75, owner.RunwayMonths, 0.001)
	assert.Equal(t, "Acme", owner.Name)
}

func TestSynchronizer_NoBurnMeansUnboundedRunway(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	syncer := NewSynchronizer(db.Storage, db.Storage, 0)

	require.NoError(t, syncer.Apply(ctx, "owner-9", decimal.NewFromInt(100)))
	owner, err := db.Storage.GetOwner(ctx, "owner-9")
	require.NoError(t, err)
	assert.Equal(t, -1.0, owner.RunwayMonths)

	assert.ErrorIs(t, syncer.Apply(ctx, "", decimal.NewFromInt(1)), common.ErrInvalidInput)
}
