package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

func TestVendorMappings(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	_, err := store.GetVendorMapping(ctx, "owner-1", "aws")
	require.ErrorIs(t, err, common.ErrNotFound)

	m := &model.VendorMapping{OwnerID: "owner-1", Key: "aws", Category: model.CategorySoftware, Confidence: 80, Occurrences: 1}
	require.NoError(t, store.SaveVendorMapping(ctx, m))

	m.Confidence = 85
	m.Occurrences = 2
	require.NoError(t, store.SaveVendorMapping(ctx, m))

	got, err := store.GetVendorMapping(ctx, "owner-1", "aws")
	require.NoError(t, err)
	assert.Equal(t, 85, got.Confidence)
	assert.Equal(t, 2, got.Occurrences)
	assert.False(t, got.LastUpdated.IsZero())

	_, err = store.GetVendorMapping(ctx, "owner-2", "aws")
	require.ErrorIs(t, err, common.ErrNotFound, "mappings are scoped per owner")

	bad := &model.VendorMapping{OwnerID: "owner-1", Key: "x", Category: "Nope", Confidence: 80}
	require.ErrorIs(t, store.SaveVendorMapping(ctx, bad), ErrInvalidMapping)
}

func TestPatternMappingsAndDelete(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, store.SavePatternMapping(ctx, &model.PatternMapping{
		OwnerID: "owner-1", Key: "office rent march", Category: model.CategoryRent, Confidence: 50, Occurrences: 1,
	}))
	require.NoError(t, store.SaveVendorMapping(ctx, &model.VendorMapping{
		OwnerID: "owner-1", Key: "landlord", Category: model.CategoryRent, Confidence: 80, Occurrences: 1,
	}))

	got, err := store.GetPatternMapping(ctx, "owner-1", "office rent march")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryRent, got.Category)

	require.NoError(t, store.DeleteMappings(ctx, "owner-1"))

	_, err = store.GetPatternMapping(ctx, "owner-1", "office rent march")
	require.ErrorIs(t, err, common.ErrNotFound)
	vendors, err := store.ListVendorMappings(ctx, "owner-1")
	require.NoError(t, err)
	assert.Empty(t, vendors)
}

func TestAdjustCashBalance(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	owner, err := store.AdjustCashBalance(ctx, "owner-1", decimal.NewFromInt(500))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(owner.CashBalance))

	owner, err = store.AdjustCashBalance(ctx, "owner-1", decimal.RequireFromString("-120.50"))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("379.50").Equal(owner.CashBalance))

	stored, err := store.GetOwner(ctx, "owner-1")
	require.NoError(t, err)
	assert.True(t, owner.CashBalance.Equal(stored.CashBalance))
	assert.Equal(t, -1.0, stored.RunwayMonths)

	owner, err = store.SetMonthlyBurn(ctx, "owner-1", decimal.NewFromInt(150))
	require.NoError(t, err)
	assert.InDelta(t, 2.53, owner.RunwayMonths, 0.001)

	owner, err = store.AdjustCashBalance(ctx, "owner-1", decimal.RequireFromString("20.50"))
	require.NoError(t, err)
	assert.InDelta(t, 2.67, owner.RunwayMonths, 0.001)

	_, err = store.SetMonthlyBurn(ctx, "owner-2", decimal.NewFromInt(1))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProcurementDocuments(t *testing.T) {
	store := createTestStorage(t)
	ctx := context.Background()

	po := &model.PurchaseOrder{
		ID: "po-1", OwnerID: "owner-1", VendorID: "v-1", Total: decimal.NewFromInt(1000),
		Lines: []model.POLine{
			{Item: "chair", Quantity: 10, UnitPrice: decimal.NewFromInt(60)},
			{Item: "desk", Quantity: 2, UnitPrice: decimal.NewFromInt(200)},
		},
	}
	require.NoError(t, store.SavePurchaseOrder(ctx, po))
	require.NoError(t, store.SaveGoodsReceipt(ctx, &model.GoodsReceipt{
		ID: "gr-1", POID: "po-1", Lines: []model.ReceiptLine{{Item: "chair", Quantity: 8}},
	}))
	require.NoError(t, store.SaveBill(ctx, &model.Bill{
		ID: "b-1", OwnerID: "owner-1", VendorID: "v-1", POID: "po-1", Total: decimal.NewFromInt(1000),
	}))

	gotPO, err := store.GetPurchaseOrder(ctx, "po-1")
	require.NoError(t, err)
	require.Len(t, gotPO.Lines, 2)
	assert.Equal(t, "desk", gotPO.Lines[1].Item)

	gotGR, err := store.GetGoodsReceipt(ctx, "gr-1")
	require.NoError(t, err)
	require.Len(t, gotGR.Lines, 1)
	assert.Equal(t, 8, gotGR.Lines[0].Quantity)

	require.NoError(t, store.UpdateBillMatchStatus(ctx, "b-1", model.ThreeWayPartial))
	bill, err := store.GetBill(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, model.ThreeWayPartial, bill.MatchStatus)

	require.ErrorIs(t, store.UpdateBillMatchStatus(ctx, "missing", model.ThreeWayMatched), common.ErrNotFound)
}
