package reconcile

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/testutil"
)

func purchaseOrder() *model.PurchaseOrder {
	return &model.PurchaseOrder{
		ID: "po-1", OwnerID: "owner-1", VendorID: "v-1", Total: decimal.NewFromInt(1000),
		Lines: []model.POLine{
			{Item: "Chair", Quantity: 10, UnitPrice: decimal.NewFromInt(60)},
			{Item: "Desk", Quantity: 2, UnitPrice: decimal.NewFromInt(200)},
		},
	}
}

func fullReceipt() *model.GoodsReceipt {
	return &model.GoodsReceipt{ID: "gr-1", POID: "po-1", Lines: []model.ReceiptLine{
		{Item: "chair", Quantity: 6}, {Item: "chair ", Quantity: 4}, {Item: "Desk", Quantity: 2},
	}}
}

func billFor(total string) *model.Bill {
	return &model.Bill{ID: "b-1", OwnerID: "owner-1", VendorID: "v-1", POID: "po-1", Total: decimal.RequireFromString(total)}
}

func TestCompareDocuments(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(po *model.PurchaseOrder, gr *model.GoodsReceipt, bill *model.Bill)
		status  model.ThreeWayStatus
		kinds   []model.DiscrepancyKind
		billAmt string
	}{
		{name: "everything agrees", billAmt: "1000", status: model.ThreeWayMatched},
		{name: "within one unit", billAmt: "1000.75", status: model.ThreeWayMatched},
		{name: "small amount difference", billAmt: "1030", status: model.ThreeWayPartial, kinds: []model.DiscrepancyKind{model.DiscrepancyAmount}},
		{name: "exactly five percent", billAmt: "1050", status: model.ThreeWayPartial, kinds: []model.DiscrepancyKind{model.DiscrepancyAmount}},
		{name: "large amount difference", billAmt: "1050.01", status: model.ThreeWayDiscrepancy, kinds: []model.DiscrepancyKind{model.DiscrepancyAmount}},
		{
			name:    "different vendor",
			billAmt: "1000",
			mutate:  func(_ *model.PurchaseOrder, _ *model.GoodsReceipt, b *model.Bill) { b.VendorID = "v-2" },
			status:  model.ThreeWayPartial,
			kinds:   []model.DiscrepancyKind{model.DiscrepancyVendor},
		},
		{
			name:    "short delivery",
			billAmt: "1000",
			mutate:  func(_ *model.PurchaseOrder, gr *model.GoodsReceipt, _ *model.Bill) { gr.Lines = gr.Lines[:2] },
			status:  model.ThreeWayPartial,
			kinds:   []model.DiscrepancyKind{model.DiscrepancyQuantity},
		},
		{
			name:    "quantity and amount",
			billAmt: "400",
			mutate:  func(_ *model.PurchaseOrder, gr *model.GoodsReceipt, _ *model.Bill) { gr.Lines = gr.Lines[2:] },
			status:  model.ThreeWayDiscrepancy,
			kinds:   []model.DiscrepancyKind{model.DiscrepancyAmount, model.DiscrepancyQuantity},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			po, gr, bill := purchaseOrder(), fullReceipt(), billFor(tt.billAmt)
			if tt.mutate != nil {
				tt.mutate(po, gr, bill)
			}
			res := CompareDocuments(po, gr, bill, DefaultOptions())
			assert.Equal(t, tt.status, res.MatchStatus)

			var kinds []model.DiscrepancyKind
			for _, d := range res.Discrepancies {
				kinds = append(kinds, d.Kind)
			}
			assert.Equal(t, tt.kinds, kinds)
			assert.Equal(t, res.MatchStatus == model.ThreeWayMatched, len(res.Discrepancies) == 0)
		})
	}
}

func TestCompareDocuments_QuantityDetail(t *testing.T) {
	gr := fullReceipt()
	gr.Lines = gr.Lines[:1]
	res := CompareDocuments(purchaseOrder(), gr, billFor("1000"), DefaultOptions())
	require.Len(t, res.Discrepancies, 2)
	assert.Equal(t, "Chair", res.Discrepancies[0].Item)
	assert.Equal(t, "10", res.Discrepancies[0].Expected)
	assert.Equal(t, "6", res.Discrepancies[0].Actual)
	assert.Equal(t, "4", res.Discrepancies[0].Difference.String())
	assert.Equal(t, "Desk", res.Discrepancies[1].Item)
}

func TestThreeWay_StoresStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	require.NoError(t, db.Storage.SavePurchaseOrder(ctx, purchaseOrder()))
	require.NoError(t, db.Storage.SaveGoodsReceipt(ctx, fullReceipt()))
	require.NoError(t, db.Storage.SaveBill(ctx, billFor("1100")))

	r := NewReconciler(db.Storage, nil, DefaultOptions())
	res, err := r.ThreeWay(ctx, "po-1", "gr-1", "b-1")
	require.NoError(t, err)
	assert.Equal(t, model.ThreeWayDiscrepancy, res.MatchStatus)

	bill, err := db.Storage.GetBill(ctx, "b-1")
	require.NoError(t, err)
	assert.Equal(t, model.ThreeWayDiscrepancy, bill.MatchStatus)

	_, err = r.ThreeWay(ctx, "po-1", "gr-1", "")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = r.ThreeWay(ctx, "po-404", "gr-1", "b-1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, db.Storage.SavePurchaseOrder(ctx, &model.PurchaseOrder{ID: "po-9", OwnerID: "owner-1", VendorID: "v-1"}))
	other := &model.GoodsReceipt{ID: "gr-2", POID: "po-9"}
	require.NoError(t, db.Storage.SaveGoodsReceipt(ctx, other))
	_, err = r.ThreeWay(ctx, "po-1", "gr-2", "b-1")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
