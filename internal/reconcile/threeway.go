package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

var hundred = decimal.NewFromInt(100)

// ThreeWay compares a purchase order, its goods receipt and the vendor's bill,
// and stores the outcome on the bill.
func (r *Reconciler) ThreeWay(ctx context.Context, poID, receiptID, billID string) (*model.ThreeWayResult, error) {
	if poID == "" || receiptID == "" || billID == "" {
		return nil, common.Invalid("purchase order, receipt and bill ids are required")
	}

	po, err := r.store.GetPurchaseOrder(ctx, poID)
	if err != nil {
		return nil, err
	}
	receipt, err := r.store.GetGoodsReceipt(ctx, receiptID)
	if err != nil {
		return nil, err
	}
	bill, err := r.store.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}

	if receipt.POID != "" && receipt.POID != po.ID {
		return nil, common.Invalid("receipt %s belongs to purchase order %s, not %s", receipt.ID, receipt.POID, po.ID)
	}
	if bill.POID != "" && bill.POID != po.ID {
		return nil, common.Invalid("bill %s belongs to purchase order %s, not %s", bill.ID, bill.POID, po.ID)
	}
	if bill.OwnerID != po.OwnerID {
		return nil, fmt.Errorf("bill %s and purchase order %s: %w", bill.ID, po.ID, common.ErrOwnerMismatch)
	}

	result := CompareDocuments(po, receipt, bill, r.opts)
	if err := r.store.UpdateBillMatchStatus(ctx, bill.ID, result.MatchStatus); err != nil {
		return nil, fmt.Errorf("failed to store match status: %w", err)
	}

	slog.Info("Three-way match",
		"po", po.ID,
		"receipt", receipt.ID,
		"bill", bill.ID,
		"status", result.MatchStatus,
		"discrepancies", len(result.Discrepancies))
	return &result, nil
}

// CompareDocuments is the pure three-way comparison. The status is matched
// when nothing disagrees, discrepancy when an amount difference exceeds the
// configured share of the PO total, and partial otherwise.
func CompareDocuments(po *model.PurchaseOrder, receipt *model.GoodsReceipt, bill *model.Bill, opts Options) model.ThreeWayResult {
	var result model.ThreeWayResult

	poTotal := po.Total
	if poTotal.IsZero() {
		for _, l := range po.Lines {
			poTotal = poTotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
		}
	}

	severe := false
	if diff := poTotal.Sub(bill.Total).Abs(); diff.GreaterThan(opts.ThreeWayAmountTolerance) {
		result.Discrepancies = append(result.Discrepancies, model.Discrepancy{
			Kind:       model.DiscrepancyAmount,
			Expected:   poTotal.StringFixed(2),
			Actual:     bill.Total.StringFixed(2),
			Difference: diff,
		})
		limit := poTotal.Abs().Mul(opts.ThreeWayDiscrepancyPct).Div(hundred)
		if diff.GreaterThan(limit) {
			severe = true
		}
	}

	if po.VendorID != bill.VendorID {
		result.Discrepancies = append(result.Discrepancies, model.Discrepancy{
			Kind:     model.DiscrepancyVendor,
			Expected: po.VendorID,
			Actual:   bill.VendorID,
		})
	}

	received := make(map[string]int, len(receipt.Lines))
	for _, l := range receipt.Lines {
		received[itemKey(l.Item)] += l.Quantity
	}
	for _, l := range po.Lines {
		got := received[itemKey(l.Item)]
		if got >= l.Quantity {
			continue
		}
		result.Discrepancies = append(result.Discrepancies, model.Discrepancy{
			Kind:       model.DiscrepancyQuantity,
			Item:       l.Item,
			Expected:   strconv.Itoa(l.Quantity),
			Actual:     strconv.Itoa(got),
			Difference: decimal.NewFromInt(int64(l.Quantity - got)),
		})
	}

	switch {
	case len(result.Discrepancies) == 0:
		result.MatchStatus = model.ThreeWayMatched
	case severe:
		result.MatchStatus = model.ThreeWayDiscrepancy
	default:
		result.MatchStatus = model.ThreeWayPartial
	}
	return result
}

func itemKey(item string) string {
	return strings.ToLower(strings.TrimSpace(item))
}
