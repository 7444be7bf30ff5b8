package model

import "github.com/shopspring/decimal"

// POLine is a single purchase order line.
type POLine struct {
	UnitPrice decimal.Decimal
	Item      string
	Quantity  int
}

// PurchaseOrder is an order raised with a vendor.
type PurchaseOrder struct {
	Total    decimal.Decimal
	ID       string
	OwnerID  string
	VendorID string
	Lines    []POLine
}

// ReceiptLine records the quantity of an item actually received.
type ReceiptLine struct {
	Item     string
	Quantity int
}

// GoodsReceipt is the goods-received note for a purchase order.
type GoodsReceipt struct {
	ID    string
	POID  string
	Lines []ReceiptLine
}

// Bill is the vendor's invoice for a purchase order.
type Bill struct {
	Total       decimal.Decimal
	ID          string
	OwnerID     string
	VendorID    string
	POID        string
	MatchStatus ThreeWayStatus
}

// ThreeWayStatus is the overall outcome of a three-way match.
type ThreeWayStatus string

// Three-way match status constants.
const (
	ThreeWayMatched     ThreeWayStatus = "matched"
	ThreeWayPartial     ThreeWayStatus = "partial"
	ThreeWayDiscrepancy ThreeWayStatus = "discrepancy"
)

// DiscrepancyKind names the field that failed to agree.
type DiscrepancyKind string

// Discrepancy kind constants.
const (
	DiscrepancyAmount   DiscrepancyKind = "amount"
	DiscrepancyVendor   DiscrepancyKind = "vendor"
	DiscrepancyQuantity DiscrepancyKind = "quantity"
)

// Discrepancy describes one disagreement between PO, receipt and bill.
type Discrepancy struct {
	Difference decimal.Decimal
	Kind       DiscrepancyKind
	Item       string
	Expected   string
	Actual     string
}

// ThreeWayResult is returned by a three-way match.
type ThreeWayResult struct {
	MatchStatus   ThreeWayStatus
	Discrepancies []Discrepancy
}
