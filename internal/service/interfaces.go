// Package service defines the interfaces shared by the pipeline components.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	NeedsReview  *bool
	OwnerID      string
	VendorName   string
	ReviewStatus model.ReviewStatus
	Limit        int
	Offset       int
	// MostRecent returns the newest Limit rows, still ordered oldest first.
	MostRecent bool
}

// MatchRequest asks the store to settle one obligation with one transaction.
// The transaction fields are written together with the obligation balance.
type MatchRequest struct {
	Transaction  *model.Transaction
	Kind         model.ObligationKind
	ObligationID string
}

// MatchResult is the state of both records after a committed match.
type MatchResult struct {
	Transaction model.Transaction
	Obligation  model.Obligation
}

// TransactionStore persists canonical transactions.
type TransactionStore interface {
	// SaveTransactions inserts transactions, skipping rows whose hash already
	// exists. It returns the number of rows written.
	SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error)
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	HasTransactionHash(ctx context.Context, hash string) (bool, error)
}

// ObligationStore persists receivables and payables.
type ObligationStore interface {
	SaveObligation(ctx context.Context, obligation *model.Obligation) error
	GetObligation(ctx context.Context, kind model.ObligationKind, id string) (*model.Obligation, error)
	ListOpenObligations(ctx context.Context, ownerID string, kind model.ObligationKind) ([]model.Obligation, error)
	// ApplyMatch atomically re-reads both records, applies the payment and
	// writes the result.
	ApplyMatch(ctx context.Context, req MatchRequest) (*MatchResult, error)
}

// MappingStore persists learned vendor and pattern mappings.
type MappingStore interface {
	GetVendorMapping(ctx context.Context, ownerID, key string) (*model.VendorMapping, error)
	SaveVendorMapping(ctx context.Context, mapping *model.VendorMapping) error
	ListVendorMappings(ctx context.Context, ownerID string) ([]model.VendorMapping, error)
	GetPatternMapping(ctx context.Context, ownerID, key string) (*model.PatternMapping, error)
	SavePatternMapping(ctx context.Context, mapping *model.PatternMapping) error
	DeleteMappings(ctx context.Context, ownerID string) error
}

// OwnerStore persists owner cash positions.
type OwnerStore interface {
	GetOwner(ctx context.Context, id string) (*model.Owner, error)
	SaveOwner(ctx context.Context, owner *model.Owner) error
	AdjustCashBalance(ctx context.Context, id string, delta decimal.Decimal) (*model.Owner, error)
	SetMonthlyBurn(ctx context.Context, id string, burn decimal.Decimal) (*model.Owner, error)
}

// ProcurementStore persists purchase orders, goods receipts and bills.
type ProcurementStore interface {
	SavePurchaseOrder(ctx context.Context, po *model.PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id string) (*model.PurchaseOrder, error)
	SaveGoodsReceipt(ctx context.Context, receipt *model.GoodsReceipt) error
	GetGoodsReceipt(ctx context.Context, id string) (*model.GoodsReceipt, error)
	SaveBill(ctx context.Context, bill *model.Bill) error
	GetBill(ctx context.Context, id string) (*model.Bill, error)
	UpdateBillMatchStatus(ctx context.Context, id string, status model.ThreeWayStatus) error
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	TransactionStore
	ObligationStore
	MappingStore
	OwnerStore
	ProcurementStore

	Migrate(ctx context.Context) error
	Close() error
}

// BalanceSynchronizer applies settled cash movements to an owner.
type BalanceSynchronizer interface {
	Apply(ctx context.Context, ownerID string, delta decimal.Decimal) error
}
