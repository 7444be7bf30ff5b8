// Package balance keeps an owner's cash balance, burn and runway in step with
// settled transactions.
package balance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/service"
)

// DefaultTrailingMonths is the burn averaging window.
const DefaultTrailingMonths = 3

// Ensure Synchronizer implements the BalanceSynchronizer interface.
var _ service.BalanceSynchronizer = (*Synchronizer)(nil)

// Synchronizer applies cash movements and recomputes burn and runway.
type Synchronizer struct {
	owners service.OwnerStore
	txns   service.TransactionStore
	now    func() time.Time
	months int
}

// NewSynchronizer creates a synchronizer averaging burn over trailingMonths.
func NewSynchronizer(owners service.OwnerStore, txns service.TransactionStore, trailingMonths int) *Synchronizer {
	if trailingMonths < 1 {
		trailingMonths = DefaultTrailingMonths
	}
	return &Synchronizer{owners: owners, txns: txns, months: trailingMonths, now: time.Now}
}

// Apply adds delta to the owner's cash and refreshes burn and runway.
func (s *Synchronizer) Apply(ctx context.Context, ownerID string, delta decimal.Decimal) error {
	if ownerID == "" {
		return common.Invalid("owner id is required")
	}
	if _, err := s.owners.AdjustCashBalance(ctx, ownerID, delta); err != nil {
		return fmt.Errorf("failed to adjust cash balance: %w", err)
	}
	owner, err := s.Recompute(ctx, ownerID)
	if err != nil {
		return err
	}
	slog.Debug("Synced cash position",
		"owner", ownerID,
		"delta", delta.StringFixed(2),
		"cash", owner.CashBalance.StringFixed(2),
		"burn", owner.MonthlyBurn.StringFixed(2),
		"runway_months", owner.RunwayMonths)
	return nil
}

// Recompute derives monthly burn from stored transactions and stores it.
func (s *Synchronizer) Recompute(ctx context.Context, ownerID string) (*model.Owner, error) {
	end := s.now()
	start := end.AddDate(0, -s.months, 0)
	txns, err := s.txns.ListTransactions(ctx, service.TransactionFilter{
		OwnerID:   ownerID,
		StartDate: &start,
		EndDate:   &end,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions for burn: %w", err)
	}
	owner, err := s.owners.SetMonthlyBurn(ctx, ownerID, MonthlyBurn(txns, s.months))
	if err != nil {
		return nil, fmt.Errorf("failed to store burn: %w", err)
	}
	return owner, nil
}

// MonthlyBurn is the average net outflow per month. Net inflow gives zero.
func MonthlyBurn(txns []model.Transaction, months int) decimal.Decimal {
	if months < 1 {
		return decimal.Zero
	}
	net := decimal.Zero
	for i := range txns {
		if txns[i].TransactionType == model.TypeTransfer {
			continue
		}
		net = net.Add(txns[i].Amount)
	}
	if !net.IsNegative() {
		return decimal.Zero
	}
	return net.Neg().Div(decimal.NewFromInt(int64(months))).Round(2)
}
