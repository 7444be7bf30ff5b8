package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

func getOwner(ctx context.Context, q queryable, id string) (*model.Owner, error) {
	var o model.Owner
	var updatedAt sql.NullTime
	err := q.QueryRowContext(ctx, `
		SELECT id, name, cash_balance, monthly_burn, runway_months, updated_at
		FROM owners WHERE id = ?
	`, id).Scan(&o.ID, &o.Name, &o.CashBalance, &o.MonthlyBurn, &o.RunwayMonths, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("owner", id)
	}
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to get owner: %w", err))
	}
	o.UpdatedAt = updatedAt.Time
	return &o, nil
}

func saveOwner(ctx context.Context, q queryable, o *model.Owner) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO owners (id, name, cash_balance, monthly_burn, runway_months, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cash_balance = excluded.cash_balance,
			monthly_burn = excluded.monthly_burn,
			runway_months = excluded.runway_months,
			updated_at = excluded.updated_at
	`, o.ID, o.Name, o.CashBalance, o.MonthlyBurn, o.RunwayMonths, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save owner: %w", err)
	}
	return nil
}

// GetOwner retrieves an owner's cash position.
func (s *SQLiteStorage) GetOwner(ctx context.Context, id string) (*model.Owner, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getOwner(ctx, s.db, id)
}

// SaveOwner inserts or replaces an owner.
func (s *SQLiteStorage) SaveOwner(ctx context.Context, owner *model.Owner) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if owner == nil {
		return fmt.Errorf("%w: owner", ErrNilParameter)
	}
	if err := validateString(owner.ID, "owner.ID"); err != nil {
		return err
	}
	owner.UpdatedAt = time.Now()
	return wrapStoreErr(saveOwner(ctx, s.db, owner))
}

// AdjustCashBalance adds delta to the owner's cash balance in one transaction,
// creating the owner with a zero balance if it does not exist yet. Runway is
// recomputed from the stored burn.
func (s *SQLiteStorage) AdjustCashBalance(ctx context.Context, id string, delta decimal.Decimal) (*model.Owner, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var owner *model.Owner
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getOwner(ctx, tx, id)
		if err != nil {
			if !errors.Is(err, common.ErrNotFound) {
				return err
			}
			current = &model.Owner{ID: id, RunwayMonths: -1}
		}
		current.CashBalance = current.CashBalance.Add(delta)
		current.RecomputeRunway()
		current.UpdatedAt = time.Now()
		if err := saveOwner(ctx, tx, current); err != nil {
			return err
		}
		owner = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}

// SetMonthlyBurn stores a new burn rate and recomputes runway from the
// current cash balance in one transaction.
func (s *SQLiteStorage) SetMonthlyBurn(ctx context.Context, id string, burn decimal.Decimal) (*model.Owner, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	var owner *model.Owner
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getOwner(ctx, tx, id)
		if err != nil {
			return err
		}
		current.MonthlyBurn = burn
		current.RecomputeRunway()
		current.UpdatedAt = time.Now()
		if err := saveOwner(ctx, tx, current); err != nil {
			return err
		}
		owner = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return owner, nil
}
