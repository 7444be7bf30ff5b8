package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/service"
)

const obligationColumns = `kind, id, owner_id, number, counterparty, total_amount, paid_amount,
	balance_amount, status, due_date, updated_at`

func scanObligation(row rowScanner) (*model.Obligation, error) {
	var o model.Obligation
	var dueDate, updatedAt sql.NullTime
	err := row.Scan(&o.Kind, &o.ID, &o.OwnerID, &o.Number, &o.Counterparty, &o.TotalAmount, &o.PaidAmount,
		&o.BalanceAmount, &o.Status, &dueDate, &updatedAt)
	if err != nil {
		return nil, err
	}
	if dueDate.Valid {
		d := dueDate.Time
		o.DueDate = &d
	}
	if updatedAt.Valid {
		o.UpdatedAt = updatedAt.Time
	}
	return &o, nil
}

// SaveObligation inserts or replaces an obligation. Balance and status are
// derived from the total and paid amounts.
func (s *SQLiteStorage) SaveObligation(ctx context.Context, obligation *model.Obligation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateObligation(obligation); err != nil {
		return err
	}
	obligation.Recompute()
	obligation.UpdatedAt = time.Now()
	return wrapStoreErr(saveObligation(ctx, s.db, obligation))
}

// CreateObligation inserts a new obligation. An existing kind and ID fails
// with common.ErrDuplicateEntry and leaves the stored payments untouched.
func (s *SQLiteStorage) CreateObligation(ctx context.Context, obligation *model.Obligation) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateObligation(obligation); err != nil {
		return err
	}
	obligation.Recompute()
	obligation.UpdatedAt = time.Now()
	o := obligation
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO obligations (`+obligationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, o.Kind, o.ID, o.OwnerID, o.Number, o.Counterparty, o.TotalAmount, o.PaidAmount,
		o.BalanceAmount, o.Status, nullableTime(o.DueDate), o.UpdatedAt)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("failed to create %s %s: %w", o.Kind, o.ID, err))
	}
	return nil
}

func saveObligation(ctx context.Context, q queryable, o *model.Obligation) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO obligations (`+obligationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			owner_id = excluded.owner_id,
			number = excluded.number,
			counterparty = excluded.counterparty,
			total_amount = excluded.total_amount,
			paid_amount = excluded.paid_amount,
			balance_amount = excluded.balance_amount,
			status = excluded.status,
			due_date = excluded.due_date,
			updated_at = excluded.updated_at
	`, o.Kind, o.ID, o.OwnerID, o.Number, o.Counterparty, o.TotalAmount, o.PaidAmount,
		o.BalanceAmount, o.Status, nullableTime(o.DueDate), o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save obligation: %w", err)
	}
	return nil
}

// GetObligation retrieves an obligation by kind and ID.
func (s *SQLiteStorage) GetObligation(ctx context.Context, kind model.ObligationKind, id string) (*model.Obligation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return getObligation(ctx, s.db, kind, id)
}

func getObligation(ctx context.Context, q queryable, kind model.ObligationKind, id string) (*model.Obligation, error) {
	row := q.QueryRowContext(ctx, `SELECT `+obligationColumns+` FROM obligations WHERE kind = ? AND id = ?`, kind, id)
	o, err := scanObligation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(string(kind), id)
	}
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to get obligation: %w", err))
	}
	return o, nil
}

// ListOpenObligations returns open and partially paid obligations of a kind.
func (s *SQLiteStorage) ListOpenObligations(ctx context.Context, ownerID string, kind model.ObligationKind) ([]model.Obligation, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+obligationColumns+` FROM obligations
		WHERE owner_id = ? AND kind = ? AND status IN (?, ?)
		ORDER BY due_date IS NULL, due_date, id
	`, ownerID, kind, model.StatusOpen, model.StatusPartial)
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to query obligations: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var obligations []model.Obligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan obligation: %w", err)
		}
		obligations = append(obligations, *o)
	}
	return obligations, rows.Err()
}

// ApplyMatch settles an obligation with a transaction in one database
// transaction. Both records are re-read so the stored state wins over
// whatever the caller saw.
func (s *SQLiteStorage) ApplyMatch(ctx context.Context, req service.MatchRequest) (*service.MatchResult, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if req.Transaction == nil {
		return nil, fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if err := validateString(req.ObligationID, "obligationID"); err != nil {
		return nil, err
	}
	if err := validateTransaction(req.Transaction); err != nil {
		return nil, err
	}

	var result service.MatchResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := s.getTransaction(ctx, tx, req.Transaction.ID)
		if err != nil {
			return err
		}
		if current.IsMatched() {
			return fmt.Errorf("transaction %s: %w", current.ID, common.ErrAlreadyMatched)
		}

		obligation, err := getObligation(ctx, tx, req.Kind, req.ObligationID)
		if err != nil {
			return err
		}
		if obligation.OwnerID != current.OwnerID {
			return fmt.Errorf("%s %s belongs to %s: %w", obligation.Kind, obligation.ID, obligation.OwnerID, common.ErrOwnerMismatch)
		}
		if !obligation.IsOpen() {
			return fmt.Errorf("%s %s: %w", obligation.Kind, obligation.ID, common.ErrObligationClosed)
		}

		updated := *req.Transaction
		updated.Amount = current.Amount
		switch req.Kind {
		case model.KindReceivable:
			if !current.Amount.IsPositive() {
				return fmt.Errorf("outflow cannot settle a receivable: %w", common.ErrDirectionMismatch)
			}
			updated.MatchedReceivableID = obligation.ID
			updated.MatchedPayableID = ""
			updated.TransactionType = model.TypeInvoicePayment
		case model.KindPayable:
			if !current.Amount.IsNegative() {
				return fmt.Errorf("inflow cannot settle a payable: %w", common.ErrDirectionMismatch)
			}
			updated.MatchedPayableID = obligation.ID
			updated.MatchedReceivableID = ""
			updated.TransactionType = model.TypeBillPayment
		default:
			return common.Invalid("unknown obligation kind %q", req.Kind)
		}

		if err := obligation.ApplyPayment(current.Amount); err != nil {
			return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
		}
		obligation.UpdatedAt = time.Now()

		if err := saveObligation(ctx, tx, obligation); err != nil {
			return err
		}
		if err := updateTransaction(ctx, tx, &updated); err != nil {
			return err
		}

		result.Transaction = updated
		result.Obligation = *obligation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}
