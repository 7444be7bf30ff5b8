package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/service"
)

const transactionColumns = `id, owner_id, hash, date, amount, description, vendor_name, direction,
	category, confidence, expense_type, frequency, expense_confidence,
	needs_review, review_reason, review_status, reviewed_by, reviewed_at, review_notes,
	transaction_type, matched_receivable_id, matched_payable_id, source_line, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var txn model.Transaction
	var reviewedAt sql.NullTime
	var createdAt sql.NullTime

	err := row.Scan(
		&txn.ID, &txn.OwnerID, &txn.Hash, &txn.Date, &txn.Amount, &txn.Description, &txn.VendorName, &txn.Direction,
		&txn.Category, &txn.Confidence, &txn.ExpenseType, &txn.Frequency, &txn.ExpenseConfidence,
		&txn.NeedsReview, &txn.ReviewReason, &txn.ReviewStatus, &txn.ReviewedBy, &reviewedAt, &txn.ReviewNotes,
		&txn.TransactionType, &txn.MatchedReceivableID, &txn.MatchedPayableID, &txn.SourceLine, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		txn.ReviewedAt = &t
	}
	if createdAt.Valid {
		txn.CreatedAt = createdAt.Time
	}
	return &txn, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// SaveTransactions inserts transactions, skipping any whose hash already exists.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	for i := range transactions {
		if transactions[i].Hash == "" {
			transactions[i].Hash = transactions[i].GenerateHash()
		}
		if err := validateTransaction(&transactions[i]); err != nil {
			return 0, fmt.Errorf("transaction %d: %w", i, err)
		}
	}

	written := 0
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO transactions (`+transactionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		now := time.Now()
		for i := range transactions {
			txn := &transactions[i]
			if txn.CreatedAt.IsZero() {
				txn.CreatedAt = now
			}
			result, err := stmt.ExecContext(ctx,
				txn.ID, txn.OwnerID, txn.Hash, txn.Date, txn.Amount, txn.Description, txn.VendorName, txn.Direction,
				txn.Category, txn.Confidence, txn.ExpenseType, txn.Frequency, txn.ExpenseConfidence,
				txn.NeedsReview, txn.ReviewReason, txn.ReviewStatus, txn.ReviewedBy, nullableTime(txn.ReviewedAt), txn.ReviewNotes,
				txn.TransactionType, txn.MatchedReceivableID, txn.MatchedPayableID, txn.SourceLine, txn.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				written++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// GetTransaction retrieves a transaction by ID.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}
	return s.getTransaction(ctx, s.db, id)
}

func (s *SQLiteStorage) getTransaction(ctx context.Context, q queryable, id string) (*model.Transaction, error) {
	row := q.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("transaction", id)
	}
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to get transaction: %w", err))
	}
	return txn, nil
}

// ListTransactions returns transactions matching the filter, oldest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		where []string
		args  []any
	)
	if filter.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, filter.OwnerID)
	}
	if filter.StartDate != nil {
		where = append(where, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		where = append(where, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.NeedsReview != nil {
		where = append(where, "needs_review = ?")
		args = append(args, *filter.NeedsReview)
	}
	if filter.ReviewStatus != model.ReviewNone {
		where = append(where, "review_status = ?")
		args = append(args, filter.ReviewStatus)
	}
	if filter.VendorName != "" {
		where = append(where, "vendor_name = ? COLLATE NOCASE")
		args = append(args, filter.VendorName)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.MostRecent {
		query += " ORDER BY date DESC, created_at DESC, id DESC"
	} else {
		query += " ORDER BY date ASC, created_at ASC, id ASC"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to query transactions: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	if filter.MostRecent {
		for i, j := 0, len(transactions)-1; i < j; i, j = i+1, j-1 {
			transactions[i], transactions[j] = transactions[j], transactions[i]
		}
	}
	return transactions, nil
}

// UpdateTransaction overwrites the mutable fields of a stored transaction.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return wrapStoreErr(updateTransaction(ctx, s.db, txn))
}

func updateTransaction(ctx context.Context, q queryable, txn *model.Transaction) error {
	result, err := q.ExecContext(ctx, `
		UPDATE transactions SET
			vendor_name = ?, category = ?, confidence = ?, expense_type = ?, frequency = ?,
			expense_confidence = ?, needs_review = ?, review_reason = ?, review_status = ?,
			reviewed_by = ?, reviewed_at = ?, review_notes = ?, transaction_type = ?,
			matched_receivable_id = ?, matched_payable_id = ?
		WHERE id = ?
	`,
		txn.VendorName, txn.Category, txn.Confidence, txn.ExpenseType, txn.Frequency,
		txn.ExpenseConfidence, txn.NeedsReview, txn.ReviewReason, txn.ReviewStatus,
		txn.ReviewedBy, nullableTime(txn.ReviewedAt), txn.ReviewNotes, txn.TransactionType,
		txn.MatchedReceivableID, txn.MatchedPayableID,
		txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound("transaction", txn.ID)
	}
	return nil
}

// DeleteTransaction removes a transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("failed to delete transaction: %w", err))
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return notFound("transaction", id)
	}
	return nil
}

// HasTransactionHash reports whether a transaction with the hash exists.
func (s *SQLiteStorage) HasTransactionHash(ctx context.Context, hash string) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM transactions WHERE hash = ?)`, hash).Scan(&exists)
	if err != nil {
		return false, wrapStoreErr(fmt.Errorf("failed to check hash: %w", err))
	}
	return exists, nil
}
