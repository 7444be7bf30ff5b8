package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial ledger schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS owners (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL DEFAULT '',
					cash_balance TEXT NOT NULL DEFAULT '0',
					monthly_burn TEXT NOT NULL DEFAULT '0',
					runway_months REAL NOT NULL DEFAULT -1,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					hash TEXT UNIQUE NOT NULL,
					date DATETIME NOT NULL,
					amount TEXT NOT NULL,
					description TEXT NOT NULL,
					vendor_name TEXT NOT NULL DEFAULT '',
					direction TEXT NOT NULL,
					category TEXT NOT NULL DEFAULT '',
					confidence INTEGER NOT NULL DEFAULT 0,
					expense_type TEXT NOT NULL DEFAULT '',
					frequency TEXT NOT NULL DEFAULT '',
					expense_confidence INTEGER NOT NULL DEFAULT 0,
					needs_review BOOLEAN NOT NULL DEFAULT 0,
					review_reason TEXT NOT NULL DEFAULT '',
					review_status TEXT NOT NULL DEFAULT '',
					reviewed_by TEXT NOT NULL DEFAULT '',
					reviewed_at DATETIME,
					review_notes TEXT NOT NULL DEFAULT '',
					transaction_type TEXT NOT NULL DEFAULT '',
					matched_receivable_id TEXT NOT NULL DEFAULT '',
					matched_payable_id TEXT NOT NULL DEFAULT '',
					source_line INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_owner_date ON transactions(owner_id, date)`,
				`CREATE INDEX idx_transactions_vendor ON transactions(owner_id, vendor_name)`,

				`CREATE TABLE IF NOT EXISTS obligations (
					kind TEXT NOT NULL,
					id TEXT NOT NULL,
					owner_id TEXT NOT NULL,
					number TEXT NOT NULL DEFAULT '',
					counterparty TEXT NOT NULL DEFAULT '',
					total_amount TEXT NOT NULL,
					paid_amount TEXT NOT NULL DEFAULT '0',
					balance_amount TEXT NOT NULL,
					status TEXT NOT NULL,
					due_date DATETIME,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (kind, id)
				)`,
				`CREATE INDEX idx_obligations_owner_status ON obligations(owner_id, kind, status)`,

				`CREATE TABLE IF NOT EXISTS vendor_mappings (
					owner_id TEXT NOT NULL,
					key TEXT NOT NULL,
					category TEXT NOT NULL,
					confidence INTEGER NOT NULL,
					occurrences INTEGER NOT NULL DEFAULT 1,
					last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (owner_id, key)
				)`,

				`CREATE TABLE IF NOT EXISTS pattern_mappings (
					owner_id TEXT NOT NULL,
					key TEXT NOT NULL,
					category TEXT NOT NULL,
					confidence INTEGER NOT NULL,
					occurrences INTEGER NOT NULL DEFAULT 1,
					last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
					PRIMARY KEY (owner_id, key)
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add procurement documents for three-way matching",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS purchase_orders (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					vendor_id TEXT NOT NULL,
					total TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS po_lines (
					po_id TEXT NOT NULL,
					line_no INTEGER NOT NULL,
					item TEXT NOT NULL,
					quantity INTEGER NOT NULL,
					unit_price TEXT NOT NULL,
					PRIMARY KEY (po_id, line_no),
					FOREIGN KEY (po_id) REFERENCES purchase_orders(id) ON DELETE CASCADE
				)`,
				`CREATE TABLE IF NOT EXISTS goods_receipts (
					id TEXT PRIMARY KEY,
					po_id TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS receipt_lines (
					receipt_id TEXT NOT NULL,
					line_no INTEGER NOT NULL,
					item TEXT NOT NULL,
					quantity INTEGER NOT NULL,
					PRIMARY KEY (receipt_id, line_no),
					FOREIGN KEY (receipt_id) REFERENCES goods_receipts(id) ON DELETE CASCADE
				)`,
				`CREATE TABLE IF NOT EXISTS bills (
					id TEXT PRIMARY KEY,
					owner_id TEXT NOT NULL,
					vendor_id TEXT NOT NULL,
					po_id TEXT NOT NULL DEFAULT '',
					total TEXT NOT NULL,
					match_status TEXT NOT NULL DEFAULT ''
				)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add review queue index",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE INDEX idx_transactions_review ON transactions(owner_id, needs_review, review_status)`,
			})
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion reports the current schema version of the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
