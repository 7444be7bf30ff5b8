package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// GetVendorMapping retrieves the learned mapping for a vendor key.
func (s *SQLiteStorage) GetVendorMapping(ctx context.Context, ownerID, key string) (*model.VendorMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var m model.VendorMapping
	var lastUpdated sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT owner_id, key, category, confidence, occurrences, last_updated
		FROM vendor_mappings WHERE owner_id = ? AND key = ?
	`, ownerID, key).Scan(&m.OwnerID, &m.Key, &m.Category, &m.Confidence, &m.Occurrences, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("vendor mapping", key)
	}
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to get vendor mapping: %w", err))
	}
	m.LastUpdated = lastUpdated.Time
	return &m, nil
}

// SaveVendorMapping inserts or updates a vendor mapping.
func (s *SQLiteStorage) SaveVendorMapping(ctx context.Context, mapping *model.VendorMapping) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if mapping == nil {
		return fmt.Errorf("%w: mapping", ErrNilParameter)
	}
	if err := validateMapping(mapping.OwnerID, mapping.Key, mapping.Category, mapping.Confidence); err != nil {
		return err
	}
	mapping.LastUpdated = time.Now()
	return saveMapping(ctx, s.db, "vendor_mappings", mapping.OwnerID, mapping.Key, mapping.Category,
		mapping.Confidence, mapping.Occurrences, mapping.LastUpdated)
}

// ListVendorMappings returns every vendor mapping of an owner.
func (s *SQLiteStorage) ListVendorMappings(ctx context.Context, ownerID string) ([]model.VendorMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT owner_id, key, category, confidence, occurrences, last_updated
		FROM vendor_mappings WHERE owner_id = ? ORDER BY key
	`, ownerID)
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to query vendor mappings: %w", err))
	}
	defer func() { _ = rows.Close() }()

	var mappings []model.VendorMapping
	for rows.Next() {
		var m model.VendorMapping
		var lastUpdated sql.NullTime
		if err := rows.Scan(&m.OwnerID, &m.Key, &m.Category, &m.Confidence, &m.Occurrences, &lastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan vendor mapping: %w", err)
		}
		m.LastUpdated = lastUpdated.Time
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}

// GetPatternMapping retrieves the learned mapping for a description pattern.
func (s *SQLiteStorage) GetPatternMapping(ctx context.Context, ownerID, key string) (*model.PatternMapping, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var m model.PatternMapping
	var lastUpdated sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT owner_id, key, category, confidence, occurrences, last_updated
		FROM pattern_mappings WHERE owner_id = ? AND key = ?
	`, ownerID, key).Scan(&m.OwnerID, &m.Key, &m.Category, &m.Confidence, &m.Occurrences, &lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("pattern mapping", key)
	}
	if err != nil {
		return nil, wrapStoreErr(fmt.Errorf("failed to get pattern mapping: %w", err))
	}
	m.LastUpdated = lastUpdated.Time
	return &m, nil
}

// SavePatternMapping inserts or updates a pattern mapping.
func (s *SQLiteStorage) SavePatternMapping(ctx context.Context, mapping *model.PatternMapping) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if mapping == nil {
		return fmt.Errorf("%w: mapping", ErrNilParameter)
	}
	if err := validateMapping(mapping.OwnerID, mapping.Key, mapping.Category, mapping.Confidence); err != nil {
		return err
	}
	mapping.LastUpdated = time.Now()
	return saveMapping(ctx, s.db, "pattern_mappings", mapping.OwnerID, mapping.Key, mapping.Category,
		mapping.Confidence, mapping.Occurrences, mapping.LastUpdated)
}

// table is one of two compile-time constants, never user input.
func saveMapping(ctx context.Context, q queryable, table, ownerID, key string, category model.Category,
	confidence, occurrences int, lastUpdated time.Time) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO `+table+` (owner_id, key, category, confidence, occurrences, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, key) DO UPDATE SET
			category = excluded.category,
			confidence = excluded.confidence,
			occurrences = excluded.occurrences,
			last_updated = excluded.last_updated
	`, ownerID, key, category, confidence, occurrences, lastUpdated)
	if err != nil {
		return wrapStoreErr(fmt.Errorf("failed to save mapping: %w", err))
	}
	return nil
}

// DeleteMappings removes all vendor and pattern mappings of an owner.
func (s *SQLiteStorage) DeleteMappings(ctx context.Context, ownerID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(ownerID, "ownerID"); err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vendor_mappings WHERE owner_id = ?`, ownerID); err != nil {
			return fmt.Errorf("failed to delete vendor mappings: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pattern_mappings WHERE owner_id = ?`, ownerID); err != nil {
			return fmt.Errorf("failed to delete pattern mappings: %w", err)
		}
		return nil
	})
}
