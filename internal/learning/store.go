// Package learning keeps the vendor and description mappings learned from
// review decisions and turns them into category suggestions.
package learning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/service"
)

// Confidence constants for learned mappings.
const (
	VendorBaseline       = 80
	VendorReinforcement  = 5
	PatternApproval      = 50
	PatternCorrection    = 55
	PatternReinforcement = 5
	PatternCorrectionInc = 10
	MaxConfidence        = 100
)

// Options tunes lookups and suggestion thresholds.
type Options struct {
	VendorMinConfidence  int
	PatternMinConfidence int
	SimilarityMinMatches int
	// HistoryLimit caps how many recent transactions Suggest compares against.
	HistoryLimit int
	CacheTTL     time.Duration
	Retry        common.RetryOptions
}

// DefaultOptions returns the documented thresholds.
func DefaultOptions() Options {
	return Options{
		VendorMinConfidence:  70,
		PatternMinConfidence: 60,
		SimilarityMinMatches: 3,
		HistoryLimit:         1000,
		CacheTTL:             5 * time.Minute,
		Retry:                common.RetryOptions{MaxAttempts: 3},
	}
}

// Store is the learning store. It is safe for concurrent use.
type Store struct {
	mappings service.MappingStore
	txns     service.TransactionStore
	cache    *mappingCache
	opts     Options
	// writeMu serializes read-modify-write updates of mappings.
	writeMu sync.Mutex
}

// NewStore creates a learning store over persisted mappings and history.
func NewStore(mappings service.MappingStore, txns service.TransactionStore, opts Options) *Store {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &Store{
		mappings: mappings,
		txns:     txns,
		opts:     opts,
		cache:    newMappingCache(opts.CacheTTL),
	}
}

// VendorMapping returns the mapping learned for vendor, or nil when there is none.
func (s *Store) VendorMapping(ctx context.Context, ownerID, vendor string) (*model.VendorMapping, error) {
	key := VendorKey(vendor)
	if ownerID == "" || key == "" {
		return nil, nil
	}
	if m, ok := s.cache.getVendor(ownerID, key); ok {
		return &m, nil
	}
	gen := s.cache.generation(ownerID)
	m, err := s.mappings.GetVendorMapping(ctx, ownerID, key)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor mapping: %w", err)
	}
	s.cache.putVendor(*m, gen)
	return m, nil
}

// PatternMapping returns the mapping learned for a description, or nil.
func (s *Store) PatternMapping(ctx context.Context, ownerID, description string) (*model.PatternMapping, error) {
	key := PatternKey(description)
	if ownerID == "" || key == "" {
		return nil, nil
	}
	if m, ok := s.cache.getPattern(ownerID, key); ok {
		return &m, nil
	}
	gen := s.cache.generation(ownerID)
	m, err := s.mappings.GetPatternMapping(ctx, ownerID, key)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pattern mapping: %w", err)
	}
	s.cache.putPattern(*m, gen)
	return m, nil
}

// LearnFromApproval reinforces the mappings for an approved categorization.
func (s *Store) LearnFromApproval(ctx context.Context, ownerID string, category model.Category, description, vendor string) error {
	if err := validateLearn(ownerID, category); err != nil {
		return err
	}
	if category == model.CategoryUncategorized {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer s.cache.invalidateOwner(ownerID)

	if key := VendorKey(vendor); key != "" {
		err := s.updateVendor(ctx, ownerID, key, func(m *model.VendorMapping, exists bool) {
			switch {
			case !exists || m.Category != category:
				*m = model.VendorMapping{Category: category, Confidence: VendorBaseline, Occurrences: 1}
			default:
				m.Confidence = min(MaxConfidence, m.Confidence+VendorReinforcement)
				m.Occurrences++
			}
		})
		if err != nil {
			return err
		}
	}

	if key := PatternKey(description); key != "" {
		err := s.updatePattern(ctx, ownerID, key, func(m *model.PatternMapping, exists bool) {
			switch {
			case !exists || m.Category != category:
				*m = model.PatternMapping{Category: category, Confidence: PatternApproval, Occurrences: 1}
			default:
				m.Confidence = min(MaxConfidence, m.Confidence+PatternReinforcement)
				m.Occurrences++
			}
		})
		if err != nil {
			return err
		}
	}

	slog.Debug("Learned from approval", "owner", ownerID, "category", category, "vendor", vendor)
	return nil
}

// LearnFromCorrection resets the mappings to the corrected category. A
// correction that agrees with an existing mapping strengthens it instead.
func (s *Store) LearnFromCorrection(ctx context.Context, ownerID string, oldCategory, newCategory model.Category, description, vendor string) error {
	if err := validateLearn(ownerID, newCategory); err != nil {
		return err
	}
	if oldCategory != "" && !oldCategory.Valid() {
		return common.Invalid("unknown previous category %q", oldCategory)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	defer s.cache.invalidateOwner(ownerID)

	if key := VendorKey(vendor); key != "" {
		err := s.updateVendor(ctx, ownerID, key, func(m *model.VendorMapping, exists bool) {
			switch {
			case !exists || m.Category != newCategory:
				*m = model.VendorMapping{Category: newCategory, Confidence: VendorBaseline, Occurrences: 1}
			default:
				m.Confidence = min(MaxConfidence, m.Confidence+VendorReinforcement)
				m.Occurrences++
			}
		})
		if err != nil {
			return err
		}
	}

	if key := PatternKey(description); key != "" {
		err := s.updatePattern(ctx, ownerID, key, func(m *model.PatternMapping, exists bool) {
			switch {
			case !exists || m.Category != newCategory:
				*m = model.PatternMapping{Category: newCategory, Confidence: PatternCorrection, Occurrences: 1}
			default:
				m.Confidence = min(MaxConfidence, m.Confidence+PatternCorrectionInc)
				m.Occurrences++
			}
		})
		if err != nil {
			return err
		}
	}

	slog.Debug("Learned from correction",
		"owner", ownerID,
		"old_category", oldCategory,
		"new_category", newCategory,
		"vendor", vendor)
	return nil
}

func (s *Store) updateVendor(ctx context.Context, ownerID, key string, apply func(*model.VendorMapping, bool)) error {
	return common.WithRetry(ctx, func() error {
		m, err := s.mappings.GetVendorMapping(ctx, ownerID, key)
		exists := err == nil
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if !exists {
			m = &model.VendorMapping{}
		}
		apply(m, exists)
		m.OwnerID, m.Key = ownerID, key
		if err := s.mappings.SaveVendorMapping(ctx, m); err != nil {
			return fmt.Errorf("failed to save vendor mapping %q: %w", key, err)
		}
		return nil
	}, s.opts.Retry)
}

func (s *Store) updatePattern(ctx context.Context, ownerID, key string, apply func(*model.PatternMapping, bool)) error {
	return common.WithRetry(ctx, func() error {
		m, err := s.mappings.GetPatternMapping(ctx, ownerID, key)
		exists := err == nil
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}
		if !exists {
			m = &model.PatternMapping{}
		}
		apply(m, exists)
		m.OwnerID, m.Key = ownerID, key
		if err := s.mappings.SavePatternMapping(ctx, m); err != nil {
			return fmt.Errorf("failed to save pattern mapping %q: %w", key, err)
		}
		return nil
	}, s.opts.Retry)
}

// Suggest returns the first confident suggestion from the vendor mapping, the
// pattern mapping and then the owner's history. It returns nil when nothing
// qualifies.
func (s *Store) Suggest(ctx context.Context, ownerID, description, vendor string, amount decimal.Decimal) (*model.Suggestion, error) {
	if ownerID == "" {
		return nil, common.Invalid("owner id is required")
	}
	if sg, err := s.suggestFromMappings(ctx, ownerID, description, vendor); sg != nil || err != nil {
		return sg, err
	}

	history, err := s.History(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	probe := &model.Transaction{OwnerID: ownerID, Description: description, Amount: amount}
	if sg, ok := SimilarCategory(probe, history, s.opts.SimilarityMinMatches); ok {
		return &sg, nil
	}
	return nil, nil
}

func (s *Store) suggestFromMappings(ctx context.Context, ownerID, description, vendor string) (*model.Suggestion, error) {
	vm, err := s.VendorMapping(ctx, ownerID, vendor)
	if err != nil {
		return nil, err
	}
	if vm != nil && vm.Confidence >= s.opts.VendorMinConfidence {
		return &model.Suggestion{
			Category:   vm.Category,
			Confidence: vm.Confidence,
			Source:     model.SourceVendorMapping,
			Reason:     fmt.Sprintf("Transactions from %s are usually categorized as %s", vendor, vm.Category),
		}, nil
	}

	pm, err := s.PatternMapping(ctx, ownerID, description)
	if err != nil {
		return nil, err
	}
	if pm != nil && pm.Confidence >= s.opts.PatternMinConfidence {
		return &model.Suggestion{
			Category:   pm.Category,
			Confidence: pm.Confidence,
			Source:     model.SourcePatternMapping,
			Reason:     fmt.Sprintf("Descriptions like %q are usually categorized as %s", pm.Key, pm.Category),
		}, nil
	}
	return nil, nil
}

// History returns the owner's most recent transactions, capped by HistoryLimit.
func (s *Store) History(ctx context.Context, ownerID string) ([]model.Transaction, error) {
	history, err := s.txns.ListTransactions(ctx, service.TransactionFilter{
		OwnerID:    ownerID,
		Limit:      s.opts.HistoryLimit,
		MostRecent: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return history, nil
}

// RebuildStats summarizes a Rebuild run.
type RebuildStats struct {
	Replayed    int
	Corrections int
	Vendors     int
}

// Rebuild discards the owner's mappings and regenerates them by replaying
// every reviewed transaction in date order.
func (s *Store) Rebuild(ctx context.Context, ownerID string) (RebuildStats, error) {
	var stats RebuildStats
	if ownerID == "" {
		return stats, common.Invalid("owner id is required")
	}

	txns, err := s.txns.ListTransactions(ctx, service.TransactionFilter{OwnerID: ownerID})
	if err != nil {
		return stats, fmt.Errorf("failed to load transactions: %w", err)
	}

	s.writeMu.Lock()
	err = s.mappings.DeleteMappings(ctx, ownerID)
	s.cache.invalidateOwner(ownerID)
	s.writeMu.Unlock()
	if err != nil {
		return stats, fmt.Errorf("failed to clear mappings: %w", err)
	}

	for i := range txns {
		t := &txns[i]
		if !t.Category.Valid() {
			continue
		}
		switch t.ReviewStatus {
		case model.ReviewApproved, model.ReviewMatched:
			err = s.LearnFromApproval(ctx, ownerID, t.Category, t.Description, t.VendorName)
		case model.ReviewRecategorized:
			err = s.LearnFromCorrection(ctx, ownerID, "", t.Category, t.Description, t.VendorName)
			stats.Corrections++
		default:
			continue
		}
		if err != nil {
			return stats, fmt.Errorf("failed to replay transaction %s: %w", t.ID, err)
		}
		stats.Replayed++
	}

	vendors, err := s.mappings.ListVendorMappings(ctx, ownerID)
	if err != nil {
		return stats, fmt.Errorf("failed to count vendor mappings: %w", err)
	}
	stats.Vendors = len(vendors)

	slog.Info("Rebuilt learned mappings",
		"owner", ownerID,
		"replayed", stats.Replayed,
		"vendors", stats.Vendors)
	return stats, nil
}

func validateLearn(ownerID string, category model.Category) error {
	if ownerID == "" {
		return common.Invalid("owner id is required")
	}
	if !category.Valid() {
		return common.Invalid("unknown category %q", category)
	}
	return nil
}
