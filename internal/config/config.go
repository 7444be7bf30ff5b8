// Package config loads typed application settings from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/Veraticus/the-books-must-balance/internal/common"
)

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/books/books.db"

// Config holds every tunable used by the pipeline.
type Config struct {
	Logging        LoggingConfig
	Database       DatabaseConfig
	Reconciliation ReconciliationConfig
	Classification ClassificationConfig
	Import         ImportConfig
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string
	Format string
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string
}

// ImportConfig controls statement uploads.
type ImportConfig struct {
	Dedup bool
}

// ClassificationConfig tunes the classifier cascades.
type ClassificationConfig struct {
	// AutoApproveThreshold is the confidence below which a transaction needs review.
	AutoApproveThreshold int
	VendorMinConfidence  int
	PatternMinConfidence int
	// HistoryLimit caps the number of historical transactions consulted per owner.
	HistoryLimit         int
	SimilarityMinMatches int
	WeakDefaultMinCount  int
	TrailingMonths       int
	SpikeMultiplier      float64
	// AmountTolerancePct bounds how far same-vendor amounts may drift and still
	// count towards interval analysis.
	AmountTolerancePct float64
}

// ReconciliationConfig tunes receivable/payable matching.
type ReconciliationConfig struct {
	AmountTolerance         decimal.Decimal
	TieEpsilon              decimal.Decimal
	ThreeWayAmountTolerance decimal.Decimal
	ThreeWayDiscrepancyPct  decimal.Decimal
}

// Default returns the documented defaults.
func Default() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "console"},
		Database: DatabaseConfig{Path: ExpandPath(DefaultDatabasePath)},
		Import:   ImportConfig{Dedup: true},
		Classification: ClassificationConfig{
			AutoApproveThreshold: 80,
			VendorMinConfidence:  70,
			PatternMinConfidence: 60,
			HistoryLimit:         1000,
			SimilarityMinMatches: 3,
			WeakDefaultMinCount:  5,
			TrailingMonths:       3,
			SpikeMultiplier:      2.0,
			AmountTolerancePct:   15,
		},
		Reconciliation: ReconciliationConfig{
			AmountTolerance:         decimal.RequireFromString("0.01"),
			TieEpsilon:              decimal.RequireFromString("0.01"),
			ThreeWayAmountTolerance: decimal.NewFromInt(1),
			ThreeWayDiscrepancyPct:  decimal.NewFromInt(5),
		},
	}
}

// SetDefaults registers defaults on v so that unset keys resolve predictably.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("import.dedup", d.Import.Dedup)
	v.SetDefault("classification.auto_approve_threshold", d.Classification.AutoApproveThreshold)
	v.SetDefault("classification.vendor_min_confidence", d.Classification.VendorMinConfidence)
	v.SetDefault("classification.pattern_min_confidence", d.Classification.PatternMinConfidence)
	v.SetDefault("classification.history_limit", d.Classification.HistoryLimit)
	v.SetDefault("classification.similarity_min_matches", d.Classification.SimilarityMinMatches)
	v.SetDefault("classification.weak_default_min_count", d.Classification.WeakDefaultMinCount)
	v.SetDefault("classification.trailing_months", d.Classification.TrailingMonths)
	v.SetDefault("classification.spike_multiplier", d.Classification.SpikeMultiplier)
	v.SetDefault("classification.amount_tolerance_pct", d.Classification.AmountTolerancePct)
	v.SetDefault("reconciliation.amount_tolerance", d.Reconciliation.AmountTolerance.String())
	v.SetDefault("reconciliation.tie_epsilon", d.Reconciliation.TieEpsilon.String())
	v.SetDefault("reconciliation.three_way_amount_tolerance", d.Reconciliation.ThreeWayAmountTolerance.String())
	v.SetDefault("reconciliation.three_way_discrepancy_pct", d.Reconciliation.ThreeWayDiscrepancyPct.String())
}

// Load reads a Config from v. Missing keys fall back to Default.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	cfg := Config{
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Database: DatabaseConfig{Path: ExpandPath(v.GetString("database.path"))},
		Import:   ImportConfig{Dedup: v.GetBool("import.dedup")},
		Classification: ClassificationConfig{
			AutoApproveThreshold: v.GetInt("classification.auto_approve_threshold"),
			VendorMinConfidence:  v.GetInt("classification.vendor_min_confidence"),
			PatternMinConfidence: v.GetInt("classification.pattern_min_confidence"),
			HistoryLimit:         v.GetInt("classification.history_limit"),
			SimilarityMinMatches: v.GetInt("classification.similarity_min_matches"),
			WeakDefaultMinCount:  v.GetInt("classification.weak_default_min_count"),
			TrailingMonths:       v.GetInt("classification.trailing_months"),
			SpikeMultiplier:      v.GetFloat64("classification.spike_multiplier"),
			AmountTolerancePct:   v.GetFloat64("classification.amount_tolerance_pct"),
		},
	}

	var err error
	rc := &cfg.Reconciliation
	if rc.AmountTolerance, err = decimalKey(v, "reconciliation.amount_tolerance"); err != nil {
		return Config{}, err
	}
	if rc.TieEpsilon, err = decimalKey(v, "reconciliation.tie_epsilon"); err != nil {
		return Config{}, err
	}
	if rc.ThreeWayAmountTolerance, err = decimalKey(v, "reconciliation.three_way_amount_tolerance"); err != nil {
		return Config{}, err
	}
	if rc.ThreeWayDiscrepancyPct, err = decimalKey(v, "reconciliation.three_way_discrepancy_pct"); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decimalKey(v *viper.Viper, key string) (decimal.Decimal, error) {
	raw := v.GetString(key)
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s=%q is not a number", common.ErrInvalidConfig, key, raw)
	}
	return d, nil
}

// Validate rejects settings that would make the cascades meaningless.
func (c Config) Validate() error {
	cc := c.Classification
	for name, val := range map[string]int{
		"classification.auto_approve_threshold": cc.AutoApproveThreshold,
		"classification.vendor_min_confidence":  cc.VendorMinConfidence,
		"classification.pattern_min_confidence": cc.PatternMinConfidence,
	} {
		if val < 0 || val > 100 {
			return fmt.Errorf("%w: %s must be between 0 and 100, got %d", common.ErrInvalidConfig, name, val)
		}
	}
	if cc.HistoryLimit <= 0 {
		return fmt.Errorf("%w: classification.history_limit must be positive", common.ErrInvalidConfig)
	}
	if cc.SimilarityMinMatches < 1 || cc.WeakDefaultMinCount < 1 {
		return fmt.Errorf("%w: classification match counts must be at least 1", common.ErrInvalidConfig)
	}
	if cc.TrailingMonths < 1 {
		return fmt.Errorf("%w: classification.trailing_months must be at least 1", common.ErrInvalidConfig)
	}
	if cc.SpikeMultiplier <= 1 {
		return fmt.Errorf("%w: classification.spike_multiplier must exceed 1", common.ErrInvalidConfig)
	}
	if cc.AmountTolerancePct < 0 || cc.AmountTolerancePct > 100 {
		return fmt.Errorf("%w: classification.amount_tolerance_pct must be between 0 and 100", common.ErrInvalidConfig)
	}

	rc := c.Reconciliation
	if rc.AmountTolerance.IsNegative() || rc.TieEpsilon.IsNegative() || rc.ThreeWayAmountTolerance.IsNegative() {
		return fmt.Errorf("%w: reconciliation tolerances must not be negative", common.ErrInvalidConfig)
	}
	if !rc.ThreeWayDiscrepancyPct.IsPositive() {
		return fmt.Errorf("%w: reconciliation.three_way_discrepancy_pct must be positive", common.ErrInvalidConfig)
	}
	return nil
}

// ExpandPath expands a leading ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return os.ExpandEnv(path)
}
