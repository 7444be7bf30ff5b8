package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-books-must-balance/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 80, cfg.Classification.AutoApproveThreshold)
	assert.Equal(t, 70, cfg.Classification.VendorMinConfidence)
	assert.Equal(t, 60, cfg.Classification.PatternMinConfidence)
	assert.Equal(t, 3, cfg.Classification.SimilarityMinMatches)
	assert.InDelta(t, 2.0, cfg.Classification.SpikeMultiplier, 0.0001)
	assert.Equal(t, "0.01", cfg.Reconciliation.AmountTolerance.String())
	assert.Equal(t, "5", cfg.Reconciliation.ThreeWayDiscrepancyPct.String())
	assert.True(t, cfg.Import.Dedup)
	assert.NotContains(t, cfg.Database.Path, "$HOME")
}

func TestLoad_FromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
classification:
  auto_approve_threshold: 90
reconciliation:
  tie_epsilon: "0.50"
database:
  path: /tmp/books-test.db
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Classification.AutoApproveThreshold)
	assert.Equal(t, "0.5", cfg.Reconciliation.TieEpsilon.String())
	assert.Equal(t, "/tmp/books-test.db", cfg.Database.Path)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "threshold above 100", key: "classification.auto_approve_threshold", value: 101},
		{name: "non numeric tolerance", key: "reconciliation.amount_tolerance", value: "lots"},
		{name: "negative epsilon", key: "reconciliation.tie_epsilon", value: "-1"},
		{name: "spike multiplier too small", key: "classification.spike_multiplier", value: 1.0},
		{name: "zero history", key: "classification.history_limit", value: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	t.Setenv("BOOKS_TEST_DIR", "/data")
	assert.Equal(t, filepath.Join(home, "books.db"), ExpandPath("~/books.db"))
	assert.Equal(t, "/data/books.db", ExpandPath("$BOOKS_TEST_DIR/books.db"))
	assert.Equal(t, "", ExpandPath(""))
}
