package classification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-books-must-balance/internal/model"
)

func TestNewKeywordDetector(t *testing.T) {
	tests := []struct {
		name     string
		errMsg   string
		keywords []Keyword
		wantErr  bool
	}{
		{
			name: "valid keywords",
			keywords: []Keyword{
				{Name: "Rent", Kind: KindRecurring, Regex: `\brent\b`, Category: model.CategoryRent, Priority: 10},
			},
		},
		{
			name: "invalid regex",
			keywords: []Keyword{
				{Name: "Bad", Kind: KindOneTime, Regex: `[invalid regex`, Category: model.CategoryEquipment},
			},
			wantErr: true,
			errMsg:  "failed to compile keyword",
		},
		{
			name: "unknown category",
			keywords: []Keyword{
				{Name: "Groceries", Kind: KindOneTime, Regex: `food`, Category: "Groceries"},
			},
			wantErr: true,
			errMsg:  "unknown category",
		},
		{
			name:     "empty keywords",
			keywords: []Keyword{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewKeywordDetector(tt.keywords)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.keywords), d.Count())
		})
	}
}

func TestKeywordDetector_PriorityOrder(t *testing.T) {
	d, err := NewKeywordDetector([]Keyword{
		{Name: "Low", Kind: KindRecurring, Regex: `payroll`, Category: model.CategorySalaries, Priority: 10},
		{Name: "High", Kind: KindRecurring, Regex: `payroll tax`, Category: model.CategoryTaxes, Priority: 100},
	})
	require.NoError(t, err)

	m, ok := d.Match(KindRecurring, "STATE PAYROLL TAX Q1")
	require.True(t, ok)
	assert.Equal(t, "High", m.Name)
	assert.Equal(t, "PAYROLL TAX", m.Text)

	_, ok = d.Match(KindOneTime, "STATE PAYROLL TAX Q1")
	assert.False(t, ok, "kinds are matched separately")
}

func TestDefaultKeywords(t *testing.T) {
	d, err := NewKeywordDetector(DefaultKeywords())
	require.NoError(t, err)

	tests := []struct {
		text     string
		kind     KeywordKind
		category model.Category
		freq     model.Frequency
	}{
		{text: "SALARY TRANSFER", kind: KindRecurring, category: model.CategorySalaries, freq: model.FrequencyMonthly},
		{text: "Office rent April", kind: KindRecurring, category: model.CategoryRent, freq: model.FrequencyMonthly},
		{text: "Notion subscription", kind: KindRecurring, category: model.CategorySoftware, freq: model.FrequencyMonthly},
		{text: "GST payment Q2", kind: KindRecurring, category: model.CategoryTaxes, freq: model.FrequencyQuarterly},
		{text: "Payroll tax deposit", kind: KindRecurring, category: model.CategoryTaxes, freq: model.FrequencyQuarterly},
		{text: "MacBook Pro 14", kind: KindOneTime, category: model.CategoryEquipment},
		{text: "AC repair visit", kind: KindOneTime, category: model.CategoryRepairsMaintenance},
		{text: "Security deposit for office", kind: KindOneTime, category: model.CategoryDeposits},
		{text: "GitHub Inc", kind: KindHint, category: model.CategorySoftware},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			m, ok := d.Match(tt.kind, tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.category, m.Category)
			assert.Equal(t, tt.freq, m.Frequency)
		})
	}

	_, ok := d.Match(KindOneTime, "SALARY TRANSFER")
	assert.False(t, ok)
	_, ok = d.Match(KindRecurring, "Current account interest")
	assert.False(t, ok, "rent must match as a word")
}

func TestCadenceOf(t *testing.T) {
	f, ok := cadenceOf("Figma annual plan")
	require.True(t, ok)
	assert.Equal(t, model.FrequencyYearly, f)

	f, ok = cadenceOf("cleaning weekly")
	require.True(t, ok)
	assert.Equal(t, model.FrequencyWeekly, f)

	_, ok = cadenceOf("Notion")
	assert.False(t, ok)
}
