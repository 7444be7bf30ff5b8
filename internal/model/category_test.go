package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	tests := []struct {
		input   string
		want    Category
		wantErr bool
	}{
		{input: "Rent", want: CategoryRent},
		{input: "  software ", want: CategorySoftware},
		{input: "repairs & maintenance", want: CategoryRepairsMaintenance},
		{input: "Groceries", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCategory(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCategoryTable(t *testing.T) {
	for _, c := range AllCategories() {
		assert.True(t, c.Valid(), "%s should be valid", c)
		info := c.Info()
		if info.Recurring {
			assert.NotEqual(t, FrequencyNone, info.DefaultFrequency, "%s recurring without frequency", c)
		}
	}
	assert.True(t, CategorySalaries.IsRecurring())
	assert.False(t, CategoryEquipment.IsRecurring())
	assert.False(t, Category("bogus").Valid())
	assert.Equal(t, CategoryUncategorized, Category("bogus").Info().Name)
}
