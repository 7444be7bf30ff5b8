package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

func TestParseAmount(t *testing.T) {
	d, err := parseAmount(" 1,250.50 ")
	require.NoError(t, err)
	assert.Equal(t, "1250.5", d.String())

	_, err = parseAmount("twelve")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]model.ObligationKind{
		"receivable": model.KindReceivable,
		"Invoice":    model.KindReceivable,
		"payable":    model.KindPayable,
		"bill":       model.KindPayable,
	} {
		got, err := parseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := parseKind("loan")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseDay(t *testing.T) {
	d, err := parseDay("")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = parseDay("2024-03-31")
	require.NoError(t, err)
	assert.Equal(t, 31, d.Day())

	_, err = parseDay("31/03/2024")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestParseLines(t *testing.T) {
	po, err := parsePOLine("widget:10:2.50")
	require.NoError(t, err)
	assert.Equal(t, "widget", po.Item)
	assert.Equal(t, 10, po.Quantity)
	assert.Equal(t, "2.5", po.UnitPrice.String())

	_, err = parsePOLine("widget:ten:2.50")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	rc, err := parseReceiptLine("widget:8")
	require.NoError(t, err)
	assert.Equal(t, 8, rc.Quantity)

	_, err = parseReceiptLine("widget")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRootCommandTree(t *testing.T) {
	want := []string{"import", "classify", "review", "obligations", "owner", "procurement", "threeway", "learning", "migrate", "version"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}

	review, _, err := rootCmd.Find([]string{"review", "match-invoice"})
	require.NoError(t, err)
	assert.NotNil(t, review.Flags().Lookup("target"))
}
