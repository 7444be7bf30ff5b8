// Package statement turns raw bank statements into canonical transactions.
//
// Parsing runs in three stages. Normalize splits the input into raw rows,
// ResolveColumns maps the raw labels to semantic fields and Build converts
// each resolved row into a transaction. Bad input never aborts a statement:
// malformed lines come back as LineErrors and non-transaction rows as
// SkippedRows.
package statement

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/the-books-must-balance/internal/common"
	"github.com/Veraticus/the-books-must-balance/internal/model"
)

// Format is the caller's hint about the statement layout.
type Format string

// Supported statement formats.
const (
	FormatAuto      Format = "auto"
	FormatDelimited Format = "delimited"
	FormatDocument  Format = "document"
	FormatOFX       Format = "ofx"
)

// ParseFormat validates a format hint. An empty hint means auto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatDelimited, FormatDocument, FormatOFX:
		return f, nil
	case "csv", "tsv":
		return FormatDelimited, nil
	case "text", "txt", "pdf":
		return FormatDocument, nil
	case "qfx":
		return FormatOFX, nil
	default:
		return "", fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, s)
	}
}

// Row is one raw statement row keyed by header label, or by position
// ("0", "1", ...) when the statement has no header.
type Row struct {
	Fields map[string]string
	// Line is the 1-based source line.
	Line int
}

// Get returns the trimmed value of a label, or "" for an unresolved label.
func (r Row) Get(label string) string {
	if label == "" {
		return ""
	}
	return strings.TrimSpace(r.Fields[label])
}

// Table is the normalized form of a statement.
type Table struct {
	Format     Format
	Headers    []string
	Rows       []Row
	Positional bool
}

// LineError records a line that could not be parsed.
type LineError struct {
	Reason string
	Line   int
}

// SkipReason explains why a row produced no transaction.
type SkipReason string

// Skip reasons.
const (
	SkipUnparseableDate   SkipReason = "unparseable_date"
	SkipUnparseableAmount SkipReason = "unparseable_amount"
	SkipSummaryRow        SkipReason = "summary_row"
	SkipZeroAmount        SkipReason = "zero_amount"
)

// SkippedRow is a row the builder dropped.
type SkippedRow struct {
	Reason SkipReason
	Text   string
	Line   int
}

// Result is the outcome of parsing one statement.
type Result struct {
	Format       Format
	Mapping      Mapping
	Transactions []model.Transaction
	SkippedRows  []SkippedRow
	Errors       []LineError
	Skipped      int
}

// Parse runs the full normalize, resolve and build pipeline. Transactions
// carry date, amount, direction, description, vendor name and source line;
// identity and ownership are assigned by the caller.
func Parse(data []byte, hint Format) Result {
	table, errs := Normalize(data, hint)
	mapping := ResolveColumns(table)
	txns, skipped := Build(table, mapping)

	slog.Debug("Parsed statement",
		"format", table.Format,
		"rows", len(table.Rows),
		"transactions", len(txns),
		"skipped", len(skipped),
		"errors", len(errs))

	return Result{
		Format:       table.Format,
		Mapping:      mapping,
		Transactions: txns,
		SkippedRows:  skipped,
		Skipped:      len(skipped),
		Errors:       errs,
	}
}
