package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/the-books-must-balance/internal/model"
	"github.com/Veraticus/the-books-must-balance/internal/pipeline"
	"github.com/Veraticus/the-books-must-balance/internal/review"
)

// RenderImportReport summarizes a statement import.
func RenderImportReport(r *pipeline.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  • Format: %s\n", r.Format)
	fmt.Fprintf(&b, "  • Parsed: %d\n", r.Parsed)
	fmt.Fprintf(&b, "  • Saved: %d\n", r.Saved)
	fmt.Fprintf(&b, "  • Duplicates skipped: %d\n", r.Duplicates)
	fmt.Fprintf(&b, "  • Rows skipped: %d\n", r.Skipped)
	fmt.Fprintf(&b, "  • Matched to obligations: %d\n", r.Matched)
	fmt.Fprintf(&b, "  • Ambiguous matches: %d\n", r.Ambiguous)
	fmt.Fprintf(&b, "  • Needs review: %d", r.NeedsReview)
	if r.ReconcileFails > 0 {
		fmt.Fprintf(&b, "\n  • %s", WarningStyle.Render(fmt.Sprintf("Reconcile failures: %d", r.ReconcileFails)))
	}
	if len(r.Errors) > 0 {
		b.WriteString("\n\n" + WarningStyle.Render("Line errors:"))
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "\n  line %d: %s", e.Line, e.Reason)
		}
	}
	return RenderBox("Import Complete", b.String())
}

// RenderTransactions renders transactions as a table.
func RenderTransactions(txns []model.Transaction) string {
	if len(txns) == 0 {
		return SubtleStyle.Render("No transactions.")
	}
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		reason := string(t.ReviewReason)
		if reason == "" {
			reason = "-"
		}
		rows = append(rows, []string{
			t.ID,
			t.Date.Format("2006-01-02"),
			t.Amount.StringFixed(2),
			truncate(t.Description, 40),
			string(t.Category),
			fmt.Sprintf("%d", t.Confidence),
			reason,
		})
	}
	return renderTable([]string{"ID", "Date", "Amount", "Description", "Category", "Conf", "Reason"}, rows)
}

// RenderObligations renders receivables or payables as a table.
func RenderObligations(obligations []model.Obligation) string {
	if len(obligations) == 0 {
		return SubtleStyle.Render("No open obligations.")
	}
	rows := make([][]string, 0, len(obligations))
	for _, o := range obligations {
		rows = append(rows, []string{
			o.ID,
			string(o.Kind),
			o.Number,
			o.Counterparty,
			o.TotalAmount.StringFixed(2),
			o.BalanceAmount.StringFixed(2),
			string(o.Status),
		})
	}
	return renderTable([]string{"ID", "Kind", "Number", "Counterparty", "Total", "Balance", "Status"}, rows)
}

// RenderBulkResults reports each item of a bulk review action.
func RenderBulkResults(action string, results []review.ItemResult) string {
	var b strings.Builder
	for _, r := range results {
		if r.OK() {
			b.WriteString(FormatSuccess(r.ID) + "\n")
			continue
		}
		b.WriteString(FormatError(fmt.Sprintf("%s: %s", r.ID, r.Reason())) + "\n")
	}
	ok, failed := review.Summary(results)
	b.WriteString(fmt.Sprintf("%s: %d succeeded, %d failed", action, ok, failed))
	return b.String()
}

// RenderThreeWay reports a three-way match result.
func RenderThreeWay(res *model.ThreeWayResult) string {
	var status string
	switch res.MatchStatus {
	case model.ThreeWayMatched:
		status = FormatSuccess("matched")
	case model.ThreeWayPartial:
		status = FormatWarning("partial")
	default:
		status = FormatError(string(res.MatchStatus))
	}
	if len(res.Discrepancies) == 0 {
		return status
	}

	rows := make([][]string, 0, len(res.Discrepancies))
	for _, d := range res.Discrepancies {
		rows = append(rows, []string{string(d.Kind), d.Item, d.Expected, d.Actual, d.Difference.String()})
	}
	return status + "\n" + renderTable([]string{"Kind", "Item", "Expected", "Actual", "Difference"}, rows)
}

// RenderSuggestion describes a learned category suggestion.
func RenderSuggestion(s *model.Suggestion) string {
	if s == nil {
		return SubtleStyle.Render("No suggestion.")
	}
	return fmt.Sprintf("%s (%d%%, %s)\n%s",
		lipgloss.NewStyle().Bold(true).Render(string(s.Category)),
		s.Confidence, s.Source, SubtleStyle.Render(s.Reason))
}

func renderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	line := func(cells []string, style lipgloss.Style) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = TableCellStyle.Width(widths[i] + 2).Render(c)
		}
		return style.Render(lipgloss.JoinHorizontal(lipgloss.Top, out...))
	}

	lines := []string{line(headers, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, line(row, lipgloss.NewStyle()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
