// Package cli renders books command output for the terminal.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Ledger palette.
var (
	inkColor    = lipgloss.Color("#5B8DEF")
	creditColor = lipgloss.Color("#4ECDC4")
	pendColor   = lipgloss.Color("#FFE66D")
	debitColor  = lipgloss.Color("#FF6B6B")
	noteColor   = lipgloss.Color("#95E1D3")
	ruleColor   = lipgloss.Color("#333333")
	dimColor    = lipgloss.Color("#666666")
)

var (
	// WarningStyle highlights rows and counts that need attention.
	WarningStyle = lipgloss.NewStyle().Foreground(pendColor)
	// SubtleStyle is used for empty states and secondary text.
	SubtleStyle = lipgloss.NewStyle().Foreground(dimColor)

	// TableHeaderStyle underlines the header row of a table.
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(ruleColor)
	// TableCellStyle pads each table cell.
	TableCellStyle = lipgloss.NewStyle().PaddingRight(2)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(inkColor)
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ruleColor).
			Padding(1, 2)
)

type marker struct {
	icon  string
	style lipgloss.Style
}

func (m marker) render(message string) string {
	return m.style.Render(m.icon + " " + message)
}

var (
	okMarker   = marker{"✓", lipgloss.NewStyle().Foreground(creditColor)}
	failMarker = marker{"✗", lipgloss.NewStyle().Foreground(debitColor)}
	warnMarker = marker{"⚠️", WarningStyle}
	infoMarker = marker{"ℹ️", lipgloss.NewStyle().Foreground(noteColor)}
)

// FormatSuccess prefixes message with a check mark.
func FormatSuccess(message string) string { return okMarker.render(message) }

// FormatError prefixes message with a cross.
func FormatError(message string) string { return failMarker.render(message) }

// FormatWarning prefixes message with a warning sign.
func FormatWarning(message string) string { return warnMarker.render(message) }

// FormatInfo prefixes message with an info sign.
func FormatInfo(message string) string { return infoMarker.render(message) }

// RenderBox draws content inside a rounded border under a ledger heading.
func RenderBox(title, content string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, headingStyle.Render("📒 "+title), content))
}
