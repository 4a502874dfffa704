// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// QuoteRow represents one protocol's quote in the current round.
type QuoteRow struct {
	Protocol  string
	AmountOut decimal.Decimal
	Price     decimal.Decimal
	Err       string
	Best      bool
}

// QuotesComponent renders the per-protocol quote table for the latest round.
type QuotesComponent struct {
	rows      []QuoteRow
	pair      string
	amountIn  decimal.Decimal
	spreadBps decimal.Decimal
}

// NewQuotesComponent creates a new quotes component.
func NewQuotesComponent() *QuotesComponent {
	return &QuotesComponent{
		rows: make([]QuoteRow, 0),
	}
}

// Update replaces the table with a new round.
func (q *QuotesComponent) Update(pair string, amountIn decimal.Decimal, rows []QuoteRow, spreadBps decimal.Decimal) {
	q.pair = pair
	q.amountIn = amountIn
	q.rows = rows
	q.spreadBps = spreadBps
}

// View renders the quotes component.
func (q *QuotesComponent) View() string {
	if len(q.rows) == 0 {
		return "Waiting for quote data..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	bestStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var result string
	result = headerStyle.Render(fmt.Sprintf("QUOTES (%s, in: %s)", q.pair, q.amountIn.StringFixed(4)))
	result += "\n\n"

	result += fmt.Sprintf("  %-16s  %16s  %14s\n", "Protocol", "Amount Out", "Price")
	result += dimStyle.Render("  "+strings.Repeat("─", 52)) + "\n"

	for _, row := range q.rows {
		if row.Err != "" {
			result += fmt.Sprintf("  %-16s  %s\n", row.Protocol, errStyle.Render(truncate(row.Err, 34)))
			continue
		}

		line := fmt.Sprintf("  %-16s  %16s  %14s",
			row.Protocol,
			row.AmountOut.StringFixed(6),
			row.Price.StringFixed(6),
		)
		if row.Best {
			result += bestStyle.Render(line) + bestStyle.Render(" ★")
		} else {
			result += line
		}
		result += "\n"
	}

	result += "\n"
	if q.spreadBps.IsPositive() {
		result += dimStyle.Render(fmt.Sprintf("  Cross-protocol spread: %s bps", q.spreadBps.StringFixed(2)))
	} else {
		result += dimStyle.Render("  No cross-protocol spread this round")
	}

	return result
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
