// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// RoundRow represents a completed quoting round in the history list.
type RoundRow struct {
	Timestamp string
	Pair      string
	Best      string
	AmountOut decimal.Decimal
	SpreadBps decimal.Decimal
	Healthy   int
	Total     int
}

// RoundsComponent renders the round history list, newest first.
type RoundsComponent struct {
	rows    []RoundRow
	maxRows int
	offset  int
	visible int
}

// NewRoundsComponent creates a new rounds component keeping at most maxRows rounds.
func NewRoundsComponent(maxRows int) *RoundsComponent {
	return &RoundsComponent{
		rows:    make([]RoundRow, 0),
		maxRows: maxRows,
		visible: 10,
	}
}

// Add prepends a round to the history.
func (r *RoundsComponent) Add(row RoundRow) {
	r.rows = append([]RoundRow{row}, r.rows...)
	if len(r.rows) > r.maxRows {
		r.rows = r.rows[:r.maxRows]
	}
}

// Clear clears all rounds.
func (r *RoundsComponent) Clear() {
	r.rows = make([]RoundRow, 0)
	r.offset = 0
}

// ScrollUp moves the view one row towards newer rounds.
func (r *RoundsComponent) ScrollUp() {
	if r.offset > 0 {
		r.offset--
	}
}

// ScrollDown moves the view one row towards older rounds.
func (r *RoundsComponent) ScrollDown() {
	if r.offset < len(r.rows)-r.visible {
		r.offset++
	}
}

// View renders the rounds component.
func (r *RoundsComponent) View() string {
	if len(r.rows) == 0 {
		return "No rounds completed yet..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	healthyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	degradedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))

	result := headerStyle.Render(fmt.Sprintf("ROUNDS (last %d)\n", r.maxRows))
	result += "┌──────────┬──────────────┬──────────────┬───────────┬─────────┐\n"
	result += "│   Time   │     Best     │  Amount Out  │  Spread   │ Quotes  │\n"
	result += "├──────────┼──────────────┼──────────────┼───────────┼─────────┤\n"

	end := r.offset + r.visible
	if end > len(r.rows) {
		end = len(r.rows)
	}
	for _, row := range r.rows[r.offset:end] {
		quoteStyle := healthyStyle
		if row.Healthy < row.Total {
			quoteStyle = degradedStyle
		}

		result += fmt.Sprintf("│ %-8s │ %-12s │%13s │%9sbp │ %s │\n",
			row.Timestamp,
			row.Best,
			row.AmountOut.StringFixed(4),
			row.SpreadBps.StringFixed(1),
			quoteStyle.Render(fmt.Sprintf("%3d/%-3d", row.Healthy, row.Total)),
		)
	}

	result += "└──────────┴──────────────┴──────────────┴───────────┴─────────┘"

	return result
}
