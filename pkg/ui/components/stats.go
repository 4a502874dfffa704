// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds monitor statistics for display.
type Stats struct {
	Rounds       int64
	QuoteErrors  int64
	BestProtocol string
	AvgSpreadBps float64
	Errors       int64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	best := s.stats.BestProtocol
	if best == "" {
		best = "-"
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Rounds: %s  │  Leading protocol: %s  │  Avg spread: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Rounds)),
			valueStyle.Render(best),
			valueStyle.Render(fmt.Sprintf("%.1f bps", s.stats.AvgSpreadBps)),
		) +
		fmt.Sprintf("Quote errors: %s  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.QuoteErrors)),
			errorsDisplay,
		)
}
