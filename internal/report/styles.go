package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/tally/internal/metric"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers.
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// Error, Warning, Success, and NotApplicable color-code
	// threshold statuses.
	Error         lipgloss.Style
	Warning       lipgloss.Style
	Success       lipgloss.Style
	NotApplicable lipgloss.Style

	// Suppressed marks justified opt-outs.
	Suppressed lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// SummaryLabel styles summary line labels.
	SummaryLabel lipgloss.Style

	// SummaryValue styles summary line values.
	SummaryValue lipgloss.Style

	// Pass styles OK indicators.
	Pass lipgloss.Style

	// Fail styles FAIL indicators.
	Fail lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Warning:       lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Success:       lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
		NotApplicable: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),

		Suppressed: lipgloss.NewStyle().Foreground(lipgloss.Color("75")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(20),
		SummaryValue: lipgloss.NewStyle(),

		Pass: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// StatusStyle returns the appropriate style for a threshold status.
func (s Styles) StatusStyle(status metric.Status) lipgloss.Style {
	switch status {
	case metric.StatusError:
		return s.Error
	case metric.StatusWarning:
		return s.Warning
	case metric.StatusSuccess:
		return s.Success
	case metric.StatusNotApplicable:
		return s.NotApplicable
	default:
		return s.Muted
	}
}
