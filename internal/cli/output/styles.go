package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used for terminal output.
type Styles struct {
	Header1       lipgloss.Style
	Header2       lipgloss.Style
	Bold          lipgloss.Style
	Muted         lipgloss.Style
	Success       lipgloss.Style
	Warning       lipgloss.Style
	Error         lipgloss.Style
	SQL           lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds styles bound to w. Colors are dropped when w is not a
// terminal.
func NewStyles(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)

	return &Styles{
		Header1:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:       r.NewStyle().Bold(true),
		Bold:          r.NewStyle().Bold(true),
		Muted:         r.NewStyle().Foreground(lipgloss.Color("8")),
		Success:       r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:       r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:         r.NewStyle().Foreground(lipgloss.Color("9")),
		SQL:           r.NewStyle().Foreground(lipgloss.Color("14")),
		StatusSuccess: r.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
	}
}
