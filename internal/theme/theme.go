// Package theme holds the console styles shared by the argument summary and
// the success banners.
package theme

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Success lipgloss.Style
	Title   lipgloss.Style
	Faint   lipgloss.Style
}

// New returns styles rendering for w. Writers that are not terminals get
// plain text either way; color=false forces it.
func New(w io.Writer, color bool) Theme {
	r := lipgloss.NewRenderer(w)
	if !color {
		return Theme{Success: r.NewStyle(), Title: r.NewStyle(), Faint: r.NewStyle()}
	}
	return Theme{
		Success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		Title:   r.NewStyle().Bold(true),
		Faint:   r.NewStyle().Faint(true),
	}
}

// SuccessLine prefixes msg with the success tag.
func (t Theme) SuccessLine(msg string) string {
	return t.Success.Render("[ SUCCESS ]") + " " + msg
}
