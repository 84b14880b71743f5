package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/itellico/joi-console/internal/view"
)

var (
	styleHeader   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#7AA2F7"})
	styleBadge    = lipgloss.NewStyle().Faint(true)
	styleFaint    = lipgloss.NewStyle().Faint(true)
	styleBullet   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#565F89"})
	styleDone     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#9ECE6A"})
	styleDeadline = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F7768E"})
	styleTag      = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#BB9AF7"})
)

func printSections(w io.Writer, sections []view.Section) {
	for i, sec := range sections {
		if sec.Labeled {
			header := sec.Title
			if sec.TaskCount > 0 {
				header += " " + styleBadge.Render(fmt.Sprintf("(%d)", sec.TaskCount))
			}
			fmt.Fprintln(w, styleHeader.Render(header))
		} else if i > 0 {
			fmt.Fprintln(w)
		}
		for _, t := range sec.Tasks {
			fmt.Fprintln(w, renderTask(t))
		}
		for _, c := range sec.Completed {
			fmt.Fprintf(w, "  %s %s %s\n", styleDone.Render("✓"), c.Title, styleFaint.Render(c.CompletedAt.Format("2006-01-02")))
		}
	}
}
