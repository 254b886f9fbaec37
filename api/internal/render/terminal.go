// Package render draws display blocks for the terminal and for Telegram.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"jewelry-identifier/api/internal/format"
)

// Terminal styles. Rendering with the zero renderer profile strips colors, which tests rely on.
var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1F2937")).MarginTop(1)
	labelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#374151")).Width(24).PaddingLeft(2)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4B5563"))
	bulletStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")).PaddingLeft(2)
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563EB"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B91C1C"))
)

// Terminal renders blocks under an optional title, one block per line.
func Terminal(title string, blocks []format.Block) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(titleStyle.Render(title))
		b.WriteString("\n")
	}
	for i, blk := range blocks {
		switch blk.Kind {
		case format.SectionHeader:
			h := headerStyle
			if i == 0 {
				h = h.MarginTop(0)
			}
			b.WriteString(h.Render(blk.Text))
		case format.LabeledField:
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
				labelStyle.Render(blk.Label+":"),
				valueStyle.Render(blk.Value)))
		case format.BulletItem:
			b.WriteString(bulletStyle.Render("•") + " " + valueStyle.Render(blk.Text))
		default:
			b.WriteString(valueStyle.Render(blk.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func Error(msg string) string {
	return errorStyle.Render(msg)
}
