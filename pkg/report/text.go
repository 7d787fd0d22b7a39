package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	shareBarWidth = 10
	shareBarFull  = "█"
	shareBarEmpty = "░"
)

// TextOptions controls terminal rendering
type TextOptions struct {
	// NoColor renders without ANSI styling
	NoColor bool
	// Width caps the table row length; 0 means no limit
	Width int
}

var (
	textHeaderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF00FF")).
			Padding(0, 1)

	plainHeaderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				Padding(0, 1)
)

// RenderText renders s for a terminal: a summary box followed by one table row per segment
func RenderText(s Summary, opts TextOptions) string {
	total := s.ExecutionTimeMs
	if total <= 0 {
		total = 1
	}

	header := fmt.Sprintf("Time: %s   Memory: %s   Checkpoints: %d   Goroutines: %d",
		formatMs(total), FormatBytes(s.PeakMemory), s.CheckpointCount, s.Goroutines)

	style := textHeaderStyle
	if opts.NoColor {
		style = plainHeaderStyle
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	if opts.NoColor {
		tbl.Style().Color = table.ColorOptions{}
		tbl.Style().Format.Header = text.FormatDefault
	}
	if opts.Width > 0 {
		tbl.SetAllowedRowLength(opts.Width)
	}

	tbl.AppendHeader(table.Row{"#", "Checkpoint", "Time", "Share", "Memory", "Location"})
	for i, row := range detailRows(s.Checkpoints, total) {
		location := ""
		if row.Line > 0 {
			location = fmt.Sprintf("%s:%d", row.File, row.Line)
		}
		tbl.AppendRow(table.Row{
			i + 1,
			row.Label,
			formatMs(row.DurationMs),
			fmt.Sprintf("%s %3d%%", shareBar(row.Percent), row.Percent),
			row.Memory,
			location,
		})
	}
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})

	return lipgloss.JoinVertical(lipgloss.Left, style.Render(header), tbl.Render()) + "\n"
}

// shareBar draws percent as a fixed-width bar, clamped to 0..100
func shareBar(percent int64) string {
	filled := int(min(max(percent, 0), 100)) * shareBarWidth / 100
	return strings.Repeat(shareBarFull, filled) + strings.Repeat(shareBarEmpty, shareBarWidth-filled)
}
