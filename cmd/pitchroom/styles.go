package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/poiesic/pitchroom/core"
)

var (
	colorMuted   = lipgloss.Color("#6C7086")
	colorSuccess = lipgloss.Color("#A6E3A1")
	colorWarning = lipgloss.Color("#F9E2AF")
	colorError   = lipgloss.Color("#F38BA8")
	colorAccent  = lipgloss.Color("#7C3AED")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle  = lipgloss.NewStyle().Foreground(colorError)
)

func statusStyle(s core.DocumentStatus) lipgloss.Style {
	switch s {
	case core.StatusCompleted:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case core.StatusFailed:
		return lipgloss.NewStyle().Foreground(colorError)
	default:
		return lipgloss.NewStyle().Foreground(colorWarning)
	}
}

func renderStatus(s core.DocumentStatus) string {
	return statusStyle(s).Render(s.String())
}

// documentsTable renders one row per document.
func documentsTable(docs []*core.Document) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		Headers("ID", "NAME", "STATUS", "TOKENS", "PAGES", "BYTES", "CHECKSUM").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	for _, d := range docs {
		t.Row(
			strconv.FormatUint(uint64(d.Id), 10),
			d.OriginalName,
			renderStatus(d.Status),
			strconv.FormatInt(d.TokenCount, 10),
			strconv.Itoa(d.PageEstimate),
			strconv.FormatInt(d.SizeBytes, 10),
			fmt.Sprintf("%016x", uint64(d.Checksum)),
		)
	}
	return t.String()
}
