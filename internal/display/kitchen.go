package display

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hammamikhairi/hotpot/internal/engine"
)

const cellWidth = 24

func (m model) paneTitle(p pane, label string, n int) string {
	title := fmt.Sprintf("%s (%d)", label, n)
	if m.focus == p {
		return paneTitleStyle.Render("▸ " + title)
	}
	return paneTitleDimStyle.Render("  " + title)
}

func (m model) renderPlate() string {
	var b strings.Builder
	b.WriteString(m.paneTitle(panePlate, "🍽  Plate", len(m.view.Plate)))
	b.WriteByte('\n')
	if len(m.view.Plate) == 0 {
		b.WriteString(secondaryStyle.Render("    empty. press a to add something"))
		return b.String()
	}
	for i, it := range m.view.Plate {
		mark := "  "
		if m.focus == panePlate && i == m.cursor[panePlate] {
			mark = cursorStyle.Render("> ")
		}
		line := fmt.Sprintf("%s%d. %s %s", mark, i+1, it.Ingredient.Label(),
			secondaryStyle.Render(fmtSeconds(it.Ingredient.Seconds)))
		if m.ctrl.PendingPlate(it.Entry.UID) {
			line += " " + armedStyle.Render("…")
		}
		b.WriteString(line)
		if i < len(m.view.Plate)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (m model) renderPot() string {
	var b strings.Builder
	b.WriteString(m.paneTitle(panePot, "🍲 Pot", len(m.view.Pot)))
	b.WriteByte('\n')
	if len(m.view.Pot) == 0 {
		b.WriteString(secondaryStyle.Render("    nothing cooking"))
		return b.String()
	}
	if m.view.Grid() {
		b.WriteString(m.renderPotGrid())
		return b.String()
	}
	for i, it := range m.view.Pot {
		mark := "  "
		if m.focus == panePot && i == m.cursor[panePot] {
			mark = cursorStyle.Render("> ")
		}
		fmt.Fprintf(&b, "%s%d. %-18s %s %s", mark, i+1, it.Ingredient.Label(), m.bar.ViewAs(it.Progress), potStatus(it))
		if i < len(m.view.Pot)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// renderPotGrid lays pot items out as bordered cells, as many per row
// as the terminal fits.
func (m model) renderPotGrid() string {
	perRow := 3
	if m.width > 0 {
		perRow = m.width / (cellWidth + 4)
	}
	if perRow < 1 {
		perRow = 1
	}

	var rows []string
	var row []string
	for i, it := range m.view.Pot {
		style := cellStyle
		switch {
		case m.focus == panePot && i == m.cursor[panePot]:
			style = cellSelectedStyle
		case it.Entry.Done:
			style = cellReadyStyle
		}
		bar := m.bar
		bar.Width = cellWidth - 2
		body := fmt.Sprintf("%d. %s\n%s\n%s", i+1, it.Ingredient.Label(), bar.ViewAs(it.Progress), potStatus(it))
		row = append(row, style.Width(cellWidth).Render(body))
		if len(row) == perRow {
			rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func potStatus(it engine.PotItem) string {
	if it.Entry.Done {
		return readyStyle.Render("READY")
	}
	return timeStyle.Render(fmtSeconds(it.RemainingSeconds()))
}
