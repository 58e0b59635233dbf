package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/hammamikhairi/hotpot/internal/domain"
	"github.com/hammamikhairi/hotpot/internal/engine"
)

func catalogTable(items []domain.Ingredient) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "ID", "Ingredient", "Time", "Category", "Eaten", "Pinned"})
	for i, it := range items {
		pin := ""
		if it.Pinned {
			pin = "★"
		}
		tw.AppendRow(table.Row{i + 1, it.ID, it.Label(), formatSeconds(it.Seconds), it.Category, it.UsageCount, pin})
	}
	return tw
}

func plateTable(v engine.View) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Ingredient", "Time", "UID"})
	for i, it := range v.Plate {
		tw.AppendRow(table.Row{i + 1, it.Ingredient.Label(), formatSeconds(it.Ingredient.Seconds), shortUID(it.Entry.UID)})
	}
	return tw
}

func potTable(v engine.View) table.Writer {
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "Ingredient", "Progress", "Left"})
	for i, it := range v.Pot {
		left := formatSeconds(it.RemainingSeconds())
		if it.Entry.Done {
			left = "READY"
		}
		tw.AppendRow(table.Row{i + 1, it.Ingredient.Label(), fmt.Sprintf("%3.0f%%", it.Progress*100), left})
	}
	return tw
}

// formatSeconds renders a whole number of seconds as "45s" or "4m" or
// "2m30s".
func formatSeconds(s int) string {
	if s < 60 {
		return fmt.Sprintf("%ds", s)
	}
	m, rest := s/60, s%60
	if rest == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm%ds", m, rest)
}

func shortUID(uid string) string {
	if len(uid) <= 8 {
		return uid
	}
	return uid[:8]
}
