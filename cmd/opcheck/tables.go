package main

import (
	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).PaddingLeft(1).PaddingRight(1)
	cellStyle   = lipgloss.NewStyle().PaddingLeft(1).PaddingRight(1)
	failStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "9", Dark: "9"}).
			Bold(true).
			PaddingLeft(1).PaddingRight(1)
)

// table renders rows with a header; rows listed in reds are highlighted.
type table struct {
	t     *lgtable.Table
	count int
	reds  map[int]bool
}

func newTable(headers ...string) *table {
	t := &table{reds: make(map[int]bool)}
	t.t = lgtable.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row < 0:
				return headerStyle
			case t.reds[row]:
				return failStyle
			default:
				return cellStyle
			}
		})
	return t
}

func (t *table) Row(isRed bool, row ...string) {
	if isRed {
		t.reds[t.count] = true
	}
	t.t.Row(row...)
	t.count++
}

func (t *table) String() string {
	return t.t.String()
}
