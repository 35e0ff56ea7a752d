package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Alignment represents column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

// Column defines one column of a Table.
type Column struct {
	Header string
	Align  Alignment
	Style  lipgloss.Style
}

// Table renders rows with a muted header rule and no outer border.
type Table struct {
	columns []Column
	rows    [][]string
}

// NewTable creates a table with the given columns.
func NewTable(columns ...Column) *Table {
	return &Table{columns: columns}
}

// AddRow adds a row; missing cells are left blank.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.columns))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Render returns the table as a string, or "" when there are no rows.
func (t *Table) Render() string {
	if len(t.rows) == 0 {
		return ""
	}
	headers := make([]string, len(t.columns))
	for i, c := range t.columns {
		headers[i] = c.Header
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		BorderStyle(Muted).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col >= len(t.columns) {
				return lipgloss.NewStyle()
			}
			def := t.columns[col]
			style := def.Style
			if row == table.HeaderRow {
				style = lipgloss.NewStyle().Bold(true)
			}
			if def.Align == AlignRight {
				style = style.Align(lipgloss.Right)
			}
			if col < len(t.columns)-1 {
				style = style.PaddingRight(2)
			}
			return style
		}).
		Rows(t.rows...)

	return tbl.Render()
}
