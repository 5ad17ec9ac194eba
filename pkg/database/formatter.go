package database

import (
	"fmt"
	"relstore/pkg/tuple"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ResultFormatter renders query results as a styled terminal table.
type ResultFormatter struct {
	headerStyle lipgloss.Style
	cellStyle   lipgloss.Style
	borderStyle lipgloss.Style
	footerStyle lipgloss.Style
}

// NewResultFormatter creates a formatter with the default styling.
func NewResultFormatter() *ResultFormatter {
	return &ResultFormatter{
		headerStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		cellStyle:   lipgloss.NewStyle(),
		borderStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8")),
		footerStyle: lipgloss.NewStyle().Faint(true),
	}
}

// FormatTuples renders a batch of tuples under their descriptor as an
// aligned table with a row-count footer.
func (f *ResultFormatter) FormatTuples(td *tuple.TupleDescription, tuples []*tuple.Tuple) string {
	if td == nil {
		return f.footerStyle.Render("no results")
	}

	numFields := td.NumFields()
	columns := make([]string, numFields)
	for i := range columns {
		name, _ := td.GetFieldName(i)
		if name == "" {
			name = fmt.Sprintf("col_%d", i)
		}
		columns[i] = name
	}

	rows := make([][]string, 0, len(tuples))
	for _, t := range tuples {
		row := make([]string, numFields)
		for i := range row {
			field, err := t.GetField(i)
			if err != nil || field == nil {
				row[i] = "NULL"
			} else {
				row[i] = field.String()
			}
		}
		rows = append(rows, row)
	}

	widths := columnWidths(columns, rows)

	var b strings.Builder
	b.WriteString(f.renderRow(columns, widths, f.headerStyle))
	b.WriteString("\n")
	b.WriteString(f.borderStyle.Render(separator(widths)))
	b.WriteString("\n")

	for _, row := range rows {
		b.WriteString(f.renderRow(row, widths, f.cellStyle))
		b.WriteString("\n")
	}

	b.WriteString(f.footerStyle.Render(fmt.Sprintf("%d row(s)", len(rows))))
	return b.String()
}

func (f *ResultFormatter) renderRow(cells []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		parts[i] = style.Render(pad(cell, widths[i]))
	}
	return strings.Join(parts, f.borderStyle.Render(" | "))
}

func columnWidths(columns []string, rows [][]string) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		widths[i] = len(col)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}
	return widths
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

func separator(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("-", w)
	}
	return strings.Join(parts, "-+-")
}
