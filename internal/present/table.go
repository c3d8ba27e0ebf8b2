package present

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// WriteTable prints a details table for the terminal.
func WriteTable(w io.Writer, t TableDescriptor) error {
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, []string{r.Label, r.Value})
	}
	return writeGrid(w, t.Title, []string{"Field", "Value"}, rows)
}

// WriteChartTable prints a chart's values as a category-by-trace grid.
func WriteChartTable(w io.Writer, c ChartDescriptor) error {
	headers := []string{c.CategoryAxis}
	var cats []string
	cells := map[string]map[string]string{}
	for _, tr := range c.Traces {
		headers = append(headers, tr.Name)
		for i, cat := range tr.Categories {
			if cells[cat] == nil {
				cells[cat] = map[string]string{}
				cats = append(cats, cat)
			}
			cells[cat][tr.Name] = tr.Text[i]
		}
	}
	rows := make([][]string, 0, len(cats))
	for _, cat := range cats {
		row := []string{cat}
		for _, tr := range c.Traces {
			row = append(row, cells[cat][tr.Name])
		}
		rows = append(rows, row)
	}
	return writeGrid(w, c.Title, headers, rows)
}

func writeGrid(w io.Writer, title string, headers []string, rows [][]string) error {
	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	if _, err := fmt.Fprintln(w, titleStyle.Render(title)); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	if _, err := fmt.Fprintln(w, tbl.String()); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
