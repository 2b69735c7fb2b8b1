package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// The table contract shared by every pipeline stage: fixed columns, one row
// per dish, a mandatory TOTAL row, decimal-point fractions only.
const (
	tableHeader    = "|Name|Weight, g|Kcal|Protein, g|Fat, g|Carbs, g|"
	tableSeparator = "|----|---------|----|----------|------|--------|"
	totalRowName   = "TOTAL"
)

var ErrNotATable = errors.New("text is not a nutrition table")

// TableRow is one line of a nutrition table.
type TableRow struct {
	Name     string  `json:"name"`
	Grams    float64 `json:"grams"`
	Kcal     float64 `json:"kcal"`
	Proteins float64 `json:"proteins"`
	Fats     float64 `json:"fats"`
	Carbs    float64 `json:"carbs"`
}

// Table is the parsed form of the Markdown nutrition table.
type Table struct {
	Rows  []TableRow `json:"rows"`
	Total TableRow   `json:"total"`
}

// ParseTable parses the Markdown table the model produces. The raw text stays
// the wire format; this gives callers a structured view of it.
func ParseTable(text string) (*Table, error) {
	var (
		table     Table
		sawHeader bool
		sawTotal  bool
	)

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		cells := splitRow(line)
		if len(cells) == 0 {
			continue
		}
		if isSeparatorRow(cells) {
			continue
		}
		if !sawHeader {
			// First non-separator row must be the header.
			if !strings.EqualFold(cells[0], "Name") {
				return nil, ErrNotATable
			}
			sawHeader = true
			continue
		}

		row, err := parseRow(cells)
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(row.Name, totalRowName) {
			table.Total = row
			sawTotal = true
			continue
		}
		table.Rows = append(table.Rows, row)
	}

	if !sawHeader || len(table.Rows) == 0 {
		return nil, ErrNotATable
	}
	if !sawTotal {
		return nil, fmt.Errorf("table has no %s row", totalRowName)
	}
	return &table, nil
}

// Markdown renders the table back into its wire format.
func (t *Table) Markdown() string {
	var b strings.Builder
	b.WriteString(tableHeader)
	b.WriteByte('\n')
	b.WriteString(tableSeparator)
	for _, row := range t.Rows {
		b.WriteByte('\n')
		writeRow(&b, row)
	}
	b.WriteByte('\n')
	total := t.Total
	total.Name = totalRowName
	writeRow(&b, total)
	return b.String()
}

func writeRow(b *strings.Builder, row TableRow) {
	fmt.Fprintf(b, "|%s|%s|%s|%s|%s|%s|",
		row.Name,
		formatCell(row.Grams),
		formatCell(row.Kcal),
		formatCell(row.Proteins),
		formatCell(row.Fats),
		formatCell(row.Carbs),
	)
}

func formatCell(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	var cells []string
	for _, cell := range strings.Split(line, "|") {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-:") != "" {
			return false
		}
	}
	return true
}

func parseRow(cells []string) (TableRow, error) {
	if len(cells) != 6 {
		return TableRow{}, fmt.Errorf("expected 6 columns, got %d: %v", len(cells), cells)
	}

	values := make([]float64, 5)
	for i, cell := range cells[1:] {
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return TableRow{}, fmt.Errorf("column %d of row %q is not numeric: %w", i+2, cells[0], err)
		}
		values[i] = v
	}

	return TableRow{
		Name:     cells[0],
		Grams:    values[0],
		Kcal:     values[1],
		Proteins: values[2],
		Fats:     values[3],
		Carbs:    values[4],
	}, nil
}
