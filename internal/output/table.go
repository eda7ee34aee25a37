package output

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// cell is one table entry. Scored cells are colored by the intervention
// band their value falls in.
type cell struct {
	text   string
	score  float64
	scored bool
}

// Table renders session metrics and calibration baselines as an aligned
// terminal table. Columns whose values are all numeric are right-aligned so
// scores and counts line up on the decimal point.
type Table struct {
	headers []string
	rows    [][]cell
	widths  []int
	numeric []bool
}

// NewTable creates a new table with the given column headers.
func NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	numeric := make([]bool, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
		numeric[i] = true
	}
	return &Table{
		headers: headers,
		widths:  widths,
		numeric: numeric,
	}
}

// AddRow adds a row of values to the table. The number of values should
// match the number of headers; missing cells render empty.
func (t *Table) AddRow(values ...string) {
	row := make([]cell, len(t.headers))
	for i := range t.headers {
		if i < len(values) {
			row[i] = cell{text: values[i]}
		}
		t.fit(i, row[i].text)
	}
	t.rows = append(t.rows, row)
}

// AddScoreRow adds a metric label plus a focus score rendered in the color
// of its band. Intended for two-column metric tables; wider tables fall
// back to a plain row.
func (t *Table) AddScoreRow(label string, score float64) {
	text := fmt.Sprintf("%.1f", score)
	if len(t.headers) != 2 {
		t.AddRow(label, text)
		return
	}
	t.fit(0, label)
	t.fit(1, text)
	t.rows = append(t.rows, []cell{
		{text: label},
		{text: text, score: score, scored: true},
	})
}

// fit widens the column for the cell and demotes it to left alignment when
// a non-numeric value shows up.
func (t *Table) fit(col int, text string) {
	if len(text) > t.widths[col] {
		t.widths[col] = len(text)
	}
	if text != "" && !isNumeric(text) {
		t.numeric[col] = false
	}
}

// Render returns the formatted table as a string.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary)

	var sb strings.Builder

	// Header row.
	for i, h := range t.headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(headerStyle.Render(t.align(h, i)))
	}
	sb.WriteString("\n")

	// Separator.
	for i, w := range t.widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(StyleMuted.Render(strings.Repeat("─", w)))
	}
	sb.WriteString("\n")

	// Data rows.
	for _, row := range t.rows {
		for i, c := range row {
			if i > 0 {
				sb.WriteString("  ")
			}
			rendered := t.align(c.text, i)
			if c.scored && !noColor {
				rendered = ScoreStyle(c.score).Render(rendered)
			}
			sb.WriteString(rendered)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// String implements fmt.Stringer.
func (t *Table) String() string {
	return t.Render()
}

// Print writes the table to stdout.
func (t *Table) Print() {
	fmt.Print(t.Render())
}

// align pads a cell to its column width, right-aligned for numeric columns.
func (t *Table) align(s string, col int) string {
	width := t.widths[col]
	if len(s) >= width {
		return s
	}
	padding := strings.Repeat(" ", width-len(s))
	if t.numeric[col] {
		return padding + s
	}
	return s + padding
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
