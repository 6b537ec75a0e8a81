package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jrsteele09/go-tender-client/simulate"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4ade80")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D4A017"))
)

// Table renders rows under headers as a bordered terminal table.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	return t.Render()
}

// Title renders a section heading.
func Title(s string) string {
	return titleStyle.Render(s)
}

// ListPrice renders a list simulation: one row per sample and the summary
// statistics per group and combined.
func ListPrice(res *simulate.Result, decimals int) string {
	var b strings.Builder

	b.WriteString(Title(fmt.Sprintf("Baseline total %s", Format(res.BaselineTotal, decimals))))
	b.WriteString("\n")

	rows := make([][]string, 0, res.Stats.Count)
	n := 0
	for gi, g := range res.Groups {
		for _, s := range g.Samples {
			n++
			rows = append(rows, []string{
				strconv.Itoa(n),
				strconv.Itoa(gi + 1),
				strconv.Itoa(s.Range + 1),
				Format(s.Factor, decimals),
				Format(s.Total, decimals),
			})
		}
	}
	b.WriteString(Table([]string{"#", "Group", "Range", "Factor", "Total"}, rows))
	b.WriteString("\n")

	statRows := make([][]string, 0, len(res.Groups)+1)
	for gi, g := range res.Groups {
		statRows = append(statRows, statsRow(fmt.Sprintf("Group %d", gi+1), g.Stats, decimals))
	}
	statRows = append(statRows, statsRow("All", res.Stats, decimals))
	b.WriteString(Table([]string{"", "Count", "Min", "Max", "Mean"}, statRows))
	return b.String()
}

// ItemBreakdown renders the per-item mean simulated price.
func ItemBreakdown(res *simulate.Result, decimals int) string {
	means := res.ItemMeans()
	rows := make([][]string, len(res.Items))
	for i, item := range res.Items {
		rows[i] = []string{
			item.Name,
			Format(item.UnitPrice, decimals),
			Format(item.Quantity, decimals),
			Format(item.Baseline(), decimals),
			Format(means[i], decimals),
		}
	}
	return Table([]string{"Item", "Unit price", "Qty", "Baseline", "Mean simulated"}, rows)
}

// TotalPrice renders a total-price simulation.
func TotalPrice(res *simulate.TotalResult, decimals int) string {
	var b strings.Builder

	rows := make([][]string, len(res.Samples))
	for i, v := range res.Samples {
		rows[i] = []string{strconv.Itoa(i + 1), Format(v, decimals)}
	}
	b.WriteString(Table([]string{"#", "Simulated bid"}, rows))
	b.WriteString("\n")
	b.WriteString(Title("Mean " + Format(res.Mean, decimals)))
	b.WriteString("\n")

	rec := make([][]string, len(res.Recommended))
	for i, v := range res.Recommended {
		rec[i] = []string{strconv.Itoa(i + 1), Format(v, decimals)}
	}
	b.WriteString(Table([]string{"#", "Recommended control price"}, rec))
	return b.String()
}

func statsRow(label string, st simulate.Stats, decimals int) []string {
	return []string{
		label,
		strconv.Itoa(st.Count),
		Format(st.Min, decimals),
		Format(st.Max, decimals),
		Format(st.Mean, decimals),
	}
}
