package report

import (
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// RenderSummary renders the per-product summary as a console table.
func (r Report) RenderSummary() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"product_id", "name", "images"})

	total := 0
	for _, row := range r.Summary {
		tw.AppendRow(table.Row{row.ProductID, row.Name, row.ImageCount})
		total += row.ImageCount
	}
	tw.AppendFooter(table.Row{"", "total", total})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// RenderCounts renders a one-line matched/unmatched overview table.
func (r Report) RenderCounts() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"matched", "unmatched", "products with images"})
	tw.AppendRow(table.Row{
		strconv.Itoa(len(r.Matched)),
		strconv.Itoa(len(r.Unmatched)),
		strconv.Itoa(len(r.Summary)),
	})
	return tw.Render()
}
