package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/yegors/weekend-fares/internal/fares"
)

const maxColumnWidth = 120

func renderTable(w io.Writer, records []fares.Record) {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, 0, len(fares.Columns))
	configs := make([]table.ColumnConfig, 0, len(fares.Columns))
	for _, column := range fares.Columns {
		header = append(header, column)
		configs = append(configs, table.ColumnConfig{Name: column, WidthMax: maxColumnWidth})
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, record := range records {
		row := make(table.Row, 0, len(fares.Columns))
		for _, value := range record.Values() {
			row = append(row, value)
		}
		t.AppendRow(row)
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}
