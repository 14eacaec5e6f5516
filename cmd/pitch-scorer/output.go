package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/fpang/pitch-scorer/internal/scoring"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
			WidthMax:    80,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

// resultRows flattens a result into sorted criterion rows plus an average.
func resultRows(r scoring.Result) [][]string {
	rows := make([][]string, 0, len(r)+1)
	for _, name := range r.Criteria() {
		a := r[name]
		rows = append(rows, []string{name, formatRating(a.Rating), a.Reasoning})
	}
	rows = append(rows, []string{"Average", formatRating(r.Average()), ""})
	return rows
}

func formatRating(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func printResult(id int, t scoring.ResultType, r scoring.Result) {
	fmt.Printf("\nApplication %d: %s\n", id, t)
	fmt.Println(renderTable([]string{"Criterion", "Rating", "Reasoning"}, resultRows(r), []columnAlignment{alignLeft, alignRight, alignLeft}))
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
