package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableView is a rendered grid with an optional caption under it.
type tableView struct {
	headers []string
	aligns  []columnAlignment
	rows    [][]string
	caption string
	// wrap limits the width of the last column; 0 leaves it unbounded.
	wrap int
}

func (v tableView) render() string {
	columns := len(v.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault

	header := make(table.Row, columns)
	for i, h := range v.headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range v.rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(v.aligns) && v.aligns[i] == alignRight {
			align = text.AlignRight
		}
		cc := table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
		if v.wrap > 0 && i == columns-1 {
			cc.WidthMax = v.wrap
			cc.WidthMaxEnforcer = text.WrapSoft
		}
		configs = append(configs, cc)
	}
	tw.SetColumnConfigs(configs)
	if v.caption != "" {
		tw.SetCaption("%s", v.caption)
	}
	return tw.Render()
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return tableView{headers: headers, rows: rows, aligns: aligns}.render()
}
