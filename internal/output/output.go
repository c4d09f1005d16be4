// SPDX-License-Identifier: Apache-2.0

// Package output renders scan reports for humans and machines: a CSV
// writer preserving every record field, and a terminal table view.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tabledep/tabledep/internal/scan"
)

// csvColumns is the fixed CSV column order.
var csvColumns = []string{
	"file_path",
	"line_number",
	"table_name",
	"column_name",
	"reference_type",
	"code_snippet",
	"confidence",
	"schema_verified",
}

// WriteCSV writes the records as CSV, header first, all fields
// including the schema_verified tri-state ("" when unchecked).
func WriteCSV(w io.Writer, records []scan.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.FilePath,
			strconv.Itoa(r.LineNumber),
			r.TableName,
			r.ColumnName,
			string(r.Kind),
			r.Snippet,
			r.Confidence.String(),
			r.Verified.String(),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RenderTable writes a human-readable table of the records, one row per
// match, snippets truncated to keep rows on one line.
func RenderTable(w io.Writer, records []scan.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "(no results)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"File", "Line", "Table", "Column", "Kind", "Confidence", "Verified"})

	for _, r := range records {
		t.AppendRow(table.Row{
			r.FilePath,
			r.LineNumber,
			r.TableName,
			r.ColumnName,
			string(r.Kind),
			r.Confidence.String(),
			r.Verified.String(),
		})
	}
	t.Render()
	fmt.Fprintf(w, "(%d results)\n", len(records))
}
