// SPDX-License-Identifier: Apache-2.0

// Package scanners holds the heuristic analyzers behind the scan.Scanner
// contract. Each scanner consumes files of the categories it declares
// and emits candidate evidence records; the pipeline's later stages are
// responsible for merging, filtering and confidence adjustment.
package scanners

import (
	"regexp"

	"github.com/tabledep/tabledep/internal/scan"
)

// Default returns the full scanner set in registration order.
func Default() []scan.Scanner {
	return []scan.Scanner{
		NewSchema(),
		NewMigration(),
		NewModel(),
		NewRawSQL(),
		NewConfig(),
		NewContextual(),
		NewPolymorphic(),
	}
}

var createTableRe = regexp.MustCompile(`create_table\s+[:"](\w+)`)

// Schema fires on column and reference definitions inside the schema
// file that name the target table or a column derived from it.
type Schema struct{}

func NewSchema() *Schema { return &Schema{} }

func (s *Schema) Name() string { return "schema" }

func (s *Schema) Categories() []scan.FileCategory {
	return []scan.FileCategory{scan.CategorySchema}
}

func (s *Schema) ScanFile(path string, lines []string, _ scan.FileCategory, ctx *scan.Context) []scan.Record {
	singular := regexp.QuoteMeta(ctx.Singular)
	colRe := regexp.MustCompile(
		`t\.(integer|bigint|string|references)\s+"?:?(` + singular + `(?:_id|_type)?)"?\b`)
	refRe := regexp.MustCompile(`t\.references\s+:(` + singular + `)\b`)

	var records []scan.Record
	currentTable := ""
	for i, line := range lines {
		n := i + 1
		if m := createTableRe.FindStringSubmatch(line); m != nil {
			currentTable = m[1]
		}

		if refRe.MatchString(line) {
			records = append(records, scan.Record{
				FilePath:   path,
				LineNumber: n,
				TableName:  tableOrUnknown(currentTable),
				ColumnName: ctx.FKColumn,
				Kind:       scan.KindSchemaReference,
				Snippet:    scan.Snippet(line),
				Confidence: scan.ConfidenceHigh,
			})
			continue
		}

		if m := colRe.FindStringSubmatch(line); m != nil {
			colType, colName := m[1], m[2]
			if colType == "references" {
				continue // handled above
			}
			if colName == ctx.Singular {
				colName = ctx.FKColumn
			}
			records = append(records, scan.Record{
				FilePath:   path,
				LineNumber: n,
				TableName:  tableOrUnknown(currentTable),
				ColumnName: colName,
				Kind:       scan.KindSchemaColumn,
				Snippet:    scan.Snippet(line),
				Confidence: scan.ConfidenceHigh,
			})
		}
	}
	return records
}

func tableOrUnknown(table string) string {
	if table == "" {
		return "unknown"
	}
	return table
}
