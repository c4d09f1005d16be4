// SPDX-License-Identifier: Apache-2.0

package scanners

import (
	"regexp"

	"github.com/tabledep/tabledep/internal/scan"
)

// Migration fires on schema-migration statements that add (or remove)
// references, columns or foreign keys pointing at the target table.
type Migration struct{}

func NewMigration() *Migration { return &Migration{} }

func (s *Migration) Name() string { return "migration" }

func (s *Migration) Categories() []scan.FileCategory {
	return []scan.FileCategory{scan.CategoryMigration}
}

func (s *Migration) ScanFile(path string, lines []string, _ scan.FileCategory, ctx *scan.Context) []scan.Record {
	singular := regexp.QuoteMeta(ctx.Singular)
	fkCol := regexp.QuoteMeta(ctx.FKColumn)
	target := regexp.QuoteMeta(ctx.Target)

	addRefRe := regexp.MustCompile(`add_reference\s+:(\w+)\s*,\s*:(` + singular + `)\b`)
	addColRe := regexp.MustCompile(`add_column\s+:(\w+)\s*,\s*:(` + fkCol + `)\s*,`)
	addFKRe := regexp.MustCompile(`add_foreign_key\s+:(\w+)\s*,\s*:(` + target + `)\b`)
	tRefRe := regexp.MustCompile(`t\.references\s+:(` + singular + `)\b`)
	removeRefRe := regexp.MustCompile(`remove_reference\s+:(\w+)\s*,\s*:(` + singular + `)\b`)
	removeColRe := regexp.MustCompile(`remove_column\s+:(\w+)\s*,\s*:(` + fkCol + `)\b`)

	emit := func(records []scan.Record, n int, table, column string, kind scan.RefKind, line string, conf scan.Confidence) []scan.Record {
		return append(records, scan.Record{
			FilePath:   path,
			LineNumber: n,
			TableName:  table,
			ColumnName: column,
			Kind:       kind,
			Snippet:    scan.Snippet(line),
			Confidence: conf,
		})
	}

	var records []scan.Record
	currentTable := ""
	for i, line := range lines {
		n := i + 1
		if m := createTableRe.FindStringSubmatch(line); m != nil {
			currentTable = m[1]
		}

		switch {
		case addRefRe.MatchString(line):
			m := addRefRe.FindStringSubmatch(line)
			records = emit(records, n, m[1], ctx.FKColumn, scan.KindMigrationAddReference, line, scan.ConfidenceHigh)
		case addColRe.MatchString(line):
			m := addColRe.FindStringSubmatch(line)
			records = emit(records, n, m[1], ctx.FKColumn, scan.KindMigrationAddColumn, line, scan.ConfidenceHigh)
		case addFKRe.MatchString(line):
			m := addFKRe.FindStringSubmatch(line)
			records = emit(records, n, m[1], ctx.FKColumn, scan.KindMigrationAddForeignKey, line, scan.ConfidenceHigh)
		case tRefRe.MatchString(line):
			records = emit(records, n, tableOrUnknown(currentTable), ctx.FKColumn, scan.KindMigrationCreateTableRef, line, scan.ConfidenceHigh)
		case removeRefRe.MatchString(line):
			m := removeRefRe.FindStringSubmatch(line)
			records = emit(records, n, m[1], ctx.FKColumn, scan.KindMigrationRemove, line, scan.ConfidenceMedium)
		case removeColRe.MatchString(line):
			m := removeColRe.FindStringSubmatch(line)
			records = emit(records, n, m[1], ctx.FKColumn, scan.KindMigrationRemove, line, scan.ConfidenceMedium)
		}
	}
	return records
}
