// SPDX-License-Identifier: Apache-2.0

package scanners

import (
	"regexp"
	"strings"

	"github.com/tabledep/tabledep/internal/scan"
)

var heredocStartRe = regexp.MustCompile(`<<[-~]?(\w*SQL\w*)`)

// RawSQL fires on target table/column names inside SQL string literals,
// relation query calls and string interpolation. Confidence tracks how
// tightly the match is bound to a SQL keyword context: a derived FK
// column inside a FROM/UPDATE statement is HIGH, a query-method mention
// is MEDIUM, bare interpolation is LOW.
type RawSQL struct{}

func NewRawSQL() *RawSQL { return &RawSQL{} }

func (s *RawSQL) Name() string { return "raw_sql" }

func (s *RawSQL) Categories() []scan.FileCategory {
	return []scan.FileCategory{
		scan.CategoryRubyOther, scan.CategoryModel, scan.CategoryERB,
		scan.CategorySQL, scan.CategoryMigration,
	}
}

// rawSQLPatterns holds the per-target compiled expressions.
type rawSQLPatterns struct {
	colRef      *regexp.Regexp
	tableDML    *regexp.Regexp
	anyDML      *regexp.Regexp
	join        *regexp.Regexp
	queryMethod *regexp.Regexp
	interp      *regexp.Regexp
}

func compileRawSQL(ctx *scan.Context) rawSQLPatterns {
	target := regexp.QuoteMeta(ctx.Target)
	singular := regexp.QuoteMeta(ctx.Singular)
	fkCol := regexp.QuoteMeta(ctx.FKColumn)

	return rawSQLPatterns{
		// rewards.id or reward_id as a whole identifier
		colRef: regexp.MustCompile(`(?i)\b` + target + `\.id\b|\b` + fkCol + `\b`),
		// FROM/UPDATE/INSERT INTO/DELETE FROM rewards
		tableDML: regexp.MustCompile(`(?i)\b(?:FROM|UPDATE|INSERT\s+INTO|DELETE\s+FROM)\s+[` + "`" + `"]?` + target + `[` + "`" + `"]?\b`),
		// any DML clause naming a table, used to attribute FK-column
		// matches to the table the statement actually reads/writes
		anyDML: regexp.MustCompile(`(?i)\b(?:FROM|UPDATE|INSERT\s+INTO|DELETE\s+FROM)\s+[` + "`" + `"]?(\w+)[` + "`" + `"]?\b`),
		// JOIN rewards ON child.col = rewards.col
		join: regexp.MustCompile(`(?i)\bJOIN\s+[` + "`" + `"]?` + target + `[` + "`" + `"]?\s+ON\s+(\w+)\.(\w+)\s*=\s*` + target + `\.(\w+)`),
		// .where/.joins/... referencing the target
		queryMethod: regexp.MustCompile(`(?i)\.(where|joins|includes|eager_load|preload|references)\b.*[:('"]` + singular),
		// string interpolation near the target
		interp: regexp.MustCompile(`(?i)#\{.*` + singular + `.*\}`),
	}
}

func (s *RawSQL) ScanFile(path string, lines []string, _ scan.FileCategory, ctx *scan.Context) []scan.Record {
	pats := compileRawSQL(ctx)
	var records []scan.Record

	inHeredoc := false
	var heredocLines []string
	heredocStart := 0
	var heredocEnd *regexp.Regexp

	for i, line := range lines {
		n := i + 1

		if !inHeredoc {
			if m := heredocStartRe.FindStringSubmatch(line); m != nil {
				inHeredoc = true
				heredocLines = nil
				heredocStart = n
				heredocEnd = regexp.MustCompile(`^\s*` + regexp.QuoteMeta(m[1]) + `\s*$`)
			}
		}

		if inHeredoc {
			heredocLines = append(heredocLines, line)
			if heredocEnd.MatchString(line) && n > heredocStart {
				block := strings.Join(heredocLines, "\n")
				records = append(records, s.scanBlock(path, heredocStart, block, pats, ctx)...)
				inHeredoc = false
				heredocLines = nil
			}
			continue
		}

		records = append(records, s.scanLine(path, n, line, pats, ctx)...)
	}
	return records
}

func (s *RawSQL) scanLine(path string, n int, line string, pats rawSQLPatterns, ctx *scan.Context) []scan.Record {
	snippet := scan.Snippet(line)

	if m := pats.join.FindStringSubmatch(line); m != nil {
		return []scan.Record{{
			FilePath: path, LineNumber: n,
			TableName: m[1], ColumnName: m[2],
			Kind:    scan.KindRawSQLJoin,
			Snippet: snippet, Confidence: scan.ConfidenceMedium,
		}}
	}

	if pats.tableDML.MatchString(line) {
		return []scan.Record{{
			FilePath: path, LineNumber: n,
			TableName: ctx.Target, ColumnName: "",
			Kind:    scan.KindRawSQLTableRef,
			Snippet: snippet, Confidence: scan.ConfidenceHigh,
		}}
	}

	if pats.colRef.MatchString(line) {
		return []scan.Record{{
			FilePath: path, LineNumber: n,
			TableName: dmlTable(line, pats, ctx), ColumnName: ctx.FKColumn,
			Kind:    scan.KindRawSQLColumnRef,
			Snippet: snippet, Confidence: scan.ConfidenceHigh,
		}}
	}

	if pats.queryMethod.MatchString(line) {
		return []scan.Record{{
			FilePath: path, LineNumber: n,
			TableName: ctx.Target, ColumnName: "",
			Kind:    scan.KindRawSQLQueryMethod,
			Snippet: snippet, Confidence: scan.ConfidenceMedium,
		}}
	}

	if pats.interp.MatchString(line) {
		return []scan.Record{{
			FilePath: path, LineNumber: n,
			TableName: ctx.Target, ColumnName: "",
			Kind:    scan.KindRawSQLInterpolation,
			Snippet: snippet, Confidence: scan.ConfidenceLow,
		}}
	}

	return nil
}

// scanBlock scans a multi-line heredoc SQL block as one unit, reporting
// matches at the block's opening line.
func (s *RawSQL) scanBlock(path string, start int, block string, pats rawSQLPatterns, ctx *scan.Context) []scan.Record {
	snippet := scan.Snippet(block)
	var records []scan.Record

	if m := pats.join.FindStringSubmatch(block); m != nil {
		records = append(records, scan.Record{
			FilePath: path, LineNumber: start,
			TableName: m[1], ColumnName: m[2],
			Kind:    scan.KindRawSQLJoin,
			Snippet: snippet, Confidence: scan.ConfidenceMedium,
		})
	}
	if pats.tableDML.MatchString(block) {
		records = append(records, scan.Record{
			FilePath: path, LineNumber: start,
			TableName: ctx.Target, ColumnName: "",
			Kind:    scan.KindRawSQLTableRef,
			Snippet: snippet, Confidence: scan.ConfidenceHigh,
		})
	}
	if pats.colRef.MatchString(block) {
		records = append(records, scan.Record{
			FilePath: path, LineNumber: start,
			TableName: dmlTable(block, pats, ctx), ColumnName: ctx.FKColumn,
			Kind:    scan.KindRawSQLColumnRef,
			Snippet: snippet, Confidence: scan.ConfidenceHigh,
		})
	}
	return records
}

// dmlTable attributes an FK-column match to the table the surrounding
// statement reads or writes. `SELECT * FROM orders WHERE reward_id = ?`
// is evidence about orders, not about the target; without a usable DML
// clause the match falls back to the target and is later removed by the
// self-reference filter.
func dmlTable(text string, pats rawSQLPatterns, ctx *scan.Context) string {
	if m := pats.anyDML.FindStringSubmatch(text); m != nil && m[1] != ctx.Target {
		return m[1]
	}
	return ctx.Target
}
