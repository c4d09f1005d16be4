// SPDX-License-Identifier: Apache-2.0

package scanners

import (
	"regexp"

	"github.com/tabledep/tabledep/internal/scan"
)

var (
	queryKeywordRe = regexp.MustCompile(`(?i)\b(query|execute|select|where|find_by|pluck|update_all|delete_all|sql|connection)\b`)
	schemaKWRe     = regexp.MustCompile(`(?i)\b(table|column|foreign[_ ]?key|fk|migration|schema|index)\b`)
)

// Contextual is the catch-all: variable names near query code and
// comments pairing the target with schema vocabulary. Everything it
// emits is LOW.
type Contextual struct{}

func NewContextual() *Contextual { return &Contextual{} }

func (s *Contextual) Name() string { return "contextual" }

func (s *Contextual) Categories() []scan.FileCategory {
	return []scan.FileCategory{
		scan.CategoryRubyOther, scan.CategoryModel,
		scan.CategoryERB, scan.CategorySQL,
	}
}

func (s *Contextual) ScanFile(path string, lines []string, _ scan.FileCategory, ctx *scan.Context) []scan.Record {
	singular := regexp.QuoteMeta(ctx.Singular)
	varRe := regexp.MustCompile(`(?i)\b` + singular + `s?\w*\b`)
	commentRe := regexp.MustCompile(`(?i)#.*\b` + singular)

	var records []scan.Record
	emit := func(n int, kind scan.RefKind, line string) {
		records = append(records, scan.Record{
			FilePath:   path,
			LineNumber: n,
			TableName:  ctx.Target,
			ColumnName: "",
			Kind:       kind,
			Snippet:    scan.Snippet(line),
			Confidence: scan.ConfidenceLow,
		})
	}

	for i, line := range lines {
		n := i + 1
		if varRe.MatchString(line) && queryKeywordRe.MatchString(line) {
			emit(n, scan.KindContextualVariable, line)
			continue
		}
		if commentRe.MatchString(line) && schemaKWRe.MatchString(line) {
			emit(n, scan.KindContextualComment, line)
		}
	}
	return records
}
