// SPDX-License-Identifier: Apache-2.0

package scanners

import (
	"regexp"
	"strings"

	"github.com/tabledep/tabledep/internal/scan"
)

var (
	polyTypeColRe = regexp.MustCompile(`t\.string\s+"(\w+)_type"`)
	polyIDColRe   = regexp.MustCompile(`t\.(integer|bigint)\s+"(\w+)_id"`)
)

// polyPair is one {role}_type/{role}_id column pair found in the schema.
type polyPair struct {
	table   string
	role    string
	file    string
	line    int
	snippet string
}

// Polymorphic detects polymorphic associations that may reference the
// target. It needs the whole corpus, in three passes:
//
//  1. find {role}_type/{role}_id column pairs in the schema;
//  2. confirm roles via association macros: `has_many/has_one` naming
//     the target with `as: :role`, or any `as: :role` association
//     declared by the target's own model (HIGH evidence at the schema
//     pair);
//  3. hunt for literal type-string bindings ({role}_type near the
//     target's class name) anywhere in the code (MEDIUM evidence at the
//     literal site).
//
// Pairs with no evidence from pass 2 or 3 are not reported at all.
type Polymorphic struct{}

func NewPolymorphic() *Polymorphic { return &Polymorphic{} }

func (s *Polymorphic) Name() string { return "polymorphic" }

func (s *Polymorphic) Categories() []scan.FileCategory {
	return []scan.FileCategory{
		scan.CategorySchema, scan.CategoryModel, scan.CategoryRubyOther,
		scan.CategoryERB, scan.CategorySQL, scan.CategoryMigration,
	}
}

// ScanFile satisfies scan.Scanner; the orchestrator always uses
// ScanCorpus for this scanner.
func (s *Polymorphic) ScanFile(string, []string, scan.FileCategory, *scan.Context) []scan.Record {
	return nil
}

func (s *Polymorphic) ScanCorpus(corpus *scan.Corpus, ctx *scan.Context) []scan.Record {
	pairs := s.schemaPairs(corpus, ctx)
	if len(pairs) == 0 {
		return nil
	}

	confirmed := s.confirmedRoles(corpus, ctx)

	var records []scan.Record
	for _, p := range pairs {
		if !confirmed[p.role] {
			continue
		}
		records = append(records, scan.Record{
			FilePath:   p.file,
			LineNumber: p.line,
			TableName:  p.table,
			ColumnName: p.role + "_id",
			Kind:       scan.KindPolymorphicModel,
			Snippet:    p.snippet,
			Confidence: scan.ConfidenceHigh,
		})
	}

	records = append(records, s.literalEvidence(corpus, ctx, pairs)...)
	return records
}

// schemaPairs collects every {role}_type/{role}_id pair declared on a
// table other than the target.
func (s *Polymorphic) schemaPairs(corpus *scan.Corpus, ctx *scan.Context) []polyPair {
	var pairs []polyPair
	for _, f := range corpus.Files(scan.CategorySchema) {
		currentTable := ""
		typeCols := map[string]int{}
		idCols := map[string]polyPair{}

		flush := func() {
			for role := range typeCols {
				if p, ok := idCols[role]; ok {
					pairs = append(pairs, p)
				}
			}
		}

		for i, line := range f.Lines {
			n := i + 1
			if m := createTableRe.FindStringSubmatch(line); m != nil {
				if currentTable != "" {
					flush()
				}
				currentTable = m[1]
				typeCols = map[string]int{}
				idCols = map[string]polyPair{}
				continue
			}
			if currentTable == "" || currentTable == ctx.Target {
				continue
			}
			if m := polyTypeColRe.FindStringSubmatch(line); m != nil {
				typeCols[m[1]] = n
			}
			if m := polyIDColRe.FindStringSubmatch(line); m != nil {
				idCols[m[2]] = polyPair{
					table:   currentTable,
					role:    m[2],
					file:    f.Rel,
					line:    n,
					snippet: scan.Snippet(line),
				}
			}
		}
		if currentTable != "" {
			flush()
		}
	}
	return pairs
}

// confirmedRoles finds roles bound to the target by association macros:
// either an association naming the target (`has_many :rewards, as: :role`
// in some other model), or any `as:` association declared by the model
// backing the target itself (`has_many :documents, as: :role` inside
// Reward).
func (s *Polymorphic) confirmedRoles(corpus *scan.Corpus, ctx *scan.Context) map[string]bool {
	namedRe := regexp.MustCompile(
		`(?:has_many|has_one)\s+:(` + regexp.QuoteMeta(ctx.Target) + `|` + regexp.QuoteMeta(ctx.Singular) + `)\s*,.*as:\s*:(\w+)`)
	anyAsRe := regexp.MustCompile(`(?:has_many|has_one)\s+:\w+\s*,.*as:\s*:(\w+)`)

	confirmed := map[string]bool{}
	for _, f := range corpus.Files(scan.CategoryModel) {
		currentClass := ""
		for _, line := range f.Lines {
			if m := classRe.FindStringSubmatch(line); m != nil {
				currentClass = m[1]
			}
			if m := namedRe.FindStringSubmatch(line); m != nil {
				confirmed[m[2]] = true
				continue
			}
			if m := anyAsRe.FindStringSubmatch(line); m != nil && currentClass != "" &&
				resolveModelTable(currentClass, ctx.Schema) == ctx.Target {
				confirmed[m[1]] = true
			}
		}
	}
	return confirmed
}

// literalEvidence finds lines binding a known role's _type column to the
// target's class name, e.g. `owner_type: "Reward"` or
// `WHERE owner_type = 'Reward'`, and reports MEDIUM evidence at each
// site.
func (s *Polymorphic) literalEvidence(corpus *scan.Corpus, ctx *scan.Context, pairs []polyPair) []scan.Record {
	roleTables := map[string][]polyPair{}
	for _, p := range pairs {
		roleTables[p.role] = append(roleTables[p.role], p)
	}

	codeCategories := []scan.FileCategory{
		scan.CategoryModel, scan.CategoryRubyOther, scan.CategoryERB,
		scan.CategorySQL, scan.CategoryMigration,
	}

	var records []scan.Record
	for _, cat := range codeCategories {
		for _, f := range corpus.Files(cat) {
			for i, line := range f.Lines {
				if !strings.Contains(line, ctx.ModelClass) {
					continue
				}
				for role, rolePairs := range roleTables {
					if !strings.Contains(line, role+"_type") {
						continue
					}
					for _, p := range rolePairs {
						records = append(records, scan.Record{
							FilePath:   f.Rel,
							LineNumber: i + 1,
							TableName:  p.table,
							ColumnName: role + "_id",
							Kind:       scan.KindPolymorphicSchema,
							Snippet:    scan.Snippet(line),
							Confidence: scan.ConfidenceMedium,
						})
					}
				}
			}
		}
	}
	return records
}
