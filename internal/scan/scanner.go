// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"github.com/tabledep/tabledep/internal/inflect"
)

// Context is the shared read-only state lent to every scanner call:
// the scan target, its derived names, and the schema snapshot. It is
// immutable for the duration of one scan.
type Context struct {
	// Target is the table the scan is being run for.
	Target string
	// Singular is the singularized target, used in FK derivation.
	Singular string
	// FKColumn is the conventional foreign-key column pointing at the
	// target ({singular}_{pk}, "reward_id" by default).
	FKColumn string
	// ModelClass is the CamelCase class conventionally backing the
	// target table ("rewards" -> "Reward").
	ModelClass string
	// Schema is the extracted schema snapshot (possibly degraded).
	Schema *SchemaInfo
}

// NewContext derives the scan context for a target table. pkColumn
// defaults to "id" when empty.
func NewContext(target, pkColumn string, schema *SchemaInfo) *Context {
	if pkColumn == "" {
		pkColumn = "id"
	}
	singular := inflect.Singularize(target)
	return &Context{
		Target:     target,
		Singular:   singular,
		FKColumn:   singular + "_" + pkColumn,
		ModelClass: camelize(singular),
		Schema:     schema,
	}
}

// camelize converts snake_case to CamelCase: "reward_credit" -> "RewardCredit".
func camelize(s string) string {
	out := make([]byte, 0, len(s))
	upper := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}

// Scanner is one heuristic analyzer. Implementations are pure functions
// of a file's content plus the shared Context: no side effects, no file
// I/O of their own.
type Scanner interface {
	Name() string
	// Categories declares which file categories the scanner accepts;
	// the orchestrator never hands it files of other categories.
	Categories() []FileCategory
	ScanFile(path string, lines []string, category FileCategory, ctx *Context) []Record
}

// CorpusScanner is implemented by scanners whose heuristic needs the
// whole classified corpus at once (cross-file confirmation passes)
// rather than one file at a time. ScanFile is not called for these.
type CorpusScanner interface {
	Scanner
	ScanCorpus(corpus *Corpus, ctx *Context) []Record
}

// SourceFile is one loaded file of the corpus.
type SourceFile struct {
	File
	Lines []string
}

// Corpus holds every readable classified file, grouped by category, in
// classifier traversal order.
type Corpus struct {
	byCategory map[FileCategory][]SourceFile
	total      int
}

// NewCorpus groups loaded files by category.
func NewCorpus(files []SourceFile) *Corpus {
	c := &Corpus{byCategory: make(map[FileCategory][]SourceFile)}
	for _, f := range files {
		c.byCategory[f.Category] = append(c.byCategory[f.Category], f)
		c.total++
	}
	return c
}

// Files returns the loaded files of one category, in traversal order.
func (c *Corpus) Files(cat FileCategory) []SourceFile {
	return c.byCategory[cat]
}

// Len is the total number of loaded files.
func (c *Corpus) Len() int { return c.total }
