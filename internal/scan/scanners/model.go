// SPDX-License-Identifier: Apache-2.0

package scanners

import (
	"regexp"
	"strings"

	"github.com/tabledep/tabledep/internal/inflect"
	"github.com/tabledep/tabledep/internal/scan"
)

var (
	classRe = regexp.MustCompile(`class\s+(\w+)\s*<`)
	// belongs_to :name [, options]
	belongsRe = regexp.MustCompile(`belongs_to\s+:(\w+)`)
	hasManyRe = regexp.MustCompile(`has_many\s+:(\w+)`)
	hasOneRe  = regexp.MustCompile(`has_one\s+:(\w+)`)
	// option extraction
	classNameOptRe  = regexp.MustCompile(`class_name:\s*['"](\w+)['"]`)
	foreignKeyOptRe = regexp.MustCompile(`foreign_key:\s*['"](\w+)['"]`)
	throughOptRe    = regexp.MustCompile(`through:\s*:(\w+)`)
	asOptRe         = regexp.MustCompile(`\bas:\s*:(\w+)`)
)

// Model fires on declarative association macros. Getting the foreign-key
// direction right is the whole point:
//
//   - belongs_to :x inside a model backing table T means the FK lives on
//     T itself; it is inbound evidence when x resolves to the target.
//   - has_many/has_one describe a FK held by the associated table. When
//     either side resolves to the target, the FK points from the target
//     outward, so those records are tagged with the reverse kinds and
//     excluded later by the direction filter.
type Model struct{}

func NewModel() *Model { return &Model{} }

func (s *Model) Name() string { return "model" }

func (s *Model) Categories() []scan.FileCategory {
	return []scan.FileCategory{scan.CategoryModel}
}

func (s *Model) ScanFile(path string, lines []string, _ scan.FileCategory, ctx *scan.Context) []scan.Record {
	var records []scan.Record
	currentClass := ""

	emit := func(n int, table, column string, kind scan.RefKind, line string, conf scan.Confidence) {
		records = append(records, scan.Record{
			FilePath:   path,
			LineNumber: n,
			TableName:  table,
			ColumnName: column,
			Kind:       kind,
			Snippet:    scan.Snippet(line),
			Confidence: conf,
		})
	}

	for i, line := range lines {
		n := i + 1
		if m := classRe.FindStringSubmatch(line); m != nil {
			currentClass = m[1]
		}

		owner := "unknown"
		if currentClass != "" {
			owner = resolveModelTable(currentClass, ctx.Schema)
		}
		ownerFK := inflect.Singularize(owner) + "_id"

		// has_many through the target is join-table traversal; the
		// owner holds no FK itself.
		if m := hasManyRe.FindStringSubmatch(line); m != nil {
			if t := throughOptRe.FindStringSubmatch(line); t != nil && t[1] == ctx.Target {
				emit(n, owner, "", scan.KindModelHasManyThrough, line, scan.ConfidenceMedium)
				continue
			}
		}

		if m := belongsRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			assocTable, overridden := belongsToTable(name, line)
			if assocTable != ctx.Target {
				// Not an association to the target; other scanners may
				// still pick the line up.
				continue
			}
			column := name + "_id"
			if fk := foreignKeyOptRe.FindStringSubmatch(line); fk != nil {
				column = fk[1]
			} else if name == ctx.Singular {
				column = ctx.FKColumn
			}
			kind, conf := scan.KindModelBelongsTo, scan.ConfidenceHigh
			if overridden {
				kind, conf = scan.KindModelIndirect, scan.ConfidenceMedium
			}
			emit(n, owner, column, kind, line, conf)
			continue
		}

		if m := hasManyRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			switch {
			case owner == ctx.Target:
				// The target's own model declares the association, so the
				// FK lives on the associated table and points back at the
				// target. Reverse direction; tagged for exclusion.
				column := ctx.Singular + "_id"
				if fk := foreignKeyOptRe.FindStringSubmatch(line); fk != nil {
					column = fk[1]
				}
				emit(n, associationTable(name, line, false), column, scan.KindModelHasManyReverse, line, scan.ConfidenceHigh)
			case associationTable(name, line, false) == ctx.Target:
				// Some other model names the target, so the FK lives on
				// the target itself. Also reverse.
				column := ownerFK
				if fk := foreignKeyOptRe.FindStringSubmatch(line); fk != nil {
					column = fk[1]
				}
				emit(n, ctx.Target, column, scan.KindModelHasManyReverse, line, scan.ConfidenceHigh)
			}
			continue
		}

		if m := hasOneRe.FindStringSubmatch(line); m != nil {
			name := m[1]
			switch {
			case owner == ctx.Target:
				column := ctx.Singular + "_id"
				if fk := foreignKeyOptRe.FindStringSubmatch(line); fk != nil {
					column = fk[1]
				}
				emit(n, associationTable(name, line, true), column, scan.KindModelHasOneReverse, line, scan.ConfidenceHigh)
			case associationTable(name, line, true) == ctx.Target:
				column := ownerFK
				if fk := foreignKeyOptRe.FindStringSubmatch(line); fk != nil {
					column = fk[1]
				}
				emit(n, ctx.Target, column, scan.KindModelHasOneReverse, line, scan.ConfidenceHigh)
			}
		}
	}
	return records
}

// belongsToTable resolves the table a belongs_to association points at,
// honoring an explicit class_name: override. The second return reports
// whether an override was used.
func belongsToTable(name, line string) (string, bool) {
	if m := classNameOptRe.FindStringSubmatch(line); m != nil {
		return inflect.TableName(m[1]), true
	}
	return inflect.Pluralize(name), false
}

// associationTable resolves the table a has_many/has_one association
// points at. has_many names are already plural; has_one names are
// singular.
func associationTable(name, line string, singularName bool) string {
	if m := classNameOptRe.FindStringSubmatch(line); m != nil {
		return inflect.TableName(m[1])
	}
	if singularName {
		return inflect.Pluralize(name)
	}
	return strings.ToLower(name)
}

// resolveModelTable maps a model class to its backing table, preferring
// an exact schema match over the naive inflection so irregular models
// are not misclassified. Namespaced classes ("Admin::User" seen as
// AdminUser) are retried with leading segments stripped.
func resolveModelTable(class string, schema *scan.SchemaInfo) string {
	candidate := inflect.TableName(class)
	if schema == nil || schema.Degraded() {
		return candidate
	}
	if schema.HasTable(candidate) {
		return candidate
	}
	parts := strings.Split(candidate, "_")
	for i := 1; i < len(parts); i++ {
		tail := strings.Join(parts[i:], "_")
		if schema.HasTable(tail) {
			return tail
		}
	}
	return candidate
}
