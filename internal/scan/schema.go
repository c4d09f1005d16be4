// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"regexp"
	"strings"
)

// SchemaInfo is the immutable snapshot of what db/schema.rb declares:
// the set of real table names and each table's columns (with datatypes).
// Built once per scan and read-only thereafter.
type SchemaInfo struct {
	Tables  map[string]struct{}
	Columns map[string]map[string]string
}

// NewSchemaInfo returns an empty snapshot (the degraded-mode value).
func NewSchemaInfo() *SchemaInfo {
	return &SchemaInfo{
		Tables:  make(map[string]struct{}),
		Columns: make(map[string]map[string]string),
	}
}

// Degraded reports whether no schema definition was found, in which case
// the known-table and column-verification filters become no-ops.
func (s *SchemaInfo) Degraded() bool {
	return len(s.Tables) == 0
}

// HasTable reports whether the table was declared in the schema.
func (s *SchemaInfo) HasTable(table string) bool {
	_, ok := s.Tables[table]
	return ok
}

// ColumnType returns the declared datatype of table.column, if present.
func (s *SchemaInfo) ColumnType(table, column string) (string, bool) {
	cols, ok := s.Columns[table]
	if !ok {
		return "", false
	}
	t, ok := cols[column]
	return t, ok
}

var (
	createTableRe = regexp.MustCompile(`create_table\s+"(\w+)"`)
	// t.<type> "col" or t.<type> :col
	columnRe = regexp.MustCompile(`\bt\.(\w+)\s+[":](\w+)`)
	// standalone FK/index hints outside create_table blocks
	addFKRe = regexp.MustCompile(`add_foreign_key\s+"(\w+)"\s*,\s*"(\w+)"(?:.*column:\s*"(\w+)")?`)
	blockRe = regexp.MustCompile(`\bdo\b\s*(\|[^|]*\|)?\s*$`)
	endRe   = regexp.MustCompile(`^\s*end\b`)
)

// ExtractSchema parses the loaded schema-definition files into a
// SchemaInfo. A missing schema file yields an empty snapshot (degraded
// mode), not an error. Nested blocks are tolerated by tracking block
// depth; end-of-file closes any block left open.
func ExtractSchema(files []SourceFile) *SchemaInfo {
	info := NewSchemaInfo()
	for _, f := range files {
		if f.Category != CategorySchema {
			continue
		}
		extractSchemaLines(info, f.Lines)
	}
	return info
}

func extractSchemaLines(info *SchemaInfo, lines []string) {
	currentTable := ""
	depth := 0

	for _, line := range lines {
		if m := createTableRe.FindStringSubmatch(line); m != nil {
			currentTable = m[1]
			info.Tables[currentTable] = struct{}{}
			if _, ok := info.Columns[currentTable]; !ok {
				info.Columns[currentTable] = make(map[string]string)
			}
			depth = 1
			continue
		}

		if currentTable != "" {
			// Track nesting so a stray inner do/end pair does not end
			// the table block early.
			if blockRe.MatchString(line) {
				depth++
			}
			if endRe.MatchString(line) {
				depth--
				if depth <= 0 {
					currentTable = ""
					continue
				}
			}
		}

		if currentTable != "" {
			if m := columnRe.FindStringSubmatch(line); m != nil {
				colType, colName := m[1], m[2]
				switch colType {
				case "index", "timestamps", "primary_key":
					// DSL keywords, not columns
				case "references":
					// t.references :user expands to user_id (+ user_type
					// when polymorphic)
					info.Columns[currentTable][colName+"_id"] = "bigint"
					if strings.Contains(line, "polymorphic:") {
						info.Columns[currentTable][colName+"_type"] = "string"
					}
				default:
					info.Columns[currentTable][colName] = colType
				}
			}
			continue
		}

		// Trailing add_foreign_key statements carry column hints for
		// tables whose block has already closed.
		if m := addFKRe.FindStringSubmatch(line); m != nil {
			child := m[1]
			if _, ok := info.Tables[child]; ok && m[3] != "" {
				if _, ok := info.Columns[child][m[3]]; !ok {
					info.Columns[child][m[3]] = "bigint"
				}
			}
		}
	}
}
