// SPDX-License-Identifier: Apache-2.0

// Package scan implements the table dependency analysis pipeline: file
// classification, schema extraction, the heuristic scanner contract, and
// the merge/filter/confidence stages that turn raw per-file matches into
// a trustworthy evidence list.
package scan

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Confidence is the ordinal trust rating attached to a Record.
type Confidence int

const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "HIGH"
	case ConfidenceMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// ParseConfidence parses "HIGH", "MEDIUM" or "LOW" (case-sensitive, as
// accepted on the CLI and HTTP surfaces).
func ParseConfidence(s string) (Confidence, error) {
	switch s {
	case "HIGH":
		return ConfidenceHigh, nil
	case "MEDIUM":
		return ConfidenceMedium, nil
	case "LOW", "":
		return ConfidenceLow, nil
	}
	return ConfidenceLow, fmt.Errorf("invalid confidence %q (want HIGH, MEDIUM or LOW)", s)
}

// MarshalJSON renders the confidence as its ordinal name.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON parses the ordinal name back, so records round-trip
// through the HTTP and MCP surfaces.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// RefKind identifies the evidence class a Record belongs to.
type RefKind string

const (
	KindSchemaColumn    RefKind = "schema_column"
	KindSchemaReference RefKind = "schema_reference"

	KindMigrationAddReference   RefKind = "migration_add_reference"
	KindMigrationAddColumn      RefKind = "migration_add_column"
	KindMigrationAddForeignKey  RefKind = "migration_add_foreign_key"
	KindMigrationCreateTableRef RefKind = "migration_create_table_ref"
	KindMigrationRemove         RefKind = "migration_remove"

	KindModelBelongsTo      RefKind = "model_belongs_to"
	KindModelHasManyThrough RefKind = "model_has_many_through"
	KindModelIndirect       RefKind = "model_indirect_association"
	// Reverse-direction associations: the foreign key described lives on a
	// table the target points at, not on a dependent of the target. These
	// are excluded by the pipeline's direction filter.
	KindModelHasManyReverse RefKind = "model_has_many_reverse"
	KindModelHasOneReverse  RefKind = "model_has_one_reverse"

	KindRawSQLColumnRef     RefKind = "raw_sql_column_ref"
	KindRawSQLTableRef      RefKind = "raw_sql_table_ref"
	KindRawSQLJoin          RefKind = "raw_sql_join"
	KindRawSQLQueryMethod   RefKind = "raw_sql_query_method"
	KindRawSQLInterpolation RefKind = "raw_sql_interpolation"

	KindConfigTableRef RefKind = "config_table_ref"

	KindContextualVariable RefKind = "contextual_variable"
	KindContextualComment  RefKind = "contextual_comment"

	KindPolymorphicModel  RefKind = "polymorphic_model"
	KindPolymorphicSchema RefKind = "polymorphic_schema"
)

// reverseKinds answer "what does the target depend on" rather than "what
// depends on the target" and are dropped by the direction filter.
var reverseKinds = map[RefKind]bool{
	KindModelHasManyReverse: true,
	KindModelHasOneReverse:  true,
}

// Verification is the tri-state result of checking a record's column
// claim against the schema column map. Records start out unchecked.
type Verification int

const (
	VerifyUnchecked Verification = iota
	VerifyFailed
	VerifyPassed
)

func (v Verification) String() string {
	switch v {
	case VerifyPassed:
		return "true"
	case VerifyFailed:
		return "false"
	default:
		return ""
	}
}

// MarshalJSON renders the tri-state as true, false or null (unchecked).
func (v Verification) MarshalJSON() ([]byte, error) {
	switch v {
	case VerifyPassed:
		return []byte("true"), nil
	case VerifyFailed:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON parses the true/false/null tri-state.
func (v *Verification) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*v = VerifyPassed
	case "false":
		*v = VerifyFailed
	case "null":
		*v = VerifyUnchecked
	default:
		return fmt.Errorf("invalid schema verification %s", data)
	}
	return nil
}

// Record is one piece of evidence that a file/table/column structurally
// depends on the scanned target table.
type Record struct {
	// FilePath is relative to the scanned root.
	FilePath   string `json:"file_path"`
	LineNumber int    `json:"line_number"`
	// TableName is the child table believed to hold the foreign key, or
	// the table directly referenced for non-FK evidence.
	TableName string `json:"table_name"`
	// ColumnName is the derived or literal FK column; empty for
	// table-level evidence.
	ColumnName string  `json:"column_name"`
	Kind       RefKind `json:"reference_type"`
	// Snippet is a bounded copy of the matched line for human review.
	Snippet    string       `json:"code_snippet"`
	Confidence Confidence   `json:"confidence"`
	Verified   Verification `json:"schema_verified"`

	// Datatype is attached when schema verification finds the column.
	Datatype string `json:"column_datatype,omitempty"`
}

// dedupKey identifies records that describe the same match site.
type dedupKey struct {
	file string
	line int
	kind RefKind
}

func (r Record) key() dedupKey {
	return dedupKey{file: r.FilePath, line: r.LineNumber, kind: r.Kind}
}

// maxSnippet bounds the stored copy of a matched line.
const maxSnippet = 200

// Snippet trims and bounds a matched line for storage on a Record.
// Truncation backs off to a rune boundary so the snippet stays valid
// UTF-8.
func Snippet(line string) string {
	s := strings.TrimSpace(line)
	if len(s) <= maxSnippet {
		return s
	}
	cut := maxSnippet
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
