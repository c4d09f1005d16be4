// SPDX-License-Identifier: Apache-2.0

package scanners_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledep/tabledep/internal/scan"
	"github.com/tabledep/tabledep/internal/scan/scanners"
)

func scanSchemaSrc(src string) []scan.Record {
	s := scanners.NewSchema()
	ctx := scan.NewContext("rewards", "", scan.NewSchemaInfo())
	return s.ScanFile("db/schema.rb", strings.Split(src, "\n"), scan.CategorySchema, ctx)
}

func TestSchema_ReferenceAndColumns(t *testing.T) {
	records := scanSchemaSrc(`create_table "orders" do |t|
  t.references :reward
  t.bigint "reward_id"
  t.string "reward_type"
  t.string "status"
end`)

	require.Len(t, records, 3)

	ref := records[0]
	assert.Equal(t, scan.KindSchemaReference, ref.Kind)
	assert.Equal(t, "orders", ref.TableName)
	assert.Equal(t, "reward_id", ref.ColumnName)
	assert.Equal(t, scan.ConfidenceHigh, ref.Confidence)
	assert.Equal(t, 2, ref.LineNumber)

	col := records[1]
	assert.Equal(t, scan.KindSchemaColumn, col.Kind)
	assert.Equal(t, "reward_id", col.ColumnName)

	typ := records[2]
	assert.Equal(t, scan.KindSchemaColumn, typ.Kind)
	assert.Equal(t, "reward_type", typ.ColumnName)
}

func TestSchema_BareSingularColumnBecomesFK(t *testing.T) {
	records := scanSchemaSrc(`create_table "orders" do |t|
  t.integer "reward"
end`)

	require.Len(t, records, 1)
	assert.Equal(t, "reward_id", records[0].ColumnName)
}

func TestSchema_OutsideTableBlockIsUnknown(t *testing.T) {
	records := scanSchemaSrc(`t.bigint "reward_id"`)

	require.Len(t, records, 1)
	assert.Equal(t, "unknown", records[0].TableName)
}

func TestSchema_UnrelatedColumnsIgnored(t *testing.T) {
	records := scanSchemaSrc(`create_table "orders" do |t|
  t.bigint "user_id"
  t.string "rewarding_notes"
end`)
	assert.Empty(t, records)
}
