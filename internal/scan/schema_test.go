// SPDX-License-Identifier: Apache-2.0

package scan_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledep/tabledep/internal/scan"
)

func schemaFile(content string) scan.SourceFile {
	return scan.SourceFile{
		File:  scan.File{Rel: "db/schema.rb", Category: scan.CategorySchema},
		Lines: strings.Split(content, "\n"),
	}
}

func TestExtractSchema_TablesAndColumns(t *testing.T) {
	info := scan.ExtractSchema([]scan.SourceFile{schemaFile(`
ActiveRecord::Schema.define(version: 2024_01_01_000000) do
  create_table "rewards", force: :cascade do |t|
    t.string "name"
    t.integer "points"
    t.index ["name"], name: "index_rewards_on_name"
    t.timestamps
  end

  create_table "orders", force: :cascade do |t|
    t.bigint "reward_id"
    t.string "status"
  end
end
`)})

	assert.False(t, info.Degraded())
	assert.True(t, info.HasTable("rewards"))
	assert.True(t, info.HasTable("orders"))
	assert.False(t, info.HasTable("users"))

	typ, ok := info.ColumnType("orders", "reward_id")
	require.True(t, ok)
	assert.Equal(t, "bigint", typ)

	typ, ok = info.ColumnType("rewards", "points")
	require.True(t, ok)
	assert.Equal(t, "integer", typ)

	// index and timestamps lines are DSL keywords, not columns.
	_, ok = info.ColumnType("rewards", "index")
	assert.False(t, ok)
	_, ok = info.ColumnType("rewards", "timestamps")
	assert.False(t, ok)
}

func TestExtractSchema_ReferencesExpansion(t *testing.T) {
	info := scan.ExtractSchema([]scan.SourceFile{schemaFile(`
  create_table "orders" do |t|
    t.references :reward, null: false
  end

  create_table "images" do |t|
    t.references :owner, polymorphic: true
  end
`)})

	typ, ok := info.ColumnType("orders", "reward_id")
	require.True(t, ok)
	assert.Equal(t, "bigint", typ)
	_, ok = info.ColumnType("orders", "reward_type")
	assert.False(t, ok, "non-polymorphic references must not expand a _type column")

	_, ok = info.ColumnType("images", "owner_id")
	assert.True(t, ok)
	typ, ok = info.ColumnType("images", "owner_type")
	require.True(t, ok)
	assert.Equal(t, "string", typ)
}

func TestExtractSchema_AddForeignKeyHint(t *testing.T) {
	info := scan.ExtractSchema([]scan.SourceFile{schemaFile(`
  create_table "orders" do |t|
    t.string "status"
  end

  add_foreign_key "orders", "rewards", column: "reward_id"
  add_foreign_key "ghosts", "rewards", column: "reward_id"
`)})

	typ, ok := info.ColumnType("orders", "reward_id")
	require.True(t, ok)
	assert.Equal(t, "bigint", typ)

	// Hints only apply to tables the schema actually declares.
	assert.False(t, info.HasTable("ghosts"))
}

func TestExtractSchema_NestedBlocksAndEOF(t *testing.T) {
	// An inner do/end pair must not terminate the table block, and an
	// unterminated block is closed at end of input.
	info := scan.ExtractSchema([]scan.SourceFile{schemaFile(`
  create_table "orders" do |t|
    [1, 2].each do |i|
      noop
    end
    t.string "status"
  end

  create_table "carts" do |t|
    t.string "note"
`)})

	_, ok := info.ColumnType("orders", "status")
	assert.True(t, ok)
	_, ok = info.ColumnType("carts", "note")
	assert.True(t, ok)
}

func TestExtractSchema_Degraded(t *testing.T) {
	info := scan.ExtractSchema(nil)
	assert.True(t, info.Degraded())
	assert.False(t, info.HasTable("anything"))

	_, ok := info.ColumnType("orders", "reward_id")
	assert.False(t, ok)
}
