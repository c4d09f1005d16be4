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

func sourceFile(rel string, cat scan.FileCategory, src string) scan.SourceFile {
	return scan.SourceFile{
		File:  scan.File{Rel: rel, Category: cat},
		Lines: strings.Split(src, "\n"),
	}
}

const polySchema = `ActiveRecord::Schema.define do
  create_table "images" do |t|
    t.string "owner_type"
    t.bigint "owner_id"
  end

  create_table "rewards" do |t|
    t.string "attachable_type"
    t.bigint "attachable_id"
  end
end`

func TestPolymorphic_ConfirmedAssociation(t *testing.T) {
	corpus := scan.NewCorpus([]scan.SourceFile{
		sourceFile("db/schema.rb", scan.CategorySchema, polySchema),
		sourceFile("app/models/user.rb", scan.CategoryModel, `class User < ApplicationRecord
  has_many :rewards, as: :owner
end`),
	})
	ctx := scan.NewContext("rewards", "", scan.NewSchemaInfo())

	records := scanners.NewPolymorphic().ScanCorpus(corpus, ctx)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, scan.KindPolymorphicModel, rec.Kind)
	assert.Equal(t, "db/schema.rb", rec.FilePath)
	assert.Equal(t, 4, rec.LineNumber)
	assert.Equal(t, "images", rec.TableName)
	assert.Equal(t, "owner_id", rec.ColumnName)
	assert.Equal(t, scan.ConfidenceHigh, rec.Confidence)
}

func TestPolymorphic_ConfirmedViaTargetModel(t *testing.T) {
	// The target's own model declaring `has_many ..., as: :owner`
	// confirms the role just as well as an association naming the
	// target: the documents pair gets HIGH evidence at the schema site,
	// and the literal type binding still gets MEDIUM at its own site.
	corpus := scan.NewCorpus([]scan.SourceFile{
		sourceFile("db/schema.rb", scan.CategorySchema, `ActiveRecord::Schema.define do
  create_table "documents" do |t|
    t.string "owner_type"
    t.bigint "owner_id"
  end
end`),
		sourceFile("app/models/document.rb", scan.CategoryModel, `class Document < ApplicationRecord
  belongs_to :owner, polymorphic: true
end`),
		sourceFile("app/models/reward.rb", scan.CategoryModel, `class Reward < ApplicationRecord
  has_many :documents, as: :owner
end`),
		sourceFile("app/services/doc_lookup.rb", scan.CategoryRubyOther,
			`docs = Document.where(owner_type: "Reward")`),
	})
	ctx := scan.NewContext("rewards", "", scan.NewSchemaInfo())

	records := scanners.NewPolymorphic().ScanCorpus(corpus, ctx)
	require.Len(t, records, 2)

	confirmed := records[0]
	assert.Equal(t, scan.KindPolymorphicModel, confirmed.Kind)
	assert.Equal(t, "db/schema.rb", confirmed.FilePath)
	assert.Equal(t, 4, confirmed.LineNumber)
	assert.Equal(t, "documents", confirmed.TableName)
	assert.Equal(t, "owner_id", confirmed.ColumnName)
	assert.Equal(t, scan.ConfidenceHigh, confirmed.Confidence)

	literal := records[1]
	assert.Equal(t, scan.KindPolymorphicSchema, literal.Kind)
	assert.Equal(t, "app/services/doc_lookup.rb", literal.FilePath)
	assert.Equal(t, "documents", literal.TableName)
	assert.Equal(t, scan.ConfidenceMedium, literal.Confidence)
}

func TestPolymorphic_LiteralTypeBinding(t *testing.T) {
	corpus := scan.NewCorpus([]scan.SourceFile{
		sourceFile("db/schema.rb", scan.CategorySchema, polySchema),
		sourceFile("app/services/lookup.rb", scan.CategoryRubyOther,
			`images = Image.where(owner_type: "Reward")`),
	})
	ctx := scan.NewContext("rewards", "", scan.NewSchemaInfo())

	records := scanners.NewPolymorphic().ScanCorpus(corpus, ctx)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, scan.KindPolymorphicSchema, rec.Kind)
	assert.Equal(t, "app/services/lookup.rb", rec.FilePath)
	assert.Equal(t, "images", rec.TableName)
	assert.Equal(t, "owner_id", rec.ColumnName)
	assert.Equal(t, scan.ConfidenceMedium, rec.Confidence)
}

func TestPolymorphic_UnconfirmedPairIsSilent(t *testing.T) {
	// A column pair with no association and no literal binding proves
	// nothing about the target.
	corpus := scan.NewCorpus([]scan.SourceFile{
		sourceFile("db/schema.rb", scan.CategorySchema, polySchema),
		sourceFile("app/models/image.rb", scan.CategoryModel, `class Image < ApplicationRecord
  belongs_to :owner, polymorphic: true
end`),
	})
	ctx := scan.NewContext("rewards", "", scan.NewSchemaInfo())

	records := scanners.NewPolymorphic().ScanCorpus(corpus, ctx)
	assert.Empty(t, records)
}

func TestPolymorphic_TargetTablePairsSkipped(t *testing.T) {
	// The attachable pair lives on the target's own table; confirming it
	// would make the target its own dependent.
	corpus := scan.NewCorpus([]scan.SourceFile{
		sourceFile("db/schema.rb", scan.CategorySchema, polySchema),
		sourceFile("app/models/doc.rb", scan.CategoryModel, `class Doc < ApplicationRecord
  has_many :rewards, as: :attachable
end`),
	})
	ctx := scan.NewContext("rewards", "", scan.NewSchemaInfo())

	records := scanners.NewPolymorphic().ScanCorpus(corpus, ctx)
	assert.Empty(t, records)
}
