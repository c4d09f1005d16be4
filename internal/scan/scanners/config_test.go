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

func scanYAML(path, src string) []scan.Record {
	s := scanners.NewConfig()
	ctx := scan.NewContext("rewards", "", scan.NewSchemaInfo())
	return s.ScanFile(path, strings.Split(src, "\n"), scan.CategoryYAML, ctx)
}

func TestConfig_TableMention(t *testing.T) {
	records := scanYAML("config/settings.yml", `reporting:
  tables:
    - rewards
    - orders
`)

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, scan.KindConfigTableRef, rec.Kind)
	assert.Equal(t, "rewards", rec.TableName)
	assert.Equal(t, scan.ConfidenceLow, rec.Confidence)
	assert.Equal(t, 3, rec.LineNumber)
}

func TestConfig_DatabaseYMLSkipped(t *testing.T) {
	records := scanYAML("config/database.yml", `production:
  database: rewards
`)
	assert.Empty(t, records)
}

func TestConfig_CommentsSkipped(t *testing.T) {
	records := scanYAML("config/settings.yml", `# cleanup of rewards happens nightly
cleanup:
  enabled: true
`)
	assert.Empty(t, records)
}

func TestConfig_WholeWordOnly(t *testing.T) {
	records := scanYAML("config/settings.yml", `jobs:
  - rewards_cleanup_job
`)
	assert.Empty(t, records, "substring mentions inside larger identifiers must not match")
}

func TestConfig_UnparsableFallsBackToLineScan(t *testing.T) {
	// Aliasing a missing anchor makes the document unparsable; the
	// scanner then degrades to a plain line scan.
	records := scanYAML("config/settings.yml", `defaults:
  <<: *missing_anchor
table: rewards
`)
	require.Len(t, records, 1)
	assert.Equal(t, 3, records[0].LineNumber)
}
