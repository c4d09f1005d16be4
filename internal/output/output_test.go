// SPDX-License-Identifier: Apache-2.0

package output_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledep/tabledep/internal/output"
	"github.com/tabledep/tabledep/internal/scan"
)

func sampleRecords() []scan.Record {
	return []scan.Record{
		{
			FilePath:   "app/models/order.rb",
			LineNumber: 2,
			TableName:  "orders",
			ColumnName: "reward_id",
			Kind:       scan.KindModelBelongsTo,
			Snippet:    "belongs_to :reward",
			Confidence: scan.ConfidenceHigh,
			Verified:   scan.VerifyPassed,
			Datatype:   "bigint",
		},
		{
			FilePath:   "config/settings.yml",
			LineNumber: 7,
			TableName:  "orders",
			Kind:       scan.KindConfigTableRef,
			Snippet:    "- orders",
			Confidence: scan.ConfidenceLow,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.WriteCSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"file_path", "line_number", "table_name", "column_name",
		"reference_type", "code_snippet", "confidence", "schema_verified",
	}, rows[0])

	assert.Equal(t, []string{
		"app/models/order.rb", "2", "orders", "reward_id",
		"model_belongs_to", "belongs_to :reward", "HIGH", "true",
	}, rows[1])

	// Unchecked verification stays empty, not "false".
	assert.Equal(t, "", rows[2][7])
	assert.Equal(t, "LOW", rows[2][6])
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, output.WriteCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	output.RenderTable(&buf, sampleRecords())

	out := buf.String()
	assert.Contains(t, out, "app/models/order.rb")
	assert.Contains(t, out, "model_belongs_to")
	assert.Contains(t, out, "(2 results)")
}

func TestRenderTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	output.RenderTable(&buf, nil)
	assert.Equal(t, "(no results)", strings.TrimSpace(buf.String()))
}
