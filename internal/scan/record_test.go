// SPDX-License-Identifier: Apache-2.0

package scan_test

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabledep/tabledep/internal/scan"
)

func TestParseConfidence(t *testing.T) {
	tests := []struct {
		in      string
		want    scan.Confidence
		wantErr bool
	}{
		{in: "HIGH", want: scan.ConfidenceHigh},
		{in: "MEDIUM", want: scan.ConfidenceMedium},
		{in: "LOW", want: scan.ConfidenceLow},
		{in: "", want: scan.ConfidenceLow},
		{in: "high", wantErr: true},
		{in: "bogus", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := scan.ParseConfidence(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfidence_Ordering(t *testing.T) {
	assert.True(t, scan.ConfidenceLow < scan.ConfidenceMedium)
	assert.True(t, scan.ConfidenceMedium < scan.ConfidenceHigh)
}

func TestRecord_JSON(t *testing.T) {
	rec := scan.Record{
		FilePath:   "app/models/order.rb",
		LineNumber: 3,
		TableName:  "orders",
		ColumnName: "reward_id",
		Kind:       scan.KindModelBelongsTo,
		Snippet:    "belongs_to :reward",
		Confidence: scan.ConfidenceHigh,
	}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, "HIGH", got["confidence"])
	assert.Equal(t, "model_belongs_to", got["reference_type"])
	// Unchecked verification serializes as null, not false.
	v, present := got["schema_verified"]
	assert.True(t, present)
	assert.Nil(t, v)
	// No datatype attached means no column_datatype key at all.
	_, present = got["column_datatype"]
	assert.False(t, present)

	rec.Verified = scan.VerifyPassed
	rec.Datatype = "bigint"
	data, err = json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, true, got["schema_verified"])
	assert.Equal(t, "bigint", got["column_datatype"])
}

func TestRecord_JSONRoundTrip(t *testing.T) {
	records := []scan.Record{
		{
			FilePath:   "app/models/order.rb",
			LineNumber: 3,
			TableName:  "orders",
			ColumnName: "reward_id",
			Kind:       scan.KindModelBelongsTo,
			Snippet:    "belongs_to :reward",
			Confidence: scan.ConfidenceHigh,
			Verified:   scan.VerifyPassed,
			Datatype:   "bigint",
		},
		{
			FilePath:   "db/migrate/001_x.rb",
			LineNumber: 2,
			TableName:  "carts",
			ColumnName: "reward_id",
			Kind:       scan.KindMigrationAddColumn,
			Confidence: scan.ConfidenceLow,
			Verified:   scan.VerifyFailed,
		},
		{
			FilePath:   "reports/q.sql",
			LineNumber: 1,
			TableName:  "orders",
			Kind:       scan.KindRawSQLTableRef,
			Confidence: scan.ConfidenceMedium,
			Verified:   scan.VerifyUnchecked,
		},
	}

	data, err := json.Marshal(records)
	require.NoError(t, err)

	var decoded []scan.Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, records, decoded)
}

func TestConfidence_UnmarshalInvalid(t *testing.T) {
	var c scan.Confidence
	assert.Error(t, json.Unmarshal([]byte(`"bogus"`), &c))
	assert.Error(t, json.Unmarshal([]byte(`3`), &c))
}

func TestVerification_String(t *testing.T) {
	assert.Equal(t, "", scan.VerifyUnchecked.String())
	assert.Equal(t, "false", scan.VerifyFailed.String())
	assert.Equal(t, "true", scan.VerifyPassed.String())
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "belongs_to :reward", scan.Snippet("   belongs_to :reward\t"))

	long := strings.Repeat("x", 500)
	got := scan.Snippet(long)
	assert.Len(t, got, 200)
}

func TestSnippet_RuneBoundary(t *testing.T) {
	// 100 three-byte runes: the byte cap lands mid-rune and must back
	// off rather than emit invalid UTF-8.
	long := strings.Repeat("日", 100)
	got := scan.Snippet(long)

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), 200)
	assert.True(t, strings.HasPrefix(long, got))
}
