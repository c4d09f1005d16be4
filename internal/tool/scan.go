// SPDX-License-Identifier: Apache-2.0

// Package tool exposes the dependency scanner over the Model Context
// Protocol so agents can ask for a table's blast radius directly.
package tool

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tabledep/tabledep/internal/scan"
	"github.com/tabledep/tabledep/internal/scan/scanners"
)

// MetadataScanTableDependencies describes the scan_table_dependencies tool.
var MetadataScanTableDependencies = &mcp.Tool{
	Name: "scan_table_dependencies",
	Description: "Scan a Rails-style codebase for every table, column and file that " +
		"structurally depends on a named database table: declared foreign keys, " +
		"polymorphic associations, migration history and raw textual references. " +
		"Each result carries a reference type, a code snippet and an ordinal " +
		"confidence (HIGH/MEDIUM/LOW); column claims are cross-checked against " +
		"db/schema.rb. Use it to assess the blast radius of altering or removing " +
		"a table.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"path", "table"},
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Root of the codebase to scan",
			},
			"table": map[string]interface{}{
				"type":        "string",
				"description": "Target table name, e.g. rewards",
			},
			"pk_column": map[string]interface{}{
				"type":        "string",
				"description": "Primary-key column of the target table (default: id)",
			},
			"min_confidence": map[string]interface{}{
				"type":        "string",
				"description": "Minimum confidence to include (default: LOW)",
				"enum":        []string{"HIGH", "MEDIUM", "LOW"},
			},
			"strict": map[string]interface{}{
				"type":        "boolean",
				"description": "Drop, rather than downgrade, schema-unverified results",
			},
		},
	},
}

// InputScanTableDependencies is the input for the ScanTableDependencies tool.
type InputScanTableDependencies struct {
	Path          string `json:"path"`
	Table         string `json:"table"`
	PKColumn      string `json:"pk_column"`
	MinConfidence string `json:"min_confidence"`
	Strict        bool   `json:"strict"`
}

// OutputScanTableDependencies is the output for the ScanTableDependencies tool.
type OutputScanTableDependencies struct {
	// Results is the filtered evidence list.
	Results []scan.Record `json:"results"`
	// Stats summarizes what each pipeline stage saw.
	Stats scan.Stats `json:"stats"`
}

// ScanTableDependencies runs the full analysis pipeline over the given
// codebase and returns the filtered evidence list.
func ScanTableDependencies(_ context.Context, _ *mcp.CallToolRequest, input InputScanTableDependencies) (*mcp.CallToolResult, OutputScanTableDependencies, error) {
	if input.Path == "" {
		return nil, OutputScanTableDependencies{}, fmt.Errorf("path is required")
	}
	if input.Table == "" {
		return nil, OutputScanTableDependencies{}, fmt.Errorf("table is required")
	}
	minConf, err := scan.ParseConfidence(input.MinConfidence)
	if err != nil {
		return nil, OutputScanTableDependencies{}, err
	}

	runner := scan.NewRunner(scanners.Default()...)
	report, err := runner.Run(scan.Config{
		Root:          input.Path,
		Table:         input.Table,
		PKColumn:      input.PKColumn,
		MinConfidence: minConf,
		Strict:        input.Strict,
		Logger:        slog.Default(),
	})
	if err != nil {
		return nil, OutputScanTableDependencies{}, err
	}

	return nil, OutputScanTableDependencies{
		Results: report.Records,
		Stats:   report.Stats,
	}, nil
}
