// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/tabledep/tabledep/internal/tool"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run a stdio MCP server exposing the scanner",
	Long: `Run a Model Context Protocol server over stdio, exposing the
scan_table_dependencies tool. Point an MCP-capable client at this
command to let agents query table dependencies directly.`,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	newLogger()

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "tabledep",
		Version: version,
	}, nil)
	mcp.AddTool(srv, tool.MetadataScanTableDependencies, tool.ScanTableDependencies)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx, &mcp.StdioTransport{})
}
