// SPDX-License-Identifier: Apache-2.0

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var (
	verboseFlag   bool
	configDirFlag string
)

var rootCmd = &cobra.Command{
	Use:   "tabledep",
	Short: "Find everything that depends on a database table",
	Long: `tabledep scans a Rails-style codebase and reports every table, column
and file that structurally depends on a named database table: declared
foreign keys, polymorphic associations, migration history and raw
textual references in SQL, templates and configuration.

Each result carries a reference type, a code snippet and an ordinal
confidence (HIGH/MEDIUM/LOW). Column claims are cross-checked against
db/schema.rb when one is present.

Examples:
  tabledep scan ./myapp --table rewards
  tabledep scan --repo acme/shop --table orders --min-confidence MEDIUM
  tabledep serve
  tabledep mcp`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDirFlag, "config-dir", "",
		"Directory to look for tabledep.yaml in (default: current directory)")
}

// newLogger builds the process logger. Logs go to stderr so stdout
// stays clean for results (and for the MCP stdio transport).
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}
