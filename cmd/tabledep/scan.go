// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tabledep/tabledep/internal/config"
	"github.com/tabledep/tabledep/internal/output"
	"github.com/tabledep/tabledep/internal/repo"
	"github.com/tabledep/tabledep/internal/scan"
	"github.com/tabledep/tabledep/internal/scan/scanners"
)

var (
	scanRepoFlag    string
	scanTableFlag   string
	scanPKFlag      string
	scanMinConfFlag string
	scanStrictFlag  bool
	scanSkipDirs    []string
	scanOutputFlag  string
	scanFormatFlag  string
	scanKeepClone   bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a codebase for dependencies on a table",
	Long: `Scan a codebase for structural dependencies on a table.

The codebase is either a local path (positional argument) or a GitHub
repository cloned via the gh CLI (--repo). Results print as a table on
stdout; --format csv or --output switches to CSV.

Examples:
  tabledep scan ./myapp --table rewards
  tabledep scan --repo acme/shop --table orders --strict
  tabledep scan ./myapp --table rewards --output deps.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanRepoFlag, "repo", "",
		"GitHub repository (org/repo) to clone and scan")
	scanCmd.Flags().StringVar(&scanTableFlag, "table", "",
		"Target table name")
	scanCmd.Flags().StringVar(&scanPKFlag, "pk-column", "",
		"Primary-key column of the target table (default: id)")
	scanCmd.Flags().StringVar(&scanMinConfFlag, "min-confidence", "",
		"Minimum confidence to report: HIGH, MEDIUM or LOW (default: LOW)")
	scanCmd.Flags().BoolVar(&scanStrictFlag, "strict", false,
		"Drop, rather than downgrade, schema-unverified results")
	scanCmd.Flags().StringSliceVar(&scanSkipDirs, "skip-dir", nil,
		"Directory name to skip while walking (repeatable)")
	scanCmd.Flags().StringVarP(&scanOutputFlag, "output", "o", "",
		"Write results as CSV to this file")
	scanCmd.Flags().StringVar(&scanFormatFlag, "format", "table",
		"Output format on stdout: table or csv")
	scanCmd.Flags().BoolVar(&scanKeepClone, "keep-clone", false,
		"Keep the temporary clone after scanning")

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configDirFlag)
	if err != nil {
		return err
	}

	table := scanTableFlag
	if table == "" {
		table = cfg.Table
	}
	if table == "" {
		return fmt.Errorf("--table is required (or set table in tabledep.yaml)")
	}
	if len(args) == 0 && scanRepoFlag == "" {
		return fmt.Errorf("a local path or --repo is required")
	}

	pk := scanPKFlag
	if pk == "" {
		pk = cfg.PKColumn
	}
	minStr := scanMinConfFlag
	if minStr == "" {
		minStr = cfg.MinConfidence
	}
	minConf, err := scan.ParseConfidence(minStr)
	if err != nil {
		return err
	}
	skipDirs := scanSkipDirs
	if len(skipDirs) == 0 {
		skipDirs = cfg.SkipDirs
	}

	root := ""
	if len(args) > 0 {
		root = args[0]
	}
	if scanRepoFlag != "" {
		cloned, cleanup, err := repo.Clone(ctx, scanRepoFlag, logger)
		if err != nil {
			return err
		}
		if scanKeepClone {
			logger.Info("keeping clone", "path", cloned)
		} else {
			defer cleanup()
		}
		root = cloned
	}

	runner := scan.NewRunner(scanners.Default()...)
	report, err := runner.Run(scan.Config{
		Root:          root,
		Table:         table,
		PKColumn:      pk,
		MinConfidence: minConf,
		Strict:        scanStrictFlag || cfg.Strict,
		SkipDirs:      skipDirs,
		Cancel:        interrupted(ctx),
		Logger:        logger,
	})
	if err != nil {
		return err
	}
	if report.Cancelled {
		logger.Warn("scan interrupted, results are partial")
	}

	if report.Stats.SchemaDegraded {
		logger.Warn("no parseable db/schema.rb found, schema verification skipped")
	}
	logger.Info("scan complete",
		"files", report.Stats.TotalFiles,
		"results", len(report.Records))

	if scanOutputFlag != "" {
		f, err := os.Create(scanOutputFlag)
		if err != nil {
			return fmt.Errorf("creating %s: %w", scanOutputFlag, err)
		}
		defer f.Close()
		return output.WriteCSV(f, report.Records)
	}

	switch scanFormatFlag {
	case "table":
		output.RenderTable(os.Stdout, report.Records)
		return nil
	case "csv":
		return output.WriteCSV(os.Stdout, report.Records)
	default:
		return fmt.Errorf("unknown format %q (want table or csv)", scanFormatFlag)
	}
}

// interrupted adapts context cancellation (Ctrl-C via cobra's signal
// handling) to the scanner's cooperative cancel predicate.
func interrupted(ctx context.Context) func() bool {
	return func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
			return false
		}
	}
}
