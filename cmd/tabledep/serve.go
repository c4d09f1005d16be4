// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tabledep/tabledep/internal/config"
	"github.com/tabledep/tabledep/internal/scan"
	"github.com/tabledep/tabledep/internal/scan/scanners"
	"github.com/tabledep/tabledep/internal/server"
)

var servePortFlag int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP scan server",
	Long: `Run an HTTP server that starts scans as background jobs and serves
progress and results to pollers.

  POST   /api/scan        start a scan (local_path or repo, table, ...)
  GET    /api/scan/{id}   poll progress and fetch results
  DELETE /api/scan/{id}   cancel a running scan
  GET    /api/browse      list directories for the path picker`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePortFlag, "port", 0,
		"Port to listen on (default: 8642, or server.port from tabledep.yaml)")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	cfg, err := config.Load(configDirFlag)
	if err != nil {
		return err
	}
	port := servePortFlag
	if port == 0 {
		port = cfg.Server.Port
	}
	minConf, err := scan.ParseConfidence(cfg.MinConfidence)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(port, scan.NewRunner(scanners.Default()...), server.Defaults{
		Table:         cfg.Table,
		PKColumn:      cfg.PKColumn,
		MinConfidence: minConf,
		Strict:        cfg.Strict,
		SkipDirs:      cfg.SkipDirs,
	}, logger)
	return srv.Serve(ctx)
}
