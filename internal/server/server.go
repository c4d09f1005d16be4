// SPDX-License-Identifier: Apache-2.0

// Package server is the HTTP front-end: it starts scans as background
// jobs, serves progress snapshots and results to pollers, and offers a
// directory browser for the path picker. The scanner core does the
// actual work; this layer only moves JSON.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tabledep/tabledep/internal/repo"
	"github.com/tabledep/tabledep/internal/scan"
)

// Server hosts the scan API.
type Server struct {
	port     int
	logger   *slog.Logger
	runner   *scan.Runner
	jobs     *jobRegistry
	defaults Defaults
}

// Defaults seed scan requests that omit optional fields.
type Defaults struct {
	Table         string
	PKColumn      string
	MinConfidence scan.Confidence
	Strict        bool
	SkipDirs      []string
}

// New creates a Server around a configured runner.
func New(port int, runner *scan.Runner, defaults Defaults, logger *slog.Logger) *Server {
	return &Server{
		port:     port,
		logger:   logger,
		runner:   runner,
		jobs:     newJobRegistry(),
		defaults: defaults,
	}
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewMux()
	r.Use(middleware.Recoverer)

	r.Post("/api/scan", s.handleStartScan)
	r.Get("/api/scan/{id}", s.handleScanStatus)
	r.Delete("/api/scan/{id}", s.handleCancelScan)
	r.Get("/api/browse", s.handleBrowse)

	return r
}

// Serve runs the HTTP server until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting server", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

// scanRequest is the POST /api/scan body.
type scanRequest struct {
	LocalPath     string `json:"local_path"`
	Repo          string `json:"repo"`
	Table         string `json:"table"`
	PKColumn      string `json:"pk_column"`
	MinConfidence string `json:"min_confidence"`
	Strict        bool   `json:"strict"`
}

func (s *Server) handleStartScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	table := req.Table
	if table == "" {
		table = s.defaults.Table
	}
	if table == "" {
		writeError(w, http.StatusBadRequest, "table is required")
		return
	}
	if req.LocalPath == "" && req.Repo == "" {
		writeError(w, http.StatusBadRequest, "local_path or repo is required")
		return
	}
	minConf := s.defaults.MinConfidence
	if req.MinConfidence != "" {
		var err error
		if minConf, err = scan.ParseConfidence(req.MinConfidence); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	pk := req.PKColumn
	if pk == "" {
		pk = s.defaults.PKColumn
	}

	job := &Job{ID: uuid.NewString()}
	s.jobs.add(job)

	go s.runJob(job, req, table, pk, minConf)

	writeJSON(w, http.StatusAccepted, map[string]string{"id": job.ID, "status": StatusRunning})
}

// runJob executes one scan in the background, acquiring (and cleaning
// up) a clone when the request names a repository. The job receives the
// final report exactly once.
func (s *Server) runJob(job *Job, req scanRequest, table, pk string, minConf scan.Confidence) {
	root := req.LocalPath
	if req.Repo != "" {
		cloned, cleanup, err := repo.Clone(context.Background(), req.Repo, s.logger)
		if err != nil {
			job.Complete(nil, err)
			return
		}
		defer cleanup()
		root = cloned
	}

	report, err := s.runner.Run(scan.Config{
		Root:          root,
		Table:         table,
		PKColumn:      pk,
		MinConfidence: minConf,
		Strict:        req.Strict || s.defaults.Strict,
		SkipDirs:      s.defaults.SkipDirs,
		Progress:      job.Progress,
		Cancel:        job.CancelRequested,
		Logger:        s.logger,
	})
	job.Complete(report, err)
	if err != nil {
		s.logger.Error("scan failed", "job", job.ID, "error", err)
	}
}

func (s *Server) handleScanStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown scan id")
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

func (s *Server) handleCancelScan(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown scan id")
		return
	}
	job.Cancel()
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// browseEntry is one directory in the path picker listing.
type browseEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func (s *Server) handleBrowse(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("path")
	if target == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		target = home
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("not a readable directory: %s", target))
		return
	}

	dirs := make([]browseEntry, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirs = append(dirs, browseEntry{Name: e.Name(), Path: filepath.Join(target, e.Name())})
	}
	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })

	abs, err := filepath.Abs(target)
	if err != nil {
		abs = target
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current": abs,
		"parent":  filepath.Dir(abs),
		"entries": dirs,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"status": "error", "message": msg})
}
