// SPDX-License-Identifier: Apache-2.0

package server

import (
	"sync"
	"sync/atomic"

	"github.com/tabledep/tabledep/internal/scan"
)

// Job statuses reported to pollers.
const (
	StatusRunning   = "running"
	StatusDone      = "done"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Job is one background scan observed from the HTTP layer. The scan
// goroutine writes the progress snapshot and the final report; handlers
// only ever read them under the lock. Cancellation is a one-way flag
// the scan polls between files.
type Job struct {
	ID string

	cancelled atomic.Bool

	mu     sync.RWMutex
	phase  string
	detail string
	report *scan.Report
	err    error
}

// Progress records a progress update from the scan goroutine.
func (j *Job) Progress(phase, detail string) {
	j.mu.Lock()
	j.phase, j.detail = phase, detail
	j.mu.Unlock()
}

// Cancel requests cooperative cancellation. It cannot be undone.
func (j *Job) Cancel() { j.cancelled.Store(true) }

// CancelRequested is the predicate polled by the scan between files.
func (j *Job) CancelRequested() bool { return j.cancelled.Load() }

// Complete hands the final report (or error) off to the job, exactly
// once, when the scan goroutine finishes.
func (j *Job) Complete(report *scan.Report, err error) {
	j.mu.Lock()
	j.report, j.err = report, err
	j.mu.Unlock()
}

// Status is a point-in-time view of a job, safe to take while the scan
// is still running.
type Status struct {
	ID      string        `json:"id"`
	Status  string        `json:"status"`
	Phase   string        `json:"phase,omitempty"`
	Detail  string        `json:"detail,omitempty"`
	Error   string        `json:"error,omitempty"`
	Results []scan.Record `json:"results,omitempty"`
	Stats   *scan.Stats   `json:"stats,omitempty"`
}

// Snapshot returns the job's current externally visible state.
func (j *Job) Snapshot() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()

	s := Status{ID: j.ID, Phase: j.phase, Detail: j.detail}
	switch {
	case j.err != nil:
		s.Status = StatusFailed
		s.Error = j.err.Error()
	case j.report != nil && j.report.Cancelled:
		s.Status = StatusCancelled
		s.Results = j.report.Records
		s.Stats = &j.report.Stats
	case j.report != nil:
		s.Status = StatusDone
		s.Results = j.report.Records
		s.Stats = &j.report.Stats
	default:
		s.Status = StatusRunning
	}
	return s
}

// jobRegistry tracks jobs by ID.
type jobRegistry struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

func newJobRegistry() *jobRegistry {
	return &jobRegistry{jobs: make(map[string]*Job)}
}

func (r *jobRegistry) add(j *Job) {
	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
}

func (r *jobRegistry) get(id string) (*Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	return j, ok
}
