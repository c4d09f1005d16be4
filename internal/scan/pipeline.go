// SPDX-License-Identifier: Apache-2.0

package scan

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Config describes one scan request. It is immutable for the duration
// of the scan.
type Config struct {
	// Root is the codebase to scan. Unreadable roots are fatal.
	Root string
	// Table is the target table name.
	Table string
	// PKColumn is the target's primary-key column (default "id").
	PKColumn string
	// MinConfidence drops records below this floor.
	MinConfidence Confidence
	// Strict removes, rather than downgrades, schema-unverified records.
	Strict bool
	// SkipDirs overrides DefaultSkipDirs when non-empty.
	SkipDirs []string

	// Progress, when set, is called at each stage boundary and per file
	// during scanning.
	Progress func(phase, detail string)
	// Cancel, when set, is polled between files; a true return aborts
	// the scan at the next file boundary.
	Cancel func() bool

	Logger *slog.Logger
}

// Stats summarizes what one scan saw at each pipeline stage.
type Stats struct {
	TotalFiles     int            `json:"total_files_scanned"`
	RawHits        int            `json:"raw_hits"`
	AfterDedup     int            `json:"after_dedup"`
	AfterFilter    int            `json:"after_filter"`
	ScannerHits    map[string]int `json:"scanner_hits"`
	SchemaDegraded bool           `json:"schema_degraded"`
}

// Report is the outcome of a scan. A cancelled scan carries whatever
// was collected up to the last file boundary, run through the same
// filter stages, with Cancelled set; that is a normal termination, not
// an error.
type Report struct {
	Records   []Record `json:"results"`
	Stats     Stats    `json:"stats"`
	Cancelled bool     `json:"cancelled"`
}

// Runner executes the analysis pipeline over a fixed, ordered scanner
// set. Adding a scanner means registering one more implementation here;
// the pipeline itself does not change.
type Runner struct {
	scanners []Scanner
}

// NewRunner creates a Runner with the provided scanners, in order.
func NewRunner(scanners ...Scanner) *Runner {
	return &Runner{scanners: scanners}
}

// Run executes the full pipeline: classify, extract schema, scan, then
// the merge/filter/confidence stages.
func (r *Runner) Run(cfg Config) (*Report, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	progress := cfg.Progress
	if progress == nil {
		progress = func(string, string) {}
	}
	cancelled := func() bool { return cfg.Cancel != nil && cfg.Cancel() }

	progress("collecting", "Collecting files...")
	classified, err := ClassifyFiles(cfg.Root, cfg.SkipDirs)
	if err != nil {
		return nil, err
	}

	corpus := loadCorpus(classified, logger)

	progress("parsing_schema", "Parsing schema definition...")
	schema := ExtractSchema(corpus.Files(CategorySchema))
	if schema.Degraded() {
		logger.Warn("no schema definition found, known-table filtering disabled", "root", cfg.Root)
	}
	ctx := NewContext(cfg.Table, cfg.PKColumn, schema)

	stats := Stats{
		TotalFiles:     corpus.Len(),
		ScannerHits:    make(map[string]int),
		SchemaDegraded: schema.Degraded(),
	}

	raw, wasCancelled := r.scanCorpus(corpus, ctx, progress, cancelled)
	stats.RawHits = len(raw)
	for _, rec := range raw {
		stats.ScannerHits[string(rec.Kind)]++
	}

	progress("processing", "Deduplicating and filtering results...")
	records := dedupe(raw)
	records = dropReverse(records)
	records = filterKnownTables(records, schema)
	records = dropSelfReferences(records, ctx.Target)
	stats.AfterDedup = len(records)
	records = verifyColumns(records, schema, cfg.Strict)
	records = filterConfidence(records, cfg.MinConfidence)
	records = orderRecords(records, classified)
	stats.AfterFilter = len(records)

	return &Report{Records: records, Stats: stats, Cancelled: wasCancelled}, nil
}

// loadCorpus reads every classified file once. Undecodable or
// unreadable files are skipped, not errored.
func loadCorpus(classified []File, logger *slog.Logger) *Corpus {
	loaded := make([]SourceFile, 0, len(classified))
	for _, f := range classified {
		data, err := os.ReadFile(f.Path)
		if err != nil {
			logger.Debug("skipping unreadable file", "path", f.Rel, "error", err)
			continue
		}
		loaded = append(loaded, SourceFile{File: f, Lines: splitLines(data)})
	}
	return NewCorpus(loaded)
}

// scanCorpus runs every scanner over its applicable files, reporting
// per-file progress and polling cancellation between files only.
func (r *Runner) scanCorpus(corpus *Corpus, ctx *Context, progress func(string, string), cancelled func() bool) (records []Record, aborted bool) {
	total := 0
	for _, s := range r.scanners {
		for _, cat := range s.Categories() {
			total += len(corpus.Files(cat))
		}
	}

	done := 0
	tick := func() {
		done++
		progress("scanning", fmt.Sprintf("Scanning files... (%d/%d)", done, total))
	}

	for _, s := range r.scanners {
		if cs, ok := s.(CorpusScanner); ok {
			if cancelled() {
				return records, true
			}
			records = append(records, cs.ScanCorpus(corpus, ctx)...)
			for _, cat := range s.Categories() {
				done += len(corpus.Files(cat))
			}
			progress("scanning", fmt.Sprintf("Scanning files... (%d/%d)", done, total))
			continue
		}
		for _, cat := range s.Categories() {
			for _, f := range corpus.Files(cat) {
				if cancelled() {
					return records, true
				}
				records = append(records, s.ScanFile(f.Rel, f.Lines, cat, ctx)...)
				tick()
			}
		}
	}
	return records, false
}

// dedupe keeps the single highest-confidence record per
// (file, line, kind) site; ties keep the first seen. First-seen order
// is preserved.
func dedupe(records []Record) []Record {
	best := make(map[dedupKey]int, len(records))
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		k := rec.key()
		if i, ok := best[k]; ok {
			if rec.Confidence > out[i].Confidence {
				out[i] = rec
			}
			continue
		}
		best[k] = len(out)
		out = append(out, rec)
	}
	return out
}

// dropReverse removes reverse-association records: they describe the
// target's own outbound foreign keys, not inbound dependents.
func dropReverse(records []Record) []Record {
	out := records[:0]
	for _, rec := range records {
		if !reverseKinds[rec.Kind] {
			out = append(out, rec)
		}
	}
	return out
}

// filterKnownTables drops records whose table is not declared in the
// schema. A degraded (empty) schema makes this a no-op.
func filterKnownTables(records []Record, schema *SchemaInfo) []Record {
	if schema.Degraded() {
		return records
	}
	out := records[:0]
	for _, rec := range records {
		if schema.HasTable(rec.TableName) {
			out = append(out, rec)
		}
	}
	return out
}

// dropSelfReferences removes records naming the target itself: the
// target is the parent of the dependency, never a child.
func dropSelfReferences(records []Record, target string) []Record {
	out := records[:0]
	for _, rec := range records {
		if rec.TableName != target {
			out = append(out, rec)
		}
	}
	return out
}

// verifyColumns cross-checks each column claim against the schema
// column map. Missing columns are downgraded to LOW and marked
// unverified, or dropped entirely in strict mode. Table-level records
// (empty column) verify trivially. A degraded schema leaves every
// record unchecked.
func verifyColumns(records []Record, schema *SchemaInfo, strict bool) []Record {
	if schema.Degraded() {
		return records
	}
	out := records[:0]
	for _, rec := range records {
		if rec.ColumnName == "" {
			rec.Verified = VerifyPassed
			out = append(out, rec)
			continue
		}
		cols, ok := schema.Columns[rec.TableName]
		if !ok {
			// Table absent from the column map: nothing to check against.
			out = append(out, rec)
			continue
		}
		if datatype, present := cols[rec.ColumnName]; present {
			rec.Verified = VerifyPassed
			rec.Datatype = datatype
			out = append(out, rec)
			continue
		}
		if strict {
			continue
		}
		rec.Verified = VerifyFailed
		rec.Confidence = ConfidenceLow
		out = append(out, rec)
	}
	return out
}

// filterConfidence drops records below the requested floor.
func filterConfidence(records []Record, min Confidence) []Record {
	out := records[:0]
	for _, rec := range records {
		if rec.Confidence >= min {
			out = append(out, rec)
		}
	}
	return out
}

// orderRecords sorts the final list into classifier traversal order by
// file, preserving discovery order within each file.
func orderRecords(records []Record, classified []File) []Record {
	fileOrder := make(map[string]int, len(classified))
	for i, f := range classified {
		fileOrder[f.Rel] = i
	}
	sort.SliceStable(records, func(i, j int) bool {
		oi, iknown := fileOrder[records[i].FilePath]
		oj, jknown := fileOrder[records[j].FilePath]
		if iknown && jknown && oi != oj {
			return oi < oj
		}
		if iknown != jknown {
			return iknown
		}
		return false
	})
	return records
}

func splitLines(data []byte) []string {
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	return strings.Split(s, "\n")
}
