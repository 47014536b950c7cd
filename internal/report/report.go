// Package report persists diagnostic results as an incrementally
// written JSON document. Each result is flushed as soon as its cell
// completes, so a crash mid-run still leaves every finished cell on
// disk; Finalize closes the document into well-formed JSON on every
// termination path.
package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/banshee-data/lidar.diag/internal/matrix"
)

// DefaultPath is the fixed report destination written by the harness.
const DefaultPath = "rplidar_diagnostic_results.json"

// timestampLayout matches the generation timestamp written into the
// document header.
const timestampLayout = "2006-01-02 15:04:05"

// Writer owns the report file for the lifetime of a diagnostic run.
type Writer struct {
	f         *os.File
	results   []matrix.TestResult
	finalized bool
}

// Open creates or truncates the report at path and writes the document
// header with a generation timestamp.
func Open(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create report %s: %w", path, err)
	}

	header := fmt.Sprintf("{\n  \"timestamp\": %q,\n  \"test_results\": [", time.Now().Format(timestampLayout))
	if _, err := f.WriteString(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write report header: %w", err)
	}

	return &Writer{f: f}, nil
}

// Append serializes one result as the next document entry. First and
// subsequent entries use different separators so the document structure
// stays correct regardless of position. Durations are rounded to two
// decimals on the way out.
func (w *Writer) Append(result matrix.TestResult) error {
	result.TestDurationMS = round2(result.TestDurationMS)

	entry, err := json.MarshalIndent(result, "    ", "  ")
	if err != nil {
		return fmt.Errorf("marshal result for %s @ %d: %w", result.Port, result.BaudRate, err)
	}

	sep := "\n    "
	if len(w.results) > 0 {
		sep = ",\n    "
	}
	if _, err := w.f.WriteString(sep + string(entry)); err != nil {
		return fmt.Errorf("write result for %s @ %d: %w", result.Port, result.BaudRate, err)
	}

	w.results = append(w.results, result)
	return nil
}

// Finalize writes the closing summary block, computed by scanning every
// appended result, and closes the file. It is safe to defer on multiple
// paths: only the first call writes.
func (w *Writer) Finalize() error {
	if w.finalized {
		return nil
	}
	w.finalized = true

	s := Summarize(w.results)
	footer := fmt.Sprintf("\n  ],\n  \"summary\": {\n    \"total_tests\": %d,\n    \"working_configurations\": %d,\n    \"partial_configurations\": %d\n  }\n}\n",
		s.TotalTests, s.WorkingConfigurations, s.PartialConfigurations)

	if _, err := w.f.WriteString(footer); err != nil {
		w.f.Close()
		return fmt.Errorf("write report summary: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("close report: %w", err)
	}
	return nil
}

// Summary mirrors the document's summary object.
type Summary struct {
	TotalTests            int `json:"total_tests"`
	WorkingConfigurations int `json:"working_configurations"`
	PartialConfigurations int `json:"partial_configurations"`
}

// Summarize computes the summary counts over a result set. Working and
// partial are disjoint: a working cell is never also counted as partial.
func Summarize(results []matrix.TestResult) Summary {
	s := Summary{TotalTests: len(results)}
	for _, r := range results {
		switch {
		case r.ScanStartSuccess:
			s.WorkingConfigurations++
		case r.PartialSuccess():
			s.PartialConfigurations++
		}
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
