// Command lidar-diag probes every serial port on the host for an
// RPLIDAR-class sensor. It tries a fixed baud-rate matrix against each
// port, runs the raw/info/health/scan probe sequence per cell, and
// records a replayable JSON report plus a SQLite run history. The
// process exits 0 whether or not a working configuration was found;
// absence of one is a finding, not a failure.
package main

import (
	"log"
	"strings"

	"github.com/banshee-data/lidar.diag/internal/diagdb"
	"github.com/banshee-data/lidar.diag/internal/matrix"
	"github.com/banshee-data/lidar.diag/internal/report"
	"github.com/banshee-data/lidar.diag/internal/serialio"
)

func main() {
	log.Printf("=== RPLIDAR Hardware Diagnostic ===")

	writer, err := report.Open(report.DefaultPath)
	if err != nil {
		log.Fatalf("Failed to open report: %v", err)
	}
	// The report must be finalized on every termination path, including
	// the zero-interfaces early return.
	defer func() {
		if err := writer.Finalize(); err != nil {
			log.Printf("Failed to finalize report: %v", err)
		}
	}()

	db, err := diagdb.Open(diagdb.DefaultPath)
	if err != nil {
		log.Printf("Run history disabled: %v", err)
		db = nil
	} else {
		defer db.Close()
	}

	ports, err := serialio.ListPorts()
	if err != nil {
		log.Printf("Failed to enumerate serial ports: %v", err)
	}
	if len(ports) == 0 {
		log.Printf("No serial ports found!")
		recordRun(db, nil)
		return
	}
	log.Printf("Found ports: %s", strings.Join(ports, " "))

	runner := matrix.NewRunner(serialio.NewTransport(nil), writer)
	results := runner.Run(ports)

	matrix.Summarize(results)
	recordRun(db, results)
	log.Printf("Results saved to: %s", report.DefaultPath)
}

// recordRun stores the finished run in the history database, if one is
// available. History failures are logged, never fatal.
func recordRun(db *diagdb.DiagDB, results []matrix.TestResult) {
	if db == nil {
		return
	}
	run := diagdb.NewRun(report.DefaultPath)
	run.Summary = report.Summarize(results)
	if err := db.RecordRun(run, results); err != nil {
		log.Printf("Failed to record run history: %v", err)
	}
}
