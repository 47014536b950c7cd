// Command analyze interprets a diagnostic report written by lidar-diag:
// it categorizes configurations into working, partial, and failed,
// recommends the best working configuration, prints troubleshooting
// guidance, and can render an HTML chart or show past run history.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/banshee-data/lidar.diag/internal/analysis"
	"github.com/banshee-data/lidar.diag/internal/diagdb"
	"github.com/banshee-data/lidar.diag/internal/matrix"
	"github.com/banshee-data/lidar.diag/internal/report"
)

var (
	reportPath = flag.String("report", report.DefaultPath, "Path to the diagnostic report JSON")
	chartPath  = flag.String("chart", "", "Write an HTML chart of scan points per configuration to this path")
	dbPath     = flag.String("db", "", "Show recent run history from this SQLite database")
)

func main() {
	flag.Parse()

	doc, err := report.Load(*reportPath)
	if err != nil {
		log.Fatalf("Failed to load report: %v (run lidar-diag first)", err)
	}

	log.Printf("=== RPLIDAR DIAGNOSTIC RESULTS ANALYSIS ===")
	log.Printf("Test date: %s", doc.Timestamp)

	c := analysis.Categorize(doc.TestResults)
	log.Printf("Total tests: %d", len(doc.TestResults))
	log.Printf("Working configurations: %d", len(c.Working))
	log.Printf("Partial configurations: %d", len(c.Partial))
	log.Printf("Failed configurations: %d", len(c.Failed))

	if len(doc.TestResults) > 0 {
		stats := analysis.Durations(doc.TestResults)
		log.Printf("Cell duration: mean %.1fms, stddev %.1fms", stats.Mean, stats.StdDev)
	}

	printWorking(c.Working)
	printPartial(c.Partial)
	printTroubleshooting(c)

	if *chartPath != "" {
		writeChart(doc, *chartPath)
	}
	if *dbPath != "" {
		printHistory(*dbPath)
	}
}

func printWorking(working []matrix.TestResult) {
	if len(working) == 0 {
		log.Printf("✗ NO WORKING CONFIGURATIONS FOUND")
		return
	}

	log.Printf("✓ WORKING CONFIGURATIONS (%d):", len(working))
	for i, r := range working {
		log.Printf("%d. Port: %s", i+1, r.Port)
		log.Printf("   Baudrate: %d", r.BaudRate)
		log.Printf("   Scan points: %d", r.ScanPointsReceived)
		log.Printf("   Test duration: %.1fms", r.TestDurationMS)
	}

	if best, ok := analysis.Recommend(working); ok {
		log.Printf("RECOMMENDED CONFIGURATION:")
		log.Printf("  Port: %s", best.Port)
		log.Printf("  Baudrate: %d", best.BaudRate)
		log.Printf("  Reason: highest scan point count (%d points)", best.ScanPointsReceived)
	}
}

func printPartial(partial []matrix.TestResult) {
	if len(partial) == 0 {
		return
	}

	log.Printf("⚠ PARTIALLY WORKING CONFIGURATIONS (%d):", len(partial))
	for i, r := range partial {
		log.Printf("%d. Port: %s @ %d baud", i+1, r.Port, r.BaudRate)
		log.Printf("   Working: %s", strings.Join(r.Capabilities(), ", "))
		if r.ErrorMessage != "" {
			log.Printf("   Error: %s", r.ErrorMessage)
		}
	}
}

func printTroubleshooting(c analysis.Categories) {
	log.Printf("TROUBLESHOOTING:")
	switch {
	case len(c.Working) > 0:
		log.Printf("  Use the recommended configuration above.")
	case len(c.Partial) > 0:
		log.Printf("  Device communicates but scanning fails; this points at a")
		log.Printf("  protocol or timing issue. Try longer delays between commands,")
		log.Printf("  a device reset between attempts, or a firmware check.")
	default:
		log.Printf("  No communication detected. Check the USB cable, the power")
		log.Printf("  supply (5V with adequate current), and whether the device")
		log.Printf("  appears in the system at all (dmesg | grep -i usb).")
	}
}

func writeChart(doc *report.Document, path string) {
	f, err := os.Create(path)
	if err != nil {
		log.Printf("Failed to create chart file: %v", err)
		return
	}
	defer f.Close()

	if err := analysis.RenderChart(doc, f); err != nil {
		log.Printf("Failed to render chart: %v", err)
		return
	}
	log.Printf("Chart written to: %s", path)
}

func printHistory(path string) {
	db, err := diagdb.Open(path)
	if err != nil {
		log.Printf("Failed to open history database: %v", err)
		return
	}
	defer db.Close()

	runs, err := db.RecentRuns(10)
	if err != nil {
		log.Printf("Failed to load run history: %v", err)
		return
	}
	if len(runs) == 0 {
		log.Printf("No recorded runs.")
		return
	}

	log.Printf("RECENT RUNS:")
	for _, run := range runs {
		log.Printf("  %s  tests=%d working=%d partial=%d  (%s)",
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Summary.TotalTests, run.Summary.WorkingConfigurations,
			run.Summary.PartialConfigurations, run.ID)
	}
}
