package matrix

import (
	"fmt"
	"strings"
	"time"

	"github.com/banshee-data/lidar.diag/internal/monitoring"
	"github.com/banshee-data/lidar.diag/internal/probe"
	"github.com/banshee-data/lidar.diag/internal/serialio"
)

// ResultSink receives each TestResult as soon as its cell completes, so
// partial runs still leave a usable record behind.
type ResultSink interface {
	Append(result TestResult) error
}

// Runner drives the full port × baud-rate diagnostic matrix. Cells run
// strictly sequentially: one port open at a time, one probe in flight at
// a time.
type Runner struct {
	// Transport is owned by the runner for the duration of each cell
	// and is closed between cells on every path.
	Transport *serialio.Transport

	// BaudRates is tried in order against every port.
	BaudRates []int

	// Timing and ScanTiming bound the probe phases; tests zero them.
	Timing     probe.Timing
	ScanTiming probe.ScanTiming

	sinks []ResultSink
}

// NewRunner returns a runner with the fixed baud-rate matrix and
// hardware timing defaults.
func NewRunner(transport *serialio.Transport, sinks ...ResultSink) *Runner {
	return &Runner{
		Transport:  transport,
		BaudRates:  serialio.SupportedBaudRates,
		Timing:     probe.DefaultTiming(),
		ScanTiming: probe.DefaultScanTiming(),
		sinks:      sinks,
	}
}

// Run tests every baud rate against every port, in discovery order and
// fixed baud order, and returns exactly one result per cell. Results are
// handed to the sinks as each cell completes. No cell failure stops the
// matrix.
func (r *Runner) Run(ports []string) []TestResult {
	var results []TestResult
	for _, port := range ports {
		for _, baud := range r.BaudRates {
			result := r.testCell(port, baud)
			results = append(results, result)

			for _, sink := range r.sinks {
				if err := sink.Append(result); err != nil {
					monitoring.Logf("Failed to record result for %s @ %d: %v", port, baud, err)
				}
			}
			logCellOutcome(result)
		}
	}
	return results
}

// testCell runs the probe sequence for one matrix cell. The transport is
// closed on every path, and the duration covers the whole cell: open,
// probes, close. On open failure only the error message and duration are
// populated and no probe runs.
func (r *Runner) testCell(port string, baud int) TestResult {
	result := TestResult{Port: port, BaudRate: baud}
	start := time.Now()

	monitoring.Logf("Testing %s at %d baud...", port, baud)

	if err := r.Transport.Open(port, baud); err != nil {
		result.ErrorMessage = fmt.Sprintf("failed to open serial port: %v", err)
		result.TestDurationMS = elapsedMS(start)
		return result
	}

	protocol := probe.NewProtocolProbe(r.Transport, r.Timing)
	result.RawCommunication, _ = protocol.RawEcho()
	result.DeviceInfoSuccess, _ = protocol.DeviceInfo()
	result.HealthCheckSuccess, _ = protocol.Health()

	scan := probe.NewScanProbe(r.Transport, r.ScanTiming)
	result.ScanStartSuccess, result.ScanPointsReceived = scan.Run()

	if err := r.Transport.Close(); err != nil {
		monitoring.Logf("  Failed to close %s: %v", port, err)
	}

	result.TestDurationMS = elapsedMS(start)
	return result
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func logCellOutcome(result TestResult) {
	switch {
	case result.ScanStartSuccess:
		monitoring.Logf("  Result: ✓ WORKING - scan successful with %d points", result.ScanPointsReceived)
	case result.DeviceInfoSuccess || result.HealthCheckSuccess:
		monitoring.Logf("  Result: ⚠ PARTIAL - device responds but scanning failed")
	case result.RawCommunication:
		monitoring.Logf("  Result: ⚠ BASIC - raw communication only")
	default:
		monitoring.Logf("  Result: ✗ FAILED - %s", result.ErrorMessage)
	}
	monitoring.Logf("  Duration: %.1fms", result.TestDurationMS)
}

// Summarize logs whether any cell produced a working configuration and,
// when none did, every cell that got at least a partial success.
func Summarize(results []TestResult) {
	monitoring.Logf("=== DIAGNOSTIC SUMMARY ===")

	for _, r := range results {
		if r.ScanStartSuccess {
			monitoring.Logf("✓ WORKING CONFIGURATION FOUND:")
			monitoring.Logf("  Port: %s", r.Port)
			monitoring.Logf("  Baudrate: %d", r.BaudRate)
			monitoring.Logf("  Scan points: %d", r.ScanPointsReceived)
			return
		}
	}

	monitoring.Logf("✗ NO WORKING CONFIGURATIONS FOUND")
	monitoring.Logf("Partial successes:")
	for _, r := range results {
		if r.PartialSuccess() {
			monitoring.Logf("  %s @ %d: %s", r.Port, r.BaudRate, strings.Join(r.Capabilities(), " "))
		}
	}
}
