// Package analysis interprets finished diagnostic reports: it
// partitions configurations by how far each one got, recommends the
// best working configuration, and summarizes cell timings.
package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lidar.diag/internal/matrix"
)

// Categories partitions results by outcome. Working configurations
// produced real scan data; partial ones answered at least one probe;
// failed ones never responded at all.
type Categories struct {
	Working []matrix.TestResult
	Partial []matrix.TestResult
	Failed  []matrix.TestResult
}

// Categorize splits results into working, partial, and failed
// configurations.
func Categorize(results []matrix.TestResult) Categories {
	var c Categories
	for _, r := range results {
		switch {
		case r.ScanStartSuccess && r.ScanPointsReceived > 0:
			c.Working = append(c.Working, r)
		case r.DeviceInfoSuccess || r.HealthCheckSuccess || r.RawCommunication:
			c.Partial = append(c.Partial, r)
		default:
			c.Failed = append(c.Failed, r)
		}
	}
	return c
}

// Recommend returns the working configuration with the highest scan
// point count, or false when none exist.
func Recommend(working []matrix.TestResult) (matrix.TestResult, bool) {
	if len(working) == 0 {
		return matrix.TestResult{}, false
	}

	best := working[0]
	for _, r := range working[1:] {
		if r.ScanPointsReceived > best.ScanPointsReceived {
			best = r
		}
	}
	return best, true
}

// DurationStats summarizes cell durations in milliseconds.
type DurationStats struct {
	Mean   float64
	StdDev float64
}

// Durations computes the mean and standard deviation of cell durations
// across a result set.
func Durations(results []matrix.TestResult) DurationStats {
	if len(results) == 0 {
		return DurationStats{}
	}

	ms := make([]float64, len(results))
	for i, r := range results {
		ms[i] = r.TestDurationMS
	}

	mean, std := stat.MeanStdDev(ms, nil)
	if math.IsNaN(std) {
		// Single sample.
		std = 0
	}
	return DurationStats{Mean: mean, StdDev: std}
}
