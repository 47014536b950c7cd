package analysis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar.diag/internal/matrix"
	"github.com/banshee-data/lidar.diag/internal/report"
)

func TestCategorize(t *testing.T) {
	results := []matrix.TestResult{
		{Port: "a", ScanStartSuccess: true, ScanPointsReceived: 15},
		{Port: "b", ScanStartSuccess: true, ScanPointsReceived: 0}, // threshold bug guard: no points, not working
		{Port: "c", DeviceInfoSuccess: true},
		{Port: "d", RawCommunication: true},
		{Port: "e"},
	}

	c := Categorize(results)
	require.Len(t, c.Working, 1)
	assert.Equal(t, "a", c.Working[0].Port)
	require.Len(t, c.Partial, 2)
	require.Len(t, c.Failed, 2)
}

func TestCategorizeMatchesSummaryCounts(t *testing.T) {
	results := []matrix.TestResult{
		{ScanStartSuccess: true, ScanPointsReceived: 11},
		{HealthCheckSuccess: true},
		{RawCommunication: true},
		{},
	}

	c := Categorize(results)
	s := report.Summarize(results)
	assert.Equal(t, s.WorkingConfigurations, len(c.Working))
	assert.Equal(t, s.PartialConfigurations, len(c.Partial))
	assert.Equal(t, s.TotalTests, len(c.Working)+len(c.Partial)+len(c.Failed))
}

func TestRecommend(t *testing.T) {
	working := []matrix.TestResult{
		{Port: "/dev/ttyUSB0", BaudRate: 115200, ScanPointsReceived: 12},
		{Port: "/dev/ttyUSB0", BaudRate: 256000, ScanPointsReceived: 48},
		{Port: "/dev/ttyUSB1", BaudRate: 115200, ScanPointsReceived: 30},
	}

	best, ok := Recommend(working)
	require.True(t, ok)
	assert.Equal(t, 256000, best.BaudRate)
	assert.Equal(t, 48, best.ScanPointsReceived)
}

func TestRecommendEmpty(t *testing.T) {
	_, ok := Recommend(nil)
	assert.False(t, ok)
}

func TestDurations(t *testing.T) {
	results := []matrix.TestResult{
		{TestDurationMS: 100},
		{TestDurationMS: 200},
		{TestDurationMS: 300},
	}

	stats := Durations(results)
	assert.InDelta(t, 200, stats.Mean, 1e-9)
	assert.InDelta(t, 100, stats.StdDev, 1e-9)
}

func TestDurationsDegenerate(t *testing.T) {
	assert.Equal(t, DurationStats{}, Durations(nil))

	single := Durations([]matrix.TestResult{{TestDurationMS: 42}})
	assert.InDelta(t, 42, single.Mean, 1e-9)
	assert.Equal(t, 0.0, single.StdDev)
}

func TestRenderChart(t *testing.T) {
	doc := &report.Document{
		Timestamp: "2026-08-31 12:00:00",
		TestResults: []matrix.TestResult{
			{Port: "/dev/ttyUSB0", BaudRate: 115200, ScanPointsReceived: 15},
			{Port: "/dev/ttyUSB0", BaudRate: 256000, ScanPointsReceived: 0},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderChart(doc, &buf))

	html := buf.String()
	assert.True(t, strings.Contains(html, "scan points"))
	assert.True(t, strings.Contains(html, "/dev/ttyUSB0 @ 115200"))
}
