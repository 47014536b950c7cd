package probe

import (
	"time"

	"github.com/banshee-data/lidar.diag/internal/monitoring"
	"github.com/banshee-data/lidar.diag/internal/rplidar"
	"github.com/banshee-data/lidar.diag/internal/serialio"
)

// ScanTiming bounds the scan probe loop. The zero value skips all
// delays.
type ScanTiming struct {
	// StartSettle is the pause after START_SCAN before the first read;
	// the device needs spin-up time before data flows.
	StartSettle time.Duration

	// ReadTimeout bounds each read attempt.
	ReadTimeout time.Duration

	// AttemptPause is the pause between read attempts.
	AttemptPause time.Duration

	// StopSettle is the pause after STOP on the way out.
	StopSettle time.Duration
}

// DefaultScanTiming returns the scan timing used against real hardware.
func DefaultScanTiming() ScanTiming {
	return ScanTiming{
		StartSettle:  500 * time.Millisecond,
		ReadTimeout:  200 * time.Millisecond,
		AttemptPause: 100 * time.Millisecond,
		StopSettle:   100 * time.Millisecond,
	}
}

const (
	// ScanPointThreshold is the accumulated heuristic point total that
	// marks a configuration as producing real scan data.
	ScanPointThreshold = 10

	// MaxScanAttempts bounds the read loop.
	MaxScanAttempts = 20

	// scanBufferSize fits several hundred points per read.
	scanBufferSize = 2048
)

type scanState int

const (
	scanNotStarted scanState = iota
	scanScanning
	scanDone
)

// ScanProbe drives the start-scan / read / stop sequence and accumulates
// a heuristic point count. It is single use: create one per matrix cell.
type ScanProbe struct {
	transport *serialio.Transport
	timing    ScanTiming
	state     scanState
}

// NewScanProbe returns a scan probe bound to the given open transport.
func NewScanProbe(transport *serialio.Transport, timing ScanTiming) *ScanProbe {
	return &ScanProbe{transport: transport, timing: timing}
}

// Done reports whether the probe has finished, including sending STOP.
func (s *ScanProbe) Done() bool {
	return s.state == scanDone
}

// Run executes the probe to completion: START_SCAN, a bounded sequence
// of short reads accumulating points, then STOP. STOP is sent on every
// exit path, success or not, and the accumulated total is reported even
// when the threshold was never crossed.
func (s *ScanProbe) Run() (bool, int) {
	monitoring.Logf("  Testing scan start...")

	s.state = scanScanning
	defer s.stop()

	if err := s.transport.Write(rplidar.Command(rplidar.CmdStartScan)); err != nil {
		monitoring.Logf("    write failed: %v", err)
		return false, 0
	}
	settle(s.timing.StartSettle)

	buf := make([]byte, scanBufferSize)
	total := 0
	for attempt := 0; attempt < MaxScanAttempts; attempt++ {
		n, err := s.transport.Read(buf, s.timing.ReadTimeout)
		switch {
		case err != nil:
			monitoring.Logf("    read failed: %v", err)
		case n > 0:
			points := rplidar.HeuristicPoints(n)
			total += points
			monitoring.Logf("    Read %d bytes (%d potential points)", n, points)
			if total > ScanPointThreshold {
				monitoring.Logf("    ✓ Scan data received (%d points)", total)
				return true, total
			}
		default:
			monitoring.Logf("    No data received (attempt %d)", attempt+1)
		}
		settle(s.timing.AttemptPause)
	}

	monitoring.Logf("    ✗ No valid scan data received")
	return false, total
}

// stop sends STOP and transitions to done. It runs on every exit path of
// Run, once.
func (s *ScanProbe) stop() {
	if s.state != scanScanning {
		return
	}
	if err := s.transport.Write(rplidar.Command(rplidar.CmdStop)); err != nil {
		monitoring.Logf("    stop command failed: %v", err)
	}
	settle(s.timing.StopSettle)
	s.state = scanDone
}
