// Package probe implements the phased diagnostics run against a single
// open transport: the three protocol probes (raw echo, device info,
// health) and the scan probe. Each probe absorbs its own failures into a
// boolean outcome so one failing phase never blocks the next.
package probe

import (
	"time"

	"github.com/banshee-data/lidar.diag/internal/monitoring"
	"github.com/banshee-data/lidar.diag/internal/rplidar"
	"github.com/banshee-data/lidar.diag/internal/serialio"
)

// Timing bounds the protocol probe phases. The zero value is valid and
// skips all delays, which keeps unit tests fast.
type Timing struct {
	// SettleDelay is the pause between sending a command and reading
	// its response, to give the device processing time.
	SettleDelay time.Duration

	// RawTimeout bounds the raw echo read.
	RawTimeout time.Duration

	// InfoTimeout bounds the device info read.
	InfoTimeout time.Duration

	// HealthTimeout bounds the health read.
	HealthTimeout time.Duration
}

// DefaultTiming returns the probe timing used against real hardware.
func DefaultTiming() Timing {
	return Timing{
		SettleDelay:   100 * time.Millisecond,
		RawTimeout:    500 * time.Millisecond,
		InfoTimeout:   time.Second,
		HealthTimeout: time.Second,
	}
}

// responseBufferSize is larger than any non-scan response.
const responseBufferSize = 256

// ProtocolProbe issues the three independent protocol probes against an
// already-open transport.
type ProtocolProbe struct {
	transport *serialio.Transport
	timing    Timing
}

// NewProtocolProbe returns a probe bound to the given open transport.
func NewProtocolProbe(transport *serialio.Transport, timing Timing) *ProtocolProbe {
	return &ProtocolProbe{transport: transport, timing: timing}
}

// exchange sends one command frame, waits the settle delay, and performs
// a single bounded read. Write and read failures are absorbed here: both
// yield an empty response, which the callers classify as a phase
// failure.
func (p *ProtocolProbe) exchange(opcode byte, timeout time.Duration) []byte {
	if err := p.transport.Write(rplidar.Command(opcode)); err != nil {
		monitoring.Logf("    write failed: %v", err)
		return nil
	}
	settle(p.timing.SettleDelay)

	buf := make([]byte, responseBufferSize)
	n, err := p.transport.Read(buf, timeout)
	if err != nil {
		monitoring.Logf("    read failed: %v", err)
		return nil
	}
	return buf[:n]
}

// RawEcho sends RESET and reports whether the device answered with any
// bytes at all. No header validation is applied; this phase only proves
// something is talking on the wire.
func (p *ProtocolProbe) RawEcho() (bool, int) {
	monitoring.Logf("  Testing raw communication...")

	resp := p.exchange(rplidar.CmdReset, p.timing.RawTimeout)
	if len(resp) > 0 {
		monitoring.Logf("    ✓ raw communication successful (%d bytes)", len(resp))
		return true, len(resp)
	}
	monitoring.Logf("    ✗ no response to reset command")
	return false, 0
}

// DeviceInfo sends GET_INFO. Success requires at least 7 response bytes
// with a valid header; fields are decoded only when the response is long
// enough to carry them, and a short-but-valid response still counts as a
// success.
func (p *ProtocolProbe) DeviceInfo() (bool, *rplidar.DeviceInfo) {
	monitoring.Logf("  Testing device info request...")

	resp := p.exchange(rplidar.CmdGetInfo, p.timing.InfoTimeout)
	if len(resp) < rplidar.MinInfoResponse {
		monitoring.Logf("    ✗ insufficient response (%d bytes)", len(resp))
		return false, nil
	}
	if !rplidar.ValidHeader(resp) {
		monitoring.Logf("    ✗ invalid response header: %02x %02x", resp[0], resp[1])
		return false, nil
	}
	monitoring.Logf("    ✓ device info received (%d bytes)", len(resp))

	info, err := rplidar.DecodeDeviceInfo(resp)
	if err != nil {
		// Valid header but not enough bytes for the field block.
		return true, nil
	}
	monitoring.Logf("      Model: %d", info.Model)
	monitoring.Logf("      Firmware: %s", info.FirmwareString())
	monitoring.Logf("      Hardware: %d", info.Hardware)
	return true, &info
}

// Health sends GET_HEALTH. Success requires at least 10 response bytes
// with a valid header.
func (p *ProtocolProbe) Health() (bool, *rplidar.Health) {
	monitoring.Logf("  Testing health check...")

	resp := p.exchange(rplidar.CmdGetHealth, p.timing.HealthTimeout)
	if len(resp) < rplidar.MinHealthResponse {
		monitoring.Logf("    ✗ health check failed (%d bytes)", len(resp))
		return false, nil
	}

	health, err := rplidar.DecodeHealth(resp)
	if err != nil {
		monitoring.Logf("    ✗ invalid health response header")
		return false, nil
	}
	monitoring.Logf("    ✓ health check successful")
	monitoring.Logf("      Status: %d", health.Status)
	monitoring.Logf("      Error code: %d", health.ErrorCode)
	return true, &health
}

func settle(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
