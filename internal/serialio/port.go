// Package serialio owns serial transport for the diagnostic harness: port
// enumeration, scoped open/close of a single port, and timeout-bounded
// reads and writes. The port behind the transport is abstracted behind a
// small interface so the probe layers can be tested without hardware.
package serialio

import (
	"io"
	"time"
)

// Porter is the minimal surface of a serial port used by the transport.
// go.bug.st/serial.Port satisfies it directly; tests substitute a
// TestablePort.
type Porter interface {
	io.ReadWriter
	io.Closer
	// SetReadTimeout bounds subsequent Read calls. A timed-out read
	// returns (0, nil) rather than an error.
	SetReadTimeout(timeout time.Duration) error
}

// PortFactory opens serial ports. Injecting a factory keeps real
// hardware out of unit tests.
type PortFactory interface {
	// Open opens the port at path configured for 8 data bits, no
	// parity, one stop bit, no flow control at the given baud rate.
	Open(path string, baud int) (Porter, error)
}

// SupportedBaudRates is the fixed, ordered set of baud rates the
// diagnostic matrix tries against every port. The order is significant
// and matches the rates RPLIDAR-class sensors ship with.
var SupportedBaudRates = []int{115200, 256000, 230400, 460800, 921600}

// DefaultBaudRate is used when an unsupported rate is requested.
const DefaultBaudRate = 115200

// SupportedBaud reports whether baud is one of the fixed matrix rates.
func SupportedBaud(baud int) bool {
	for _, b := range SupportedBaudRates {
		if b == baud {
			return true
		}
	}
	return false
}
