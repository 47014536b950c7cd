package serialio

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

var (
	// ErrNotOpen is returned by Read and Write when no port is open.
	ErrNotOpen = errors.New("serial port not open")

	// ErrWriteFailed is returned when the port accepts fewer bytes than
	// were offered.
	ErrWriteFailed = errors.New("failed to write all bytes to serial port")
)

// Transport owns at most one open serial port at a time. Opening a new
// port implicitly closes the previous one, and Close is safe to call in
// any state, so callers can release the port on every exit path without
// tracking whether an open succeeded.
type Transport struct {
	factory PortFactory
	port    Porter
	path    string
	baud    int
}

// NewTransport returns a transport backed by the given factory. A nil
// factory selects the real go.bug.st/serial implementation.
func NewTransport(factory PortFactory) *Transport {
	if factory == nil {
		factory = RealPortFactory{}
	}
	return &Transport{factory: factory}
}

// Open opens the port at path with the given baud rate, closing any
// previously open port first. Baud rates outside SupportedBaudRates fall
// back to DefaultBaudRate.
func (t *Transport) Open(path string, baud int) error {
	t.Close()

	if !SupportedBaud(baud) {
		baud = DefaultBaudRate
	}

	port, err := t.factory.Open(path, baud)
	if err != nil {
		return fmt.Errorf("open %s at %d baud: %w", path, baud, err)
	}

	t.port = port
	t.path = path
	t.baud = baud
	return nil
}

// Write writes all of p to the open port. A short write is an error.
func (t *Transport) Write(p []byte) error {
	if t.port == nil {
		return ErrNotOpen
	}
	n, err := t.port.Write(p)
	if err != nil {
		return fmt.Errorf("write to %s: %w", t.path, err)
	}
	if n != len(p) {
		return ErrWriteFailed
	}
	return nil
}

// Read performs a single read bounded by timeout. A return of (0, nil)
// means the timeout expired with no data, which is a normal outcome; a
// non-nil error indicates a hard I/O failure.
func (t *Transport) Read(p []byte, timeout time.Duration) (int, error) {
	if t.port == nil {
		return 0, ErrNotOpen
	}
	if err := t.port.SetReadTimeout(timeout); err != nil {
		return 0, fmt.Errorf("set read timeout on %s: %w", t.path, err)
	}
	n, err := t.port.Read(p)
	if err != nil {
		return 0, fmt.Errorf("read from %s: %w", t.path, err)
	}
	return n, nil
}

// Close closes the open port, if any. Calling it when nothing is open,
// or more than once, is a no-op.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	t.path = ""
	t.baud = 0
	return err
}

// IsOpen reports whether a port is currently open.
func (t *Transport) IsOpen() bool {
	return t.port != nil
}

// ListPorts enumerates candidate serial interfaces for the host
// platform. The library owns the per-platform divergence; no platform
// branching leaks into the callers.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("enumerate serial ports: %w", err)
	}
	return ports, nil
}
