package serialio

import (
	"errors"
	"sync"
	"time"
)

// TestablePort implements Porter with scripted reads for testing. Each
// Read call consumes the next queued chunk; an empty queue or an
// explicitly queued timeout yields (0, nil), matching the timeout
// semantics of go.bug.st/serial.
type TestablePort struct {
	mu sync.Mutex

	// reads holds the scripted response for each successive Read call.
	reads [][]byte

	// written captures all data written to the port.
	written []byte

	// ReadError is returned by the next Read call if set, then cleared.
	ReadError error

	// WriteError is returned by the next Write call if set, then cleared.
	WriteError error

	// ShortWrite causes Write to accept one byte fewer than offered.
	ShortWrite bool

	// CloseError is returned by Close if set.
	CloseError error

	// Closed indicates whether Close was called.
	Closed bool

	// ReadCalls records the number of Read calls.
	ReadCalls int

	// WriteCalls records the number of Write calls.
	WriteCalls int

	// ReadTimeouts records the timeout passed to each SetReadTimeout call.
	ReadTimeouts []time.Duration
}

// NewTestablePort creates a TestablePort with no scripted reads.
func NewTestablePort() *TestablePort {
	return &TestablePort{}
}

// QueueRead schedules data to be returned, whole, by a future Read call.
func (p *TestablePort) QueueRead(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	chunk := make([]byte, len(data))
	copy(chunk, data)
	p.reads = append(p.reads, chunk)
}

// QueueTimeout schedules a future Read call to time out with no data.
func (p *TestablePort) QueueTimeout() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reads = append(p.reads, nil)
}

// Read returns the next scripted chunk, or (0, nil) when the script is
// exhausted or the next entry is a timeout.
func (p *TestablePort) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadCalls++

	if p.Closed {
		return 0, errors.New("serial port closed")
	}

	if p.ReadError != nil {
		err := p.ReadError
		p.ReadError = nil
		return 0, err
	}

	if len(p.reads) == 0 {
		return 0, nil
	}

	chunk := p.reads[0]
	p.reads = p.reads[1:]
	return copy(buf, chunk), nil
}

// Write captures p, optionally simulating errors or a short write.
func (p *TestablePort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.WriteCalls++

	if p.Closed {
		return 0, errors.New("serial port closed")
	}

	if p.WriteError != nil {
		err := p.WriteError
		p.WriteError = nil
		return 0, err
	}

	if p.ShortWrite && len(buf) > 0 {
		p.written = append(p.written, buf[:len(buf)-1]...)
		return len(buf) - 1, nil
	}

	p.written = append(p.written, buf...)
	return len(buf), nil
}

// Close marks the port as closed.
func (p *TestablePort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Closed = true
	return p.CloseError
}

// SetReadTimeout records the requested timeout.
func (p *TestablePort) SetReadTimeout(timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ReadTimeouts = append(p.ReadTimeouts, timeout)
	return nil
}

// Written returns all data written to the port so far.
func (p *TestablePort) Written() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]byte, len(p.written))
	copy(out, p.written)
	return out
}

// Reset clears scripted reads, captured writes, and state.
func (p *TestablePort) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reads = nil
	p.written = nil
	p.ReadError = nil
	p.WriteError = nil
	p.CloseError = nil
	p.ShortWrite = false
	p.Closed = false
	p.ReadCalls = 0
	p.WriteCalls = 0
	p.ReadTimeouts = nil
}

// MockPortFactory implements PortFactory for testing.
type MockPortFactory struct {
	mu sync.Mutex

	// Port is returned by Open when OpenFunc is nil.
	Port Porter

	// Err is returned by Open if set.
	Err error

	// OpenFunc, when set, handles Open calls; useful when each matrix
	// cell needs its own port.
	OpenFunc func(path string, baud int) (Porter, error)

	// OpenCalls records every Open call.
	OpenCalls []OpenCall
}

// OpenCall records the arguments of one factory Open call.
type OpenCall struct {
	Path string
	Baud int
}

// NewMockPortFactory creates a factory that always returns port.
func NewMockPortFactory(port Porter) *MockPortFactory {
	return &MockPortFactory{Port: port}
}

// Open returns the configured port, error, or OpenFunc result.
func (f *MockPortFactory) Open(path string, baud int) (Porter, error) {
	f.mu.Lock()
	f.OpenCalls = append(f.OpenCalls, OpenCall{Path: path, Baud: baud})
	openFunc := f.OpenFunc
	err := f.Err
	port := f.Port
	f.mu.Unlock()

	if openFunc != nil {
		return openFunc(path, baud)
	}
	if err != nil {
		return nil, err
	}
	return port, nil
}

// LastCall returns the most recent Open call, or nil if none.
func (f *MockPortFactory) LastCall() *OpenCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.OpenCalls) == 0 {
		return nil
	}
	return &f.OpenCalls[len(f.OpenCalls)-1]
}
