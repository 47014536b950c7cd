package matrix

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar.diag/internal/monitoring"
	"github.com/banshee-data/lidar.diag/internal/probe"
	"github.com/banshee-data/lidar.diag/internal/serialio"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

// collectingSink records every appended result.
type collectingSink struct {
	results []TestResult
	err     error
}

func (s *collectingSink) Append(result TestResult) error {
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, result)
	return nil
}

// newTestRunner builds a runner whose factory hands each cell a fresh
// port produced by makePort, with all delays zeroed.
func newTestRunner(makePort func(path string, baud int) (serialio.Porter, error), sinks ...ResultSink) *Runner {
	factory := &serialio.MockPortFactory{OpenFunc: makePort}
	runner := NewRunner(serialio.NewTransport(factory), sinks...)
	runner.Timing = probe.Timing{}
	runner.ScanTiming = probe.ScanTiming{}
	return runner
}

func TestMatrixIsExhaustive(t *testing.T) {
	sink := &collectingSink{}
	runner := newTestRunner(func(string, int) (serialio.Porter, error) {
		return serialio.NewTestablePort(), nil
	}, sink)

	ports := []string{"/dev/ttyUSB0", "/dev/ttyUSB1", "/dev/ttyACM0"}
	results := runner.Run(ports)

	require.Len(t, results, len(ports)*len(serialio.SupportedBaudRates))
	assert.Equal(t, results, sink.results, "every result reaches the sink, in order")

	// Exactly one result per cell, in port-major, fixed baud order.
	i := 0
	for _, port := range ports {
		for _, baud := range serialio.SupportedBaudRates {
			assert.Equal(t, port, results[i].Port)
			assert.Equal(t, baud, results[i].BaudRate)
			i++
		}
	}
}

func TestMatrixZeroPorts(t *testing.T) {
	sink := &collectingSink{}
	runner := newTestRunner(func(string, int) (serialio.Porter, error) {
		t.Fatal("no port should be opened when discovery found nothing")
		return nil, nil
	}, sink)

	results := runner.Run(nil)
	assert.Empty(t, results)
	assert.Empty(t, sink.results)
}

func TestCellAllReadsTimeOut(t *testing.T) {
	runner := newTestRunner(func(string, int) (serialio.Porter, error) {
		return serialio.NewTestablePort(), nil
	})

	results := runner.Run([]string{"/dev/ttyUSB0"})
	require.Len(t, results, len(serialio.SupportedBaudRates))

	for _, r := range results {
		assert.False(t, r.RawCommunication)
		assert.False(t, r.DeviceInfoSuccess)
		assert.False(t, r.HealthCheckSuccess)
		assert.False(t, r.ScanStartSuccess)
		assert.Equal(t, 0, r.ScanPointsReceived)
		assert.Empty(t, r.ErrorMessage, "a silent device is not an error")
		assert.Greater(t, r.TestDurationMS, 0.0)
	}
}

func TestCellOpenFailure(t *testing.T) {
	opened := 0
	runner := newTestRunner(func(string, int) (serialio.Porter, error) {
		opened++
		return nil, errors.New("permission denied")
	})

	results := runner.Run([]string{"/dev/ttyUSB0"})
	require.Len(t, results, len(serialio.SupportedBaudRates), "the matrix continues past open failures")

	for _, r := range results {
		assert.NotEmpty(t, r.ErrorMessage)
		assert.Contains(t, r.ErrorMessage, "permission denied")
		assert.False(t, r.RawCommunication)
		assert.False(t, r.DeviceInfoSuccess)
		assert.False(t, r.HealthCheckSuccess)
		assert.False(t, r.ScanStartSuccess)
		assert.Equal(t, 0, r.ScanPointsReceived)
		assert.Greater(t, r.TestDurationMS, 0.0)
	}
	assert.Equal(t, len(serialio.SupportedBaudRates), opened, "one open attempt per cell, no probes")
}

func TestCellWorkingDevice(t *testing.T) {
	// Script a full healthy device: echo, info, health, then enough
	// scan data to cross the threshold.
	makePort := func(string, int) (serialio.Porter, error) {
		port := serialio.NewTestablePort()
		port.QueueRead([]byte{0x01, 0x02, 0x03, 0x04}) // raw echo

		info := make([]byte, 20)
		info[0], info[1] = 0xA5, 0x5A
		port.QueueRead(info)

		health := make([]byte, 10)
		health[0], health[1] = 0xA5, 0x5A
		port.QueueRead(health)

		for i := 0; i < 3; i++ {
			port.QueueRead(make([]byte, 25))
		}
		return port, nil
	}
	runner := newTestRunner(makePort)

	results := runner.Run([]string{"/dev/ttyUSB0"})
	require.NotEmpty(t, results)

	r := results[0]
	assert.True(t, r.RawCommunication)
	assert.True(t, r.DeviceInfoSuccess)
	assert.True(t, r.HealthCheckSuccess)
	assert.True(t, r.ScanStartSuccess)
	assert.Greater(t, r.ScanPointsReceived, 10)
	assert.Empty(t, r.ErrorMessage)
}

func TestProbeOutcomesAreIndependent(t *testing.T) {
	// Device that ignores everything except the scan stream: the scan
	// succeeds while info and health fail.
	makePort := func(string, int) (serialio.Porter, error) {
		port := serialio.NewTestablePort()
		port.QueueTimeout() // raw echo
		port.QueueTimeout() // info
		port.QueueTimeout() // health
		for i := 0; i < 3; i++ {
			port.QueueRead(make([]byte, 25))
		}
		return port, nil
	}
	runner := newTestRunner(makePort)

	results := runner.Run([]string{"/dev/ttyUSB0"})
	r := results[0]

	assert.True(t, r.ScanStartSuccess)
	assert.False(t, r.RawCommunication)
	assert.False(t, r.DeviceInfoSuccess)
	assert.False(t, r.HealthCheckSuccess)
}

func TestTransportClosedBetweenCells(t *testing.T) {
	var ports []*serialio.TestablePort
	runner := newTestRunner(func(string, int) (serialio.Porter, error) {
		port := serialio.NewTestablePort()
		ports = append(ports, port)
		return port, nil
	})

	runner.Run([]string{"/dev/ttyUSB0"})

	require.Len(t, ports, len(serialio.SupportedBaudRates))
	for i, port := range ports {
		assert.True(t, port.Closed, "port for cell %d left open", i)
	}
	assert.False(t, runner.Transport.IsOpen())
}

func TestSinkErrorsDoNotStopTheMatrix(t *testing.T) {
	good := &collectingSink{}
	bad := &collectingSink{err: fmt.Errorf("disk full")}
	runner := newTestRunner(func(string, int) (serialio.Porter, error) {
		return serialio.NewTestablePort(), nil
	}, bad, good)

	results := runner.Run([]string{"/dev/ttyUSB0"})
	assert.Len(t, results, len(serialio.SupportedBaudRates))
	assert.Len(t, good.results, len(serialio.SupportedBaudRates))
}

func TestPartialSuccessAndCapabilities(t *testing.T) {
	r := TestResult{RawCommunication: true, HealthCheckSuccess: true}
	assert.True(t, r.PartialSuccess())
	assert.Equal(t, []string{"Health", "RawComm"}, r.Capabilities())

	working := TestResult{ScanStartSuccess: true, RawCommunication: true}
	assert.False(t, working.PartialSuccess())

	dead := TestResult{}
	assert.False(t, dead.PartialSuccess())
	assert.Empty(t, dead.Capabilities())
}
