package probe

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidar.diag/internal/serialio"
)

func TestScanCrossesThresholdEarly(t *testing.T) {
	// 25 bytes per attempt for three attempts: 5 + 5 + 5 = 15 points,
	// crossing the threshold of 10 on the third read.
	port := serialio.NewTestablePort()
	chunk := make([]byte, 25)
	port.QueueRead(chunk)
	port.QueueRead(chunk)
	port.QueueRead(chunk)
	transport := openTransport(t, port)

	probe := NewScanProbe(transport, ScanTiming{})
	ok, points := probe.Run()

	assert.True(t, ok)
	assert.GreaterOrEqual(t, points, 11)
	assert.Equal(t, 15, points)

	// Early exit: three reads plus nothing more, well below the
	// attempt ceiling.
	assert.Equal(t, 3, port.ReadCalls)
	assert.True(t, probe.Done())
}

func TestScanExhaustsAttemptCeiling(t *testing.T) {
	// One small read then silence: total stays below the threshold and
	// the loop runs all attempts.
	port := serialio.NewTestablePort()
	port.QueueRead(make([]byte, 25)) // 5 points
	transport := openTransport(t, port)

	probe := NewScanProbe(transport, ScanTiming{})
	ok, points := probe.Run()

	assert.False(t, ok)
	assert.Equal(t, 5, points, "accumulated total is reported even on failure")
	assert.Equal(t, MaxScanAttempts, port.ReadCalls)
}

func TestScanAllTimeouts(t *testing.T) {
	port := serialio.NewTestablePort()
	transport := openTransport(t, port)

	probe := NewScanProbe(transport, ScanTiming{})
	ok, points := probe.Run()

	assert.False(t, ok)
	assert.Equal(t, 0, points)
}

func TestScanSendsStopOnSuccess(t *testing.T) {
	port := serialio.NewTestablePort()
	for i := 0; i < 3; i++ {
		port.QueueRead(make([]byte, 25))
	}
	transport := openTransport(t, port)

	NewScanProbe(transport, ScanTiming{}).Run()

	written := port.Written()
	require.GreaterOrEqual(t, len(written), 4)
	assert.Equal(t, []byte{0xA5, 0x20}, written[:2], "START_SCAN goes first")
	assert.Equal(t, []byte{0xA5, 0x25}, written[len(written)-2:], "STOP goes last")
}

func TestScanSendsStopOnFailure(t *testing.T) {
	port := serialio.NewTestablePort()
	transport := openTransport(t, port)

	probe := NewScanProbe(transport, ScanTiming{})
	ok, _ := probe.Run()
	require.False(t, ok)

	written := port.Written()
	assert.Equal(t, []byte{0xA5, 0x20, 0xA5, 0x25}, written, "STOP is sent even when no data arrived")
	assert.True(t, probe.Done())
}

func TestScanSendsStopWhenStartWriteFails(t *testing.T) {
	port := serialio.NewTestablePort()
	port.WriteError = errors.New("write refused")
	transport := openTransport(t, port)

	probe := NewScanProbe(transport, ScanTiming{})
	ok, points := probe.Run()

	assert.False(t, ok)
	assert.Equal(t, 0, points)
	// The failed START write consumed the scripted error; STOP still
	// goes out on the way down.
	assert.Equal(t, []byte{0xA5, 0x25}, port.Written())
	assert.True(t, probe.Done())
}

func TestScanReadErrorsDoNotAbortTheLoop(t *testing.T) {
	port := serialio.NewTestablePort()
	port.ReadError = errors.New("transient I/O error")
	port.QueueRead(make([]byte, 60)) // 12 points, crosses threshold
	transport := openTransport(t, port)

	probe := NewScanProbe(transport, ScanTiming{})
	ok, points := probe.Run()

	assert.True(t, ok, "a hard read error burns one attempt, not the probe")
	assert.Equal(t, 12, points)
}
