// Package matrix drives the port × baud-rate diagnostic matrix and
// defines the per-cell result record.
package matrix

// TestResult records the outcome of one (port, baud rate) matrix cell.
// It is created when the cell starts, populated phase by phase, and
// never mutated once the cell finishes. The four probe outcomes are
// independent: a working scan does not imply a decodable info or health
// response, and vice versa.
type TestResult struct {
	Port               string  `json:"port"`
	BaudRate           int     `json:"baudrate"`
	RawCommunication   bool    `json:"raw_communication"`
	DeviceInfoSuccess  bool    `json:"device_info_success"`
	HealthCheckSuccess bool    `json:"health_check_success"`
	ScanStartSuccess   bool    `json:"scan_start_success"`
	ScanPointsReceived int     `json:"scan_points_received"`
	ErrorMessage       string  `json:"error_message"`
	TestDurationMS     float64 `json:"test_duration_ms"`
}

// PartialSuccess reports whether at least one probe succeeded without a
// working scan.
func (r TestResult) PartialSuccess() bool {
	return !r.ScanStartSuccess &&
		(r.DeviceInfoSuccess || r.HealthCheckSuccess || r.RawCommunication)
}

// Capabilities lists which probes succeeded, for the partial-success
// summaries.
func (r TestResult) Capabilities() []string {
	var caps []string
	if r.DeviceInfoSuccess {
		caps = append(caps, "DeviceInfo")
	}
	if r.HealthCheckSuccess {
		caps = append(caps, "Health")
	}
	if r.RawCommunication {
		caps = append(caps, "RawComm")
	}
	return caps
}
