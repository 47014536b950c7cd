// Package rplidar implements the two-byte command framing and the
// fixed-format response decoding spoken by RPLIDAR-class sensors. The
// diagnostic protocol carries no payload and no checksum; responses are
// validated by their sync header and minimum length only.
package rplidar

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// SyncByte prefixes every command frame and every response.
	SyncByte = 0xA5

	// ResponseSync is the second sync byte of a valid response header.
	ResponseSync = 0x5A
)

// Command opcodes.
const (
	CmdReset     byte = 0x40
	CmdGetInfo   byte = 0x50
	CmdGetHealth byte = 0x52
	CmdStartScan byte = 0x20
	CmdStop      byte = 0x25
)

// Command builds the 2-byte frame for an opcode.
func Command(opcode byte) []byte {
	return []byte{SyncByte, opcode}
}

// Minimum response lengths per phase.
const (
	// MinInfoResponse is the shortest GET_INFO response that still
	// counts as a success (header check only).
	MinInfoResponse = 7

	// InfoFieldsLength is the length at which device info fields can be
	// decoded.
	InfoFieldsLength = 20

	// MinHealthResponse is the shortest decodable GET_HEALTH response.
	MinHealthResponse = 10
)

var (
	// ErrInvalidHeader reports a sync byte mismatch at the start of a
	// response.
	ErrInvalidHeader = errors.New("invalid response header")

	// ErrShortResponse reports a response shorter than the decoder
	// requires.
	ErrShortResponse = errors.New("response too short")
)

// ValidHeader reports whether buf begins with the expected response sync
// bytes 0xA5 0x5A.
func ValidHeader(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == SyncByte && buf[1] == ResponseSync
}

// DeviceInfo holds the decoded fields of a GET_INFO response.
type DeviceInfo struct {
	Model    byte     // model number
	Firmware [2]byte  // firmware version, printed major.minor
	Hardware byte     // hardware version
	Serial   [16]byte // serial number, zero padded on short responses
}

// FirmwareString formats the firmware version for display.
func (d DeviceInfo) FirmwareString() string {
	return fmt.Sprintf("%d.%d", d.Firmware[0], d.Firmware[1])
}

// DecodeDeviceInfo decodes a GET_INFO response from a length-checked
// byte view. The response must be at least InfoFieldsLength bytes with a
// valid header: model at offset 7, firmware at 8-9, hardware at 10, and
// the serial number from offset 11 (truncated when the response carries
// fewer than 16 serial bytes).
func DecodeDeviceInfo(buf []byte) (DeviceInfo, error) {
	var info DeviceInfo
	if len(buf) < InfoFieldsLength {
		return info, fmt.Errorf("%w: got %d bytes, need %d", ErrShortResponse, len(buf), InfoFieldsLength)
	}
	if !ValidHeader(buf) {
		return info, ErrInvalidHeader
	}

	info.Model = buf[7]
	info.Firmware[0] = buf[8]
	info.Firmware[1] = buf[9]
	info.Hardware = buf[10]
	copy(info.Serial[:], buf[11:])
	return info, nil
}

// Health holds the decoded fields of a GET_HEALTH response.
type Health struct {
	Status    byte   // 0 means good
	ErrorCode uint16 // device error code, 0 when healthy
}

// DecodeHealth decodes a GET_HEALTH response from a length-checked byte
// view. The response must be at least MinHealthResponse bytes with a
// valid header: status at offset 7, error code little-endian at offsets
// 8-9.
func DecodeHealth(buf []byte) (Health, error) {
	var h Health
	if len(buf) < MinHealthResponse {
		return h, fmt.Errorf("%w: got %d bytes, need %d", ErrShortResponse, len(buf), MinHealthResponse)
	}
	if !ValidHeader(buf) {
		return h, ErrInvalidHeader
	}

	h.Status = buf[7]
	h.ErrorCode = binary.LittleEndian.Uint16(buf[8:10])
	return h, nil
}

// ScanPointSize is the assumed wire size of one scan point. The scan
// probe derives a heuristic point count from raw byte counts alone; per
// point structure is deliberately not validated.
const ScanPointSize = 5

// HeuristicPoints converts a raw byte count into the number of scan
// points it could plausibly contain.
func HeuristicPoints(byteCount int) int {
	return byteCount / ScanPointSize
}
