package serialio

import (
	"go.bug.st/serial"
)

// RealPortFactory opens ports through go.bug.st/serial.
type RealPortFactory struct{}

// Open opens the port at path with 8N1 framing at the given baud rate.
func (RealPortFactory) Open(path string, baud int) (Porter, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	return port, nil
}
