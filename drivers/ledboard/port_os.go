//go:build !baremetal

package ledboard

import (
	"fmt"

	"go.bug.st/serial"
)

// Open opens a serial port at baud (8N1) and returns a Device on it.
// A zero baud selects DefaultBaud.
func Open(port string, baud int) (*Device, error) {
	if baud == 0 {
		baud = DefaultBaud
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", port, err)
	}

	return New(p, port), nil
}

// Ports lists the serial ports present on this host.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
