// services/ledctl/internal/halcore/types.go
package halcore

import (
	"context"

	"tinygo.org/x/drivers"
)

// ---- GPIO abstractions ----

// GPIOPin is a single digital output line.
type GPIOPin interface {
	ConfigureOutput(initial bool) error
	Set(level bool)
	Get() bool
	Number() int
}

// ---------------- UART abstractions ----------------

// UARTPort is a receive-interrupt driven serial port. Readable is signalled
// from the RX interrupt (or the host pump) whenever bytes arrive; it is
// coalesced, so one wake may cover several bytes.
type UARTPort interface {
	drivers.UART // Read, Write, Buffered

	Readable() <-chan struct{}
	RecvSomeContext(ctx context.Context, p []byte) (int, error)
}

// OverrunCounter is implemented by ports that count bytes lost to a full
// receive buffer.
type OverrunCounter interface {
	Dropped() int
}

// Optional: line configuration where the platform supports it.
type UARTFormatter interface {
	SetBaudRate(br uint32) error
	SetFormat(databits, stopbits uint8, parity string) error // "none" | "even" | "odd"
}

// Closer is implemented by ports and pins that hold OS resources.
type Closer interface {
	Close() error
}

// invertedPin flips levels for active-low wiring.
type invertedPin struct{ GPIOPin }

func (p invertedPin) ConfigureOutput(initial bool) error { return p.GPIOPin.ConfigureOutput(!initial) }
func (p invertedPin) Set(level bool)                     { p.GPIOPin.Set(!level) }
func (p invertedPin) Get() bool                          { return !p.GPIOPin.Get() }

// ActiveLow wraps p so that logical level 1 drives the line low.
func ActiveLow(p GPIOPin) GPIOPin { return invertedPin{p} }
