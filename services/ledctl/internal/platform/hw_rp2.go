// services/ledctl/internal/platform/hw_rp2.go
//go:build rp2040 || rp2350

package platform

import (
	"context"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"uartled-go/errcode"
	"uartled-go/services/ledctl/internal/halcore"
	"uartled-go/services/ledctl/internal/platform/boards"
	"uartled-go/types"
)

// openHardware configures a uartx UART (interrupt-driven RX) and a
// machine.Pin on a Pico-family board.
func openHardware(cfg types.LEDConfig) (*Resources, error) {
	if cfg.Device != DeviceRP2 {
		return nil, errcode.Unsupported
	}
	b := boards.Pico

	if !b.HasUART(cfg.UART.ID) {
		return nil, errcode.UnknownPort
	}
	tx, rx := cfg.UART.TX, cfg.UART.RX
	if tx == 0 && rx == 0 {
		if d, ok := b.DefaultUARTPins(cfg.UART.ID); ok {
			tx, rx = d.TX, d.RX
		}
	}
	if !b.ValidPin(tx) || !b.ValidPin(rx) || !b.ValidPin(cfg.LEDPin) {
		return nil, errcode.UnknownPin
	}
	if cfg.LEDPin == tx || cfg.LEDPin == rx {
		return nil, errcode.PinInUse
	}

	var hw *uartx.UART
	switch cfg.UART.ID {
	case "uart0":
		hw = uartx.UART0
	case "uart1":
		hw = uartx.UART1
	}
	// Defaults inside uartx apply if baud is zero.
	if err := hw.Configure(uartx.UARTConfig{
		BaudRate: cfg.UART.Baud,
		TX:       machine.Pin(tx),
		RX:       machine.Pin(rx),
	}); err != nil {
		return nil, errcode.Wrap(errcode.Error, "configure "+cfg.UART.ID, err)
	}
	port := &rp2Port{u: hw}
	if err := configureLine(port, cfg.UART); err != nil {
		return nil, err
	}

	return &Resources{
		Port: port,
		Pin:  &rp2Pin{p: machine.Pin(cfg.LEDPin), n: cfg.LEDPin},
	}, nil
}

// ---- UART ----

// rp2Port adapts uartx to halcore.UARTPort.
type rp2Port struct{ u *uartx.UART }

var _ halcore.UARTPort = (*rp2Port)(nil)

func (p *rp2Port) Read(b []byte) (int, error)  { return p.u.Read(b) }
func (p *rp2Port) Write(b []byte) (int, error) { return p.u.Write(b) }
func (p *rp2Port) Buffered() int               { return p.u.Buffered() }
func (p *rp2Port) Readable() <-chan struct{}   { return p.u.Readable() }
func (p *rp2Port) RecvSomeContext(ctx context.Context, b []byte) (int, error) {
	return p.u.RecvSomeContext(ctx, b)
}
func (p *rp2Port) SetBaudRate(br uint32) error { p.u.SetBaudRate(br); return nil }

// Parity strings: "none","even","odd"
func (p *rp2Port) SetFormat(databits, stopbits uint8, parity string) error {
	var par uartx.UARTParity
	switch parity {
	case "even":
		par = uartx.ParityEven
	case "odd":
		par = uartx.ParityOdd
	default:
		par = uartx.ParityNone
	}
	return p.u.SetFormat(databits, stopbits, par)
}

// ---- GPIO ----

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }
func (r *rp2Pin) Number() int    { return r.n }
