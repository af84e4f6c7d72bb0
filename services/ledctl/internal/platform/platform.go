// Package platform resolves a LED controller configuration into a UART
// port and an output pin for the current build target.
package platform

import (
	"strconv"
	"sync"

	"uartled-go/errcode"
	"uartled-go/services/ledctl/internal/halcore"
	"uartled-go/types"
)

const (
	DeviceRP2   = "rp2"
	DeviceLinux = "linux"
	DeviceSim   = "sim"
)

// Resources holds the claimed port and pin. Release frees both.
type Resources struct {
	Port halcore.UARTPort
	Pin  halcore.GPIOPin

	keys    []string
	closers []halcore.Closer
}

// ---- claims ----

var claims = struct {
	mu    sync.Mutex
	owner map[string]string
}{owner: map[string]string{}}

func claim(key, owner string, inUse errcode.Code) error {
	claims.mu.Lock()
	defer claims.mu.Unlock()
	if o, ok := claims.owner[key]; ok && o != owner {
		return inUse
	}
	claims.owner[key] = owner
	return nil
}

func release(keys []string) {
	claims.mu.Lock()
	for _, k := range keys {
		delete(claims.owner, k)
	}
	claims.mu.Unlock()
}

func portKey(c types.SerialConfig) string {
	if c.Path != "" {
		return "uart:" + c.Path
	}
	return "uart:" + c.ID
}

func pinKey(cfg types.LEDConfig) string {
	if cfg.GPIO != "" {
		return "pin:" + cfg.GPIO
	}
	return "pin:" + strconv.Itoa(cfg.LEDPin)
}

// ---- sim ----

// SimBoard is the in-process board behind the "sim" device.
type SimBoard struct {
	UART *FakeUART
	Pin  *FakePin
}

var (
	simOnce sync.Once
	sim     *SimBoard
)

// Sim returns the process-wide simulated board.
func Sim() *SimBoard {
	simOnce.Do(func() {
		sim = &SimBoard{UART: NewFakeUART(), Pin: NewFakePin(25)}
	})
	return sim
}

// ---- entry point ----

// Open claims the UART and LED pin named by cfg for owner.
func Open(owner string, cfg types.LEDConfig) (*Resources, error) {
	keys := []string{portKey(cfg.UART), pinKey(cfg)}
	if err := claim(keys[0], owner, errcode.PortInUse); err != nil {
		return nil, err
	}
	if err := claim(keys[1], owner, errcode.PinInUse); err != nil {
		release(keys[:1])
		return nil, err
	}

	var (
		r   *Resources
		err error
	)
	switch cfg.Device {
	case DeviceSim:
		s := Sim()
		r = &Resources{Port: s.UART, Pin: s.Pin}
		err = configureLine(r.Port, cfg.UART)
	default:
		r, err = openHardware(cfg)
	}
	if err != nil {
		release(keys)
		return nil, err
	}
	r.keys = keys
	if cfg.ActiveLow {
		r.Pin = halcore.ActiveLow(r.Pin)
	}
	return r, nil
}

// configureLine applies baud and parity to ports that support it.
func configureLine(p halcore.UARTPort, c types.SerialConfig) error {
	f, ok := p.(halcore.UARTFormatter)
	if !ok {
		return nil
	}
	if c.Baud != 0 {
		if err := f.SetBaudRate(c.Baud); err != nil {
			return errcode.Wrap(errcode.InvalidParams, "baud", err)
		}
	}
	if c.Parity != types.ParityNone {
		if err := f.SetFormat(8, 1, c.Parity.String()); err != nil {
			return errcode.Wrap(errcode.InvalidParams, "format", err)
		}
	}
	return nil
}

// Release closes OS handles and drops the claims.
func (r *Resources) Release() {
	if r == nil {
		return
	}
	for _, c := range r.closers {
		_ = c.Close()
	}
	r.closers = nil
	release(r.keys)
	r.keys = nil
}
