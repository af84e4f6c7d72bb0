// Package ledboard drives a board that switches an LED from single-byte
// serial commands:
//
//	d.On()   // writes 'b'
//	d.Off()  // writes 's'
//
// The board ignores every other byte, so Send can be used to probe it
// without side effects.
package ledboard

import (
	"errors"
	"io"
	"strings"
	"sync"
)

// Command bytes understood by the board.
const (
	CmdOn  byte = 'b'
	CmdOff byte = 's'
)

// DefaultBaud is the board's factory line rate.
const DefaultBaud = 9600

// Errors returned by the driver.
var (
	ErrUnknownCommand = errors.New("ledboard: unknown command")
	ErrShortWrite     = errors.New("ledboard: short write")
)

// Device writes commands to a board over w.
type Device struct {
	mu   sync.Mutex
	w    io.Writer
	name string
	last byte
}

// New wraps an already configured link. name is used in diagnostics only.
func New(w io.Writer, name string) *Device {
	return &Device{w: w, name: name}
}

// Name returns the port name given at creation.
func (d *Device) Name() string { return d.name }

// On switches the LED on.
func (d *Device) On() error { return d.Send(CmdOn) }

// Off switches the LED off.
func (d *Device) Off() error { return d.Send(CmdOff) }

// Set switches the LED to level.
func (d *Device) Set(level bool) error {
	if level {
		return d.On()
	}
	return d.Off()
}

// Send writes one raw byte.
func (d *Device) Send(b byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	n, err := d.w.Write([]byte{b})
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrShortWrite
	}
	d.last = b
	return nil
}

// Last returns the last byte written successfully.
func (d *Device) Last() (byte, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.last != 0
}

// Close closes the underlying link if it is closable.
func (d *Device) Close() error {
	if c, ok := d.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ParseCommand maps a user word to a command byte. Single characters
// b/B/s/S are passed through unchanged.
func ParseCommand(s string) (byte, error) {
	if len(s) == 1 {
		switch s[0] {
		case 'b', 'B', 's', 'S':
			return s[0], nil
		}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "true", "high":
		return CmdOn, nil
	case "off", "0", "false", "low":
		return CmdOff, nil
	}
	return 0, ErrUnknownCommand
}

// LevelOf reports the LED level a command byte selects.
func LevelOf(b byte) (level bool, ok bool) {
	switch b {
	case 'b', 'B':
		return true, true
	case 's', 'S':
		return false, true
	}
	return false, false
}
