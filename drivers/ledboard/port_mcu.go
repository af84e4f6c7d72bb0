//go:build rp2040 || rp2350

package ledboard

import (
	"errors"
	"machine"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"
)

// Open configures a hardware UART ("uart0" or "uart1") on the board's
// default pins and returns a Device writing to it.
func Open(port string, baud int) (*Device, error) {
	var (
		u      *uartx.UART
		tx, rx machine.Pin
	)
	switch port {
	case "uart0":
		u, tx, rx = uartx.UART0, machine.UART0_TX_PIN, machine.UART0_RX_PIN
	case "uart1":
		u, tx, rx = uartx.UART1, machine.UART1_TX_PIN, machine.UART1_RX_PIN
	default:
		return nil, errors.New("ledboard: unknown UART " + port)
	}
	if baud == 0 {
		baud = DefaultBaud
	}
	if err := u.Configure(uartx.UARTConfig{BaudRate: uint32(baud), TX: tx, RX: rx}); err != nil {
		return nil, err
	}
	return New(u, port), nil
}

// Ports lists the UART names Open accepts.
func Ports() ([]string, error) { return []string{"uart0", "uart1"}, nil }
