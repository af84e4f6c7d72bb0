package boards

// Board describes what the PCB/SoC can do (controllers present, GPIO range).
// It must not include operating parameters (baud rates, levels).
type Board struct {
	Name             string
	GPIOMin, GPIOMax int

	// Controllers present (identities only; e.g. "uart0", "uart1").
	UART []string

	// Onboard LED GPIO, -1 if none.
	LED int

	// Recommended default pins per UART, by controller id.
	UARTPins map[string]UARTPins
}

type UARTPins struct {
	TX, RX int
}

// ValidPin reports whether n is a user GPIO on this board.
func (b Board) ValidPin(n int) bool { return n >= b.GPIOMin && n <= b.GPIOMax }

// HasUART reports whether the controller id exists on this board.
func (b Board) HasUART(id string) bool {
	for _, u := range b.UART {
		if u == id {
			return true
		}
	}
	return false
}

// DefaultUARTPins returns the recommended pins for id.
func (b Board) DefaultUARTPins(id string) (UARTPins, bool) {
	p, ok := b.UARTPins[id]
	return p, ok
}
