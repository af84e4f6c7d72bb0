package boards

// Pico is the Raspberry Pi Pico / Pico 2 (GP numbering, onboard LED on GP25).
var Pico = Board{
	Name:    "pico",
	GPIOMin: 0,
	GPIOMax: 28,
	UART:    []string{"uart0", "uart1"},
	LED:     25,
	UARTPins: map[string]UARTPins{
		"uart0": {TX: 0, RX: 1},
		"uart1": {TX: 8, RX: 9},
	},
}
