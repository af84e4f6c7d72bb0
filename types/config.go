package types

// LED controller configuration supplied on topic "config/ledctl".
type LEDConfig struct {
	// Device selects the platform backend: "rp2", "linux" or "sim".
	Device string `json:"device"`

	UART   SerialConfig `json:"uart"`
	LEDPin int          `json:"led_pin"` // GPIO number (rp2) / ignored on linux when GPIO is set
	GPIO   string       `json:"gpio,omitempty"`

	Initial   bool `json:"initial"`
	ActiveLow bool `json:"active_low,omitempty"`
}

// SerialConfig names a UART and its line settings.
type SerialConfig struct {
	ID     string `json:"id"`             // "uart0" | "uart1" on rp2
	Path   string `json:"path,omitempty"` // serial device on linux, e.g. /dev/ttyUSB0
	Baud   uint32 `json:"baud"`
	TX     int    `json:"tx"`
	RX     int    `json:"rx"`
	Parity Parity `json:"parity,omitempty"`
}

// HeartbeatConfig is supplied on "config/heartbeat".
type HeartbeatConfig struct {
	Interval float64 `json:"interval"` // seconds
}
