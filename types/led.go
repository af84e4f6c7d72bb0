package types

// ------------------------
// LED state and control
// ------------------------

// Source of the last LED level change.
const (
	SourceInit = "init"
	SourceUART = "uart"
	SourceBus  = "bus"
)

// LEDState is retained on "led/state".
type LEDState struct {
	Level    bool   `json:"level"`
	Source   string `json:"source"`
	Byte     uint8  `json:"byte,omitempty"` // triggering byte for Source "uart"
	Received uint32 `json:"received"`       // bytes seen on the UART
	Ignored  uint32 `json:"ignored"`        // bytes that were not commands
	Overrun  uint32 `json:"overrun"`        // bytes lost before dispatch
	TsMs     int64  `json:"ts_ms"`
}

// LEDSet is the request payload on "led/control/set".
type LEDSet struct {
	Level bool `json:"level"`
}

// LEDStatus is retained on "led/status".
type LEDStatus struct {
	State string `json:"state"` // "running" | "stopped" | "error" | "rejected"
	Error string `json:"error,omitempty"`
}

// Reply is the generic control reply.
type Reply struct {
	OK    bool      `json:"ok"`
	Error string    `json:"error,omitempty"`
	State *LEDState `json:"state,omitempty"`
}
