package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

// Pico: UART0 on GP0/GP1 at 9600 baud, onboard LED on GP25.
const cfgPico = `{
  "ledctl": {
      "device": "rp2",
      "uart": {"id": "uart0", "baud": 9600, "tx": 0, "rx": 1},
      "led_pin": 25,
      "initial": false
  },
  "heartbeat": {
      "interval": 2
  }
}`

// Raspberry Pi class Linux host: USB serial adapter, LED on GPIO17.
const cfgLinux = `{
  "ledctl": {
      "device": "linux",
      "uart": {"path": "/dev/ttyUSB0", "baud": 9600},
      "gpio": "GPIO17",
      "initial": false
  },
  "heartbeat": {
      "interval": 5
  }
}`

// In-process simulation; bytes are injected by the host binary.
const cfgSim = `{
  "ledctl": {
      "device": "sim",
      "uart": {"id": "uart0", "baud": 9600},
      "led_pin": 25,
      "initial": false
  },
  "heartbeat": {
      "interval": 5
  }
}`

var embeddedConfigs = map[string][]byte{
	"pico":  []byte(cfgPico),
	"linux": []byte(cfgLinux),
	"sim":   []byte(cfgSim),
}
