package ledctl

import (
	"uartled-go/errcode"
	"uartled-go/types"
	"uartled-go/x/jsonx"
	"uartled-go/x/mathx"
)

// DefaultBaud matches the host sender's line rate.
const DefaultBaud = 9600

// decodeConfig turns a "config/ledctl" payload into a usable config.
func decodeConfig(payload any) (types.LEDConfig, error) {
	var c types.LEDConfig
	if err := jsonx.Decode(payload, &c); err != nil {
		return c, errcode.Wrap(errcode.InvalidPayload, "decode config", err)
	}
	if c.Device == "" {
		return c, &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "device is required"}
	}
	if c.UART.Baud == 0 {
		c.UART.Baud = DefaultBaud
	}
	if !mathx.Between(c.UART.Baud, 300, 4_000_000) {
		return c, &errcode.E{C: errcode.InvalidParams, Op: "config", Msg: "baud out of range"}
	}
	if c.UART.ID == "" && c.UART.Path == "" {
		c.UART.ID = "uart0"
	}
	return c, nil
}
