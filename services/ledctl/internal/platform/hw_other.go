//go:build !rp2040 && !rp2350 && (!linux || baremetal)

package platform

import (
	"uartled-go/errcode"
	"uartled-go/types"
)

// No hardware backend on this target; only the "sim" device is available.
func openHardware(types.LEDConfig) (*Resources, error) {
	return nil, errcode.Unsupported
}
