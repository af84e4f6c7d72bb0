//go:build rp2040 || rp2350

// Loopback check for the LED controller on a Pico. Wire GP8 (UART1 TX) to
// GP1 (UART0 RX); the firmware then plays command bytes into its own
// receiver and checks the LED level after each one.
package main

import (
	"context"
	"time"

	"uartled-go/bus"
	"uartled-go/drivers/ledboard"
	"uartled-go/services/config"
	"uartled-go/services/ledctl"
	"uartled-go/types"
)

type step struct {
	b    byte
	want bool
}

var steps = []step{
	{'b', true},
	{'x', true}, // ignored
	{'s', false},
	{'B', true},
	{'\n', true}, // ignored
	{'S', false},
	{'0', false}, // ignored
}

func main() {
	println("[loop] boot …")
	time.Sleep(1500 * time.Millisecond)

	ctx := config.WithDevice(context.Background(), "pico")
	b := bus.NewBus(4)
	go ledctl.Run(ctx, b.NewConnection("ledctl"))
	ui := b.NewConnection("ui")
	statusSub := ui.Subscribe(ledctl.TopicStatus)
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	if !waitRunning(statusSub.Channel(), 3*time.Second) {
		println("[loop] FAIL: ledctl not running")
		return
	}

	tx, err := ledboard.Open("uart1", ledboard.DefaultBaud)
	if err != nil {
		println("[loop] FAIL: open uart1:", err.Error())
		return
	}

	pass := 0
	for i, s := range steps {
		if err := tx.Send(s.b); err != nil {
			println("[loop] FAIL: send:", err.Error())
			return
		}
		// 9600 baud is about 1 ms per byte; leave room for the reader.
		time.Sleep(20 * time.Millisecond)

		st, ok := getState(ui, time.Second)
		switch {
		case !ok:
			println("[loop] step", i, "FAIL: no reply")
		case st.Level != s.want:
			println("[loop] step", i, "byte", s.b, "FAIL: level", st.Level, "want", s.want)
		default:
			pass++
		}
	}
	println("[loop] passed", pass, "of", len(steps))

	st, _ := getState(ui, time.Second)
	println("[loop] received=", st.Received, " ignored=", st.Ignored)
}

func waitRunning(ch <-chan *bus.Message, to time.Duration) bool {
	deadline := time.After(to)
	for {
		select {
		case m := <-ch:
			if s, ok := m.Payload.(types.LEDStatus); ok && s.State == "running" {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func getState(ui *bus.Connection, to time.Duration) (types.LEDState, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), to)
	defer cancel()
	m, err := ui.RequestWait(ctx, ui.NewMessage(ledctl.TopicGet, nil, false))
	if err != nil {
		return types.LEDState{}, false
	}
	r, ok := m.Payload.(types.Reply)
	if !ok || !r.OK || r.State == nil {
		return types.LEDState{}, false
	}
	return *r.State, true
}
