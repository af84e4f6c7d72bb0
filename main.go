package main

import (
	"context"
	"time"

	"uartled-go/bus"
	"uartled-go/services/config"
	"uartled-go/services/heartbeat"
	"uartled-go/services/ledctl"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	ctx := config.WithDevice(context.Background(), "pico")
	b := bus.NewBus(4)

	go ledctl.Run(ctx, b.NewConnection("ledctl"))

	hb := &heartbeat.Service{Interval: time.Second}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	// Publish last so both services see retained config on subscribe.
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	select {}
}
