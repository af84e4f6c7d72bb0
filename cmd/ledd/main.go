//go:build !baremetal

// Command ledd runs the LED controller on a Linux host. With -device sim
// the UART is simulated and bytes typed on stdin are fed to it.
package main

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"

	"uartled-go/bus"
	"uartled-go/services/config"
	"uartled-go/services/heartbeat"
	"uartled-go/services/ledctl"
	"uartled-go/services/mqttlink"
)

var (
	device     = flag.String("device", "linux", "Embedded config to use: linux or sim.")
	configFile = flag.String("config", "", "JSON config file replacing the embedded one.")
	mqttURL    = flag.String("mqtt", "", "MQTT broker URL, e.g. tcp://localhost:1883. Empty disables the link.")
	mqttPrefix = flag.String("mqtt-prefix", mqttlink.DefaultPrefix, "MQTT topic prefix.")
)

// fileLookup serves path for every device id.
func fileLookup(path string) func(string) ([]byte, bool) {
	return func(string) ([]byte, bool) {
		b, err := os.ReadFile(path)
		if err != nil {
			glog.Errorf("read config %s: %v", path, err)
			return nil, false
		}
		return b, true
	}
}

// pumpStdin feeds each line (without its newline) into the simulated UART.
func pumpStdin(ctx context.Context, r io.Reader, inject func([]byte)) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		if line := sc.Bytes(); len(line) > 0 {
			inject(append([]byte(nil), line...))
		}
	}
}

func main() {
	flag.Parse()
	defer glog.Flush()

	if *configFile != "" {
		config.EmbeddedConfigLookup = fileLookup(*configFile)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = config.WithDevice(ctx, *device)

	b := bus.NewBus(8)

	done := make(chan struct{})
	go func() {
		ledctl.Run(ctx, b.NewConnection("ledctl"))
		close(done)
	}()

	hb := &heartbeat.Service{Interval: 5 * time.Second, Log: func(l string) { glog.Info(l) }}
	_ = hb.Start(ctx, b.NewConnection("heartbeat"))

	if *mqttURL != "" {
		link, err := mqttlink.New(b.NewConnection("mqtt"), mqttlink.Config{BrokerURL: *mqttURL, Prefix: *mqttPrefix})
		if err != nil {
			glog.Exitf("mqtt: %v", err)
		}
		go func() {
			if err := link.Run(ctx); err != nil {
				glog.Errorf("mqtt: %v", err)
			}
		}()
	}

	statusSub := b.NewConnection("ledd").Subscribe(ledctl.TopicStatus)
	go func() {
		for m := range statusSub.Channel() {
			glog.Infof("ledctl status: %+v", m.Payload)
		}
	}()

	if err := config.NewConfigService().Publish(ctx, b.NewConnection("config")); err != nil {
		glog.Exitf("config: %v", err)
	}

	if *device == "sim" {
		glog.Info("sim: type b/s lines on stdin")
		go pumpStdin(ctx, os.Stdin, ledctl.InjectSim)
	}

	<-ctx.Done()
	glog.Info("shutting down")
	<-done
}
