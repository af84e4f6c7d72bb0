package heartbeat

import (
	"context"
	"strconv"
	"time"

	"uartled-go/bus"
	"uartled-go/types"
	"uartled-go/x/jsonx"
)

var (
	topicConfigHeartbeat = bus.T("config", "heartbeat")
	topicLEDState        = bus.T("led", "state")
)

// Service logs a periodic liveness line carrying the last LED state.
type Service struct {
	// Interval is the starting tick period; config/heartbeat overrides it.
	Interval time.Duration
	// Log receives each line. Defaults to println.
	Log func(line string)
}

func (s *Service) log(line string) {
	if s.Log != nil {
		s.Log(line)
		return
	}
	println(line)
}

func levelString(st *types.LEDState) string {
	if st == nil {
		return "unknown"
	}
	if st.Level {
		return "on"
	}
	return "off"
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	defer conn.Unsubscribe(cfgSub)
	ledSub := conn.Subscribe(topicLEDState)
	defer conn.Unsubscribe(ledSub)

	interval := s.Interval
	if interval <= 0 {
		interval = time.Second
	}
	tick := time.NewTicker(interval)
	defer tick.Stop()

	var last *types.LEDState

	// loop until context is cancelled, respond to tick and config changes
	for {
		select {
		case <-ctx.Done():
			s.log("Info: heartbeat service stopping")
			return
		case t := <-tick.C:
			line := "Info: " + t.Format("15:04:05") + " Heartbeat led=" + levelString(last)
			if last != nil {
				line += " rx=" + strconv.FormatUint(uint64(last.Received), 10) +
					" ignored=" + strconv.FormatUint(uint64(last.Ignored), 10)
			}
			s.log(line)
		case msg := <-ledSub.Channel():
			if st, ok := msg.Payload.(types.LEDState); ok {
				last = &st
			}
		case msg := <-cfgSub.Channel():
			var cfg types.HeartbeatConfig
			if err := jsonx.Decode(msg.Payload, &cfg); err != nil || cfg.Interval <= 0 {
				s.log("Warn: heartbeat config ignored")
				continue
			}
			tick.Reset(time.Duration(cfg.Interval * float64(time.Second)))
			s.log("Info: heartbeat interval set to " + strconv.FormatFloat(cfg.Interval, 'f', -1, 64) + " seconds")
		}
	}
}

// Start the heartbeat service.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}
