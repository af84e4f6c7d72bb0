// Package ledctl drives an output pin from single-byte commands received
// on a UART: 'b'/'B' switches the LED on, 's'/'S' switches it off, every
// other byte is ignored.
//
// The service publishes the pin state retained on "led/state" and accepts
// bus requests on "led/control/set" and "led/control/get".
package ledctl

import (
	"context"
	"time"

	"uartled-go/bus"
	"uartled-go/errcode"
	"uartled-go/services/ledctl/internal/dispatch"
	"uartled-go/services/ledctl/internal/halcore"
	"uartled-go/services/ledctl/internal/platform"
	"uartled-go/services/ledctl/internal/uartio"
	"uartled-go/types"
	"uartled-go/x/jsonx"
)

var (
	topicConfig = bus.T("config", "ledctl")

	TopicState  = bus.T("led", "state")
	TopicStatus = bus.T("led", "status")
	TopicSet    = bus.T("led", "control", "set")
	TopicGet    = bus.T("led", "control", "get")
)

const (
	readerQueue = 16
	readerFrame = 64
)

// -----------------------------------------------------------------------------
// Entry point
// -----------------------------------------------------------------------------

// Run waits for the retained "config/ledctl" document, claims the UART and
// LED pin it names and serves until ctx is cancelled. A new config message
// releases the current resources and starts over.
func Run(ctx context.Context, conn *bus.Connection) {
	cfgSub := conn.Subscribe(topicConfig)
	defer conn.Unsubscribe(cfgSub)

	var (
		cancel func()
		done   chan struct{}
	)
	stop := func() {
		if cancel != nil {
			cancel()
			<-done
			cancel, done = nil, nil
		}
	}
	defer stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-cfgSub.Channel():
			if !ok {
				return
			}
			cfg, err := decodeConfig(msg.Payload)
			if err != nil {
				println("Warn: ledctl config rejected:", err.Error())
				if cancel != nil {
					// The running instance stays; don't overwrite its retained status.
					conn.Publish(&bus.Message{Topic: TopicStatus, Payload: statusOf("rejected", err)})
				} else {
					publishStatus(conn, "error", err)
				}
				continue
			}
			stop()

			res, err := platform.Open(conn.ID(), cfg)
			if err != nil {
				println("Error: ledctl open", cfg.Device, "failed:", err.Error())
				publishStatus(conn, "error", err)
				continue
			}
			println("Info: ledctl", cfg.Device, cfg.UART.ID+cfg.UART.Path, "baud", cfg.UART.Baud, "led", res.Pin.Number())

			var sctx context.Context
			sctx, cancel = context.WithCancel(ctx)
			done = make(chan struct{})
			go func(d chan struct{}) {
				defer close(d)
				defer res.Release()
				if err := Serve(sctx, conn, res.Port, res.Pin, cfg.Initial); err != nil {
					println("Error: ledctl serve:", err.Error())
					publishStatus(conn, "error", err)
				}
			}(done)
		}
	}
}

// -----------------------------------------------------------------------------
// Service
// -----------------------------------------------------------------------------

type service struct {
	conn  *bus.Connection
	pin   halcore.GPIOPin
	state types.LEDState

	reader   *uartio.Worker
	port     halcore.OverrunCounter // nil when the port doesn't count
	portBase int
}

// Serve configures pin as an output at initial and dispatches every byte
// received on port, in arrival order, until ctx is cancelled.
func Serve(ctx context.Context, conn *bus.Connection, port halcore.UARTPort, pin halcore.GPIOPin, initial bool) error {
	if err := pin.ConfigureOutput(initial); err != nil {
		return errcode.Wrap(errcode.Error, "configure led", err)
	}
	s := &service{
		conn:  conn,
		pin:   pin,
		state: types.LEDState{Level: initial, Source: types.SourceInit, TsMs: time.Now().UnixMilli()},
	}

	setSub := conn.Subscribe(TopicSet)
	defer conn.Unsubscribe(setSub)
	getSub := conn.Subscribe(TopicGet)
	defer conn.Unsubscribe(getSub)

	w := uartio.New(readerQueue)
	s.reader = w
	if oc, ok := port.(halcore.OverrunCounter); ok {
		s.port, s.portBase = oc, oc.Dropped()
	}
	stopReader, err := w.Register(ctx, uartio.ReaderCfg{DevID: "led", Port: port, MaxFrame: readerFrame})
	if err != nil {
		return err
	}
	defer stopReader()

	s.publishState()
	publishStatus(conn, "running", nil)

	for {
		select {
		case <-ctx.Done():
			publishStatus(conn, "stopped", nil)
			return nil
		case ev := <-w.Events():
			s.checkOverrun()
			for _, b := range ev.Data {
				s.handleByte(b, ev.TS)
			}
		case m, ok := <-setSub.Channel():
			if ok {
				s.handleSet(m)
			}
		case m, ok := <-getSub.Channel():
			if ok {
				st := s.state
				conn.Reply(m, types.Reply{OK: true, State: &st})
			}
		}
	}
}

// checkOverrun folds bytes lost in the port buffer or the reader queue
// into the state counter.
func (s *service) checkOverrun() {
	total := s.reader.Dropped()
	if s.port != nil {
		total += uint32(s.port.Dropped() - s.portBase)
	}
	if total != s.state.Overrun {
		println("Warn: ledctl rx overrun, bytes lost:", total-s.state.Overrun)
		s.state.Overrun = total
	}
}

// handleByte is the receive handler proper: one byte in, at most one pin
// write out. Unrecognised bytes only bump the counter.
func (s *service) handleByte(b byte, ts time.Time) {
	s.state.Received++
	c := dispatch.Handle(s.pin, b)
	level, ok := c.Level()
	if !ok {
		s.state.Ignored++
		return
	}
	s.state.Level = level
	s.state.Source = types.SourceUART
	s.state.Byte = b
	s.state.TsMs = ts.UnixMilli()
	s.publishState()
}

func (s *service) handleSet(m *bus.Message) {
	var req types.LEDSet
	if err := jsonx.Decode(m.Payload, &req); err != nil {
		s.conn.Reply(m, types.Reply{OK: false, Error: string(errcode.InvalidPayload)})
		return
	}
	s.pin.Set(req.Level)
	s.state.Level = req.Level
	s.state.Source = types.SourceBus
	s.state.Byte = 0
	s.state.TsMs = time.Now().UnixMilli()
	s.publishState()

	st := s.state
	s.conn.Reply(m, types.Reply{OK: true, State: &st})
}

func (s *service) publishState() {
	s.conn.Publish(&bus.Message{Topic: TopicState, Payload: s.state, Retained: true})
}

func statusOf(state string, err error) types.LEDStatus {
	st := types.LEDStatus{State: state}
	if err != nil {
		st.Error = string(errcode.Of(err))
	}
	return st
}

func publishStatus(conn *bus.Connection, state string, err error) {
	conn.Publish(&bus.Message{Topic: TopicStatus, Payload: statusOf(state, err), Retained: true})
}

// -----------------------------------------------------------------------------
// Simulated board
// -----------------------------------------------------------------------------

// InjectSim feeds bytes to the UART of the "sim" device as if received.
func InjectSim(p []byte) { platform.Sim().UART.Inject(p) }

// SimLevel reports the line level of the "sim" device's LED pin.
func SimLevel() bool { return platform.Sim().Pin.Get() }
