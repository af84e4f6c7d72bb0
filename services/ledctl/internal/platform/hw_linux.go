//go:build linux && !baremetal

package platform

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"uartled-go/errcode"
	"uartled-go/services/ledctl/internal/halcore"
	"uartled-go/types"
)

// openHardware opens a serial device through go.bug.st/serial and a GPIO
// line through periph.io.
func openHardware(cfg types.LEDConfig) (*Resources, error) {
	if cfg.Device != DeviceLinux {
		return nil, errcode.Unsupported
	}
	port, err := openSerial(cfg.UART)
	if err != nil {
		return nil, err
	}
	pin, err := openGPIO(cfg)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return &Resources{
		Port:    port,
		Pin:     pin,
		closers: []halcore.Closer{port, pin},
	}, nil
}

// ---- UART (go.bug.st/serial) ----

const serialPollTimeout = 100 * time.Millisecond

// serialPort pumps a blocking OS serial port into an rxQueue so it offers
// the same Readable()/RecvSomeContext surface as the rp2 driver.
type serialPort struct {
	*rxQueue

	port serial.Port
	path string

	mu   sync.Mutex
	mode serial.Mode

	done chan struct{}
	once sync.Once
}

var _ halcore.UARTPort = (*serialPort)(nil)

func toSerialParity(p types.Parity) serial.Parity {
	switch p {
	case types.ParityEven:
		return serial.EvenParity
	case types.ParityOdd:
		return serial.OddParity
	default:
		return serial.NoParity
	}
}

func openSerial(c types.SerialConfig) (*serialPort, error) {
	if c.Path == "" {
		return nil, errcode.UnknownPort
	}
	baud := int(c.Baud)
	if baud == 0 {
		baud = 9600
	}
	mode := serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   toSerialParity(c.Parity),
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(c.Path, &mode)
	if err != nil {
		var pe *serial.PortError
		if errors.As(err, &pe) && pe.Code() == serial.PortBusy {
			return nil, errcode.Wrap(errcode.PortInUse, "open "+c.Path, err)
		}
		return nil, errcode.Wrap(errcode.UnknownPort, "open "+c.Path, err)
	}
	if err := p.SetReadTimeout(serialPollTimeout); err != nil {
		_ = p.Close()
		return nil, errcode.Wrap(errcode.Error, "set read timeout", err)
	}
	sp := &serialPort{
		rxQueue: newRxQueue(256),
		port:    p,
		path:    c.Path,
		mode:    mode,
		done:    make(chan struct{}),
	}
	go sp.pump()
	glog.V(1).Infof("serial %s open at %d baud, parity %s", c.Path, baud, c.Parity)
	return sp, nil
}

func (s *serialPort) pump() {
	buf := make([]byte, 64)
	for {
		select {
		case <-s.done:
			return
		default:
		}
		n, err := s.port.Read(buf)
		if n > 0 {
			s.push(buf[:n])
		}
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}
			glog.Warningf("serial %s read: %v", s.path, err)
			time.Sleep(serialPollTimeout)
		}
	}
}

func (s *serialPort) Write(p []byte) (int, error) { return s.port.Write(p) }

func (s *serialPort) SetBaudRate(br uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode.BaudRate = int(br)
	return s.port.SetMode(&s.mode)
}

func (s *serialPort) SetFormat(databits, stopbits uint8, parity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode.DataBits = int(databits)
	if stopbits == 2 {
		s.mode.StopBits = serial.TwoStopBits
	} else {
		s.mode.StopBits = serial.OneStopBit
	}
	switch parity {
	case "even":
		s.mode.Parity = serial.EvenParity
	case "odd":
		s.mode.Parity = serial.OddParity
	default:
		s.mode.Parity = serial.NoParity
	}
	return s.port.SetMode(&s.mode)
}

func (s *serialPort) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.port.Close()
	})
	return err
}

// ---- GPIO (periph.io) ----

var (
	periphOnce sync.Once
	periphErr  error
)

func initPeriph() error {
	periphOnce.Do(func() {
		_, periphErr = host.Init()
	})
	return periphErr
}

type periphPin struct {
	p     gpio.PinIO
	mu    sync.Mutex
	level bool
}

func openGPIO(cfg types.LEDConfig) (*periphPin, error) {
	if err := initPeriph(); err != nil {
		return nil, errcode.Wrap(errcode.Unsupported, "periph init", err)
	}
	name := cfg.GPIO
	if name == "" {
		name = "GPIO" + strconv.Itoa(cfg.LEDPin)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, &errcode.E{C: errcode.UnknownPin, Op: "open gpio", Msg: name}
	}
	return &periphPin{p: p}, nil
}

func (p *periphPin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.p.Out(gpio.Level(initial)); err != nil {
		return errcode.Wrap(errcode.Error, "gpio out", err)
	}
	p.level = initial
	return nil
}

func (p *periphPin) Set(level bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.p.Out(gpio.Level(level)); err != nil {
		glog.Warningf("gpio %s: %v", p.p.Name(), err)
		return
	}
	p.level = level
}

// Get returns the last level driven; sysfs backends cannot always read
// back an output.
func (p *periphPin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *periphPin) Number() int { return p.p.Number() }

func (p *periphPin) Close() error { return p.p.Halt() }
