//go:build !baremetal

// Command ledsend writes LED on/off command bytes to a serial port, either
// from an interactive shell or from a -e script such as "on; send s; off".
package main

import (
	"flag"
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"
	"github.com/golang/glog"
	"github.com/google/shlex"

	"uartled-go/drivers/ledboard"
)

const senderKey = "$sender"

var (
	portName = flag.String("port", "COM3", "Serial port the LED board is attached to.")
	baud     = flag.Int("baud", ledboard.DefaultBaud, "Baud rate.")
	script   = flag.String("e", "", "Commands to run without an interactive shell, separated by ';'.")
)

// sender owns the serial connection; it is opened on first use so that
// "ports" works before the right port is known.
type sender struct {
	port string
	baud int
	dev  *ledboard.Device
	open func(port string, baud int) (*ledboard.Device, error)
}

func (s *sender) device() (*ledboard.Device, error) {
	if s.dev != nil {
		return s.dev, nil
	}
	d, err := s.open(s.port, s.baud)
	if err != nil {
		return nil, err
	}
	s.dev = d
	return d, nil
}

// write sends one command byte and logs the outcome.
func (s *sender) write(b byte) error {
	d, err := s.device()
	if err == nil {
		err = d.Send(b)
	}
	if err != nil {
		glog.Errorf("Could not write %q on port %s: %v", b, s.port, err)
		return err
	}
	glog.Infof("Written %q on port %s", b, s.port)
	return nil
}

func (s *sender) close() {
	if s.dev != nil {
		_ = s.dev.Close()
		s.dev = nil
	}
}

func senderFrom(c *ishell.Context) *sender {
	return c.Get(senderKey).(*sender)
}

var commands = []*ishell.Cmd{
	{
		Name: "on",
		Help: "switch the LED on (sends 'b')",
		Func: func(c *ishell.Context) {
			if err := senderFrom(c).write(ledboard.CmdOn); err != nil {
				c.Err(err)
				return
			}
			c.Println("LED ON")
		},
	},
	{
		Name: "off",
		Help: "switch the LED off (sends 's')",
		Func: func(c *ishell.Context) {
			if err := senderFrom(c).write(ledboard.CmdOff); err != nil {
				c.Err(err)
				return
			}
			c.Println("LED OFF")
		},
	},
	{
		Name: "send",
		Help: "CMD  send a command (on, off, 1, 0) or any single character",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: send CMD"))
				return
			}
			b, err := ledboard.ParseCommand(c.Args[0])
			if err != nil && len(c.Args[0]) == 1 {
				// The board ignores unknown bytes; allow them for probing.
				b, err = c.Args[0][0], nil
			}
			if err != nil {
				c.Err(err)
				return
			}
			if err := senderFrom(c).write(b); err != nil {
				c.Err(err)
			}
		},
	},
	{
		Name:    "ports",
		Aliases: []string{"ls"},
		Help:    "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := ledboard.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, p := range ports {
				c.Println(p)
			}
		},
	},
	{
		Name: "status",
		Help: "show port and last command sent",
		Func: func(c *ishell.Context) {
			s := senderFrom(c)
			c.Println(statusLine(s))
		},
	},
}

func statusLine(s *sender) string {
	state := "closed"
	last := "none"
	if s.dev != nil {
		state = "open"
		if b, ok := s.dev.Last(); ok {
			last = fmt.Sprintf("%q", b)
			if lvl, cmd := ledboard.LevelOf(b); cmd && lvl {
				last += " (on)"
			} else if cmd {
				last += " (off)"
			}
		}
	}
	return fmt.Sprintf("port=%s baud=%d %s last=%s", s.port, s.baud, state, last)
}

// splitScript turns "on; send b; off" into one argv per command.
func splitScript(src string) ([][]string, error) {
	var out [][]string
	for _, stmt := range strings.Split(src, ";") {
		args, err := shlex.Split(stmt)
		if err != nil {
			return nil, err
		}
		if len(args) > 0 {
			out = append(out, args)
		}
	}
	return out, nil
}

func newShell(s *sender) *ishell.Shell {
	sh := ishell.New()
	sh.Set(senderKey, s)
	sh.SetPrompt(s.port + " > ")
	for _, cmd := range commands {
		sh.AddCmd(cmd)
	}
	return sh
}

func main() {
	flag.Parse()
	defer glog.Flush()

	s := &sender{port: *portName, baud: *baud, open: ledboard.Open}
	defer s.close()
	sh := newShell(s)

	if *script == "" {
		sh.Run()
		return
	}
	cmds, err := splitScript(*script)
	if err != nil {
		glog.Exitf("bad script: %v", err)
	}
	for _, args := range cmds {
		if err := sh.Process(args...); err != nil {
			glog.Exitf("%s: %v", args[0], err)
		}
	}
}
