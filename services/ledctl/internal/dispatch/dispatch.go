// Package dispatch maps received UART bytes to LED output levels.
//
// It is the body of the UART receive handler with the interrupt binding
// removed: Handle runs to completion for one byte and keeps no state
// between calls.
package dispatch

// Command is the action selected by one received byte.
type Command uint8

const (
	None Command = iota // byte is not a command; output untouched
	On                  // drive the output to logic level 1
	Off                 // drive the output to logic level 0
)

func (c Command) String() string {
	switch c {
	case On:
		return "on"
	case Off:
		return "off"
	default:
		return "none"
	}
}

// Level reports the output level for c. ok is false for None.
func (c Command) Level() (level bool, ok bool) {
	switch c {
	case On:
		return true, true
	case Off:
		return false, true
	default:
		return false, false
	}
}

// Decode classifies b: 'b'/'B' switch on, 's'/'S' switch off.
func Decode(b byte) Command {
	switch b {
	case 'b', 'B':
		return On
	case 's', 'S':
		return Off
	default:
		return None
	}
}

// Output is a digital line whose level can be written.
type Output interface {
	Set(level bool)
}

// Handle decodes b and writes the resulting level to out. For None it
// does not touch out.
func Handle(out Output, b byte) Command {
	c := Decode(b)
	if level, ok := c.Level(); ok {
		out.Set(level)
	}
	return c
}
