// Package hd44780test is meant to be used to test code driving an HD44780
// over a 4-bit bus, using fake pins and a model of the controller.
//
// The Controller latches the data lines on every falling edge of E, exactly
// like the real chip, and keeps DDRAM, CGRAM, the address counter and the
// mode registers up to date. Tests inspect the result instead of the raw
// pin toggles.
package hd44780test

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Pin is a fake output line wired to a Controller.
//
// Set Err to make Out fail, e.g. to simulate a line that cannot be claimed.
type Pin struct {
	gpiotest.Pin
	Err error

	c    *Controller
	line line
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	if p.Err != nil {
		return p.Err
	}
	if err := p.Pin.Out(l); err != nil {
		return err
	}
	if p.line == lineE {
		p.c.strobe(l)
	}
	return nil
}

type line int

const (
	lineRS line = iota
	lineE
	lineD4
	lineD5
	lineD6
	lineD7
)

// Op is one decoded byte written to the controller.
type Op struct {
	RS    bool // Data register when true, instruction register otherwise
	Value byte
}

// Kind names the instruction, or "data" for data register writes.
func (o Op) Kind() string {
	if o.RS {
		return "data"
	}
	v := o.Value
	switch {
	case v&0x80 != 0:
		return "set_ddram"
	case v&0x40 != 0:
		return "set_cgram"
	case v&0x20 != 0:
		return "function_set"
	case v&0x10 != 0:
		return "shift"
	case v&0x08 != 0:
		return "display_control"
	case v&0x04 != 0:
		return "entry_mode"
	case v&0x02 != 0:
		return "home"
	case v&0x01 != 0:
		return "clear"
	}
	return "nop"
}

func (o Op) String() string {
	return fmt.Sprintf("%s(0x%02X)", o.Kind(), o.Value)
}

// State is a snapshot of everything visible or addressable in the
// controller. It is comparable.
type State struct {
	DDRAM    [128]byte
	CGRAM    [64]byte
	Address  byte // Address counter
	CGRAMSel bool // Data writes go to CGRAM
	FourBit  bool
	TwoLine  bool

	Display, Cursor, Blink bool
	Increment, Shift       bool
	ShiftOffset            int
}

// Controller models an HD44780 wired through six fake pins.
type Controller struct {
	RS, E, D4, D5, D6, D7 *Pin

	mu      sync.Mutex
	eHigh   bool
	pending bool // First nibble of a 4-bit byte is latched
	hi      byte
	hiRS    bool
	st      State
	ops     []Op
	pulses  int
}

// NewController returns a controller in its power-on state: 8-bit interface,
// display off, DDRAM filled with spaces.
func NewController() *Controller {
	c := &Controller{}
	mk := func(name string, l line) *Pin {
		return &Pin{Pin: gpiotest.Pin{N: name, Num: int(l)}, c: c, line: l}
	}
	c.RS = mk("RS", lineRS)
	c.E = mk("E", lineE)
	c.D4 = mk("D4", lineD4)
	c.D5 = mk("D5", lineD5)
	c.D6 = mk("D6", lineD6)
	c.D7 = mk("D7", lineD7)
	c.st.Increment = true
	for i := range c.st.DDRAM {
		c.st.DDRAM[i] = ' '
	}
	return c
}

// Pins returns the lines in the order hd44780.NewFourBitBus takes them.
func (c *Controller) Pins() (rs, e, d4, d5, d6, d7 gpio.PinOut) {
	return c.RS, c.E, c.D4, c.D5, c.D6, c.D7
}

// State returns a snapshot of the controller.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

// Text returns n characters of DDRAM starting at addr.
func (c *Controller) Text(addr byte, n int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		b[i] = c.st.DDRAM[(int(addr)+i)&0x7F]
	}
	return string(b)
}

// Glyph returns the eight CGRAM rows of a custom character location.
func (c *Controller) Glyph(loc int) [8]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	var rows [8]byte
	copy(rows[:], c.st.CGRAM[(loc&7)*8:])
	return rows
}

// Ops returns the bytes decoded so far, in order.
func (c *Controller) Ops() []Op {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Op(nil), c.ops...)
}

// Pulses returns the number of nibbles latched so far.
func (c *Controller) Pulses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulses
}

// ResetLog forgets the decoded ops and the pulse count. The controller state
// is kept.
func (c *Controller) ResetLog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ops = nil
	c.pulses = 0
}

// strobe is called on every write to E and latches on the falling edge.
func (c *Controller) strobe(l gpio.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	wasHigh := c.eHigh
	c.eHigh = bool(l)
	if !wasHigh || l == gpio.High {
		return
	}
	c.pulses++
	rs := bool(c.RS.Read())
	nibble := byte(0)
	for i, p := range []*Pin{c.D4, c.D5, c.D6, c.D7} {
		if p.Read() {
			nibble |= 1 << uint(i)
		}
	}

	if !c.st.FourBit {
		// 8-bit interface with D0-D3 unconnected: one latch is one byte.
		c.exec(rs, nibble<<4)
		return
	}
	if !c.pending {
		c.pending = true
		c.hi = nibble
		c.hiRS = rs
		return
	}
	c.pending = false
	c.exec(c.hiRS, c.hi<<4|nibble)
}

// exec runs one byte. Caller holds c.mu.
func (c *Controller) exec(rs bool, v byte) {
	c.ops = append(c.ops, Op{RS: rs, Value: v})
	st := &c.st
	if rs {
		if st.CGRAMSel {
			st.CGRAM[st.Address&0x3F] = v
			if st.Increment {
				st.Address = (st.Address + 1) & 0x3F
			} else {
				st.Address = (st.Address - 1) & 0x3F
			}
			return
		}
		st.DDRAM[st.Address&0x7F] = v
		c.step(st.Increment)
		if st.Shift {
			if st.Increment {
				st.ShiftOffset++
			} else {
				st.ShiftOffset--
			}
		}
		return
	}

	switch {
	case v&0x80 != 0:
		st.Address = v & 0x7F
		st.CGRAMSel = false
	case v&0x40 != 0:
		st.Address = v & 0x3F
		st.CGRAMSel = true
	case v&0x20 != 0:
		st.FourBit = v&0x10 == 0
		st.TwoLine = v&0x08 != 0
		c.pending = false
	case v&0x10 != 0:
		right := v&0x04 != 0
		if v&0x08 != 0 {
			if right {
				st.ShiftOffset++
			} else {
				st.ShiftOffset--
			}
		} else {
			c.step(right)
		}
	case v&0x08 != 0:
		st.Display = v&0x04 != 0
		st.Cursor = v&0x02 != 0
		st.Blink = v&0x01 != 0
	case v&0x04 != 0:
		st.Increment = v&0x02 != 0
		st.Shift = v&0x01 != 0
	case v&0x02 != 0:
		st.Address = 0
		st.CGRAMSel = false
		st.ShiftOffset = 0
	case v&0x01 != 0:
		for i := range st.DDRAM {
			st.DDRAM[i] = ' '
		}
		st.Address = 0
		st.CGRAMSel = false
		st.ShiftOffset = 0
		st.Increment = true
	}
}

// step moves the DDRAM address counter one cell, wrapping the way the chip
// does: 0x27 -> 0x40 -> ... 0x67 -> 0x00 on two line displays and
// 0x4F -> 0x00 on one line displays. Caller holds c.mu.
func (c *Controller) step(forward bool) {
	st := &c.st
	a := st.Address
	if st.TwoLine {
		switch {
		case forward && a == 0x27:
			st.Address = 0x40
		case forward && a == 0x67:
			st.Address = 0x00
		case !forward && a == 0x40:
			st.Address = 0x27
		case !forward && a == 0x00:
			st.Address = 0x67
		case forward:
			st.Address = (a + 1) & 0x7F
		default:
			st.Address = (a - 1) & 0x7F
		}
		return
	}
	switch {
	case forward && a >= 0x4F:
		st.Address = 0x00
	case !forward && a == 0x00:
		st.Address = 0x4F
	case forward:
		st.Address = a + 1
	default:
		st.Address = a - 1
	}
}

var _ gpio.PinOut = &Pin{}
