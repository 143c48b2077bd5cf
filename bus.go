package hd44780

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// FourBitBus drives an HD44780 over its 4-bit parallel interface: register
// select, enable and the upper four data lines D4-D7. R/W is expected to be
// tied low; the bus never reads back from the controller.
//
// The bus owns its six lines. Nothing else should toggle them once the bus is
// created.
type FourBitBus struct {
	rs   gpio.PinOut
	e    gpio.PinOut
	data [4]gpio.PinOut // D4, D5, D6, D7

	hold  time.Duration       // Enable pulse width
	sleep func(time.Duration) // Replaced in tests
}

// NewFourBitBus claims the six lines by driving each one low and returns the
// bus. Any line that cannot be driven is reported as an error: the bus is
// unusable and the caller must not go on to use the display.
func NewFourBitBus(rs, e, d4, d5, d6, d7 gpio.PinOut) (*FourBitBus, error) {
	b := &FourBitBus{
		rs:    rs,
		e:     e,
		data:  [4]gpio.PinOut{d4, d5, d6, d7},
		hold:  DefaultTiming.Enable,
		sleep: time.Sleep,
	}
	if err := b.claim(); err != nil {
		return nil, err
	}
	return b, nil
}

// claim drives every line low, in the order E, RS, D4-D7 so that the enable
// strobe is quiet before anything else moves.
func (b *FourBitBus) claim() error {
	lines := []struct {
		name string
		pin  gpio.PinOut
	}{
		{"e", b.e},
		{"rs", b.rs},
		{"d4", b.data[0]},
		{"d5", b.data[1]},
		{"d6", b.data[2]},
		{"d7", b.data[3]},
	}
	for _, l := range lines {
		if l.pin == nil {
			return fmt.Errorf("hd44780: claim %s: %w", l.name, errNilPin)
		}
		if err := l.pin.Out(gpio.Low); err != nil {
			return fmt.Errorf("hd44780: claim %s (%s): %w", l.name, l.pin, err)
		}
	}
	return nil
}

var errNilPin = errors.New("pin is nil")

// Pulse latches one nibble into the controller. The low four bits of nibble
// are put on D4-D7 (bit 0 on D4), RS selects the data register when rs is
// true and the instruction register otherwise, then E is raised for the hold
// time and lowered. The controller samples on the falling edge of E.
func (b *FourBitBus) Pulse(nibble byte, rs bool) error {
	if err := b.rs.Out(gpio.Level(rs)); err != nil {
		return err
	}
	for i, p := range b.data {
		if err := p.Out(gpio.Level(nibble&(1<<uint(i)) != 0)); err != nil {
			return err
		}
	}
	if err := b.e.Out(gpio.High); err != nil {
		return err
	}
	b.sleep(b.hold)
	return b.e.Out(gpio.Low)
}

// Write sends a full byte as two pulses, high nibble first.
func (b *FourBitBus) Write(v byte, rs bool) error {
	if err := b.Pulse(v>>4, rs); err != nil {
		return err
	}
	return b.Pulse(v&0x0F, rs)
}

// String returns a description of the bus lines.
func (b *FourBitBus) String() string {
	return fmt.Sprintf("hd44780.FourBitBus{rs=%s, e=%s, d4=%s, d5=%s, d6=%s, d7=%s}",
		b.rs, b.e, b.data[0], b.data[1], b.data[2], b.data[3])
}
