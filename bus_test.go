package hd44780

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/peachcloud/hd44780/hd44780test"
	"periph.io/x/conn/v3/gpio"
)

func TestNewFourBitBusClaimsLow(t *testing.T) {
	c := hd44780test.NewController()
	for _, p := range []*hd44780test.Pin{c.RS, c.D4, c.D5, c.D6, c.D7} {
		p.L = gpio.High
	}

	if _, err := NewFourBitBus(c.Pins()); err != nil {
		t.Fatal(err)
	}
	for _, p := range []*hd44780test.Pin{c.RS, c.E, c.D4, c.D5, c.D6, c.D7} {
		if p.Read() != gpio.Low {
			t.Errorf("%s left high after claim", p)
		}
	}
	if c.Pulses() != 0 {
		t.Error("claiming the lines latched a nibble")
	}
}

func TestNewFourBitBusErrors(t *testing.T) {
	boom := errors.New("busy")

	t.Run("nil pin", func(t *testing.T) {
		c := hd44780test.NewController()
		_, err := NewFourBitBus(c.RS, c.E, c.D4, nil, c.D6, c.D7)
		if err == nil || !strings.Contains(err.Error(), "d5") {
			t.Errorf("error = %v, want it to name d5", err)
		}
	})

	t.Run("line cannot be driven", func(t *testing.T) {
		c := hd44780test.NewController()
		c.D6.Err = boom
		_, err := NewFourBitBus(c.Pins())
		if !errors.Is(err, boom) {
			t.Errorf("error = %v, want %v", err, boom)
		}
		if err != nil && !strings.Contains(err.Error(), "d6") {
			t.Errorf("error %q does not name d6", err)
		}
	})
}

func TestPulse(t *testing.T) {
	c := hd44780test.NewController()
	b, err := NewFourBitBus(c.Pins())
	if err != nil {
		t.Fatal(err)
	}
	var held []time.Duration
	b.hold = 7 * time.Microsecond
	b.sleep = func(d time.Duration) { held = append(held, d) }

	if err := b.Pulse(0xA, true); err != nil {
		t.Fatal(err)
	}

	want := map[*hd44780test.Pin]gpio.Level{
		c.RS: gpio.High,
		c.E:  gpio.Low,
		c.D4: gpio.Low,
		c.D5: gpio.High,
		c.D6: gpio.Low,
		c.D7: gpio.High,
	}
	for p, l := range want {
		if got := p.Read(); got != l {
			t.Errorf("%s = %v, want %v", p, got, l)
		}
	}
	if c.Pulses() != 1 {
		t.Errorf("Pulses() = %d, want 1", c.Pulses())
	}
	if len(held) != 1 || held[0] != b.hold {
		t.Errorf("enable held for %v, want [%v]", held, b.hold)
	}
}

func TestWriteHighNibbleFirst(t *testing.T) {
	c := hd44780test.NewController()
	b, err := NewFourBitBus(c.Pins())
	if err != nil {
		t.Fatal(err)
	}
	b.sleep = func(time.Duration) {}

	// The controller is still in 8-bit mode, so every nibble shows up as its
	// own byte.
	if err := b.Write(0x41, true); err != nil {
		t.Fatal(err)
	}
	want := []hd44780test.Op{{RS: true, Value: 0x40}, {RS: true, Value: 0x10}}
	got := c.Ops()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Ops() = %v, want %v", got, want)
	}
}

func TestPulseError(t *testing.T) {
	c := hd44780test.NewController()
	b, err := NewFourBitBus(c.Pins())
	if err != nil {
		t.Fatal(err)
	}
	b.sleep = func(time.Duration) {}
	boom := errors.New("gone")
	c.E.Err = boom

	if err := b.Pulse(0x3, false); !errors.Is(err, boom) {
		t.Errorf("Pulse() error = %v, want %v", err, boom)
	}
	if err := b.Write(0x30, false); !errors.Is(err, boom) {
		t.Errorf("Write() error = %v, want %v", err, boom)
	}
}

func TestBusString(t *testing.T) {
	c := hd44780test.NewController()
	b, err := NewFourBitBus(c.Pins())
	if err != nil {
		t.Fatal(err)
	}
	want := "hd44780.FourBitBus{rs=RS(0), e=E(1), d4=D4(2), d5=D5(3), d6=D6(4), d7=D7(5)}"
	if got := b.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
