// Package hd44780 controls an HD44780 character LCD over a 4-bit parallel bus.
//
// The controller is driven write-only through six GPIO lines: register
// select, enable and data lines D4-D7.
//
// See the examples for how to use this package.
package hd44780

import (
	"errors"
	"fmt"
	"time"

	"github.com/peachcloud/hd44780/glyph"
)

// Instruction set.
const (
	cmdClear    = 0x01
	cmdHome     = 0x02
	cmdEntry    = 0x04
	cmdDisplay  = 0x08
	cmdShift    = 0x10
	cmdFunction = 0x20
	cmdCGRAM    = 0x40
	cmdDDRAM    = 0x80
)

// Instruction flags.
const (
	entryIncrement = 0x02 // Address counter counts up
	entryShift     = 0x01 // Display shifts with every write

	displayOn = 0x04
	cursorOn  = 0x02
	blinkOn   = 0x01

	shiftDisplay = 0x08 // Shift the display rather than move the cursor
	shiftRight   = 0x04

	functionTwoLine = 0x08 // 4-bit interface, 2 lines, 5x8 dots without the flag bits
)

// MaxPosition is the highest cursor position accepted by SetCursorPosition.
// Positions are linear DDRAM offsets on a single logical row.
const MaxPosition = 40

// rowOffsets is the DDRAM address of the first column of each row. Four row
// displays interleave rows 0/2 and 1/3.
var rowOffsets = [4]byte{0x00, 0x40, 0x14, 0x54}

var (
	// ErrHalted is returned by every operation after Halt.
	ErrHalted = errors.New("hd44780: halted")
	// ErrPosition is returned by SetCursorPosition for positions outside
	// 0-MaxPosition.
	ErrPosition = errors.New("hd44780: position not in range 0-40")
)

// Mode is the display control state: whether characters are shown, whether
// the underline cursor is visible and whether the cursor cell blinks.
type Mode struct {
	Display bool
	Cursor  bool
	Blink   bool
}

// DefaultMode shows the characters with no cursor.
var DefaultMode = Mode{Display: true}

// Timing holds the waits the controller needs. All of them are minimums; the
// driver sleeps, it never polls the busy flag since R/W is tied low.
type Timing struct {
	PowerOn time.Duration // Before the first instruction after power up
	Reset   time.Duration // After the first nibble of the reset sequence
	Enable  time.Duration // Width of the enable pulse
	Command time.Duration // After ordinary instructions and data writes
	Clear   time.Duration // After clear and return home
}

// DefaultTiming covers the datasheet figures at 270kHz with some margin.
var DefaultTiming = Timing{
	PowerOn: 50 * time.Millisecond,
	Reset:   4100 * time.Microsecond,
	Enable:  time.Microsecond,
	Command: 100 * time.Microsecond,
	Clear:   2 * time.Millisecond,
}

// Opts is the configuration for the display.
type Opts struct {
	// Visible geometry
	Rows int // Default: 2, must be between 1 and 4
	Cols int // Default: 16, must be between 1 and 40

	// Mode applied at the end of every initialization. nil means DefaultMode.
	Mode *Mode

	// Timing overrides. nil means DefaultTiming.
	Timing *Timing

	// Custom characters loaded into CGRAM on every initialization, indexed
	// by location. nil entries are left untouched.
	Glyphs [glyph.Locations]*glyph.Glyph
}

// Dev is the device handle for the HD44780 display.
type Dev struct {
	bus    *FourBitBus
	timing Timing

	// Display geometry
	rows, cols int

	// Controller state mirrored by the driver
	mode   Mode
	entry  byte
	addr   byte // DDRAM address counter
	glyphs [glyph.Locations]*glyph.Glyph

	halted bool
	sleep  func(time.Duration)
}

// New creates a display on an already claimed bus and initializes it.
//
// opts can be nil to use defaults (16x2 display).
func New(bus *FourBitBus, opts *Opts) (*Dev, error) {
	if bus == nil {
		return nil, errors.New("hd44780: bus is nil")
	}
	if opts == nil {
		opts = &Opts{}
	}
	rows, cols := opts.Rows, opts.Cols
	if rows == 0 {
		rows = 2
	}
	if cols == 0 {
		cols = 16
	}
	if rows < 1 || rows > len(rowOffsets) {
		return nil, errors.New("hd44780: rows must be between 1 and 4")
	}
	if cols < 1 || cols > 40 || rows*cols > 80 {
		return nil, errors.New("hd44780: cols must be between 1 and 40 and rows*cols at most 80")
	}

	d := &Dev{
		bus:    bus,
		timing: DefaultTiming,
		rows:   rows,
		cols:   cols,
		mode:   DefaultMode,
		glyphs: opts.Glyphs,
		sleep:  time.Sleep,
	}
	if opts.Timing != nil {
		d.timing = *opts.Timing
	}
	if opts.Mode != nil {
		d.mode = *opts.Mode
	}
	bus.hold = d.timing.Enable

	if err := d.Init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Init runs the power-on initialization: reset by instruction into 4-bit
// mode, function set (2 lines, 5x8 dots), display off, clear, entry mode
// (increment, no shift), custom characters, then the configured Mode.
//
// It is safe to call Init again at any time; it also brings a halted device
// back.
func (d *Dev) Init() error {
	d.sleep(d.timing.PowerOn)

	// The controller may be in 8-bit mode or halfway through a 4-bit byte.
	// Three 8-bit function sets bring it to a known state whatever it was
	// doing, then 0x2 switches the interface to 4 bits.
	for _, wait := range []time.Duration{d.timing.Reset, d.timing.Command, d.timing.Command} {
		if err := d.bus.Pulse(0x03, false); err != nil {
			return fmt.Errorf("hd44780: reset: %w", err)
		}
		d.sleep(wait)
	}
	if err := d.bus.Pulse(0x02, false); err != nil {
		return fmt.Errorf("hd44780: reset: %w", err)
	}
	d.sleep(d.timing.Command)

	d.halted = false
	d.entry = entryIncrement
	cmds := []byte{
		cmdFunction | functionTwoLine, // 4-bit, 2 lines, 5x8
		cmdDisplay,                    // Display off
	}
	if err := d.sendCommands(cmds); err != nil {
		return err
	}
	if err := d.sendSlowCommand(cmdClear); err != nil {
		return err
	}
	if err := d.sendCommand(cmdEntry | d.entry); err != nil {
		return err
	}
	d.addr = 0

	loaded := false
	for loc, g := range d.glyphs {
		if g == nil {
			continue
		}
		if err := d.writeGlyph(byte(loc), g); err != nil {
			return err
		}
		loaded = true
	}
	if loaded {
		// Data writes go to CGRAM until a DDRAM address is set.
		if err := d.sendCommand(cmdDDRAM); err != nil {
			return err
		}
	}
	return d.applyMode()
}

// Reset re-runs the initialization sequence on the already claimed lines.
func (d *Dev) Reset() error {
	return d.Init()
}

// Clear blanks every character and returns the cursor home. Entry mode goes
// back to increment.
func (d *Dev) Clear() error {
	if d.halted {
		return ErrHalted
	}
	if err := d.sendSlowCommand(cmdClear); err != nil {
		return err
	}
	d.entry |= entryIncrement
	d.addr = 0
	return nil
}

// Home returns the cursor to the first position and undoes any display
// shift. DDRAM content is kept.
func (d *Dev) Home() error {
	if d.halted {
		return ErrHalted
	}
	if err := d.sendSlowCommand(cmdHome); err != nil {
		return err
	}
	d.addr = 0
	return nil
}

// SetCursorPosition moves the cursor to a linear DDRAM offset between 0 and
// MaxPosition. No row wrapping is applied: the offset is the address.
func (d *Dev) SetCursorPosition(pos int) error {
	if d.halted {
		return ErrHalted
	}
	if pos < 0 || pos > MaxPosition {
		return ErrPosition
	}
	if err := d.sendCommand(cmdDDRAM | byte(pos)&0x7F); err != nil {
		return err
	}
	d.addr = byte(pos)
	return nil
}

// WriteString writes text at the cursor and returns the number of characters
// written. Each rune is sent as its low byte; the controller advances its
// address after every character. Characters past the visible window are
// stored in DDRAM and show up when the display is shifted.
func (d *Dev) WriteString(text string) (int, error) {
	if d.halted {
		return 0, ErrHalted
	}
	n := 0
	for _, r := range text {
		if err := d.sendData(byte(r)); err != nil {
			return n, err
		}
		d.step(true)
		n++
	}
	return n, nil
}

// Write writes raw character codes at the cursor. Codes 0-7 are the custom
// characters.
func (d *Dev) Write(p []byte) (int, error) {
	if d.halted {
		return 0, ErrHalted
	}
	for i, c := range p {
		if err := d.sendData(c); err != nil {
			return i, err
		}
		d.step(true)
	}
	return len(p), nil
}

// SetMode sets display, cursor and blink at once.
func (d *Dev) SetMode(m Mode) error {
	if d.halted {
		return ErrHalted
	}
	d.mode = m
	return d.applyMode()
}

// Mode returns the current display mode.
func (d *Dev) Mode() Mode {
	return d.mode
}

// CreateChar stores a custom character at a CGRAM location (0-7). Writing
// byte loc afterwards shows it. The glyph is kept and reloaded by Init.
func (d *Dev) CreateChar(loc int, g *glyph.Glyph) error {
	if d.halted {
		return ErrHalted
	}
	if err := glyph.CheckLocation(loc); err != nil {
		return err
	}
	if g == nil {
		return errors.New("hd44780: glyph is nil")
	}
	if err := d.writeGlyph(byte(loc), g); err != nil {
		return err
	}
	d.glyphs[loc] = g
	return d.sendCommand(cmdDDRAM | d.addr)
}

// Halt turns the display off.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.halted = true
	return d.sendCommand(cmdDisplay) // Display OFF
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("hd44780.Dev{%dx%d}", d.cols, d.rows)
}

// writeGlyph sends the eight rows of g to CGRAM location loc.
func (d *Dev) writeGlyph(loc byte, g *glyph.Glyph) error {
	if err := d.sendCommand(cmdCGRAM | loc<<3); err != nil {
		return err
	}
	for _, r := range g.Rows() {
		if err := d.sendData(r); err != nil {
			return err
		}
	}
	return nil
}

// applyMode sends the display control instruction for d.mode.
func (d *Dev) applyMode() error {
	c := byte(cmdDisplay)
	if d.mode.Display {
		c |= displayOn
	}
	if d.mode.Cursor {
		c |= cursorOn
	}
	if d.mode.Blink {
		c |= blinkOn
	}
	return d.sendCommand(c)
}

// step moves the address counter one cell the way the controller does with
// two lines: 0x27 is followed by 0x40 and 0x67 by 0x00.
func (d *Dev) step(forward bool) {
	switch a := d.addr; {
	case forward && a == 0x27:
		d.addr = 0x40
	case forward && a == 0x67:
		d.addr = 0x00
	case !forward && a == 0x40:
		d.addr = 0x27
	case !forward && a == 0x00:
		d.addr = 0x67
	case forward:
		d.addr = (a + 1) & 0x7F
	default:
		d.addr = (a - 1) & 0x7F
	}
}

// position returns the visible row and column of the address counter.
func (d *Dev) position() (row, col int, ok bool) {
	for r := 0; r < d.rows; r++ {
		if off := rowOffsets[r]; d.addr >= off && d.addr < off+byte(d.cols) {
			return r, int(d.addr - off), true
		}
	}
	return 0, 0, false
}

// sendCommand sends a single instruction and waits for it to complete.
func (d *Dev) sendCommand(c byte) error {
	return d.sendCommands([]byte{c})
}

// sendCommands sends instructions one after the other, waiting after each.
func (d *Dev) sendCommands(cmds []byte) error {
	for _, c := range cmds {
		if err := d.bus.Write(c, false); err != nil {
			return err
		}
		d.sleep(d.timing.Command)
	}
	return nil
}

// sendSlowCommand sends clear or return home, which take far longer to
// execute than anything else.
func (d *Dev) sendSlowCommand(c byte) error {
	if err := d.bus.Write(c, false); err != nil {
		return err
	}
	d.sleep(d.timing.Clear)
	return nil
}

// sendData writes one character code to the data register.
func (d *Dev) sendData(c byte) error {
	if err := d.bus.Write(c, true); err != nil {
		return err
	}
	d.sleep(d.timing.Command)
	return nil
}
