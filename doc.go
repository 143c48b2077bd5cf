// Package hd44780 controls an HD44780 character LCD over a 4-bit parallel bus.
//
// The HD44780 (and its many clones: KS0066, SPLC780, ST7066) drives character
// displays from 8x1 to 40x4. This driver talks to it write-only through six
// GPIO lines and implements the display.TextDisplay interface from periph.io.
//
// # Display Characteristics
//
// - 5x8 dot characters from a built-in ROM (ASCII plus one vendor page)
// - 8 user-defined characters stored in CGRAM
// - 80 bytes of DDRAM, more than most displays show
// - Hardware display shift and automatic address increment
// - Underline and blinking block cursors
//
// # Hardware Connection
//
// Connect the display to your system using the 4-bit interface:
//
//	Display Pin → System Pin
//	VSS         → GND
//	VDD         → 5V
//	V0          → Contrast potentiometer wiper
//	RS          → GPIO (register select)
//	R/W         → GND (write only)
//	E           → GPIO (enable strobe)
//	D0-D3       → Not connected
//	D4-D7       → GPIO (four data lines)
//	A/K         → Backlight, through a resistor
//
// R/W must be tied low. The driver never polls the busy flag and waits for
// the documented execution time after every instruction instead.
//
// # Basic Usage
//
// Example of creating and using the display:
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"github.com/peachcloud/hd44780"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		host.Init()
//
//		// Look up the six lines
//		rs := gpioreg.ByName("GPIO484")
//		e := gpioreg.ByName("GPIO477")
//		d4 := gpioreg.ByName("GPIO483")
//		d5 := gpioreg.ByName("GPIO482")
//		d6 := gpioreg.ByName("GPIO480")
//		d7 := gpioreg.ByName("GPIO485")
//
//		// Claim them
//		bus, _ := hd44780.NewFourBitBus(rs, e, d4, d5, d6, d7)
//
//		// Create device
//		dev, _ := hd44780.New(bus, &hd44780.Opts{Rows: 2, Cols: 16})
//		defer dev.Halt()
//
//		dev.WriteString("hello")
//		dev.SetCursorPosition(40)
//		dev.WriteString("world")
//	}
//
// # Cursor Positions
//
// SetCursorPosition takes a linear DDRAM offset between 0 and 40 and sends it
// as is: on a 2-line display offset 40 (0x28) is not the start of the second
// line, which begins at 0x40. MoveTo takes a row and column of the visible
// window and computes the address, including the interleaved rows of 4-line
// displays.
//
// # Timing
//
// All waits come from Opts.Timing and default to DefaultTiming. Clear and
// return home take around 1.5ms; everything else takes under 50µs. Slower
// clones may need longer values:
//
//	t := hd44780.DefaultTiming
//	t.Command = 200 * time.Microsecond
//	dev, _ := hd44780.New(bus, &hd44780.Opts{Timing: &t})
//
// # Custom Characters
//
// Glyphs from the glyph package can be loaded at any of the eight CGRAM
// locations, either at initialization through Opts.Glyphs or later with
// CreateChar. Writing the location as a character code shows the glyph:
//
//	smiley := glyph.MustParse(
//		".....",
//		".#.#.",
//		".#.#.",
//		".....",
//		"#...#",
//		".###.",
//		".....",
//		".....",
//	)
//	dev.CreateChar(0, smiley)
//	dev.Write([]byte{0})
//
// Glyphs set through Opts.Glyphs or CreateChar survive Reset.
//
// # Concurrency
//
// A Dev is not safe for concurrent use. Callers sharing a display must
// serialize access; the lcdrpc package does so for its clients.
//
// # Datasheet
//
// For the instruction set and timing diagrams, see:
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
//
// # Compatibility with periph.io
//
// This driver implements the display.TextDisplay interface from periph.io:
// https://pkg.go.dev/periph.io/x/conn/v3/display
//
// It can be used with any periph.io tool or library expecting a
// display.TextDisplay, including displaytest.TestTextDisplay.
package hd44780
