// Package glyph provides a 5x8 one-bit bitmap for HD44780 custom characters.
//
// The low five bits of each row byte hold the dots, bit 4 being the leftmost
// column.
package glyph

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
)

const (
	// Width is the number of dots in a glyph row.
	Width = 5
	// Height is the number of rows in a glyph.
	Height = 8
)

// Bit represents a single dot, lit or dark.
type Bit bool

const (
	Dark Bit = false
	Lit  Bit = true
)

// RGBA converts the Bit to standard RGBA. Lit dots are white.
func (b Bit) RGBA() (r, g, bl, a uint32) {
	if b {
		return 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF
	}
	return 0, 0, 0, 0xFFFF
}

// toBit converts any color.Color to Bit.
func toBit(c color.Color) color.Color {
	if b, ok := c.(Bit); ok {
		return b
	}
	r, g, b, a := c.RGBA()
	if a < 0x8000 {
		return Dark
	}
	// Same luma weights as image/color.GrayModel, thresholded at half scale.
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Bit(y >= 0x8000)
}

// BitModel converts colors to Bit.
var BitModel = color.ModelFunc(toBit)

// Glyph is a 5x8 one-bit image. Pix holds one byte per row.
type Glyph struct {
	Pix [Height]byte
}

// rect is the fixed bounds of every glyph.
var rect = image.Rect(0, 0, Width, Height)

// New returns a glyph with every dot dark.
func New() *Glyph {
	return &Glyph{}
}

// FromRows returns a glyph from raw CGRAM row bytes. Bits above the fifth are
// dropped.
func FromRows(rows [Height]byte) *Glyph {
	g := &Glyph{}
	for i, r := range rows {
		g.Pix[i] = r & 0x1F
	}
	return g
}

// Parse builds a glyph from eight rows of five cells. '#', 'X', 'x', '*' and
// '1' are lit; '.', ' ', '_' and '0' are dark.
func Parse(rows []string) (*Glyph, error) {
	if len(rows) != Height {
		return nil, fmt.Errorf("glyph: want %d rows, got %d", Height, len(rows))
	}
	g := &Glyph{}
	for y, row := range rows {
		if len(row) != Width {
			return nil, fmt.Errorf("glyph: row %d: want %d cells, got %d", y, Width, len(row))
		}
		for x := 0; x < Width; x++ {
			switch row[x] {
			case '#', 'X', 'x', '*', '1':
				g.SetBit(x, y, Lit)
			case '.', ' ', '_', '0':
			default:
				return nil, fmt.Errorf("glyph: row %d: invalid cell %q", y, row[x])
			}
		}
	}
	return g, nil
}

// MustParse is like Parse but panics on error. It is meant for package level
// glyph tables.
func MustParse(rows ...string) *Glyph {
	g, err := Parse(rows)
	if err != nil {
		panic(err)
	}
	return g
}

// ColorModel returns the color model of the glyph.
func (g *Glyph) ColorModel() color.Model {
	return BitModel
}

// Bounds returns the glyph bounds, always 5x8 at the origin.
func (g *Glyph) Bounds() image.Rectangle {
	return rect
}

// At returns the color of the dot at (x, y).
// It implements the image.Image interface.
func (g *Glyph) At(x, y int) color.Color {
	return g.BitAt(x, y)
}

// BitAt returns the dot at (x, y). Out of bounds dots are dark.
func (g *Glyph) BitAt(x, y int) Bit {
	if !(image.Point{X: x, Y: y}.In(rect)) {
		return Dark
	}
	return Bit(g.Pix[y]&mask(x) != 0)
}

// Set sets the color of the dot at (x, y).
func (g *Glyph) Set(x, y int, c color.Color) {
	g.SetBit(x, y, BitModel.Convert(c).(Bit))
}

// SetBit sets the dot at (x, y) without color conversion.
func (g *Glyph) SetBit(x, y int, b Bit) {
	if !(image.Point{X: x, Y: y}.In(rect)) {
		return
	}
	if b {
		g.Pix[y] |= mask(x)
	} else {
		g.Pix[y] &^= mask(x)
	}
}

// Rows returns the eight CGRAM row bytes.
func (g *Glyph) Rows() [Height]byte {
	return g.Pix
}

// String renders the glyph with '#' for lit dots and '.' for dark ones, one
// line per row.
func (g *Glyph) String() string {
	var sb strings.Builder
	for y := 0; y < Height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < Width; x++ {
			if g.BitAt(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}

// mask returns the row bit for column x. Column 0 is bit 4.
func mask(x int) byte {
	return 1 << uint(Width-1-x)
}

// ErrLocation is returned for CGRAM locations outside 0-7.
var ErrLocation = errors.New("glyph: location must be between 0 and 7")

// Locations is the number of custom characters the controller stores.
const Locations = 8

// CheckLocation validates a CGRAM character location.
func CheckLocation(loc int) error {
	if loc < 0 || loc >= Locations {
		return ErrLocation
	}
	return nil
}
