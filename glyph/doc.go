// Package glyph provides a 5x8 one-bit bitmap for HD44780 custom characters.
//
// The controller keeps up to eight user-defined characters in CGRAM. Each one
// is eight rows of five dots; the low five bits of a row byte are the dots,
// bit 4 being the leftmost column:
//
//	Row:     . # . # .
//	Bits:    0 1 0 1 0
//	Byte:    0x0A
//
// This package provides:
//
// - Bit: a color type for a single lit or dark dot
// - BitModel: a color model converting standard Go colors to Bit
// - Glyph: a draw.Image of 5x8 dots, ready to be sent to CGRAM
//
// Example usage:
//
//	g, err := glyph.Parse([]string{
//		".....",
//		".#.#.",
//		".#.#.",
//		".....",
//		"#...#",
//		".###.",
//		".....",
//		".....",
//	})
//
//	// Use with standard Go image operations
//	draw.Draw(g, g.Bounds(), image.NewUniform(glyph.Lit), image.Point{}, draw.Src)
package glyph
