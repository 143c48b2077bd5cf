package hd44780

import (
	"fmt"

	"periph.io/x/conn/v3/display"
)

// Rows returns the number of visible rows.
func (d *Dev) Rows() int {
	return d.rows
}

// Cols returns the number of visible columns.
func (d *Dev) Cols() int {
	return d.cols
}

// MinRow returns the first row index. Rows are 0 based.
func (d *Dev) MinRow() int {
	return 0
}

// MinCol returns the first column index. Columns are 0 based.
func (d *Dev) MinCol() int {
	return 0
}

// MoveTo moves the cursor to a row and column of the visible window.
func (d *Dev) MoveTo(row, col int) error {
	if d.halted {
		return ErrHalted
	}
	if row < 0 || row >= d.rows || col < 0 || col >= d.cols {
		return fmt.Errorf("hd44780: position (%d, %d) outside %dx%d: %w", row, col, d.cols, d.rows, display.ErrInvalidCommand)
	}
	if err := d.sendCommand(cmdDDRAM | (rowOffsets[row] + byte(col))); err != nil {
		return err
	}
	d.addr = rowOffsets[row] + byte(col)
	return nil
}

// Move moves the cursor one cell. Forward and Backward use the controller's
// cursor shift; Up and Down keep the column and change the row.
func (d *Dev) Move(dir display.CursorDirection) error {
	if d.halted {
		return ErrHalted
	}
	switch dir {
	case display.Forward:
		if err := d.sendCommand(cmdShift | shiftRight); err != nil {
			return err
		}
		d.step(true)
	case display.Backward:
		if err := d.sendCommand(cmdShift); err != nil {
			return err
		}
		d.step(false)
	case display.Up, display.Down:
		row, col, ok := d.position()
		if !ok {
			return fmt.Errorf("hd44780: cursor at 0x%02X is outside the window: %w", d.addr, display.ErrInvalidCommand)
		}
		if dir == display.Up {
			return d.MoveTo(row-1, col)
		}
		return d.MoveTo(row+1, col)
	default:
		return fmt.Errorf("hd44780: move %d: %w", dir, display.ErrInvalidCommand)
	}
	return nil
}

// Cursor sets the cursor style. CursorOff hides both the underline and the
// blinking block; CursorUnderline shows the underline; CursorBlock and
// CursorBlink both turn on the blinking block, the only block the controller
// has. Modes are applied in order.
func (d *Dev) Cursor(modes ...display.CursorMode) error {
	if d.halted {
		return ErrHalted
	}
	m := d.mode
	for _, mode := range modes {
		switch mode {
		case display.CursorOff:
			m.Cursor, m.Blink = false, false
		case display.CursorUnderline:
			m.Cursor = true
		case display.CursorBlock, display.CursorBlink:
			m.Blink = true
		default:
			return fmt.Errorf("hd44780: cursor mode %d: %w", mode, display.ErrInvalidCommand)
		}
	}
	return d.SetMode(m)
}

// Display turns the characters on or off. DDRAM content is kept while off.
func (d *Dev) Display(on bool) error {
	m := d.mode
	m.Display = on
	return d.SetMode(m)
}

// AutoScroll makes the display shift with every character written, so the
// cursor stays put on screen and text scrolls from the right.
func (d *Dev) AutoScroll(enabled bool) error {
	if d.halted {
		return ErrHalted
	}
	if enabled {
		d.entry |= entryShift
	} else {
		d.entry &^= entryShift
	}
	return d.sendCommand(cmdEntry | d.entry)
}

// ScrollDisplay shifts the whole display one cell left or right without
// touching DDRAM. It brings characters written past the visible window into
// view.
func (d *Dev) ScrollDisplay(right bool) error {
	if d.halted {
		return ErrHalted
	}
	c := byte(cmdShift | shiftDisplay)
	if right {
		c |= shiftRight
	}
	return d.sendCommand(c)
}

var _ display.TextDisplay = &Dev{}
