package hd44780

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/display/displaytest"
)

func TestTextDisplay(t *testing.T) {
	for _, opts := range []Opts{{Rows: 2, Cols: 16}, {Rows: 4, Cols: 20}} {
		dev, _ := newTestDev(t, &opts)
		t.Run(dev.String(), func(t *testing.T) {
			for _, err := range displaytest.TestTextDisplay(dev, false) {
				t.Error(err)
			}
		})
	}
}

func TestMoveTo(t *testing.T) {
	tests := []struct {
		row, col int
		want     byte
	}{
		{0, 0, 0x00},
		{0, 19, 0x13},
		{1, 0, 0x40},
		{2, 0, 0x14},
		{3, 19, 0x67},
	}

	dev, c := newTestDev(t, &Opts{Rows: 4, Cols: 20})
	for _, tt := range tests {
		if err := dev.MoveTo(tt.row, tt.col); err != nil {
			t.Fatalf("MoveTo(%d, %d) error = %v", tt.row, tt.col, err)
		}
		if got := c.State().Address; got != tt.want {
			t.Errorf("MoveTo(%d, %d) address = 0x%02X, want 0x%02X", tt.row, tt.col, got, tt.want)
		}
	}
}

func TestMoveToInvalid(t *testing.T) {
	dev, c := newTestDev(t, nil)
	c.ResetLog()
	for _, p := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 16}} {
		if err := dev.MoveTo(p[0], p[1]); !errors.Is(err, display.ErrInvalidCommand) {
			t.Errorf("MoveTo(%d, %d) error = %v, want ErrInvalidCommand", p[0], p[1], err)
		}
	}
	if c.Pulses() != 0 {
		t.Error("rejected MoveTo touched the bus")
	}
}

func TestMove(t *testing.T) {
	dev, c := newTestDev(t, nil)
	if err := dev.MoveTo(0, 5); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(display.Forward); err != nil {
		t.Fatal(err)
	}
	if got := c.State().Address; got != 0x06 {
		t.Errorf("address after Forward = 0x%02X, want 0x06", got)
	}
	if err := dev.Move(display.Backward); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(display.Down); err != nil {
		t.Fatal(err)
	}
	if got := c.State().Address; got != 0x45 {
		t.Errorf("address after Down = 0x%02X, want 0x45", got)
	}
	if err := dev.Move(display.Down); err == nil {
		t.Error("Move(Down) past the last row should fail")
	}
	if err := dev.Move(display.Up); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(display.Down + 1); !errors.Is(err, display.ErrInvalidCommand) {
		t.Errorf("Move(invalid) error = %v", err)
	}
}

func TestMoveAfterWrites(t *testing.T) {
	dev, c := newTestDev(t, nil)
	if err := dev.MoveTo(0, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := dev.WriteString("x"); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(display.Down); err != nil {
		t.Fatal(err)
	}
	if got := c.State().Address; got != 0x44 {
		t.Errorf("address after Down = 0x%02X, want 0x44", got)
	}

	// Past the visible window there is no row to move within.
	if err := dev.MoveTo(0, 14); err != nil {
		t.Fatal(err)
	}
	if _, err := dev.WriteString("ab"); err != nil {
		t.Fatal(err)
	}
	if err := dev.Move(display.Down); !errors.Is(err, display.ErrInvalidCommand) {
		t.Errorf("Move(Down) outside the window error = %v, want ErrInvalidCommand", err)
	}
}

func TestCursor(t *testing.T) {
	tests := []struct {
		name          string
		modes         []display.CursorMode
		cursor, blink bool
	}{
		{"off", []display.CursorMode{display.CursorOff}, false, false},
		{"underline", []display.CursorMode{display.CursorUnderline}, true, false},
		{"block", []display.CursorMode{display.CursorBlock}, false, true},
		{"blink", []display.CursorMode{display.CursorBlink}, false, true},
		{"underline and blink", []display.CursorMode{display.CursorUnderline, display.CursorBlink}, true, true},
		{"off resets", []display.CursorMode{display.CursorUnderline, display.CursorOff}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, c := newTestDev(t, nil)
			if err := dev.Cursor(tt.modes...); err != nil {
				t.Fatal(err)
			}
			st := c.State()
			if st.Cursor != tt.cursor || st.Blink != tt.blink {
				t.Errorf("cursor=%v blink=%v, want cursor=%v blink=%v", st.Cursor, st.Blink, tt.cursor, tt.blink)
			}
			if !st.Display {
				t.Error("Cursor turned the display off")
			}
		})
	}

	dev, _ := newTestDev(t, nil)
	if err := dev.Cursor(display.CursorBlink + 1); !errors.Is(err, display.ErrInvalidCommand) {
		t.Errorf("Cursor(invalid) error = %v", err)
	}
}

func TestDisplayOnOff(t *testing.T) {
	dev, c := newTestDev(t, nil)
	if _, err := dev.WriteString("kept"); err != nil {
		t.Fatal(err)
	}
	if err := dev.Display(false); err != nil {
		t.Fatal(err)
	}
	if c.State().Display {
		t.Error("display still on")
	}
	if err := dev.Display(true); err != nil {
		t.Fatal(err)
	}
	if !c.State().Display {
		t.Error("display still off")
	}
	if got := c.Text(0x00, 4); got != "kept" {
		t.Errorf("DDRAM = %q, want kept", got)
	}
}

func TestAutoScroll(t *testing.T) {
	dev, c := newTestDev(t, nil)
	if err := dev.AutoScroll(true); err != nil {
		t.Fatal(err)
	}
	if !c.State().Shift {
		t.Error("entry shift not set")
	}
	if _, err := dev.WriteString("abc"); err != nil {
		t.Fatal(err)
	}
	if got := c.State().ShiftOffset; got != 3 {
		t.Errorf("ShiftOffset = %d, want 3", got)
	}
	if err := dev.AutoScroll(false); err != nil {
		t.Fatal(err)
	}
	if c.State().Shift {
		t.Error("entry shift still set")
	}
}

func TestScrollDisplay(t *testing.T) {
	dev, c := newTestDev(t, nil)
	for range 3 {
		if err := dev.ScrollDisplay(false); err != nil {
			t.Fatal(err)
		}
	}
	if err := dev.ScrollDisplay(true); err != nil {
		t.Fatal(err)
	}
	if got := c.State().ShiftOffset; got != -2 {
		t.Errorf("ShiftOffset = %d, want -2", got)
	}
	if got := c.State().Address; got != 0 {
		t.Errorf("ScrollDisplay moved the cursor to 0x%02X", got)
	}
}
