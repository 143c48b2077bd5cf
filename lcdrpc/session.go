package lcdrpc

import "sync"

// Display is what the service needs from the driver. *hd44780.Dev
// implements it.
type Display interface {
	Clear() error
	Reset() error
	SetCursorPosition(pos int) error
	WriteString(s string) (int, error)
}

// Session grants exclusive access to a Display. Callers queue on Do in no
// particular order and wait as long as it takes; there is no timeout.
type Session struct {
	mu sync.Mutex
	d  Display
}

// NewSession wraps d. d must not be used outside the session afterwards.
func NewSession(d Display) *Session {
	return &Session{d: d}
}

// Do runs fn with the display held exclusively and returns its error. The
// display is released when fn returns, even if it panics.
func (s *Session) Do(fn func(Display) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.d)
}
