package lcdrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Success is the result of every successful call.
const Success = "success"

// ServiceName is the name the Service is registered under.
const ServiceName = "lcd"

// Params holds the raw params member of a call. Decoding is left to each
// method so that missing and malformed parameters are reported the same way
// whatever form they come in.
type Params struct {
	raw json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler. It never fails.
func (p *Params) UnmarshalJSON(b []byte) error {
	p.raw = append(p.raw[:0], b...)
	return nil
}

var errNoParams = errors.New("missing params")

// writeParams decodes {"position": n, "string": s} or [n, s]. Both fields are
// required; unknown object members are ignored.
func (p *Params) writeParams() (WriteParams, error) {
	raw := bytes.TrimSpace(p.raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return WriteParams{}, errNoParams
	}

	var fields struct {
		Position *int    `json:"position"`
		String   *string `json:"string"`
	}
	if raw[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return WriteParams{}, err
		}
		if len(list) != 2 {
			return WriteParams{}, fmt.Errorf("invalid length %d, expected 2 params", len(list))
		}
		if err := json.Unmarshal(list[0], &fields.Position); err != nil {
			return WriteParams{}, fmt.Errorf("position: %w", err)
		}
		if err := json.Unmarshal(list[1], &fields.String); err != nil {
			return WriteParams{}, fmt.Errorf("string: %w", err)
		}
	} else if err := json.Unmarshal(raw, &fields); err != nil {
		return WriteParams{}, err
	}

	switch {
	case fields.Position == nil:
		return WriteParams{}, errors.New(`missing field "position"`)
	case fields.String == nil:
		return WriteParams{}, errors.New(`missing field "string"`)
	}
	return WriteParams{Position: *fields.Position, String: *fields.String}, nil
}

// Service is the gorilla/rpc receiver serving write, clear and reset.
type Service struct {
	session *Session
}

// NewService returns a service working through session.
func NewService(session *Session) *Service {
	return &Service{session: session}
}

// Write moves the cursor to a position and writes a string there.
func (s *Service) Write(r *http.Request, args *Params, reply *string) error {
	p, err := args.writeParams()
	if err != nil {
		return decodeFailure(err)
	}
	if errs := Validate(p); len(errs) > 0 {
		return validationFailure(errs)
	}
	err = s.session.Do(func(d Display) error {
		if err := d.SetCursorPosition(p.Position); err != nil {
			return err
		}
		_, err := d.WriteString(p.String)
		return err
	})
	if err != nil {
		return internalFailure(err)
	}
	*reply = Success
	return nil
}

// Clear blanks the display and homes the cursor. Params are ignored.
func (s *Service) Clear(r *http.Request, args *Params, reply *string) error {
	return s.run(reply, func(d Display) error { return d.Clear() })
}

// Reset re-initializes the controller. Params are ignored.
func (s *Service) Reset(r *http.Request, args *Params, reply *string) error {
	return s.run(reply, func(d Display) error { return d.Reset() })
}

func (s *Service) run(reply *string, fn func(Display) error) error {
	if err := s.session.Do(fn); err != nil {
		return internalFailure(err)
	}
	*reply = Success
	return nil
}
