package lcdrpc

import (
	"errors"
	"fmt"

	"github.com/gorilla/rpc/v2/json2"
)

// Kind classifies a Failure.
type Kind int

const (
	// KindDecode means the parameters were absent or could not be decoded.
	KindDecode Kind = iota + 1
	// KindValidation means the parameters decoded but are out of bounds.
	KindValidation
	// KindInternal is any other fault, typically from the bus.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindDecode:
		return "decode"
	case KindValidation:
		return "validation"
	case KindInternal:
		return "internal"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// CodeValidation is the application defined JSON-RPC error code for
// validation failures.
const CodeValidation json2.ErrorCode = 1

// Failure is the error returned by every Service method.
type Failure struct {
	Kind Kind
	Msg  string // Reported as the error data for decode and validation failures
	Err  error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("lcdrpc: %s: %v", f.Kind, f.Err)
	}
	return fmt.Sprintf("lcdrpc: %s: %s", f.Kind, f.Msg)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func decodeFailure(err error) *Failure {
	return &Failure{Kind: KindDecode, Msg: err.Error(), Err: err}
}

// validationFailure keeps only the first failing field.
func validationFailure(errs []FieldError) *Failure {
	return &Failure{Kind: KindValidation, Msg: errs[0].Message, Err: errs[0]}
}

func internalFailure(err error) *Failure {
	return &Failure{Kind: KindInternal, Err: err}
}

// WireError maps any error to the JSON-RPC error object sent to the caller.
// It is total: errors that are not a Failure are internal.
func WireError(err error) error {
	var je *json2.Error
	if errors.As(err, &je) {
		return je
	}
	var f *Failure
	if !errors.As(err, &f) {
		f = internalFailure(err)
	}
	switch f.Kind {
	case KindDecode:
		return &json2.Error{Code: json2.E_BAD_PARAMS, Message: "invalid params", Data: f.Msg}
	case KindValidation:
		return &json2.Error{Code: CodeValidation, Message: "validation error", Data: f.Msg}
	}
	cause := f.Err
	if cause == nil {
		cause = errors.New(f.Msg)
	}
	return &json2.Error{Code: json2.E_INTERNAL, Message: "internal error", Data: fmt.Sprintf("%+v", cause)}
}
