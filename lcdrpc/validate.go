package lcdrpc

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// WriteParams are the parameters of the write method.
type WriteParams struct {
	Position int    `json:"position" validate:"min=0,max=40"`
	String   string `json:"string" validate:"max=40"`
}

// FieldError is one failed check on WriteParams.
type FieldError struct {
	Field   string // JSON name of the field
	Message string
}

func (e FieldError) Error() string {
	return e.Message
}

// Reasons reported for each field, whatever the failing tag.
var fieldMessages = map[string]string{
	"position": "position not in range 0-40",
	"string":   "string length > 40 characters",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks p and returns every failure in field order: position first,
// then string. The string length is counted in characters, not bytes. A nil
// result means p is valid.
func Validate(p WriteParams) []FieldError {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Error()
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}
