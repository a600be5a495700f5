package measurement

import (
	"fmt"

	"github.com/pkg/errors"
)

// Decode failure kinds. Match them with errors.Is.
var (
	ErrEncoding       = errors.New("payload is not valid UTF-8")
	ErrFormat         = errors.New("payload is not a valid JSON measurement")
	ErrIncompleteData = errors.New("measurement data is incomplete")

	errNotInteger = errors.New("value is not an integer")
	errOutOfRange = errors.New("value is out of range")
)

// DecodeError describes why an inbound payload was rejected.
type DecodeError struct {
	Kind  error  // one of ErrEncoding, ErrFormat, ErrIncompleteData
	Field string // offending key, empty when the whole payload is bad
	Err   error  // underlying parser error, may be nil
}

func (e *DecodeError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s (field %q)", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *DecodeError) Is(target error) bool {
	return target == e.Kind
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Reason returns a short label of the failure kind, used for metrics and logs.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrEncoding):
		return "encoding"
	case errors.Is(err, ErrIncompleteData):
		return "incomplete"
	case errors.Is(err, ErrFormat):
		return "format"
	}
	return "unknown"
}
