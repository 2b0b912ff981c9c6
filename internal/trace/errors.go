package trace

import (
	"errors"
	"fmt"
)

// ErrMalformedLine matches every *MalformedLineError via errors.Is.
var ErrMalformedLine = errors.New("malformed trace line")

// MalformedLineError reports a line that carries an event marker but lacks the
// field the event needs, or whose field is not an integer.
type MalformedLineError struct {
	Line   int
	Field  int
	Text   string
	Reason string
	Err    error
}

func (e *MalformedLineError) Error() string {
	msg := fmt.Sprintf("line %d: field %d: %s", e.Line, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedLineError) Unwrap() error { return e.Err }

func (e *MalformedLineError) Is(target error) bool { return target == ErrMalformedLine }
