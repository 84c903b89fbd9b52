package shapefile

import (
	"errors"
	"fmt"
)

// ErrFormat matches every *FormatError with errors.Is.
var ErrFormat = errors.New("shapefile: invalid format")

// FormatError reports a malformed or unrecognized byte stream. Offset is the
// byte position in the stream where the problem was detected.
type FormatError struct {
	Offset int64
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := fmt.Sprintf("shapefile: %s at byte %d", e.Reason, e.Offset)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

func formatErr(off int64, reason string, args ...any) *FormatError {
	return &FormatError{Offset: off, Reason: fmt.Sprintf(reason, args...)}
}
