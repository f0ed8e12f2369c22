package scene

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedRecord is matched by every *MalformedRecordError.
	ErrMalformedRecord = errors.New("malformed scene record")

	// ErrUnreadable wraps failures of the underlying record stream.
	ErrUnreadable = errors.New("unreadable scene")

	// ErrInvalidBank is returned when an AES50 bank is not A or B.
	ErrInvalidBank = errors.New("invalid AES50 bank: must be A or B")

	// ErrUnknownType is returned by list queries for a type with no fixed size.
	ErrUnknownType = errors.New("unknown port type")
)

// MalformedRecordError reports a channel or output record whose fields do
// not fit its shape. It aborts the whole parse.
type MalformedRecordError struct {
	Kind   Kind
	Line   int
	Record []string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record on line %d: %s: %q",
		e.Kind, e.Line, e.Reason, strings.Join(e.Record, " "))
}

// Is makes errors.Is(err, ErrMalformedRecord) true for any malformed record.
func (e *MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}

func malformed(kind Kind, line int, record []string, format string, args ...any) *MalformedRecordError {
	rec := make([]string, len(record))
	copy(rec, record)
	return &MalformedRecordError{
		Kind:   kind,
		Line:   line,
		Record: rec,
		Reason: fmt.Sprintf(format, args...),
	}
}
