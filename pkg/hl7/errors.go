package hl7

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrInvalidIndex     = errors.New("invalid index")
	ErrInvalidMutation  = errors.New("invalid structural mutation")
	ErrCrossTree        = errors.New("elements do not share an ancestor")
)

// PathError records the element and operation that failed.
type PathError struct {
	Op  string // "get", "set", "move", "insert", "delete"
	Key string // key of the element the operation started from
	Err error
}

func (e *PathError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Errorf builds a PathError wrapping kind with a formatted detail.
func Errorf(op, key string, kind error, format string, args ...any) error {
	return &PathError{
		Op:  op,
		Key: key,
		Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...)),
	}
}
