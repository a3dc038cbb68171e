package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
	ErrNotFound     = errors.New("not found")
)

// opError tags an error with the handler operation that produced it.
type opError struct {
	Op   string
	Kind error
	Err  error
}

func (e *opError) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	case e.Kind != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	default:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *opError) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{Op: op, Kind: kind}
}

// Wrap tags err with op. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{Op: op, Err: err}
}

// WrapKind tags err with op and classifies it as kind.
func WrapKind(op string, kind, err error) error {
	return &opError{Op: op, Kind: kind, Err: err}
}
