package client

import (
	"errors"
	"fmt"
)

var (
	ErrTransport       = errors.New("transport error")
	ErrParse           = errors.New("parse error")
	ErrInvalidResponse = errors.New("invalid response")
	ErrTimeout         = errors.New("operation timeout")
	ErrInput           = errors.New("invalid input")
)

// TransportError covers connection failures, non-2xx responses and
// websocket handshake or frame errors.
type TransportError struct {
	Op         string
	URL        string
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s %s: status %d: %s", e.Op, e.URL, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: status %d", e.Op, e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
	}
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

type ParseError struct {
	What string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.What, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// InputError reports a user supplied value (range, size, path, option)
// that failed validation.
type InputError struct {
	Value  string
	Reason string
}

func (e *InputError) Error() string {
	if e.Value == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid input '%s': %s", e.Value, e.Reason)
}

func (e *InputError) Is(target error) bool { return target == ErrInput }

func NewInputError(value, reason string) *InputError {
	return &InputError{Value: value, Reason: reason}
}

func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

func IsParse(err error) bool {
	return errors.Is(err, ErrParse)
}

func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

func IsInvalidResponse(err error) bool {
	return errors.Is(err, ErrInvalidResponse)
}

func IsInput(err error) bool {
	return errors.Is(err, ErrInput)
}
