package link

import (
	"errors"
	"fmt"
)

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrInterfaceNotFound   = errors.New("interface not found")
	ErrSocketUnavailable   = errors.New("raw socket unavailable")
	ErrBindRejected        = errors.New("bind rejected")
	ErrTransmitFailure     = errors.New("transmit failed")
	ErrNotBound            = errors.New("socket not bound")
	ErrUnsupportedPlatform = errors.New("raw link-layer sockets not supported on this platform")
)

// OpError records a failed socket step. errors.Is matches both the taxonomy
// sentinel in Kind and the underlying system error in Err.
type OpError struct {
	Op   string
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func opError(op string, kind, err error) error {
	return &OpError{Op: op, Kind: kind, Err: err}
}
