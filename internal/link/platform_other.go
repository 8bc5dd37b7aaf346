//go:build !linux

package link

import (
	"fmt"
	"runtime"
)

// Unsupported is the Platform used where raw link-layer sockets are not
// implemented.
type Unsupported struct{}

func NewPlatform() Platform {
	return Unsupported{}
}

func (Unsupported) InterfaceIndex(name string, request uint) (int, error) {
	return 0, opError("lookup "+name, ErrUnsupportedPlatform, fmt.Errorf("GOOS=%s", runtime.GOOS))
}

func (Unsupported) Open(protocol uint16) (Socket, error) {
	return nil, opError("socket", ErrUnsupportedPlatform, fmt.Errorf("GOOS=%s", runtime.GOOS))
}

func (Unsupported) Addr(index int, protocol uint16) LinkAddr {
	return LinkAddr{Protocol: protocol, Ifindex: index}
}
