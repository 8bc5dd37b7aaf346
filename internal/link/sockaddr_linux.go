//go:build linux

package link

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// sockaddr converts a into the struct bind(2) takes. x/sys fills in the
// family and the hardware fields; the protocol goes out in network order.
func (a LinkAddr) sockaddr() (*unix.SockaddrLinklayer, error) {
	if a.Family != unix.AF_PACKET {
		return nil, fmt.Errorf("address family %d is not AF_PACKET: %w", a.Family, unix.EAFNOSUPPORT)
	}
	return &unix.SockaddrLinklayer{
		Protocol: htons(a.Protocol),
		Ifindex:  a.Ifindex,
	}, nil
}
