//go:build linux

package link

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Linux implements Platform with AF_PACKET sockets.
type Linux struct{}

// NewPlatform returns the Platform for the running OS.
func NewPlatform() Platform {
	return Linux{}
}

// InterfaceIndex issues request against a throwaway datagram socket so a
// missing interface is reported before any privileged socket is opened.
func (Linux) InterfaceIndex(name string, request uint) (int, error) {
	ifr, err := unix.NewIfreq(name)
	if err != nil {
		// Name empty or longer than IFNAMSIZ.
		return 0, opError("lookup "+name, ErrInterfaceNotFound, err)
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return 0, opError("lookup "+name, classify(err, ErrSocketUnavailable), err)
	}
	defer unix.Close(fd)

	if err := unix.IoctlIfreq(fd, request, ifr); err != nil {
		kind := classify(err, ErrInterfaceNotFound)
		return 0, opError("lookup "+name, kind, err)
	}
	return int(int32(ifr.Uint32())), nil
}

func (Linux) Open(protocol uint16) (Socket, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_CLOEXEC, int(htons(protocol)))
	if err != nil {
		return nil, opError("socket", classify(err, ErrSocketUnavailable), err)
	}
	return &packetSocket{fd: fd}, nil
}

func (Linux) Addr(index int, protocol uint16) LinkAddr {
	return LinkAddr{
		Family:   unix.AF_PACKET,
		Protocol: protocol,
		Ifindex:  index,
	}
}

type packetSocket struct {
	fd    int
	bound bool
}

func (s *packetSocket) Bind(addr LinkAddr) error {
	if s.fd < 0 {
		return opError("bind", ErrBindRejected, unix.EBADF)
	}
	sa, err := addr.sockaddr()
	if err != nil {
		return opError("bind", ErrBindRejected, err)
	}
	if err := unix.Bind(s.fd, sa); err != nil {
		return opError("bind", classify(err, ErrBindRejected), err)
	}
	s.bound = true
	return nil
}

func (s *packetSocket) Send(b []byte) (int, error) {
	if !s.bound {
		return 0, opError("send", ErrNotBound, nil)
	}
	n, err := unix.SendmsgN(s.fd, b, nil, nil, 0)
	if err != nil {
		return n, opError("send", classify(err, ErrTransmitFailure), err)
	}
	return n, nil
}

func (s *packetSocket) Close() error {
	if s.fd < 0 {
		return nil
	}
	fd := s.fd
	s.fd = -1
	s.bound = false
	return unix.Close(fd)
}

// classify maps an errno onto the error taxonomy, falling back to def.
func classify(err error, def error) error {
	switch {
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return ErrPermissionDenied
	case errors.Is(err, unix.EAFNOSUPPORT), errors.Is(err, unix.EPROTONOSUPPORT):
		return ErrSocketUnavailable
	}
	return def
}
