// Package link is the platform adaptation layer for link-layer raw sockets.
//
// FrameSender only talks to Platform and Socket. The Linux implementation
// lives in platform_linux.go; other systems get a stub that refuses every
// operation with ErrUnsupportedPlatform.
package link

// Platform resolves interfaces and opens raw link-layer sockets.
type Platform interface {
	// InterfaceIndex maps an interface name to its kernel index using the
	// given control request (SIOCGIFINDEX on Linux).
	InterfaceIndex(name string, request uint) (int, error)
	// Open creates a raw link-layer socket for the given protocol, in host
	// byte order.
	Open(protocol uint16) (Socket, error)
	// Addr builds the bind address for the interface at index.
	Addr(index int, protocol uint16) LinkAddr
}

// Socket is an open raw link-layer endpoint.
type Socket interface {
	// Bind restricts the socket to the interface described by addr.
	Bind(addr LinkAddr) error
	// Send transmits b in a single call and reports how many bytes the
	// kernel accepted.
	Send(b []byte) (int, error)
	Close() error
}

// LinkAddr is a portable description of a link-layer socket address. Each
// platform converts it to its own kernel structure when binding.
type LinkAddr struct {
	Family   uint16
	Protocol uint16 // host byte order
	Ifindex  int
}

// htons converts a short (uint16) from host-to-network byte order.
func htons(i uint16) uint16 {
	return (i<<8)&0xff00 | i>>8
}
