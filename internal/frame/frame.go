// Package frame builds the fixed diagnostic Ethernet frame sent by l2send.
package frame

import (
	"fmt"
	"net"
)

const (
	// Size is the total length of every frame produced by Build.
	Size = 100
	// HeaderLen covers the destination and source MAC addresses.
	HeaderLen = 12
	// FillerLen is the number of synthetic payload bytes after the header.
	FillerLen = Size - HeaderLen
)

// Header holds the two hardware addresses written at the start of a frame.
type Header struct {
	Destination [6]byte
	Source      [6]byte
}

// DefaultHeader is the MAC pair used when nothing else is configured.
var DefaultHeader = Header{
	Destination: [6]byte{0x08, 0x00, 0x27, 0x01, 0x2d, 0x63},
	Source:      [6]byte{0x08, 0x00, 0x27, 0x9c, 0xcc, 0xde},
}

// Frame is a complete link-layer frame ready to hand to a raw socket.
type Frame []byte

// Build returns a fresh Size-byte frame: the header followed by filler bytes
// whose value equals their offset.
func Build(h Header) Frame {
	f := make(Frame, Size)
	copy(f[0:6], h.Destination[:])
	copy(f[6:12], h.Source[:])
	for i := HeaderLen; i < Size; i++ {
		f[i] = byte(i)
	}
	return f
}

// Default builds the frame for DefaultHeader.
func Default() Frame {
	return Build(DefaultHeader)
}

// HeaderFromAddrs converts two 6-byte hardware addresses into a Header.
func HeaderFromAddrs(dst, src net.HardwareAddr) (Header, error) {
	var h Header
	if len(dst) != 6 {
		return h, fmt.Errorf("destination %q is not a 6-byte MAC", dst.String())
	}
	if len(src) != 6 {
		return h, fmt.Errorf("source %q is not a 6-byte MAC", src.String())
	}
	copy(h.Destination[:], dst)
	copy(h.Source[:], src)
	return h, nil
}

// Header returns the hardware addresses carried by f.
func (f Frame) Header() Header {
	var h Header
	if len(f) < HeaderLen {
		return h
	}
	copy(h.Destination[:], f[0:6])
	copy(h.Source[:], f[6:12])
	return h
}

func (h Header) String() string {
	return fmt.Sprintf("%s > %s", net.HardwareAddr(h.Source[:]), net.HardwareAddr(h.Destination[:]))
}
