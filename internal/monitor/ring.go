package monitor

import "fmt"

// ringGeometry is the TPACKET_V3 layout handed to afpacket.
type ringGeometry struct {
	FrameSize int
	BlockSize int
	NumBlocks int
}

// computeRing sizes a PACKET_MMAP ring for snapLen-byte captures within a
// budget of bufferMB megabytes. The kernel requires frames aligned to
// TPACKET_ALIGNMENT and blocks that are a multiple of both the page size
// and the frame size.
func computeRing(bufferMB, snapLen, pageSize int) (ringGeometry, error) {
	const (
		tpacketAlignment = 16
		tpacketHdrLen    = 52 // TPACKET3_HDRLEN, rounded
		maxBlockSize     = 4 << 20
	)
	var g ringGeometry

	if bufferMB <= 0 {
		return g, fmt.Errorf("buffer size must be positive, got %d MB", bufferMB)
	}
	if snapLen <= 0 {
		return g, fmt.Errorf("snap length must be positive, got %d", snapLen)
	}
	if pageSize <= 0 || pageSize%tpacketAlignment != 0 {
		return g, fmt.Errorf("page size must be a positive multiple of %d, got %d", tpacketAlignment, pageSize)
	}

	g.FrameSize = alignUp(tpacketHdrLen+snapLen, tpacketAlignment)
	g.BlockSize = lcm(pageSize, g.FrameSize)
	if g.BlockSize > maxBlockSize {
		// Round frames up to whole pages so one frame per block stays aligned.
		g.FrameSize = alignUp(g.FrameSize, pageSize)
		g.BlockSize = g.FrameSize
	}

	g.NumBlocks = (bufferMB << 20) / g.BlockSize
	if g.NumBlocks < 1 {
		g.NumBlocks = 1
	}
	return g, nil
}

func alignUp(v, align int) int {
	return (v + align - 1) / align * align
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func lcm(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	return a / gcd(a, b) * b
}
