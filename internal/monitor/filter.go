package monitor

import (
	"fmt"

	"golang.org/x/net/bpf"
)

// matchLen is how much of the frame the filter compares: both MACs and the
// two bytes a receiver reads as EtherType.
const matchLen = 14

// matchProgram accepts packets whose first len(prefix) bytes equal prefix
// and truncates them to snapLen. Everything else is dropped in the kernel.
func matchProgram(prefix []byte, snapLen uint32) ([]bpf.Instruction, error) {
	if len(prefix) == 0 || len(prefix) > 64 {
		return nil, fmt.Errorf("filter prefix must be 1..64 bytes, got %d", len(prefix))
	}

	type word struct {
		off  uint32
		size int
		val  uint32
	}
	var words []word
	for off := 0; off < len(prefix); {
		size := 4
		if rem := len(prefix) - off; rem < 4 {
			size = 1
			if rem >= 2 {
				size = 2
			}
		}
		var val uint32
		for _, b := range prefix[off : off+size] {
			val = val<<8 | uint32(b)
		}
		words = append(words, word{off: uint32(off), size: size, val: val})
		off += size
	}

	n := len(words)
	prog := make([]bpf.Instruction, 0, 2*n+2)
	for i, w := range words {
		prog = append(prog,
			bpf.LoadAbsolute{Off: w.off, Size: w.size},
			// On mismatch skip the remaining compares and the accept.
			bpf.JumpIf{Cond: bpf.JumpEqual, Val: w.val, SkipFalse: uint8(2*(n-1-i) + 1)},
		)
	}
	prog = append(prog,
		bpf.RetConstant{Val: snapLen},
		bpf.RetConstant{Val: 0},
	)
	return prog, nil
}

// Filter assembles the kernel filter matching frame.
func Filter(frame []byte, snapLen uint32) ([]bpf.RawInstruction, error) {
	n := matchLen
	if len(frame) < n {
		n = len(frame)
	}
	prog, err := matchProgram(frame[:n], snapLen)
	if err != nil {
		return nil, err
	}
	raw, err := bpf.Assemble(prog)
	if err != nil {
		return nil, fmt.Errorf("assemble filter: %w", err)
	}
	return raw, nil
}
