//go:build !linux

package monitor

import (
	"context"
	"fmt"
	"runtime"

	"firestige.xyz/l2send/internal/sender"
)

// Open reports that interface monitoring is not available on this OS.
func Open(cfg Config) func(ctx context.Context, iface string, frame []byte) (sender.Observer, error) {
	return func(ctx context.Context, iface string, frame []byte) (sender.Observer, error) {
		return nil, fmt.Errorf("interface monitoring not supported on %s", runtime.GOOS)
	}
}
