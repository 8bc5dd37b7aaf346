// Package monitor watches an interface for the frame l2send just sent.
//
// It taps the interface with a TPACKET_V3 ring and a kernel BPF filter so
// only copies of the outgoing frame reach user space. Seeing the frame means
// the kernel handed it to the device; it says nothing about the far end.
package monitor

import (
	"time"
)

// Config holds the observation settings.
type Config struct {
	Timeout      time.Duration
	SnapLen      int
	BufferSizeMB int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Timeout:      2 * time.Second,
		SnapLen:      128,
		BufferSizeMB: 1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.SnapLen <= 0 {
		c.SnapLen = d.SnapLen
	}
	if c.BufferSizeMB <= 0 {
		c.BufferSizeMB = d.BufferSizeMB
	}
	return c
}
